// Package ocr reads the printed sheet code when no QR code can be decoded.
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"omr-grader/pkg/geometry"
)

// SheetCodeChars is the character set printed in sheet codes.
// Lowercase is excluded to reduce confusion (0/O, 1/I, etc.)
const SheetCodeChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ-"

// MinTextHeight is the height small regions are upscaled to before OCR.
const MinTextHeight = 150

// Engine provides OCR functionality using Tesseract.
type Engine struct {
	client *gosseract.Client
}

// NewEngine creates a new OCR engine.
func NewEngine() (*Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Sheet codes are not words; keep Tesseract from "correcting" them.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Engine{client: client}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// RecognizeRegion performs OCR on a region of an image and returns the
// cleaned sheet code.
func (e *Engine) RecognizeRegion(img image.Image, bounds geometry.RectInt) (string, error) {
	processed, err := PreprocessRegion(img, bounds)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, processed); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	// PSM 7 = treat the image as a single text line
	if err := e.client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := e.client.SetWhitelist(SheetCodeChars); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return CleanCode(text), nil
}

// PreprocessRegion crops bounds out of img, converts it to grayscale,
// upscales short crops to MinTextHeight and stretches the contrast.
func PreprocessRegion(img image.Image, bounds geometry.RectInt) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	rect := bounds.Rectangle().Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("invalid region bounds")
	}

	region := imaging.Crop(img, rect)
	if h := region.Bounds().Dy(); h < MinTextHeight {
		region = imaging.Resize(region, 0, MinTextHeight, imaging.CatmullRom)
	}
	region = imaging.Grayscale(region)
	region = imaging.AdjustContrast(region, 30)
	return region, nil
}

// CleanCode upper-cases OCR output and drops whitespace and characters that
// never appear in sheet codes.
func CleanCode(text string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(text) {
		if strings.ContainsRune(SheetCodeChars, r) {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}
