// Package sheetid reads the identifier printed on an answer sheet as a QR code.
package sheetid

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNoCode is returned when no QR code could be decoded.
var ErrNoCode = errors.New("no sheet code found")

// DefaultMaxWidth bounds the width of the image handed to the QR decoder.
const DefaultMaxWidth = 1600

// QRReader decodes the sheet QR code.
type QRReader struct {
	// Images wider than MaxWidth are downscaled before decoding. Zero
	// disables scaling.
	MaxWidth int
}

// NewQRReader creates a reader with default settings.
func NewQRReader() *QRReader {
	return &QRReader{MaxWidth: DefaultMaxWidth}
}

// Decode returns the text of the first QR code found in img. The image is
// tried as-is, then as a contrast-stretched grayscale copy.
func (r *QRReader) Decode(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	var errs []error
	for _, candidate := range r.variants(img) {
		text, err := decodeQR(candidate)
		if err == nil {
			return text, nil
		}
		errs = append(errs, err)
	}
	return "", fmt.Errorf("%w: %v", ErrNoCode, errors.Join(errs...))
}

func (r *QRReader) variants(img image.Image) []image.Image {
	if r.MaxWidth > 0 && img.Bounds().Dx() > r.MaxWidth {
		img = imaging.Resize(img, r.MaxWidth, 0, imaging.Lanczos)
	}
	gray := imaging.AdjustContrast(imaging.Grayscale(img), 40)
	return []image.Image{img, gray}
}

func decodeQR(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to create bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(result.GetText())
	if text == "" {
		return "", fmt.Errorf("empty QR payload")
	}
	return text, nil
}
