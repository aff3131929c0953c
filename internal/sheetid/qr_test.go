package sheetid

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// renderQR draws a QR code for text at (x, y) on a white w x h page.
func renderQR(t *testing.T, text string, w, h, x, y, size int) *image.Gray {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	page := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(page, page.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(page, image.Rect(x, y, x+size, y+size), matrix, image.Point{}, draw.Src)
	return page
}

func TestQRReader_Decode(t *testing.T) {
	page := renderQR(t, "STU-2024-0042", 600, 800, 350, 40, 200)

	text, err := NewQRReader().Decode(page)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "STU-2024-0042" {
		t.Errorf("got %q", text)
	}
}

func TestQRReader_Downscale(t *testing.T) {
	page := renderQR(t, "LARGE-PAGE", 2400, 3400, 1800, 100, 500)

	r := &QRReader{MaxWidth: 1200}
	text, err := r.Decode(page)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "LARGE-PAGE" {
		t.Errorf("got %q", text)
	}
}

func TestQRReader_NoCode(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 200, 200))
	draw.Draw(blank, blank.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	if _, err := NewQRReader().Decode(blank); !errors.Is(err, ErrNoCode) {
		t.Errorf("got %v, want ErrNoCode", err)
	}
}
