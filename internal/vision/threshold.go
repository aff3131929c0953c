package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// TwoTone reduces src to a single-channel image holding only 0 and 255.
// Pixels brighter than level become white.
func TwoTone(src gocv.Mat, level uint8) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.Mat{}, fmt.Errorf("empty input image")
	}

	gray := src
	if src.Channels() > 1 {
		gray = gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	}

	dst := gocv.NewMat()
	gocv.Threshold(gray, &dst, float32(level), 255, gocv.ThresholdBinary)
	return dst, nil
}

// MatToGray copies a single-channel 8-bit Mat into an image.Gray.
func MatToGray(mat gocv.Mat) (*image.Gray, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty input image")
	}
	if mat.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("expected 8-bit single channel image, got type %v", mat.Type())
	}

	w, h := mat.Cols(), mat.Rows()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x := range row {
			row[x] = mat.GetUCharAt(y, x)
		}
	}
	return img, nil
}

// ImageToMat converts a Go image to a BGR Mat.
func ImageToMat(img image.Image) (gocv.Mat, error) {
	if img == nil {
		return gocv.Mat{}, fmt.Errorf("nil image")
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat, nil
}
