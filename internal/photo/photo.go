// Package photo loads photographed or scanned answer sheets from disk.
package photo

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
)

// Photo is a loaded sheet image.
type Photo struct {
	Path   string      // Original file path
	Image  image.Image // Decoded pixels, EXIF orientation applied
	Format string      // Decoder name: "jpeg", "png" or "tiff"
}

// Load reads an image file. JPEG photos are rotated according to their EXIF
// orientation tag so the pixels match what the camera showed.
func Load(path string) (*Photo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	p, err := Decode(file)
	if err != nil {
		return nil, err
	}
	p.Path = path
	return p, nil
}

// Decode reads an image from r.
func Decode(r io.ReadSeeker) (*Photo, error) {
	_, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind image: %w", err)
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &Photo{Image: img, Format: format}, nil
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if a file path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range SupportedFormats() {
		if ext == f {
			return true
		}
	}
	return false
}

// ListDir returns the supported image files directly inside dir, sorted by name.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedFormat(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
