package main

import (
	"fmt"

	"gocv.io/x/gocv"

	"omr-grader/internal/photo"
	"omr-grader/internal/vision"
)

// loadMat reads a sheet photo into a BGR Mat.
func loadMat(path string) (gocv.Mat, error) {
	p, err := photo.Load(path)
	if err != nil {
		return gocv.Mat{}, err
	}
	mat, err := vision.ImageToMat(p.Image)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to convert %s: %w", path, err)
	}
	return mat, nil
}
