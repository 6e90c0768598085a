// Package imageio holds the file and pixel helpers shared by the pipeline stages.
package imageio

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"platereader/internal/models"

	"github.com/disintegration/imaging"
)

// Load decodes an image file.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return img, nil
}

// Save encodes img by the extension of path and creates missing directories.
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to write image %s: %w", path, err)
	}
	return nil
}

// ClampBox converts a detection to integer pixel bounds inside img. The result
// is empty when the box lies outside the image or has no area.
func ClampBox(img image.Image, det models.Detection) image.Rectangle {
	if det.Degenerate() {
		return image.Rectangle{}
	}
	r := image.Rect(
		int(math.Trunc(det.Left)),
		int(math.Trunc(det.Top)),
		int(math.Trunc(det.Right)),
		int(math.Trunc(det.Bottom)),
	)
	return r.Intersect(img.Bounds())
}

// Crop cuts the clamped detection box out of img. ok is false for empty boxes.
func Crop(img image.Image, det models.Detection) (crop *image.NRGBA, ok bool) {
	r := ClampBox(img, det)
	if r.Empty() {
		return nil, false
	}
	return imaging.Crop(img, r), true
}

// Normalize resizes img to a size x size square with cubic interpolation and
// converts it to grayscale.
func Normalize(img image.Image, size int) *image.NRGBA {
	resized := imaging.Resize(img, size, size, imaging.CatmullRom)
	return imaging.Grayscale(resized)
}
