package ai

import (
	"image"

	"platereader/internal/models"
)

// Detector is a trained model that finds labeled boxes in an image.
type Detector interface {
	Detect(img image.Image, minConfidence float64) ([]models.Detection, error)
	Close() error
}
