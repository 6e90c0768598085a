package ai

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"platereader/internal/logger"
	"platereader/internal/models"

	"github.com/otiai10/gosseract/v2"
)

// PlateWhitelist lists the glyphs a plate can carry.
const PlateWhitelist = "ABCDEFGHJKLMNPQRSTUVWXYZ0123456789-"

// TesseractDetector reports one box per recognized symbol. It is a fallback
// character backend for setups without a trained character model.
type TesseractDetector struct {
	client    *gosseract.Client
	whitelist string
	logger    *logger.Logger
	mu        sync.Mutex
}

// NewTesseractDetector creates a client limited to the given whitelist.
// An empty whitelist selects PlateWhitelist.
func NewTesseractDetector(whitelist string, logger *logger.Logger) (*TesseractDetector, error) {
	if whitelist == "" {
		whitelist = PlateWhitelist
	}

	client := gosseract.NewClient()
	if err := client.SetWhitelist(whitelist); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	logger.Info("Tesseract %s initialized for character detection", client.Version())
	return &TesseractDetector{
		client:    client,
		whitelist: whitelist,
		logger:    logger,
	}, nil
}

// Detect runs OCR on img and returns symbols with confidence >= minConfidence.
func (d *TesseractDetector) Detect(img image.Image, minConfidence float64) ([]models.Detection, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	boxes, err := d.client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol boxes: %w", err)
	}

	return symbolDetections(boxes, minConfidence), nil
}

// symbolDetections converts Tesseract boxes, whose confidence is a percentage.
func symbolDetections(boxes []gosseract.BoundingBox, minConfidence float64) []models.Detection {
	results := make([]models.Detection, 0, len(boxes))
	for _, b := range boxes {
		label := strings.TrimSpace(b.Word)
		if label == "" {
			continue
		}
		conf := b.Confidence / 100
		if conf < minConfidence {
			continue
		}
		results = append(results, models.Detection{
			Left:       float64(b.Box.Min.X),
			Top:        float64(b.Box.Min.Y),
			Right:      float64(b.Box.Max.X),
			Bottom:     float64(b.Box.Max.Y),
			Confidence: conf,
			Label:      label,
		})
	}
	return results
}

// Close releases the Tesseract client.
func (d *TesseractDetector) Close() error {
	return d.client.Close()
}
