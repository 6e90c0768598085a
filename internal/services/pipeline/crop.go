package pipeline

import (
	"context"
	"fmt"
	"image"
	"math"
	"path/filepath"

	"platereader/internal/logger"
	"platereader/internal/services/imageio"
)

// Stage names.
const (
	StageCar        = "car"
	StagePlate      = "plate"
	StageCharacters = "characters"
)

// Artifact name tags, placed between the numeric token and the crop index.
const (
	CarTag   = "b(crop_car)"
	PlateTag = "d(crop_plate)"
	CharTag  = "e(characters)"
)

// CropStage cuts detected boxes out of every input image.
type CropStage struct {
	name       string
	inputDir   string
	outputDir  string
	detector   Detector
	confidence float64
	logger     *logger.Logger

	tag string
	ext string
	// minWidth drops boxes whose truncated width is not above it; 0 keeps all.
	minWidth int
	// size > 0 resizes each crop to a size x size grayscale square.
	size int
	// countKept numbers outputs by kept crops instead of detection position.
	countKept bool
}

// CarOptions configures the car crop stage.
type CarOptions struct {
	InputDir   string
	OutputDir  string
	Confidence float64
}

// NewCarStage writes one {token}_b(crop_car)_{n}.jpg per detected vehicle, n being
// the 1-based position of the detection.
func NewCarStage(detector Detector, opts CarOptions, logger *logger.Logger) *CropStage {
	return &CropStage{
		name:       StageCar,
		inputDir:   opts.InputDir,
		outputDir:  opts.OutputDir,
		detector:   detector,
		confidence: opts.Confidence,
		logger:     logger,
		tag:        CarTag,
		ext:        ".jpg",
	}
}

// PlateOptions configures the plate crop stage.
type PlateOptions struct {
	InputDir   string
	OutputDir  string
	Confidence float64
	MinWidth   int
	Size       int
}

// NewPlateStage writes one normalized {token}_d(crop_plate)_{n}.png per kept
// plate box, n counting kept boxes only.
func NewPlateStage(detector Detector, opts PlateOptions, logger *logger.Logger) *CropStage {
	return &CropStage{
		name:       StagePlate,
		inputDir:   opts.InputDir,
		outputDir:  opts.OutputDir,
		detector:   detector,
		confidence: opts.Confidence,
		logger:     logger,
		tag:        PlateTag,
		ext:        ".png",
		minWidth:   opts.MinWidth,
		size:       opts.Size,
		countKept:  true,
	}
}

func (s *CropStage) Name() string      { return s.name }
func (s *CropStage) InputDir() string  { return s.inputDir }
func (s *CropStage) OutputDir() string { return s.outputDir }

func (s *CropStage) Begin() error { return nil }
func (s *CropStage) End() error   { return nil }

// Process detects, crops and saves. An image without detections is not a failure.
func (s *CropStage) Process(_ context.Context, path string, img image.Image) ([]string, error) {
	detections, err := s.detector.Detect(img, s.confidence)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	token := imageio.NumericToken(imageio.BaseNoExt(path))
	if len(detections) == 0 {
		s.logger.Warning("[%s] No %s detected: %s", s.name, s.name, path)
		return nil, nil
	}

	var outputs []string
	kept := 0
	for i, det := range detections {
		if s.minWidth > 0 && int(math.Trunc(det.Right))-int(math.Trunc(det.Left)) <= s.minWidth {
			s.logger.Warning("[%s] Skipping narrow box %.0f px in %s", s.name, det.Width(), path)
			continue
		}

		crop, ok := imageio.Crop(img, det)
		if !ok {
			s.logger.Warning("[%s] Skipping empty box #%d in %s", s.name, i+1, path)
			continue
		}
		kept++

		var out image.Image = crop
		if s.size > 0 {
			out = imageio.Normalize(crop, s.size)
		}

		n := i + 1
		if s.countKept {
			n = kept
		}
		outPath := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s_%d%s", token, s.tag, n, s.ext))
		if err := imageio.Save(outPath, out); err != nil {
			return outputs, err
		}
		s.logger.Info("[%s] Wrote: %s", s.name, outPath)
		outputs = append(outputs, outPath)
	}

	if kept == 0 {
		s.logger.Warning("[%s] No usable %s box in %s", s.name, s.name, path)
	}
	return outputs, nil
}
