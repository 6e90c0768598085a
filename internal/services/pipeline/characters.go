package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"platereader/internal/logger"
	"platereader/internal/models"
	"platereader/internal/services/imageio"
	"platereader/internal/services/plate"
	"platereader/internal/services/storage"
)

// CharacterOptions configures the character stage.
type CharacterOptions struct {
	InputDir   string
	Confidence float64
	Format     plate.Format
}

// CharacterStage reads plate crops, assembles the plate text and persists it
// through a storage.ResultWriter and any registered recorders.
type CharacterStage struct {
	inputDir   string
	detector   Detector
	confidence float64
	recognizer *plate.Recognizer
	writer     *storage.ResultWriter
	recorders  []Recorder
	logger     *logger.Logger
}

// NewCharacterStage creates the stage. A zero opts.Format selects plate.Taiwan.
func NewCharacterStage(detector Detector, writer *storage.ResultWriter, opts CharacterOptions, logger *logger.Logger, recorders ...Recorder) *CharacterStage {
	format := opts.Format
	if format.Separator == "" {
		format = plate.Taiwan
	}
	return &CharacterStage{
		inputDir:   opts.InputDir,
		detector:   detector,
		confidence: opts.Confidence,
		recognizer: plate.NewRecognizer(format),
		writer:     writer,
		recorders:  recorders,
		logger:     logger,
	}
}

func (s *CharacterStage) Name() string     { return StageCharacters }
func (s *CharacterStage) InputDir() string { return s.inputDir }

// AddRecorder registers another sink for finished results.
func (s *CharacterStage) AddRecorder(r Recorder) {
	s.recorders = append(s.recorders, r)
}

// Begin starts a fresh results table.
func (s *CharacterStage) Begin() error {
	return s.writer.Open()
}

// End flushes the results table.
func (s *CharacterStage) End() error {
	return s.writer.Close()
}

// Process recognizes one plate crop. An empty plate text still produces a text
// file and a results row.
func (s *CharacterStage) Process(ctx context.Context, path string, img image.Image) ([]string, error) {
	detections, err := s.detector.Detect(img, s.confidence)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	chars := s.recognizer.Characters(detections)
	text := plate.Text(chars)

	textPath, err := s.writer.WriteText(TextName(path), text)
	if err != nil {
		return nil, err
	}

	result := &models.PlateResult{
		RunID:      RunIDFromContext(ctx),
		Image:      filepath.Base(path),
		PlateText:  text,
		TextPath:   textPath,
		Characters: chars,
	}
	if err := s.writer.Record(result); err != nil {
		return []string{textPath}, err
	}
	s.logger.Info("[%s] Wrote: %s -> %q", StageCharacters, textPath, text)

	for _, r := range s.recorders {
		if err := r.Record(result); err != nil {
			s.logger.Error("[%s] Recorder failed for %s: %v", StageCharacters, result.Image, err)
		}
	}
	return []string{textPath}, nil
}

// TextName maps a plate crop path to its text artifact name: the numeric
// token, the characters tag and whatever followed the plate tag.
//
//	003_d(crop_plate)_2.png -> 003_e(characters)_2.txt
func TextName(path string) string {
	base := imageio.BaseNoExt(path)
	token := imageio.NumericToken(base)

	suffix := ""
	if parts := strings.Split(base, "_"+PlateTag); len(parts) == 2 {
		suffix = parts[1]
	}
	return token + "_" + CharTag + suffix + ".txt"
}
