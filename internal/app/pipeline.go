package app

import (
	"fmt"

	"platereader/internal/config"
	"platereader/internal/logger"
	"platereader/internal/services/ai"
	"platereader/internal/services/ai/postprocess"
	"platereader/internal/services/pipeline"
	"platereader/internal/services/plate"
	"platereader/internal/services/storage"
)

// Detectors owns the models loaded for a pipeline.
type Detectors []ai.Detector

// Close releases every model.
func (d Detectors) Close() error {
	var firstErr error
	for _, det := range d {
		if err := det.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BuildPipeline loads the models of the requested stages (all when empty) and
// wires the stages to the configured directories. Recorders receive every
// plate result of the character stage.
func BuildPipeline(cfg *config.Config, logger *logger.Logger, only []string, recorders ...pipeline.Recorder) (*pipeline.Pipeline, Detectors, error) {
	want := map[string]bool{}
	for _, name := range only {
		switch name {
		case pipeline.StageCar, pipeline.StagePlate, pipeline.StageCharacters:
			want[name] = true
		default:
			return nil, nil, fmt.Errorf("unknown stage %q", name)
		}
	}
	enabled := func(name string) bool { return len(want) == 0 || want[name] }

	var (
		stages    []pipeline.Stage
		detectors Detectors
	)
	fail := func(err error) (*pipeline.Pipeline, Detectors, error) {
		detectors.Close()
		return nil, nil, err
	}

	if enabled(pipeline.StageCar) {
		det, err := ai.NewYOLODetector(ai.YOLOOptions{
			ModelPath:    cfg.CarModelPath,
			Labels:       []string{"car"},
			InputSize:    cfg.InputSize,
			NMSThreshold: cfg.NMSThreshold,
		}, logger)
		if err != nil {
			return fail(fmt.Errorf("car model: %w", err))
		}
		detectors = append(detectors, det)
		stages = append(stages, pipeline.NewCarStage(det, pipeline.CarOptions{
			InputDir:   cfg.RawDirectory,
			OutputDir:  cfg.CarDirectory,
			Confidence: cfg.CarConfidence,
		}, logger))
	}

	if enabled(pipeline.StagePlate) {
		det, err := ai.NewYOLODetector(ai.YOLOOptions{
			ModelPath:    cfg.PlateModelPath,
			Labels:       []string{"plate"},
			InputSize:    cfg.InputSize,
			NMSThreshold: cfg.NMSThreshold,
		}, logger)
		if err != nil {
			return fail(fmt.Errorf("plate model: %w", err))
		}
		detectors = append(detectors, det)
		stages = append(stages, pipeline.NewPlateStage(det, pipeline.PlateOptions{
			InputDir:   cfg.CarDirectory,
			OutputDir:  cfg.PlateDirectory,
			Confidence: cfg.PlateConfidence,
			MinWidth:   cfg.MinPlateWidth,
			Size:       cfg.PlateSize,
		}, logger))
	}

	if enabled(pipeline.StageCharacters) {
		det, err := newCharacterDetector(cfg, logger)
		if err != nil {
			return fail(fmt.Errorf("character model: %w", err))
		}
		detectors = append(detectors, det)
		stages = append(stages, pipeline.NewCharacterStage(det, storage.NewResultWriter(cfg.CharDirectory), pipeline.CharacterOptions{
			InputDir:   cfg.PlateDirectory,
			Confidence: cfg.CharConfidence,
			Format:     plate.Taiwan,
		}, logger, recorders...))
	}

	return pipeline.New(pipeline.NewRunner(logger), stages...), detectors, nil
}

func newCharacterDetector(cfg *config.Config, logger *logger.Logger) (ai.Detector, error) {
	switch cfg.CharBackend {
	case config.BackendTesseract:
		return ai.NewTesseractDetector(ai.PlateWhitelist, logger)
	case config.BackendYOLO, "":
		labels, err := postprocess.LoadLabels(cfg.CharLabelsPath)
		if err != nil {
			return nil, err
		}
		return ai.NewYOLODetector(ai.YOLOOptions{
			ModelPath:    cfg.CharModelPath,
			Labels:       labels,
			InputSize:    cfg.InputSize,
			NMSThreshold: cfg.NMSThreshold,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown character backend %q", cfg.CharBackend)
	}
}
