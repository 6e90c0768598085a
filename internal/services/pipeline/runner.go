// Package pipeline chains the detector stages over directories of images.
//
// Each stage reads every image of its input directory, strictly one after the
// other, and writes its artifacts for the next stage. A failing image is logged
// and skipped; it never aborts the stage.
package pipeline

import (
	"context"
	"fmt"
	"image"

	"platereader/internal/logger"
	"platereader/internal/models"
	"platereader/internal/services/imageio"
)

// Detector finds labeled boxes in an image. The ai package provides the
// model-backed implementations.
type Detector interface {
	Detect(img image.Image, minConfidence float64) ([]models.Detection, error)
}

// Stage is one step of the pipeline.
type Stage interface {
	Name() string
	InputDir() string
	// Begin is called once before the first image of a non-empty input.
	Begin() error
	// Process handles a single decoded image and returns the written artifacts.
	Process(ctx context.Context, path string, img image.Image) ([]string, error)
	// End is called after the last image, also when the run was cancelled.
	End() error
}

// StageReport summarizes one stage execution.
type StageReport struct {
	Stage     string   `json:"stage"`
	Images    int      `json:"images"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Outputs   []string `json:"outputs"`
}

// Runner drives a stage over its input directory.
type Runner struct {
	logger *logger.Logger
}

func NewRunner(logger *logger.Logger) *Runner {
	return &Runner{logger: logger}
}

// RunStage processes the images of stage.InputDir() in natural order. The
// returned report covers the images handled before a cancellation, in which
// case the context error is returned alongside it.
func (r *Runner) RunStage(ctx context.Context, stage Stage) (StageReport, error) {
	report := StageReport{Stage: stage.Name()}

	paths, err := imageio.ListImages(stage.InputDir())
	if err != nil {
		return report, fmt.Errorf("failed to list %s: %w", stage.InputDir(), err)
	}
	if len(paths) == 0 {
		r.logger.Warning("[%s] No images found in %s", stage.Name(), stage.InputDir())
		return report, nil
	}

	if err := stage.Begin(); err != nil {
		return report, fmt.Errorf("failed to start stage %s: %w", stage.Name(), err)
	}

	var runErr error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			r.logger.Warning("[%s] Cancelled after %d of %d images", stage.Name(), report.Images, len(paths))
			runErr = err
			break
		}

		report.Images++
		outputs, err := r.processImage(ctx, stage, path)
		if err != nil {
			report.Failed++
			r.logger.Error("[%s] Failed on %s: %v", stage.Name(), path, err)
			continue
		}
		report.Succeeded++
		report.Outputs = append(report.Outputs, outputs...)
	}

	if err := stage.End(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to finish stage %s: %w", stage.Name(), err)
	}

	r.logger.Info("[%s] %d images, %d succeeded, %d failed, %d outputs",
		stage.Name(), report.Images, report.Succeeded, report.Failed, len(report.Outputs))
	return report, runErr
}

func (r *Runner) processImage(ctx context.Context, stage Stage, path string) (outputs []string, err error) {
	// panics from detector bindings count as a failed image
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	img, err := imageio.Load(path)
	if err != nil {
		return nil, err
	}
	return stage.Process(ctx, path, img)
}
