package pipeline

import (
	"context"

	"platereader/internal/models"
	"platereader/internal/repository"
)

// Recorder receives every finished plate result.
type Recorder interface {
	Record(result *models.PlateResult) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(result *models.PlateResult) error

func (f RecorderFunc) Record(result *models.PlateResult) error {
	return f(result)
}

// RepositoryRecorder stores results in a PlateRepository.
type RepositoryRecorder struct {
	repo repository.PlateRepository
}

func NewRepositoryRecorder(repo repository.PlateRepository) *RepositoryRecorder {
	return &RepositoryRecorder{repo: repo}
}

func (r *RepositoryRecorder) Record(result *models.PlateResult) error {
	_, err := r.repo.Insert(result)
	return err
}

type runIDKey struct{}

// WithRunID tags the results produced under ctx with a run ID.
func WithRunID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run ID set by WithRunID, or 0.
func RunIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(runIDKey{}).(int64)
	return id
}
