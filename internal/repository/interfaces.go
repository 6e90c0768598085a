package repository

import (
	"platereader/internal/models"
)

// PlateRepository defines the interface for plate result operations.
type PlateRepository interface {
	// Create operations
	Insert(result *models.PlateResult) (int64, error)

	// Read operations
	GetByID(id int64) (*models.PlateResult, error)
	GetAll(filter *models.PlateFilter) ([]models.PlateResult, error)
	GetTotalCount(filter *models.PlateFilter) (int, error)
	GetStats() (*models.PlateStats, error)

	// Delete operations
	DeleteAll() error
}

// RunRepository defines the interface for pipeline run bookkeeping.
type RunRepository interface {
	Insert(run *models.Run) (int64, error)
	Finish(run *models.Run) error
	GetByID(id int64) (*models.Run, error)
	GetAll(limit int) ([]models.Run, error)
}
