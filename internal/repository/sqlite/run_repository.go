package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"platereader/internal/models"
)

// RunRepository implements repository.RunRepository for SQLite.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Insert records a run and sets its ID.
func (r *RunRepository) Insert(run *models.Run) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = models.RunQueued
	}

	result, err := r.db.Conn().Exec(`
		INSERT INTO runs (stages, status, started_at)
		VALUES (?, ?, ?)
	`, run.Stages, run.Status, run.StartedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	run.ID = id
	return id, nil
}

// Finish stores the final status and counters of a run.
func (r *RunRepository) Finish(run *models.Run) error {
	r.db.Lock()
	defer r.db.Unlock()

	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	res, err := r.db.Conn().Exec(`
		UPDATE runs SET status = ?, images = ?, succeeded = ?, failed = ?, started_at = ?, finished_at = ?
		WHERE id = ?
	`, run.Status, run.Images, run.Succeeded, run.Failed, run.StartedAt, run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d not found", run.ID)
	}
	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id int64) (*models.Run, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	run, err := scanRun(r.db.Conn().QueryRow(`
		SELECT id, stages, status, images, succeeded, failed, started_at, finished_at
		FROM runs WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetAll returns the most recent runs first. limit <= 0 returns every run.
func (r *RunRepository) GetAll(limit int) ([]models.Run, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT id, stages, status, images, succeeded, failed, started_at, finished_at
		FROM runs ORDER BY id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var run models.Run
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &run.Stages, &run.Status, &run.Images, &run.Succeeded, &run.Failed, &run.StartedAt, &finished); err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}
