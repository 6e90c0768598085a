package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"platereader/internal/models"
)

// PlateRepository implements repository.PlateRepository for SQLite.
type PlateRepository struct {
	db *DB
}

// NewPlateRepository creates a new SQLite plate result repository.
func NewPlateRepository(db *DB) *PlateRepository {
	return &PlateRepository{db: db}
}

// Insert stores a result and its characters in a single transaction.
func (r *PlateRepository) Insert(result *models.PlateResult) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO plate_results (run_id, image, plate_text, text_path, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, nullableID(result.RunID), result.Image, result.PlateText, result.TextPath, result.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert plate result: %w", err)
	}

	resultID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	if len(result.Characters) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO characters (result_id, position, label, left_px, top_px, right_px, bottom_px, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, c := range result.Characters {
			if _, err := stmt.Exec(resultID, i, c.Label, c.Left, c.Top, c.Right, c.Bottom, c.Confidence); err != nil {
				return 0, fmt.Errorf("failed to insert character: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result.ID = resultID
	return resultID, nil
}

// GetByID retrieves a result with its characters in plate order.
func (r *PlateRepository) GetByID(id int64) (*models.PlateResult, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var res models.PlateResult
	var runID sql.NullInt64
	err := r.db.Conn().QueryRow(`
		SELECT id, run_id, image, plate_text, text_path, created_at
		FROM plate_results WHERE id = ?
	`, id).Scan(&res.ID, &runID, &res.Image, &res.PlateText, &res.TextPath, &res.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plate result: %w", err)
	}
	res.RunID = runID.Int64

	rows, err := r.db.Conn().Query(`
		SELECT label, left_px, top_px, right_px, bottom_px, confidence
		FROM characters WHERE result_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query characters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Detection
		if err := rows.Scan(&c.Label, &c.Left, &c.Top, &c.Right, &c.Bottom, &c.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		res.Characters = append(res.Characters, c)
	}

	return &res, rows.Err()
}

// whereClause builds the shared filter for GetAll and GetTotalCount.
func whereClause(filter *models.PlateFilter) (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}

	if filter == nil {
		return query, args
	}

	if filter.RunID > 0 {
		query += " AND run_id = ?"
		args = append(args, filter.RunID)
	}

	if filter.Image != "" {
		query += " AND image LIKE ?"
		args = append(args, "%"+filter.Image+"%")
	}

	if filter.Text != "" {
		query += " AND plate_text LIKE ?"
		args = append(args, "%"+filter.Text+"%")
	}

	return query, args
}

// GetAll retrieves results matching filter, newest first. Characters are not loaded.
func (r *PlateRepository) GetAll(filter *models.PlateFilter) ([]models.PlateResult, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	query := `SELECT id, run_id, image, plate_text, text_path, created_at FROM plate_results` + where
	query += " ORDER BY id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plate results: %w", err)
	}
	defer rows.Close()

	var results []models.PlateResult
	for rows.Next() {
		var res models.PlateResult
		var runID sql.NullInt64
		if err := rows.Scan(&res.ID, &runID, &res.Image, &res.PlateText, &res.TextPath, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plate result: %w", err)
		}
		res.RunID = runID.Int64
		results = append(results, res)
	}

	return results, rows.Err()
}

// GetTotalCount returns the number of results matching filter.
func (r *PlateRepository) GetTotalCount(filter *models.PlateFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM plate_results`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count plate results: %w", err)
	}
	return count, nil
}

// GetStats returns statistics about stored results.
func (r *PlateRepository) GetStats() (*models.PlateStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &models.PlateStats{
		ByLength: make(map[int]int),
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM plate_results`).Scan(&stats.TotalResults); err != nil {
		return nil, err
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM plate_results WHERE plate_text = ''`).Scan(&stats.Empty); err != nil {
		return nil, err
	}
	stats.Recognized = stats.TotalResults - stats.Empty

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&stats.TotalRuns); err != nil {
		return nil, err
	}

	rows, err := r.db.Conn().Query(`SELECT LENGTH(plate_text), COUNT(*) FROM plate_results GROUP BY LENGTH(plate_text)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var length, count int
		if err := rows.Scan(&length, &count); err != nil {
			return nil, err
		}
		stats.ByLength[length] = count
	}

	return stats, rows.Err()
}

// DeleteAll removes all results and their characters.
func (r *PlateRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM characters`); err != nil {
		return fmt.Errorf("failed to delete characters: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM plate_results`); err != nil {
		return fmt.Errorf("failed to delete plate results: %w", err)
	}

	return nil
}

func nullableID(id int64) interface{} {
	if id <= 0 {
		return nil
	}
	return id
}
