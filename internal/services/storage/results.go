package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"platereader/internal/models"
)

// ResultsFile is the aggregate table written next to the per-image text files.
const ResultsFile = "results.csv"

// ResultsHeader is the first row of ResultsFile.
var ResultsHeader = []string{"image", "plate_text"}

// ResultWriter persists plate text: one text file per plate crop plus one
// row per crop in ResultsFile.
type ResultWriter struct {
	outputDir string
	file      *os.File
	csv       *csv.Writer
	rows      int
	mu        sync.Mutex
}

func NewResultWriter(outputDir string) *ResultWriter {
	return &ResultWriter{outputDir: outputDir}
}

// OutputDir returns the directory receiving the artifacts.
func (w *ResultWriter) OutputDir() string {
	return w.outputDir
}

// Open creates the output directory and starts a fresh results table.
func (w *ResultWriter) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return fmt.Errorf("results table already open")
	}
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(filepath.Join(w.outputDir, ResultsFile))
	if err != nil {
		return fmt.Errorf("failed to create results table: %w", err)
	}
	w.file = file
	w.csv = csv.NewWriter(file)
	w.rows = 0

	if err := w.csv.Write(ResultsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// WriteText writes text to name inside the output directory, returning the path.
// The file holds exactly the bytes of text.
func (w *ResultWriter) WriteText(name, text string) (string, error) {
	path := filepath.Join(w.outputDir, filepath.Base(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// Record appends one row for the result and flushes it, so a crash mid batch
// keeps every finished row.
func (w *ResultWriter) Record(result *models.PlateResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.csv == nil {
		return fmt.Errorf("results table not open")
	}
	if err := w.csv.Write([]string{result.Image, result.PlateText}); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush row: %w", err)
	}
	w.rows++
	return nil
}

// Rows returns the number of rows recorded since Open.
func (w *ResultWriter) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Close flushes and closes the results table.
func (w *ResultWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()
	w.file = nil
	w.csv = nil

	if flushErr != nil {
		return fmt.Errorf("failed to flush results table: %w", flushErr)
	}
	return closeErr
}

// ReadText returns the content of a per-image text file.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadResults parses a results table, skipping the header row.
func ReadResults(path string) ([][2]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s has no header", path)
	}
	if len(records[0]) != len(ResultsHeader) || records[0][0] != ResultsHeader[0] || records[0][1] != ResultsHeader[1] {
		return nil, fmt.Errorf("%s: unexpected header %v", path, records[0])
	}

	rows := make([][2]string, 0, len(records)-1)
	for _, r := range records[1:] {
		rows = append(rows, [2]string{r[0], r[1]})
	}
	return rows, nil
}
