package models

import "time"

// PlateResult is the recognized text for one plate crop.
type PlateResult struct {
	ID         int64       `json:"id"`
	RunID      int64       `json:"run_id"`
	Image      string      `json:"image"`
	PlateText  string      `json:"plate_text"`
	TextPath   string      `json:"text_path"`
	Characters []Detection `json:"characters,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// PlateFilter contains filtering options for querying plate results.
type PlateFilter struct {
	RunID  int64
	Image  string
	Text   string
	Limit  int
	Offset int
}

// PlateStats contains statistics about stored plate results.
type PlateStats struct {
	TotalResults int         `json:"total_results"`
	Recognized   int         `json:"recognized"`
	Empty        int         `json:"empty"`
	TotalRuns    int         `json:"total_runs"`
	ByLength     map[int]int `json:"by_length"`
}
