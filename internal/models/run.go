package models

import "time"

// Run statuses.
const (
	RunQueued   = "queued"
	RunRunning  = "running"
	RunFinished = "finished"
	RunFailed   = "failed"
)

// Run records one pipeline execution.
type Run struct {
	ID         int64     `json:"id"`
	Stages     string    `json:"stages"`
	Status     string    `json:"status"`
	Images     int       `json:"images"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
