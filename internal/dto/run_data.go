// RunsData lists recorded pipeline runs and the one in progress.
package dto

import "platereader/internal/models"

type RunsData struct {
	Runs    []models.Run `json:"runs"`
	Current *models.Run  `json:"current,omitempty"`
	Stages  []string     `json:"stages"`
}
