// ResultsPage is a paginated response payload for stored plate results.
package dto

import "platereader/internal/models"

type ResultsPage struct {
	Results     []models.PlateResult `json:"results"`
	Length      int                  `json:"length"`
	TotalPages  int                  `json:"totalPages"`
	CurrentPage int                  `json:"currentPage"`
	Limit       int                  `json:"pageSize"`
}
