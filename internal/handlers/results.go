package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"platereader/internal/dto"
	"platereader/internal/logger"
	"platereader/internal/models"
	"platereader/internal/repository"
)

// GetResultsHandler returns stored plate results, newest first, filtered by
// the "image", "text" and "run" query parameters and paginated by "page" and
// "limit". Response is JSON of type ResultsPage.
func GetResultsHandler(plates repository.PlateRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &models.PlateFilter{
			RunID:  int64(atoiDefault(q.Get("run"), 0)),
			Image:  q.Get("image"),
			Text:   q.Get("text"),
			Limit:  limit,
			Offset: (page - 1) * limit,
		}

		results, err := plates.GetAll(filter)
		if err != nil {
			logger.Error("Error querying plate results: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := plates.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting plate results: %v", err)
			totalCount = len(results)
		}

		if results == nil {
			results = []models.PlateResult{}
		}
		data := dto.ResultsPage{
			Results:     results,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		writeJSON(w, http.StatusOK, data, logger)
	}
}

// GetResultHandler returns one result with its character boxes, selected by "id".
func GetResultHandler(plates repository.PlateRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "id parameter is required", http.StatusBadRequest)
			return
		}

		result, err := plates.GetByID(id)
		if err != nil {
			logger.Error("Error loading plate result %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if result == nil {
			http.NotFound(w, r)
			return
		}

		writeJSON(w, http.StatusOK, result, logger)
	}
}

// GetStatsHandler returns aggregate statistics about stored results.
func GetStatsHandler(plates repository.PlateRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := plates.GetStats()
		if err != nil {
			logger.Error("Error getting stats: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats, logger)
	}
}

// ClearResultsHandler deletes every stored result. Artifacts on disk are kept.
func ClearResultsHandler(plates repository.PlateRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := plates.DeleteAll(); err != nil {
			logger.Error("Error clearing results: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		logger.Info("All plate results cleared from database")
		w.WriteHeader(http.StatusNoContent)
	}
}

// helpers

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
