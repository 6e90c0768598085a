package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"platereader/internal/dto"
	"platereader/internal/logger"
	"platereader/internal/models"
	"platereader/internal/repository"
	"platereader/internal/services"
	"platereader/internal/services/pipeline"
)

// RunSubmitter queues pipeline runs. *services.Manager implements it.
type RunSubmitter interface {
	Submit(stages []string) (*models.Run, error)
	Current() *models.Run
}

// RunsHandler lists runs on GET and queues a new run on POST. The optional
// "stage" parameter restricts the run to a comma separated list of stages.
func RunsHandler(manager RunSubmitter, runs repository.RunRepository, stages []string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			limit := atoiDefault(r.URL.Query().Get("limit"), 20)
			list, err := runs.GetAll(limit)
			if err != nil {
				logger.Error("Error querying runs: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if list == nil {
				list = []models.Run{}
			}
			writeJSON(w, http.StatusOK, dto.RunsData{Runs: list, Current: manager.Current(), Stages: stages}, logger)

		case http.MethodPost:
			run, err := manager.Submit(pipeline.ParseStages(r.FormValue("stage")))
			if errors.Is(err, services.ErrQueueFull) {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			logger.Info("Run %d requested from %s", run.ID, r.RemoteAddr)
			writeJSON(w, http.StatusAccepted, run, logger)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// GetRunHandler returns one run selected by "id".
func GetRunHandler(runs repository.RunRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "id parameter is required", http.StatusBadRequest)
			return
		}

		run, err := runs.GetByID(id)
		if err != nil {
			logger.Error("Error loading run %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if run == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, run, logger)
	}
}
