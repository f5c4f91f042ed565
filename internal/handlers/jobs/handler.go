package jobs

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/handlers"
	"gitlab.com/renderfarm.net/internal/handlers/response"
	"gitlab.com/renderfarm.net/internal/static/errs"
)

// JobHandler handles job API requests
type JobHandler struct {
	engine handlers.Engine
	logger primary.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(engine handlers.Engine, logger primary.Logger) *JobHandler {
	return &JobHandler{
		engine: engine,
		logger: logger,
	}
}

// RegisterRoutes registers the API routes for JobHandler
func (h *JobHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/jobs", h.CreateJob).Methods("POST")
	router.HandleFunc("/api/jobs", h.ListJobs).Methods("GET")
	router.HandleFunc("/api/jobs/{jobId:[0-9]+}", h.GetJob).Methods("GET")
	router.HandleFunc("/api/jobs/{jobId:[0-9]+}", h.DeleteJob).Methods("DELETE")
}

// CreateJob handles job creation requests
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		handlers.ResponseError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	job := req.toJob()
	var (
		jobID int32
		err   error
	)
	if doErr := h.engine.Do(r.Context(), func() {
		jobID, err = h.engine.Jobs().AddJob(job)
	}); doErr != nil {
		handlers.ResponseFromError(w, doErr)
		return
	}
	if err != nil {
		h.logger.Error("Failed to create job", "error", err)
		handlers.ResponseFromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, CreateJobResponse{JobID: jobID})
}

// ListJobs returns every job in queue order
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	body, err := handlers.Encode(r.Context(), h.engine, func() (interface{}, error) {
		return map[string]interface{}{"jobs": h.engine.Jobs().ListJobs()}, nil
	})
	if err != nil {
		h.logger.Error("Failed to list jobs", "error", err)
		handlers.ResponseFromError(w, err)
		return
	}
	response.WriteRaw(w, http.StatusOK, body)
}

// GetJob handles job retrieval requests
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := handlers.PathID(r, "jobId")
	if !ok {
		handlers.ResponseError(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	body, err := handlers.Encode(r.Context(), h.engine, func() (interface{}, error) {
		job, ok := h.engine.Jobs().GetJob(jobID)
		if !ok {
			return nil, errs.ErrJobNotFound
		}
		return job, nil
	})
	if err != nil {
		handlers.ResponseFromError(w, err)
		return
	}
	response.WriteRaw(w, http.StatusOK, body)
}

// DeleteJob stops the running tasks of a job and removes it
func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := handlers.PathID(r, "jobId")
	if !ok {
		handlers.ResponseError(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	var deleted bool
	if err := h.engine.Do(r.Context(), func() {
		deleted = h.engine.Jobs().DeleteJob(jobID)
	}); err != nil {
		handlers.ResponseFromError(w, err)
		return
	}
	if !deleted {
		handlers.ResponseError(w, "Job not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
