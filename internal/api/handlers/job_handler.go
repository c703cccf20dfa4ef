package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/jobboard-be/internal/auth"
	"github.com/isdelr/jobboard-be/internal/metrics"
	"github.com/isdelr/jobboard-be/internal/models"
	"github.com/isdelr/jobboard-be/internal/services"
)

// AppliedNotifier is told about every recorded application so other open
// sessions of the same user can update.
type AppliedNotifier interface {
	PublishApplied(userID, jobKey string)
}

// JobHandler handles HTTP requests for listings and applications.
type JobHandler struct {
	service  services.JobServiceProvider
	notifier AppliedNotifier
}

// NewJobHandler creates a new JobHandler. notifier may be nil.
func NewJobHandler(service services.JobServiceProvider, notifier AppliedNotifier) *JobHandler {
	return &JobHandler{service: service, notifier: notifier}
}

// MarkAppliedResponse is returned after recording an application.
type MarkAppliedResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Job     *models.AppliedJob `json:"job,omitempty"`
}

// IsAppliedResponse reports the application status of one job.
type IsAppliedResponse struct {
	IsApplied bool `json:"isApplied"`
}

// GetAll handles the request to list every job.
func (h *JobHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve job listings")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// Get handles the request to get a single listing by its key.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	job, err := h.service.GetJob(r.Context(), key)
	switch {
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, "Invalid job key")
		return
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "Job not found.")
		return
	case err != nil:
		log.Error().Err(err).Str("job_key", key).Msg("Failed to retrieve job details")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// MarkApplied records that the caller applied to a job.
func (h *JobHandler) MarkApplied(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload models.JobApplication
	if err := decodeJSON(w, r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, MarkAppliedResponse{Message: "Invalid request body"})
		return
	}

	applied, err := h.service.MarkApplied(r.Context(), claims.UserID, payload)
	if errors.Is(err, services.ErrValidation) {
		writeJSON(w, http.StatusBadRequest, MarkAppliedResponse{Message: "A valid jobKey is required"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Str("job_key", payload.JobKey).Msg("Failed to mark job as applied")
		writeJSON(w, http.StatusInternalServerError, MarkAppliedResponse{Message: "Database operation failed."})
		return
	}

	metrics.ObserveApplied()
	if h.notifier != nil {
		h.notifier.PublishApplied(claims.UserID, applied.JobKey)
	}
	writeJSON(w, http.StatusOK, MarkAppliedResponse{Success: true, Message: "Job marked as applied.", Job: &applied})
}

// IsApplied reports whether the caller has marked a job as applied.
func (h *JobHandler) IsApplied(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	key := chi.URLParam(r, "key")
	applied, err := h.service.IsApplied(r.Context(), claims.UserID, key)
	if errors.Is(err, services.ErrValidation) {
		writeError(w, http.StatusBadRequest, "Invalid job key")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("job_key", key).Msg("Failed to check application status")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, IsAppliedResponse{IsApplied: applied})
}
