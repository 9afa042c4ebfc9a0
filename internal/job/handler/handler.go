package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safereturn/internal/job/models"
	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
	"safereturn/pkg/platform/httputil"
	"safereturn/pkg/requestcontext"
)

// Service defines the job board operations the handler needs.
type Service interface {
	Post(ctx context.Context, title, company, description string, city id.City, linkURL string) (*models.JobOpportunity, error)
	Browse(ctx context.Context, city id.City) ([]*models.JobOpportunity, error)
	Deactivate(ctx context.Context, jobID id.JobID) error
}

type Handler struct {
	jobs   Service
	logger *slog.Logger
}

func New(jobs Service, logger *slog.Logger) *Handler {
	return &Handler{jobs: jobs, logger: logger}
}

type postJobRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company,omitempty"`
	Description string `json:"description,omitempty"`
	City        string `json:"city"`
	LinkURL     string `json:"link_url,omitempty"`
}

// Post publishes a job opportunity. Admin only.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req postJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	job, err := h.jobs.Post(ctx, req.Title, req.Company, req.Description, id.City(req.City), req.LinkURL)
	if err != nil {
		h.logger.WarnContext(ctx, "job posting failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, job)
}

// Browse lists active jobs, optionally filtered by ?city=.
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	list, err := h.jobs.Browse(r.Context(), id.City(r.URL.Query().Get("city")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"jobs": list})
}

// Deactivate pulls a listing off the board. Admin only.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.jobs.Deactivate(ctx, jobID); err != nil {
		h.logger.WarnContext(ctx, "job deactivation failed",
			"request_id", requestcontext.RequestID(ctx),
			"job_id", jobID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
