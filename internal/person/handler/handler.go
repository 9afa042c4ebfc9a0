package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safereturn/internal/person/models"
	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
	"safereturn/pkg/platform/httputil"
	"safereturn/pkg/requestcontext"
)

// Service defines the person registry operations the handler needs.
type Service interface {
	Register(ctx context.Context, nationalID, fullName string, role id.Role, phone string) (*models.Person, error)
	Get(ctx context.Context, personID id.PersonID) (*models.Person, error)
	Delete(ctx context.Context, personID id.PersonID) error
}

type Handler struct {
	persons Service
	logger  *slog.Logger
}

func New(persons Service, logger *slog.Logger) *Handler {
	return &Handler{persons: persons, logger: logger}
}

type registerRequest struct {
	NationalID string `json:"national_id"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
	Phone      string `json:"phone,omitempty"`
}

// Register creates a person record. Admin only.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	role, err := id.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	person, err := h.persons.Register(ctx, req.NationalID, req.FullName, role, req.Phone)
	if err != nil {
		h.logger.WarnContext(ctx, "person registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, person)
}

// Get returns one person by ID.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	person, err := h.persons.Get(r.Context(), personID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, person)
}

// Delete erases a person and everything hanging off them. Admin only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.persons.Delete(ctx, personID); err != nil {
		h.logger.WarnContext(ctx, "person deletion failed",
			"request_id", requestcontext.RequestID(ctx),
			"person_id", personID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
