package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safereturn/internal/ticket/models"
	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
	"safereturn/pkg/platform/httputil"
	"safereturn/pkg/requestcontext"
)

// Service defines the ticket operations the handler needs.
type Service interface {
	CreateManual(ctx context.Context, caseID id.CaseID, category models.Category, notes string) (*models.SupportTicket, error)
	UpdateStatus(ctx context.Context, ticketID id.TicketID, status models.Status) (*models.SupportTicket, error)
	ListForCase(ctx context.Context, caseID id.CaseID) ([]*models.SupportTicket, error)
}

type Handler struct {
	tickets Service
	logger  *slog.Logger
}

func New(tickets Service, logger *slog.Logger) *Handler {
	return &Handler{tickets: tickets, logger: logger}
}

type createTicketRequest struct {
	Category string `json:"category"`
	Notes    string `json:"notes,omitempty"`
}

// Create opens a manual ticket against a case.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ticket, err := h.tickets.CreateManual(ctx, caseID, category, req.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "ticket creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"case_id", caseID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, ticket)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus applies a status transition to a ticket.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ticketID, err := id.ParseTicketID(chi.URLParam(r, "ticketID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ticket, err := h.tickets.UpdateStatus(ctx, ticketID, status)
	if err != nil {
		h.logger.WarnContext(ctx, "ticket status update failed",
			"request_id", requestcontext.RequestID(ctx),
			"ticket_id", ticketID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ticket)
}

// ListForCase returns a case's tickets, newest first.
func (h *Handler) ListForCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.tickets.ListForCase(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"tickets": list})
}
