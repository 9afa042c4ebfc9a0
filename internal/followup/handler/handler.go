package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"safereturn/internal/followup/models"
	"safereturn/internal/followup/risk"
	"safereturn/internal/followup/service"
	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
	"safereturn/pkg/platform/httputil"
	"safereturn/pkg/requestcontext"
)

// Service defines the case progression operations the handler needs.
type Service interface {
	CreateProfile(ctx context.Context, personID id.PersonID, releaseDate, followupEnd time.Time, city id.City, notes string) (*models.Case, error)
	AssignCaseworker(ctx context.Context, caseID id.CaseID, caseworkerID id.PersonID) (*models.Case, error)
	CompleteCase(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	GetCaseByPerson(ctx context.Context, personID id.PersonID) (*models.Case, error)
	GetDashboard(ctx context.Context, caseID id.CaseID) (*service.Dashboard, error)
	Summary(ctx context.Context, caseID id.CaseID) (*risk.Summary, error)
	ListForCaseworker(ctx context.Context, caseworkerID id.PersonID) ([]*models.Case, error)
	ListAllCases(ctx context.Context) ([]*models.Case, error)
	SubmitCheckin(ctx context.Context, caseID id.CaseID, input service.CheckinInput) (*service.ProcessingResult, error)
}

type Handler struct {
	followup Service
	logger   *slog.Logger
}

func New(followup Service, logger *slog.Logger) *Handler {
	return &Handler{followup: followup, logger: logger}
}

type createProfileRequest struct {
	PersonID        string `json:"person_id"`
	ReleaseDate     string `json:"release_date"`
	FollowupEndDate string `json:"followup_end_date,omitempty"`
	City            string `json:"city"`
	Notes           string `json:"notes,omitempty"`
}

// CreateProfile opens a follow-up case for a beneficiary. Admin only.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	personID, err := id.ParsePersonID(req.PersonID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	release, err := parseDate(req.ReleaseDate, "release_date")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var followupEnd time.Time
	if req.FollowupEndDate != "" {
		if followupEnd, err = parseDate(req.FollowupEndDate, "followup_end_date"); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	c, err := h.followup.CreateProfile(ctx, personID, release, followupEnd, id.City(req.City), req.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "profile creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"person_id", personID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, c)
}

// MyDashboard returns the authenticated beneficiary's own case dashboard.
func (h *Handler) MyDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, err := h.followup.GetCaseByPerson(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dashboard, err := h.followup.GetDashboard(ctx, c.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dashboard)
}

type checkinRequest struct {
	MonthIndex    int    `json:"month_index"`
	HousingStatus string `json:"housing_status"`
	JobStatus     string `json:"job_status"`
	MentalState   string `json:"mental_state"`
	FamilyStatus  string `json:"family_status"`
	Notes         string `json:"notes,omitempty"`
}

// SubmitCheckin records the authenticated beneficiary's monthly check-in
// against their own case and runs the full processing pipeline.
func (h *Handler) SubmitCheckin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	c, err := h.followup.GetCaseByPerson(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.followup.SubmitCheckin(ctx, c.ID, service.CheckinInput{
		MonthIndex:    req.MonthIndex,
		HousingStatus: req.HousingStatus,
		JobStatus:     req.JobStatus,
		MentalState:   req.MentalState,
		FamilyStatus:  req.FamilyStatus,
		Notes:         req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "check-in failed",
			"request_id", requestcontext.RequestID(ctx),
			"case_id", c.ID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// ListCases returns the caseworker's assigned cases, or every case for an
// admin.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		cases []*models.Case
		err   error
	)
	if requestcontext.ActorRole(ctx) == id.RoleAdmin {
		cases, err = h.followup.ListAllCases(ctx)
	} else {
		cases, err = h.followup.ListForCaseworker(ctx, requestcontext.ActorID(ctx))
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"cases": cases})
}

// GetDashboard returns the full dashboard for one case.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dashboard, err := h.followup.GetDashboard(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dashboard)
}

// GetSummary returns the risk summary for one case.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary, err := h.followup.Summary(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// Complete marks a case completed.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.followup.CompleteCase(ctx, caseID)
	if err != nil {
		h.logger.WarnContext(ctx, "case completion failed",
			"request_id", requestcontext.RequestID(ctx),
			"case_id", caseID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

type assignRequest struct {
	CaseworkerID string `json:"caseworker_id"`
}

// Assign sets the caseworker on a case. Admin only.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	caseworkerID, err := id.ParsePersonID(req.CaseworkerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.followup.AssignCaseworker(ctx, caseID, caseworkerID)
	if err != nil {
		h.logger.WarnContext(ctx, "caseworker assignment failed",
			"request_id", requestcontext.RequestID(ctx),
			"case_id", caseID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func parseDate(s, field string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, field+" must be a YYYY-MM-DD date")
	}
	return t, nil
}
