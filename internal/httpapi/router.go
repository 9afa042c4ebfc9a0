// Package httpapi owns the route table: which handler serves which path and
// which role may call it. Handlers stay routing-agnostic; all middleware and
// role gating is composed here.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "safereturn/internal/auth/handler"
	followuphandler "safereturn/internal/followup/handler"
	jobhandler "safereturn/internal/job/handler"
	notifhandler "safereturn/internal/notification/handler"
	personhandler "safereturn/internal/person/handler"
	"safereturn/internal/platform/middleware"
	tickethandler "safereturn/internal/ticket/handler"
	id "safereturn/pkg/domain"
)

// Handlers bundles every module handler the router mounts.
type Handlers struct {
	Auth          *authhandler.Handler
	Person        *personhandler.Handler
	Followup      *followuphandler.Handler
	Ticket        *tickethandler.Handler
	Notification  *notifhandler.Handler
	Job           *jobhandler.Handler
	TokenVerifier middleware.TokenValidator
}

// New builds the full router with the shared middleware chain and per-group
// role gates.
func New(h Handlers, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.With(middleware.ContentTypeJSON).Post("/auth/login", h.Auth.Login)

	// Everything below requires a live session.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(h.TokenVerifier, logger))

		r.Post("/auth/logout", h.Auth.Logout)
		r.Get("/me/notifications", h.Notification.ListMine)
		r.Post("/notifications/{notificationID}/read", h.Notification.MarkRead)
		r.Get("/jobs", h.Job.Browse)

		// Beneficiary self-service.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(id.RoleBeneficiary))
			r.Get("/me/case", h.Followup.MyDashboard)
			r.Post("/me/checkins", h.Followup.SubmitCheckin)
		})

		// Caseworker and admin case management.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(id.RoleCaseWorker, id.RoleAdmin))
			r.Get("/cases", h.Followup.ListCases)
			r.Get("/cases/{caseID}", h.Followup.GetDashboard)
			r.Get("/cases/{caseID}/summary", h.Followup.GetSummary)
			r.Post("/cases/{caseID}/complete", h.Followup.Complete)
			r.Post("/cases/{caseID}/assign", h.Followup.Assign)
			r.Get("/cases/{caseID}/tickets", h.Ticket.ListForCase)
			r.Post("/cases/{caseID}/tickets", h.Ticket.Create)
			r.Post("/tickets/{ticketID}/status", h.Ticket.UpdateStatus)
			r.Get("/persons/{personID}", h.Person.Get)
		})

		// Admin-only registry and configuration.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(id.RoleAdmin))
			r.Post("/persons", h.Person.Register)
			r.Delete("/persons/{personID}", h.Person.Delete)
			r.Post("/cases", h.Followup.CreateProfile)
			r.Post("/jobs", h.Job.Post)
			r.Delete("/jobs/{jobID}", h.Job.Deactivate)
		})
	})

	return r
}
