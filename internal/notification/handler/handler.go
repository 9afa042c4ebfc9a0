package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safereturn/internal/notification/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/httputil"
	"safereturn/pkg/requestcontext"
)

// Service defines the notification inbox operations the handler needs.
type Service interface {
	ListForPerson(ctx context.Context, personID id.PersonID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error)
}

type Handler struct {
	notifications Service
	logger        *slog.Logger
}

func New(notifications Service, logger *slog.Logger) *Handler {
	return &Handler{notifications: notifications, logger: logger}
}

// ListMine returns the authenticated caller's notifications, newest first.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.notifications.ListForPerson(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

// MarkRead flips the read flag on the caller's own notification.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	n, err := h.notifications.MarkRead(ctx, notificationID)
	if err != nil {
		h.logger.WarnContext(ctx, "mark read failed",
			"request_id", requestcontext.RequestID(ctx),
			"notification_id", notificationID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}
