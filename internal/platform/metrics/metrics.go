package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// Services accept a nil *Metrics; the increment methods no-op so unit tests
// don't fight over the default registry.
type Metrics struct {
	CheckinsProcessed  prometheus.Counter
	TierChanges        *prometheus.CounterVec
	AutoTicketsCreated *prometheus.CounterVec
	NotificationsSent  *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CheckinsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safereturn_checkins_processed_total",
			Help: "Total number of monthly check-ins processed by the engine",
		}),
		TierChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safereturn_risk_tier_changes_total",
			Help: "Total number of risk tier transitions",
		}, []string{"from", "to"}),
		AutoTicketsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safereturn_auto_tickets_created_total",
			Help: "Total number of auto-generated support tickets",
		}, []string{"category"}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safereturn_notifications_sent_total",
			Help: "Total number of notifications emitted",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncCheckinsProcessed() {
	if m == nil {
		return
	}
	m.CheckinsProcessed.Inc()
}

func (m *Metrics) IncTierChange(from, to string) {
	if m == nil {
		return
	}
	m.TierChanges.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncAutoTicketCreated(category string) {
	if m == nil {
		return
	}
	m.AutoTicketsCreated.WithLabelValues(category).Inc()
}

func (m *Metrics) IncNotificationSent(kind string) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(kind).Inc()
}
