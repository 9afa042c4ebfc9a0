package audit

import (
	"context"
	"time"

	id "safereturn/pkg/domain"
)

// EventCategory classifies audit events by their retention needs.
type EventCategory string

const (
	// CategoryCompliance covers events a program audit would ask for:
	// who entered the registry, who left it, which cases were closed.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity useful for debugging
	// and operational visibility.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	// PersonID is the person the action concerns: the beneficiary whose
	// case changed, the recipient whose notification was read.
	PersonID id.PersonID
	Subject  string
	Action   string
	Reason   string
	// ActorID tracks who performed the action when different from
	// PersonID, e.g. a caseworker closing a beneficiary's case.
	ActorID   string
	RequestID string
}

type AuditEvent string

const (
	// Registry events
	EventPersonRegistered AuditEvent = "person_registered"
	EventPersonDeleted    AuditEvent = "person_deleted"

	// Follow-up events
	EventProfileCreated     AuditEvent = "profile_created"
	EventCheckinSubmitted   AuditEvent = "checkin_submitted"
	EventRiskTierChanged    AuditEvent = "risk_tier_changed"
	EventCaseCompleted      AuditEvent = "case_completed"
	EventCaseworkerAssigned AuditEvent = "caseworker_assigned"

	// Ticket events
	EventTicketAutoCreated   AuditEvent = "ticket_auto_created"
	EventTicketCreated       AuditEvent = "ticket_created"
	EventTicketStatusChanged AuditEvent = "ticket_status_changed"

	// Notification and session events
	EventNotificationRead AuditEvent = "notification_read"
	EventSessionCreated   AuditEvent = "session_created"
	EventSessionRevoked   AuditEvent = "session_revoked"

	// Job board events
	EventJobPosted AuditEvent = "job_posted"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventPersonRegistered: CategoryCompliance,
	EventPersonDeleted:    CategoryCompliance,
	EventProfileCreated:   CategoryCompliance,
	EventCaseCompleted:    CategoryCompliance,
	EventRiskTierChanged:  CategoryCompliance,

	EventCheckinSubmitted:    CategoryOperations,
	EventCaseworkerAssigned:  CategoryOperations,
	EventTicketAutoCreated:   CategoryOperations,
	EventTicketCreated:       CategoryOperations,
	EventTicketStatusChanged: CategoryOperations,
	EventNotificationRead:    CategoryOperations,
	EventSessionCreated:      CategoryOperations,
	EventSessionRevoked:      CategoryOperations,
	EventJobPosted:           CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store is where emitted events land. The in-memory store keeps them
// directly; the Postgres store writes an outbox row for the Kafka relay.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByPerson(ctx context.Context, personID id.PersonID) ([]Event, error)
}
