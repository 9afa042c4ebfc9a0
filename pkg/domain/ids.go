// Package domain holds identifier and enumeration types shared across the
// service. IDs are distinct UUID-backed types so the compiler rejects
// cross-entity mixups; construct them from external input via the ParseXxxID
// functions, which enforce the "valid, non-empty, non-nil UUID" invariant at
// trust boundaries. Direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "safereturn/pkg/domain-errors"
)

type (
	// PersonID identifies a Person regardless of role.
	PersonID uuid.UUID
	// CaseID identifies a release profile (the 12-month follow-up record).
	CaseID uuid.UUID
	// ReportID identifies a monthly check-in report.
	ReportID uuid.UUID
	// TicketID identifies a support ticket.
	TicketID uuid.UUID
	// NotificationID identifies a notification.
	NotificationID uuid.UUID
	// JobID identifies a job opportunity listing.
	JobID uuid.UUID
)

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be the nil UUID")
	}
	return u, nil
}

func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID(s, "person")
	return PersonID(u), err
}

func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s, "case")
	return CaseID(u), err
}

func ParseReportID(s string) (ReportID, error) {
	u, err := parseUUID(s, "report")
	return ReportID(u), err
}

func ParseTicketID(s string) (TicketID, error) {
	u, err := parseUUID(s, "ticket")
	return TicketID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification")
	return NotificationID(u), err
}

func ParseJobID(s string) (JobID, error) {
	u, err := parseUUID(s, "job")
	return JobID(u), err
}

func (id PersonID) String() string { return uuid.UUID(id).String() }
func (id PersonID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id CaseID) String() string { return uuid.UUID(id).String() }
func (id CaseID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id ReportID) String() string { return uuid.UUID(id).String() }
func (id ReportID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id TicketID) String() string { return uuid.UUID(id).String() }
func (id TicketID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id NotificationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id JobID) String() string { return uuid.UUID(id).String() }
func (id JobID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText/UnmarshalText keep the IDs JSON- and SQL-friendly as canonical
// UUID strings.

func (id PersonID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *PersonID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id CaseID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *CaseID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id ReportID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *ReportID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id TicketID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *TicketID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id NotificationID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *NotificationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id JobID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *JobID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
