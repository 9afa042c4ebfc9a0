package models

import (
	"time"

	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
)

// Category is the kind of support a ticket requests.
type Category string

const (
	CategoryJob           Category = "job"
	CategorySocial        Category = "social"
	CategoryPsychological Category = "psychological"
	CategoryHousing       Category = "housing"
	CategoryFinancial     Category = "financial"
)

var validCategories = map[Category]bool{
	CategoryJob:           true,
	CategorySocial:        true,
	CategoryPsychological: true,
	CategoryHousing:       true,
	CategoryFinancial:     true,
}

// ParseCategory constructs a Category from external input.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid ticket category")
	}
	return c, nil
}

func (c Category) IsValid() bool { return validCategories[c] }
func (c Category) String() string { return string(c) }

// Status is the handling state of a ticket. The nominal flow is
// open → in_progress → resolved|closed, but any caseworker-driven transition
// between states is allowed, so there is no transition table to enforce.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var validStatuses = map[Status]bool{
	StatusOpen:       true,
	StatusInProgress: true,
	StatusResolved:   true,
	StatusClosed:     true,
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid ticket status")
	}
	return st, nil
}

func (s Status) IsValid() bool { return validStatuses[s] }
func (s Status) String() string { return string(s) }

// SupportTicket is a request for intervention tied to a case.
//
// Invariants:
//   - for a given (case, category) at most one ticket has
//     auto_generated=true and status=open at a time; the issuance policy
//     finds-or-creates against that key instead of blindly inserting
//   - manually created tickets (auto_generated=false) are entirely outside
//     that key space: never matched, never deduplicated
//   - CreatedBy is set only for manual tickets (a caseworker or admin)
type SupportTicket struct {
	ID            id.TicketID  `json:"id"`
	CaseID        id.CaseID    `json:"case_id"`
	Category      Category     `json:"category"`
	Status        Status       `json:"status"`
	Notes         string       `json:"notes,omitempty"`
	AutoGenerated bool         `json:"is_auto_generated"`
	CreatedBy     *id.PersonID `json:"created_by,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewManualTicket constructs a caseworker-created ticket.
func NewManualTicket(
	ticketID id.TicketID,
	caseID id.CaseID,
	category Category,
	notes string,
	createdBy id.PersonID,
	now time.Time,
) (*SupportTicket, error) {
	if caseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "case id is required")
	}
	if !category.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid ticket category")
	}
	if createdBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "creator is required for manual tickets")
	}
	creator := createdBy
	return &SupportTicket{
		ID:            ticketID,
		CaseID:        caseID,
		Category:      category,
		Status:        StatusOpen,
		Notes:         notes,
		AutoGenerated: false,
		CreatedBy:     &creator,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewAutoTicket constructs a policy-issued ticket. No creator: the system
// opened it.
func NewAutoTicket(
	ticketID id.TicketID,
	caseID id.CaseID,
	category Category,
	notes string,
	now time.Time,
) *SupportTicket {
	return &SupportTicket{
		ID:            ticketID,
		CaseID:        caseID,
		Category:      category,
		Status:        StatusOpen,
		Notes:         notes,
		AutoGenerated: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ApplyStatus records a caseworker-driven status transition.
func (t *SupportTicket) ApplyStatus(status Status, now time.Time) {
	t.Status = status
	t.UpdatedAt = now
}
