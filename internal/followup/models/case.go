package models

import (
	"time"

	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
)

// Case is the 12-month follow-up record (release profile) for exactly one
// beneficiary.
//
// Invariants:
//   - one case per person (enforced by the profile store)
//   - ReleaseDate is immutable after creation
//   - FollowupEndDate is set once at creation when absent and never
//     recomputed afterward (manual overrides survive)
//   - RiskTier is mutated only by the case progression orchestrator
//   - Completed is monotonic: once true it never goes back, and it is set
//     only by explicit caseworker action
//   - CaseworkerID, when set, must reference a person with the case_worker
//     role; it is a non-owning reference that clears when the caseworker is
//     removed
type Case struct {
	ID              id.CaseID    `json:"id"`
	PersonID        id.PersonID  `json:"person_id"`
	ReleaseDate     time.Time    `json:"release_date"`
	FollowupEndDate time.Time    `json:"followup_end_date"`
	RiskTier        Tier         `json:"risk_tier"`
	City            id.City      `json:"city"`
	Notes           string       `json:"notes,omitempty"`
	CaseworkerID    *id.PersonID `json:"assigned_case_worker,omitempty"`
	Completed       bool         `json:"is_completed"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// NewCase constructs a case at program intake. followupEnd should come from
// the timeline calculator when the intake form leaves it blank.
func NewCase(
	caseID id.CaseID,
	personID id.PersonID,
	releaseDate time.Time,
	followupEnd time.Time,
	city id.City,
	notes string,
	now time.Time,
) (*Case, error) {
	if personID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "person id is required")
	}
	if releaseDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "release date is required")
	}
	if !city.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid city")
	}
	return &Case{
		ID:              caseID,
		PersonID:        personID,
		ReleaseDate:     releaseDate,
		FollowupEndDate: followupEnd,
		RiskTier:        TierGreen,
		City:            city,
		Notes:           notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CanComplete checks the monotonic completion transition.
// Use with ApplyCompletion in Execute callbacks.
func (c *Case) CanComplete() error {
	if c.Completed {
		return dErrors.New(dErrors.CodeInvariantViolation, "case is already completed")
	}
	return nil
}

// ApplyCompletion marks the case completed. Terminal: there is no
// uncompletion transition. Call CanComplete first.
func (c *Case) ApplyCompletion(now time.Time) {
	c.Completed = true
	c.UpdatedAt = now
}

// ApplyTier sets the risk tier from the latest classification. The write is
// unconditional and idempotent; callers record whether the tier actually
// changed.
func (c *Case) ApplyTier(tier Tier, now time.Time) {
	c.RiskTier = tier
	c.UpdatedAt = now
}

// ApplyCaseworker assigns (or clears, with nil) the responsible caseworker.
func (c *Case) ApplyCaseworker(caseworkerID *id.PersonID, now time.Time) {
	c.CaseworkerID = caseworkerID
	c.UpdatedAt = now
}
