package models

import (
	"time"

	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
)

const maxTitleLen = 200

// JobOpportunity is a postable job listing recommended to beneficiaries.
// City-tagged, independent of cases; the follow-up engine treats the board
// as read-only reference data.
type JobOpportunity struct {
	ID          id.JobID  `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company,omitempty"`
	Description string    `json:"description"`
	City        id.City   `json:"city"`
	Active      bool      `json:"active"`
	LinkURL     string    `json:"link_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewJobOpportunity validates a listing before it reaches the board.
func NewJobOpportunity(jobID id.JobID, title, company, description string, city id.City, linkURL string, now time.Time) (*JobOpportunity, error) {
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(title) > maxTitleLen {
		return nil, dErrors.New(dErrors.CodeValidation, "title must be at most 200 characters")
	}
	if len(company) > maxTitleLen {
		return nil, dErrors.New(dErrors.CodeValidation, "company must be at most 200 characters")
	}
	if !city.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid city")
	}
	return &JobOpportunity{
		ID:          jobID,
		Title:       title,
		Company:     company,
		Description: description,
		City:        city,
		Active:      true,
		LinkURL:     linkURL,
		CreatedAt:   now,
	}, nil
}
