package models

import (
	"time"

	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
)

const (
	maxNationalIDLen = 10
	maxFullNameLen   = 200
	maxPhoneLen      = 15
)

// Person is an individual known to the program: a tracked beneficiary, a
// caseworker, or an admin. Exactly one role per person; the national ID is
// immutable once issued and unique across the registry.
type Person struct {
	ID         id.PersonID `json:"id"`
	NationalID string      `json:"national_id"`
	FullName   string      `json:"full_name"`
	Role       id.Role     `json:"role"`
	Phone      string      `json:"phone,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewPerson validates registration input. The national ID stands in for a
// real identity-system handle, so only shape is checked here; uniqueness is
// the store's job.
func NewPerson(personID id.PersonID, nationalID, fullName string, role id.Role, phone string, now time.Time) (*Person, error) {
	if nationalID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "national id is required")
	}
	if len(nationalID) > maxNationalIDLen {
		return nil, dErrors.New(dErrors.CodeValidation, "national id must be at most 10 characters")
	}
	for _, r := range nationalID {
		if r < '0' || r > '9' {
			return nil, dErrors.New(dErrors.CodeValidation, "national id must be numeric")
		}
	}
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "full name is required")
	}
	if len(fullName) > maxFullNameLen {
		return nil, dErrors.New(dErrors.CodeValidation, "full name must be at most 200 characters")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid role")
	}
	if len(phone) > maxPhoneLen {
		return nil, dErrors.New(dErrors.CodeValidation, "phone must be at most 15 characters")
	}
	return &Person{
		ID:         personID,
		NationalID: nationalID,
		FullName:   fullName,
		Role:       role,
		Phone:      phone,
		CreatedAt:  now,
	}, nil
}

// IsBeneficiary reports whether this person may own a case.
func (p *Person) IsBeneficiary() bool { return p.Role == id.RoleBeneficiary }
