package domain

import dErrors "safereturn/pkg/domain-errors"

// Role is the single role a person holds in the program.
// Invariant: exactly one role per person; only beneficiaries may own a case.
type Role string

const (
	RoleBeneficiary Role = "beneficiary"
	RoleCaseWorker  Role = "case_worker"
	RoleAdmin       Role = "admin"
)

var validRoles = map[Role]bool{
	RoleBeneficiary: true,
	RoleCaseWorker:  true,
	RoleAdmin:       true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string {
	return string(r)
}
