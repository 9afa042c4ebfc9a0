package models

import (
	"time"

	id "safereturn/pkg/domain"
)

// Session is one live login. Sessions are the revocation handle for JWTs:
// a token is only as valid as the session it was minted under.
type Session struct {
	ID        string      `json:"id"`
	PersonID  id.PersonID `json:"person_id"`
	Role      id.Role     `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
