// Package domain contains core domain types for the CareerSIM interview engine.
package domain

import (
	"time"
)

// Candidate is a registered user preparing for interviews.
type Candidate struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"`
	FieldOfStudy   string    `json:"study"`
	TargetEmployer string    `json:"target"`
	CreatedAt      time.Time `json:"created_at"`
}

// Session maps an opaque token to the username it was issued for.
type Session struct {
	Token     string
	Username  string
	CreatedAt time.Time
}

// Expired reports whether the session is older than ttl.
// A non-positive ttl means sessions never expire.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.CreatedAt) > ttl
}
