package domain

import "errors"

// Sentinel errors shared by the service layers. They carry no transport
// details; the HTTP layer maps them to status codes.
var (
	// ErrUnauthorized indicates a missing or unknown session token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadRequest indicates a missing or malformed required field.
	ErrBadRequest = errors.New("bad request")

	// ErrNotFound indicates an unknown interview id.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the interview belongs to another candidate.
	ErrForbidden = errors.New("forbidden")

	// ErrInterviewComplete indicates an answer was submitted after the last question.
	ErrInterviewComplete = errors.New("interview already complete")

	// ErrConflict indicates a concurrent modification was detected by the store.
	ErrConflict = errors.New("concurrent modification")

	// ErrUsernameTaken indicates a registration for an existing username.
	ErrUsernameTaken = errors.New("user exists")

	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrGeneratorUnavailable indicates the external generator could not produce
	// a usable answer. It is always absorbed into a heuristic fallback.
	ErrGeneratorUnavailable = errors.New("external generator unavailable")
)

// ReasonError attaches a client-facing message to one of the sentinel errors.
type ReasonError struct {
	Kind   error
	Reason string
}

func (e *ReasonError) Error() string { return e.Reason }

// Unwrap exposes the sentinel for errors.Is.
func (e *ReasonError) Unwrap() error { return e.Kind }

// WithReason wraps kind with a client-facing reason.
func WithReason(kind error, reason string) error {
	return &ReasonError{Kind: kind, Reason: reason}
}
