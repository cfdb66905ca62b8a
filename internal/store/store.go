// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/careersim/internal/domain"
)

// Repository defines the interface for persisting candidates, sessions and interviews.
//
// Getters return (nil, nil) when the record does not exist.
type Repository interface {
	// CreateCandidate inserts a new candidate. Returns domain.ErrUsernameTaken
	// if the username already exists.
	CreateCandidate(ctx context.Context, c *domain.Candidate) error

	// GetCandidate retrieves a candidate by username.
	GetCandidate(ctx context.Context, username string) (*domain.Candidate, error)

	// CreateSession stores a session token.
	CreateSession(ctx context.Context, s *domain.Session) error

	// GetSession retrieves a session by token.
	GetSession(ctx context.Context, token string) (*domain.Session, error)

	// DeleteExpiredSessions removes sessions older than ttl.
	DeleteExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// CreateInterview inserts a new interview.
	CreateInterview(ctx context.Context, iv *domain.Interview) error

	// GetInterview retrieves an interview by id.
	GetInterview(ctx context.Context, id string) (*domain.Interview, error)

	// UpdateInterview persists a mutated interview. The update only happens if
	// the stored cursor still equals expectedIndex (optimistic locking);
	// otherwise domain.ErrConflict is returned.
	UpdateInterview(ctx context.Context, iv *domain.Interview, expectedIndex int) error

	// ListInterviews returns every interview owned by username.
	ListInterviews(ctx context.Context, username string) ([]*domain.Interview, error)

	// Ping verifies storage connectivity.
	Ping(ctx context.Context) error

	// Close releases storage resources.
	Close() error
}
