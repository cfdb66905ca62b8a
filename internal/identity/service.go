// Package identity resolves session tokens to candidates and owns
// registration and login.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// Resolver maps a session token to the candidate it was issued for.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*domain.Candidate, error)
}

// Registration is the input to Register.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Study    string `json:"study"`
	Target   string `json:"target"`
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Study    string `json:"study"`
	Target   string `json:"target"`
}

// Service implements Resolver on top of a Repository.
type Service struct {
	repo     store.Repository
	ttl      time.Duration
	hashCost int
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an identity service. A zero ttl means tokens never expire.
func NewService(repo store.Repository, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		ttl:      ttl,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a candidate with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, reg Registration) error {
	username := strings.TrimSpace(reg.Username)
	if username == "" || reg.Password == "" {
		return domain.WithReason(domain.ErrBadRequest, "username and password required")
	}
	if len(reg.Password) > maxPasswordBytes {
		return domain.WithReason(domain.ErrBadRequest, "password too long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	candidate := &domain.Candidate{
		ID:             uuid.NewString(),
		Username:       username,
		PasswordHash:   string(hash),
		FieldOfStudy:   strings.TrimSpace(reg.Study),
		TargetEmployer: strings.TrimSpace(reg.Target),
		CreatedAt:      s.now(),
	}
	if err := s.repo.CreateCandidate(ctx, candidate); err != nil {
		return fmt.Errorf("register %s: %w", username, err)
	}

	slog.Info("Candidate registered", "username", username)
	return nil
}

// Login verifies credentials and issues a new session token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.WithReason(domain.ErrBadRequest, "username and password required")
	}

	candidate, err := s.repo.GetCandidate(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load candidate: %w", err)
	}
	if candidate == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(candidate.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	session := &domain.Session{
		Token:     uuid.NewString(),
		Username:  candidate.Username,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	slog.Info("Candidate logged in", "username", candidate.Username)
	return &LoginResult{
		Token:    session.Token,
		Username: candidate.Username,
		Study:    candidate.FieldOfStudy,
		Target:   candidate.TargetEmployer,
	}, nil
}

// Resolve returns the candidate for token, or domain.ErrUnauthorized when the
// token is empty, unknown or expired.
func (s *Service) Resolve(ctx context.Context, token string) (*domain.Candidate, error) {
	if token == "" {
		return nil, domain.WithReason(domain.ErrUnauthorized, "no token")
	}

	session, err := s.repo.GetSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil || session.Expired(s.ttl, s.now()) {
		return nil, domain.WithReason(domain.ErrUnauthorized, "invalid token")
	}

	candidate, err := s.repo.GetCandidate(ctx, session.Username)
	if err != nil {
		return nil, fmt.Errorf("load candidate: %w", err)
	}
	if candidate == nil {
		return nil, domain.WithReason(domain.ErrUnauthorized, "invalid token")
	}
	return candidate, nil
}
