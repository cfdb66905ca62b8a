package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ashureev/careersim/internal/domain"
)

// MemoryStore is an in-process Repository. Records are cloned on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu         sync.RWMutex
	candidates map[string]domain.Candidate
	sessions   map[string]domain.Session
	interviews map[string]*domain.Interview
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		candidates: make(map[string]domain.Candidate),
		sessions:   make(map[string]domain.Session),
		interviews: make(map[string]*domain.Interview),
	}
}

// CreateCandidate inserts a new candidate.
func (m *MemoryStore) CreateCandidate(_ context.Context, c *domain.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[c.Username]; ok {
		return domain.ErrUsernameTaken
	}
	m.candidates[c.Username] = *c
	return nil
}

// GetCandidate retrieves a candidate by username.
func (m *MemoryStore) GetCandidate(_ context.Context, username string) (*domain.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.candidates[username]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// CreateSession stores a session token.
func (m *MemoryStore) CreateSession(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = *s
	return nil
}

// GetSession retrieves a session by token.
func (m *MemoryStore) GetSession(_ context.Context, token string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// DeleteExpiredSessions removes sessions older than ttl.
func (m *MemoryStore) DeleteExpiredSessions(_ context.Context, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var n int64
	for token, s := range m.sessions {
		if s.Expired(ttl, now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

// CreateInterview inserts a new interview.
func (m *MemoryStore) CreateInterview(_ context.Context, iv *domain.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.interviews[iv.ID]; ok {
		return domain.ErrConflict
	}
	m.interviews[iv.ID] = iv.Clone()
	return nil
}

// GetInterview retrieves an interview by id.
func (m *MemoryStore) GetInterview(_ context.Context, id string) (*domain.Interview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	iv, ok := m.interviews[id]
	if !ok {
		return nil, nil
	}
	return iv.Clone(), nil
}

// UpdateInterview replaces the stored interview if its cursor still equals expectedIndex.
func (m *MemoryStore) UpdateInterview(_ context.Context, iv *domain.Interview, expectedIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.interviews[iv.ID]
	if !ok || cur.CurrentIndex != expectedIndex {
		return domain.ErrConflict
	}
	m.interviews[iv.ID] = iv.Clone()
	return nil
}

// ListInterviews returns every interview owned by username, oldest first.
func (m *MemoryStore) ListInterviews(_ context.Context, username string) ([]*domain.Interview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Interview
	for _, iv := range m.interviews {
		if iv.Username == username {
			out = append(out, iv.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.Interview) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
