package identity

import (
	"context"
	"testing"
	"time"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSweeper_RemovesExpiredSessions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := store.NewMemory()
	require.NoError(t, repo.CreateSession(ctx, &domain.Session{Token: "old", Username: "a", CreatedAt: time.Now().Add(-2 * time.Hour)}))
	require.NoError(t, repo.CreateSession(ctx, &domain.Session{Token: "fresh", Username: "a", CreatedAt: time.Now()}))

	StartSweeper(ctx, repo, time.Hour, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		s, err := repo.GetSession(ctx, "old")
		return err == nil && s == nil
	}, 2*time.Second, 10*time.Millisecond)

	s, err := repo.GetSession(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestStartSweeper_DisabledWithoutTTL(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()
	require.NoError(t, repo.CreateSession(ctx, &domain.Session{Token: "old", Username: "a", CreatedAt: time.Now().Add(-48 * time.Hour)}))

	StartSweeper(ctx, repo, 0, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	s, err := repo.GetSession(ctx, "old")
	require.NoError(t, err)
	assert.NotNil(t, s)
}
