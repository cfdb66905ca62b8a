package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterviewRecordAnswerAdvancesCursor(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	iv := NewInterview("iv-1", "alice", []string{"q1", "q2"}, now)

	assert.Equal(t, State{Phase: PhaseInProgress, Cursor: 0}, iv.State())

	entry, err := iv.RecordAnswer("first", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "q1", entry.Question)
	assert.Equal(t, 1, iv.CurrentIndex)
	assert.Len(t, iv.History, iv.CurrentIndex)

	_, err = iv.RecordAnswer("second", now.Add(3*time.Minute))
	require.NoError(t, err)
	assert.True(t, iv.IsComplete())
	assert.Equal(t, State{Phase: PhaseComplete, Cursor: 2}, iv.State())
	assert.Equal(t, 2, iv.DurationMinutes())
}

func TestInterviewRejectsAnswerWhenComplete(t *testing.T) {
	iv := NewInterview("iv-1", "alice", []string{"only"}, time.Now())
	_, err := iv.RecordAnswer("a", time.Now())
	require.NoError(t, err)

	_, err = iv.RecordAnswer("again", time.Now())
	require.ErrorIs(t, err, ErrInterviewComplete)
	assert.Len(t, iv.History, 1)
	assert.Equal(t, 1, iv.CurrentIndex)
}

func TestInterviewCloneIsIndependent(t *testing.T) {
	iv := NewInterview("iv-1", "alice", []string{"q1", "q2"}, time.Now())
	c := iv.Clone()
	_, err := c.RecordAnswer("x", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 0, iv.CurrentIndex)
	assert.Empty(t, iv.History)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := &Session{Token: "t", Username: "u", CreatedAt: now.Add(-2 * time.Hour)}
	assert.False(t, s.Expired(0, now))
	assert.True(t, s.Expired(time.Hour, now))
	assert.False(t, s.Expired(3*time.Hour, now))
}
