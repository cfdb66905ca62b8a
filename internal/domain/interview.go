package domain

import (
	"time"
)

// Phase is the lifecycle phase of an interview.
type Phase string

const (
	// PhaseInProgress means at least one question is still unanswered.
	PhaseInProgress Phase = "in_progress"
	// PhaseComplete means every question has been answered.
	PhaseComplete Phase = "complete"
)

// State is the explicit state of an interview: InProgress{Cursor} or Complete.
type State struct {
	Phase  Phase
	Cursor int
}

// HistoryEntry records one answered question.
type HistoryEntry struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"time"`
}

// Interview is one candidate's run through a fixed ordered question list.
//
// Invariants: len(History) == CurrentIndex, CurrentIndex never decreases and
// never exceeds len(Questions).
type Interview struct {
	ID           string
	Username     string
	Questions    []string
	CurrentIndex int
	History      []HistoryEntry
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewInterview creates an interview positioned at its first question.
func NewInterview(id, username string, questions []string, now time.Time) *Interview {
	qs := make([]string, len(questions))
	copy(qs, questions)
	return &Interview{
		ID:        id,
		Username:  username,
		Questions: qs,
		History:   []HistoryEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State returns the current lifecycle state.
func (iv *Interview) State() State {
	if iv.CurrentIndex >= len(iv.Questions) {
		return State{Phase: PhaseComplete, Cursor: len(iv.Questions)}
	}
	return State{Phase: PhaseInProgress, Cursor: iv.CurrentIndex}
}

// IsComplete reports whether every question has been answered.
func (iv *Interview) IsComplete() bool {
	return iv.State().Phase == PhaseComplete
}

// CurrentQuestion returns the next unanswered question, or false when complete.
func (iv *Interview) CurrentQuestion() (string, bool) {
	st := iv.State()
	if st.Phase == PhaseComplete {
		return "", false
	}
	return iv.Questions[st.Cursor], true
}

// RecordAnswer appends an answer for the current question and advances the
// cursor. It is the only state transition.
func (iv *Interview) RecordAnswer(answer string, at time.Time) (HistoryEntry, error) {
	question, ok := iv.CurrentQuestion()
	if !ok {
		return HistoryEntry{}, ErrInterviewComplete
	}
	entry := HistoryEntry{Question: question, Answer: answer, Timestamp: at}
	iv.History = append(iv.History, entry)
	iv.CurrentIndex++
	iv.UpdatedAt = at
	return entry, nil
}

// LastActivity returns the time of the latest answer, or the creation time.
func (iv *Interview) LastActivity() time.Time {
	if n := len(iv.History); n > 0 {
		return iv.History[n-1].Timestamp
	}
	return iv.CreatedAt
}

// StartedAt returns the time of the first answer, or the creation time.
func (iv *Interview) StartedAt() time.Time {
	if len(iv.History) > 0 {
		return iv.History[0].Timestamp
	}
	return iv.CreatedAt
}

// DurationMinutes returns the rounded minutes between first and last answer.
func (iv *Interview) DurationMinutes() int {
	if len(iv.History) < 2 {
		return 0
	}
	d := iv.History[len(iv.History)-1].Timestamp.Sub(iv.History[0].Timestamp)
	return int(d.Round(time.Minute) / time.Minute)
}

// Clone returns a deep copy safe to mutate independently.
func (iv *Interview) Clone() *Interview {
	c := *iv
	c.Questions = append([]string(nil), iv.Questions...)
	c.History = append([]HistoryEntry{}, iv.History...)
	return &c
}
