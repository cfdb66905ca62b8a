// Package interview runs mock interviews: it starts sessions, records
// answers, and produces analyses and dashboard views.
package interview

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/feedback"
	"github.com/ashureev/careersim/internal/questions"
	"github.com/ashureev/careersim/internal/scoring"
	"github.com/ashureev/careersim/internal/store"
	"github.com/google/uuid"
)

// unknownCompany labels dashboard rows for candidates without a target employer.
const unknownCompany = "Unknown"

// Synthesizer produces per-answer feedback.
type Synthesizer interface {
	Synthesize(ctx context.Context, answer string, ic feedback.Context) domain.Feedback
}

// Analyzer produces end-of-interview analyses.
type Analyzer interface {
	Analyze(ctx context.Context, iv *domain.Interview, c *domain.Candidate) domain.Analysis
}

// Recorder receives lifecycle events for metrics.
type Recorder interface {
	InterviewStarted()
	AnswerRecorded()
	ConflictDetected()
}

// StartResult is returned by Start.
type StartResult struct {
	InterviewID string `json:"interviewId"`
	Question    string `json:"question"`
}

// RespondResult is returned by Respond. NextQuestion is nil once the
// interview is complete.
type RespondResult struct {
	NextQuestion *string       `json:"nextQuestion"`
	Done         bool          `json:"done"`
	Feedback     string        `json:"feedback"`
	Source       domain.Source `json:"feedbackSource"`
}

// Service orchestrates interviews on top of a Repository.
type Service struct {
	repo     store.Repository
	feedback Synthesizer
	analyzer Analyzer
	rec      Recorder
	locks    *keyedMutex
	newID    func() string
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(s *Service) { s.rec = rec }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides interview id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates an interview Service.
func NewService(repo store.Repository, fb Synthesizer, an Analyzer, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		feedback: fb,
		analyzer: an,
		locks:    newKeyedMutex(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates an interview for c and returns its first question.
func (s *Service) Start(ctx context.Context, c *domain.Candidate) (*StartResult, error) {
	if c == nil {
		return nil, domain.ErrUnauthorized
	}

	qs := questions.Generate(c.FieldOfStudy, c.TargetEmployer)
	iv := domain.NewInterview(s.newID(), c.Username, qs, s.now())
	if err := s.repo.CreateInterview(ctx, iv); err != nil {
		return nil, fmt.Errorf("create interview: %w", err)
	}
	if s.rec != nil {
		s.rec.InterviewStarted()
	}

	slog.Info("Interview started", "interview_id", iv.ID, "username", c.Username, "questions", len(qs))
	question, _ := iv.CurrentQuestion()
	return &StartResult{InterviewID: iv.ID, Question: question}, nil
}

// Respond records answer for the current question, then asks the feedback
// pipeline for coaching. The answer is persisted before feedback is
// requested; feedback failures never undo it.
func (s *Service) Respond(ctx context.Context, c *domain.Candidate, interviewID, answer string) (*RespondResult, error) {
	if c == nil {
		return nil, domain.ErrUnauthorized
	}
	interviewID = strings.TrimSpace(interviewID)
	if interviewID == "" {
		return nil, domain.WithReason(domain.ErrBadRequest, "interviewId required")
	}

	iv, entry, err := s.recordAnswer(ctx, c, interviewID, answer)
	if err != nil {
		return nil, err
	}

	fb := s.feedback.Synthesize(ctx, answer, feedback.Context{
		FieldOfStudy:   c.FieldOfStudy,
		TargetEmployer: c.TargetEmployer,
		Question:       entry.Question,
	})

	result := &RespondResult{
		Done:     iv.IsComplete(),
		Feedback: fb.Text,
		Source:   fb.Source,
	}
	if next, ok := iv.CurrentQuestion(); ok {
		if fb.NextQuestionOverride != "" {
			next = fb.NextQuestionOverride
		}
		result.NextQuestion = &next
	}
	return result, nil
}

// recordAnswer performs the read-modify-write of one interview under its
// per-id lock. The lock is released before any feedback work starts.
func (s *Service) recordAnswer(ctx context.Context, c *domain.Candidate, id, answer string) (*domain.Interview, domain.HistoryEntry, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	iv, err := s.repo.GetInterview(ctx, id)
	if err != nil {
		return nil, domain.HistoryEntry{}, fmt.Errorf("load interview: %w", err)
	}
	if iv == nil {
		return nil, domain.HistoryEntry{}, domain.WithReason(domain.ErrNotFound, "interview not found")
	}
	if iv.Username != c.Username {
		return nil, domain.HistoryEntry{}, domain.WithReason(domain.ErrForbidden, "Unauthorized")
	}

	expected := iv.CurrentIndex
	entry, err := iv.RecordAnswer(answer, s.now())
	if err != nil {
		return nil, domain.HistoryEntry{}, err
	}

	if err := s.repo.UpdateInterview(ctx, iv, expected); err != nil {
		if errors.Is(err, domain.ErrConflict) && s.rec != nil {
			s.rec.ConflictDetected()
		}
		return nil, domain.HistoryEntry{}, fmt.Errorf("save interview %s: %w", id, err)
	}
	if s.rec != nil {
		s.rec.AnswerRecorded()
	}

	slog.Debug("Answer recorded", "interview_id", id, "cursor", iv.CurrentIndex, "complete", iv.IsComplete())
	return iv, entry, nil
}

// Analyze returns the analysis of an interview owned by c. It never mutates
// the interview.
func (s *Service) Analyze(ctx context.Context, c *domain.Candidate, interviewID string) (*domain.Analysis, error) {
	if c == nil {
		return nil, domain.ErrUnauthorized
	}
	interviewID = strings.TrimSpace(interviewID)
	if interviewID == "" {
		return nil, domain.WithReason(domain.ErrBadRequest, "Interview ID required")
	}

	iv, err := s.repo.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("load interview: %w", err)
	}
	if iv == nil {
		return nil, domain.WithReason(domain.ErrNotFound, "Interview not found")
	}
	if iv.Username != c.Username {
		return nil, domain.WithReason(domain.ErrForbidden, "Unauthorized")
	}

	analysis := s.analyzer.Analyze(ctx, iv, c)
	return &analysis, nil
}

// DashboardEntry summarises one interview.
type DashboardEntry struct {
	ID              string       `json:"id"`
	Status          domain.Phase `json:"status"`
	Score           int          `json:"score"`
	AnsweredCount   int          `json:"answeredCount"`
	QuestionsCount  int          `json:"questionsCount"`
	Date            time.Time    `json:"date"`
	LastActivity    time.Time    `json:"lastActivity"`
	DurationMinutes int          `json:"duration"`
	Company         string       `json:"company"`
}

// Stats aggregates completed interviews only.
type Stats struct {
	TotalInterviews int `json:"totalInterviews"`
	AverageScore    int `json:"averageScore"`
}

// Dashboard is the candidate's interview overview.
type Dashboard struct {
	Username   string           `json:"username"`
	Study      string           `json:"study"`
	Target     string           `json:"target"`
	Interviews []DashboardEntry `json:"interviews"`
	Stats      Stats            `json:"stats"`
}

// UserStats is the compact statistics view. It uses the same score and the
// same completed-only aggregation as the dashboard.
type UserStats struct {
	TotalInterviews int              `json:"totalInterviews"`
	AverageScore    int              `json:"averageScore"`
	Interviews      []DashboardEntry `json:"interviews"`
}

// ListForDashboard returns every interview owned by c, most recent activity first.
func (s *Service) ListForDashboard(ctx context.Context, c *domain.Candidate) (*Dashboard, error) {
	if c == nil {
		return nil, domain.ErrUnauthorized
	}
	entries, stats, err := s.summaries(ctx, c)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Username:   c.Username,
		Study:      c.FieldOfStudy,
		Target:     c.TargetEmployer,
		Interviews: entries,
		Stats:      stats,
	}, nil
}

// UserStats returns the statistics view for c.
func (s *Service) UserStats(ctx context.Context, c *domain.Candidate) (*UserStats, error) {
	if c == nil {
		return nil, domain.ErrUnauthorized
	}
	entries, stats, err := s.summaries(ctx, c)
	if err != nil {
		return nil, err
	}
	return &UserStats{
		TotalInterviews: stats.TotalInterviews,
		AverageScore:    stats.AverageScore,
		Interviews:      entries,
	}, nil
}

func (s *Service) summaries(ctx context.Context, c *domain.Candidate) ([]DashboardEntry, Stats, error) {
	ivs, err := s.repo.ListInterviews(ctx, c.Username)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("list interviews: %w", err)
	}

	company := c.TargetEmployer
	if strings.TrimSpace(company) == "" {
		company = unknownCompany
	}

	entries := make([]DashboardEntry, 0, len(ivs))
	completed, sum := 0, 0
	for _, iv := range ivs {
		e := DashboardEntry{
			ID:              iv.ID,
			Status:          iv.State().Phase,
			Score:           scoring.DashboardScore(iv.History),
			AnsweredCount:   len(iv.History),
			QuestionsCount:  len(iv.Questions),
			Date:            iv.StartedAt(),
			LastActivity:    iv.LastActivity(),
			DurationMinutes: iv.DurationMinutes(),
			Company:         company,
		}
		if iv.IsComplete() {
			completed++
			sum += e.Score
		}
		entries = append(entries, e)
	}

	slices.SortFunc(entries, func(a, b DashboardEntry) int {
		if d := b.LastActivity.Compare(a.LastActivity); d != 0 {
			return d
		}
		return cmp.Compare(a.ID, b.ID)
	})

	stats := Stats{TotalInterviews: completed}
	if completed > 0 {
		stats.AverageScore = int(math.Round(float64(sum) / float64(completed)))
	}
	return entries, stats, nil
}
