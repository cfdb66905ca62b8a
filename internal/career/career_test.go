package career

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	text     string
	err      error
	requests []generator.Request
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Complete(_ context.Context, req generator.Request) (string, error) {
	s.requests = append(s.requests, req)
	return s.text, s.err
}

var candidate = &domain.Candidate{Username: "alice", FieldOfStudy: "Economics", TargetEmployer: "KPMG"}

func newAdvisor(gen generator.Generator) *Advisor {
	return NewAdvisor(gen, Options{Timeout: time.Second}, zap.NewNop())
}

func TestFallbackAdvice(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"How do I improve my CV?", AdviceCV},
		{"Wie schreibe ich einen Lebenslauf?", AdviceCV},
		{"What are my strengths?", AdviceStrengths},
		{"Tips for the interview tomorrow", AdviceInterview},
		{"Meine Karriere planen", AdviceCareer},
		{"hello", AdviceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackAdvice(tt.message))
		})
	}
}

func TestAdvice(t *testing.T) {
	ctx := context.Background()

	t.Run("requires message", func(t *testing.T) {
		_, err := newAdvisor(nil).Advice(ctx, candidate, "  ")
		assert.ErrorIs(t, err, domain.ErrBadRequest)
		assert.EqualError(t, err, "message required")
	})

	t.Run("no generator", func(t *testing.T) {
		text, err := newAdvisor(nil).Advice(ctx, candidate, "cv help")
		require.NoError(t, err)
		assert.Equal(t, AdviceCV, text)
	})

	t.Run("external", func(t *testing.T) {
		gen := &stubGenerator{text: "  Network more.  "}
		text, err := newAdvisor(gen).Advice(ctx, candidate, "career?")
		require.NoError(t, err)
		assert.Equal(t, "Network more.", text)
		require.Len(t, gen.requests, 1)
		assert.Equal(t, adviceMaxTokens, gen.requests[0].MaxTokens)
		assert.Contains(t, gen.requests[0].Prompt, "Target employer: KPMG")
	})

	t.Run("external failure falls back", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("boom")}
		text, err := newAdvisor(gen).Advice(ctx, candidate, "interview prep")
		require.NoError(t, err)
		assert.Equal(t, AdviceInterview, text)
	})

	t.Run("blank external output falls back", func(t *testing.T) {
		text, err := newAdvisor(&stubGenerator{text: " "}).Advice(ctx, candidate, "hi")
		require.NoError(t, err)
		assert.Equal(t, AdviceDefault, text)
	})
}

func TestHeuristicCV(t *testing.T) {
	t.Run("complete short cv", func(t *testing.T) {
		r := HeuristicCV("Jane Doe jane@example.com 555-123-4567 University of Mannheim, internship at KPMG")
		assert.Equal(t, 85, r.StructureScore)
		assert.Equal(t, 90, r.ContentScore)
		assert.Equal(t, 70, r.ClarityScore)
		assert.Equal(t, 70, r.ProfessionalismScore)
		assert.Equal(t, 79, r.OverallScore)
		assert.Equal(t, domain.SourceHeuristic, r.Source)
		require.Len(t, r.Feedback, 3)
		assert.Equal(t, "Contact details are present", r.Feedback[0].Text)
		assert.Equal(t, "The CV is too short, add more detail", r.Feedback[1].Text)
	})

	t.Run("long cv without keywords", func(t *testing.T) {
		r := HeuristicCV(strings.Repeat("word ", 301))
		assert.Equal(t, 80, r.ContentScore)
		assert.Equal(t, 70, r.StructureScore)
		assert.Equal(t, 73, r.OverallScore)
		assert.Equal(t, "Basic structure is recognisable", r.Feedback[0].Text)
		assert.Equal(t, "Add measurable achievements", r.Feedback[1].Text)
	})
}

func TestParseCVRating(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		ok      bool
		overall int
	}{
		{"full", `{"overallScore":81,"structureScore":80,"contentScore":85,"clarityScore":78,"professionalismScore":82,"feedback":[{"type":"tip","title":"Layout","text":"Use headings"}]}`, true, 81},
		{"derived overall", "Here you go: {\"structureScore\":\"80\",\"contentScore\":80,\"clarityScore\":81,\"professionalismScore\":80}", true, 80},
		{"clamped", `{"structureScore":150,"contentScore":-3,"clarityScore":50,"professionalismScore":50,"overallScore":120}`, true, 100},
		{"missing dimension", `{"overallScore":80,"structureScore":80}`, false, 0},
		{"prose", "Your CV looks good.", false, 0},
		{"wrong type", `{"structureScore":"high","contentScore":80,"clarityScore":80,"professionalismScore":80}`, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := ParseCVRating(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.overall, r.OverallScore)
				assert.Equal(t, domain.SourceExternal, r.Source)
				assert.NotNil(t, r.Feedback)
			}
		})
	}

	r, ok := ParseCVRating(`{"structureScore":150,"contentScore":-3,"clarityScore":50,"professionalismScore":50}`)
	require.True(t, ok)
	assert.Equal(t, 100, r.StructureScore)
	assert.Equal(t, 0, r.ContentScore)
}

func TestRateCV(t *testing.T) {
	ctx := context.Background()

	_, err := newAdvisor(nil).RateCV(ctx, "")
	assert.EqualError(t, err, "cvText required")

	t.Run("external", func(t *testing.T) {
		gen := &stubGenerator{text: `{"structureScore":60,"contentScore":70,"clarityScore":80,"professionalismScore":90}`}
		r, err := newAdvisor(gen).RateCV(ctx, strings.Repeat("é", 5000))
		require.NoError(t, err)
		assert.Equal(t, 75, r.OverallScore)
		assert.Equal(t, domain.SourceExternal, r.Source)

		require.Len(t, gen.requests, 1)
		req := gen.requests[0]
		assert.Equal(t, cvMaxTokens, req.MaxTokens)
		assert.InDelta(t, cvTemperature, req.Temperature, 1e-9)
		assert.Equal(t, maxCVPromptRunes, strings.Count(req.Prompt, "é"))
	})

	t.Run("unparseable falls back", func(t *testing.T) {
		r, err := newAdvisor(&stubGenerator{text: "Looks fine to me."}).RateCV(ctx, "short cv")
		require.NoError(t, err)
		assert.Equal(t, HeuristicCV("short cv"), r)
	})

	t.Run("failure falls back", func(t *testing.T) {
		r, err := newAdvisor(&stubGenerator{err: errors.New("down")}).RateCV(ctx, "short cv")
		require.NoError(t, err)
		assert.Equal(t, domain.SourceHeuristic, r.Source)
	})
}

func TestStrengths(t *testing.T) {
	ctx := context.Background()
	responses := map[string]any{"q1": "I like solving puzzles"}

	for _, empty := range []any{nil, "", []any{}, map[string]any{}} {
		_, err := newAdvisor(nil).Strengths(ctx, candidate, empty)
		assert.EqualError(t, err, "responses required")
	}

	r, err := newAdvisor(nil).Strengths(ctx, candidate, responses)
	require.NoError(t, err)
	assert.Equal(t, DefaultStrengthReport(), r)

	gen := &stubGenerator{text: "You are analytical."}
	r, err = newAdvisor(gen).Strengths(ctx, candidate, responses)
	require.NoError(t, err)
	assert.Equal(t, "You are analytical.", r.Analysis)
	assert.Equal(t, domain.SourceExternal, r.Source)
	assert.Contains(t, gen.requests[0].Prompt, "I like solving puzzles")

	r, err = newAdvisor(&stubGenerator{err: errors.New("down")}).Strengths(ctx, candidate, responses)
	require.NoError(t, err)
	assert.Equal(t, FallbackStrengthAnalysis, r.Analysis)
	assert.Empty(t, r.Strengths)
}
