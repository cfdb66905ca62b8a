package feedback

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	text  string
	err   error
	delay time.Duration

	mu       sync.Mutex
	requests []generator.Request
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Complete(ctx context.Context, req generator.Request) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.text, s.err
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[domain.Source]int
}

func (c *countingRecorder) ObserveFeedback(src domain.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[domain.Source]int{}
	}
	c.counts[src]++
}

func TestHeuristic(t *testing.T) {
	long := func(s string) string { return s + strings.Repeat(" and more detail", 4) }

	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{"empty", "", TextEmpty},
		{"whitespace", "   \n", TextEmpty},
		{"too short", "I did a thing.", TextTooShort},
		{"team", long("Our team shipped the product on time"), TextTeam},
		{"wir", long("Wir haben das Projekt gemeinsam umgesetzt"), TextTeam},
		{"ownership", long("I took responsibility for the migration"), TextOwnership},
		{"ownership german", long("Ich habe Verantwortung fuer die Planung"), TextOwnership},
		{"default", long("The migration finished ahead of schedule"), TextDefault},
		{"teamwork", long("Teamwork with my teammates made the launch possible"), TextTeam},
		{"teamarbeit", long("Teamarbeit war bei der Umsetzung entscheidend"), TextTeam},
		{"team word inside another word is not team", long("Steamboats were the subject of my thesis"), TextDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Heuristic(tt.answer))
		})
	}
}

func TestHeuristic_BoundaryAt50Runes(t *testing.T) {
	assert.Equal(t, TextTooShort, Heuristic(strings.Repeat("x", 49)))
	assert.Equal(t, TextDefault, Heuristic(strings.Repeat("x", 50)))
	assert.Equal(t, TextTooShort, Heuristic(strings.Repeat("ü", 49)), "counted in runes")
}

func TestParseOverride(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Nice.\nNEXT_QUESTION: How do you prioritise?", "How do you prioritise?"},
		{"Nice.\n**next_question:** \"Why finance?\"", "Why finance?"},
		{"Gut.\nNÄCHSTE_FRAGE: Warum wir?", "Warum wir?"},
		{"nächste_frage:   Wie?  \nmore text", "Wie?"},
		{"No override here.", ""},
		{"NEXT_QUESTION:   ", ""},
		{"Good.\nNEXT_QUESTION:\nYou explained the trade-offs well.", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseOverride(tt.in), tt.in)
	}
}

func TestSynthesize_NoGenerator(t *testing.T) {
	rec := &countingRecorder{}
	s := NewSynthesizer(nil, Options{}, rec, zap.NewNop())

	fb := s.Synthesize(context.Background(), "", Context{Question: "Q"})
	assert.Equal(t, TextEmpty, fb.Text)
	assert.Equal(t, domain.SourceHeuristic, fb.Source)
	assert.Empty(t, fb.NextQuestionOverride)
	assert.Equal(t, 1, rec.counts[domain.SourceHeuristic])
}

func TestSynthesize_External(t *testing.T) {
	gen := &stubGenerator{text: "  Solid answer.\nNEXT_QUESTION: Tell me about a failure.  "}
	rec := &countingRecorder{}
	s := NewSynthesizer(gen, Options{Timeout: time.Second, MaxTokens: 500, Temperature: 0.7}, rec, zap.NewNop())

	fb := s.Synthesize(context.Background(), "my answer", Context{FieldOfStudy: "BWL", TargetEmployer: "KPMG", Question: "Why us?"})
	assert.Equal(t, "Solid answer.\nNEXT_QUESTION: Tell me about a failure.", fb.Text)
	assert.Equal(t, "Tell me about a failure.", fb.NextQuestionOverride)
	assert.Equal(t, domain.SourceExternal, fb.Source)
	assert.Equal(t, 1, rec.counts[domain.SourceExternal])

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, 500, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	assert.Contains(t, req.System, "STAR")
	for _, want := range []string{"BWL", "KPMG", "Why us?", "my answer"} {
		assert.Contains(t, req.Prompt, want)
	}
}

func TestSynthesize_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{"error", &stubGenerator{err: errors.New("connection refused")}},
		{"empty text", &stubGenerator{text: "   "}},
		{"timeout", &stubGenerator{text: "late", delay: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSynthesizer(tt.gen, Options{Timeout: 30 * time.Millisecond}, nil, zap.NewNop())

			start := time.Now()
			fb := s.Synthesize(context.Background(), "", Context{})
			assert.Less(t, time.Since(start), 500*time.Millisecond)
			assert.Equal(t, TextEmpty, fb.Text)
			assert.Equal(t, domain.SourceHeuristic, fb.Source)
			assert.Empty(t, fb.NextQuestionOverride)
		})
	}
}

func TestBuildPrompt_Unspecified(t *testing.T) {
	p := buildPrompt("a", Context{Question: "q"})
	assert.Contains(t, p, "Field of study: not specified")
	assert.Contains(t, p, "Target employer: not specified")
	assert.Contains(t, p, "NEXT_QUESTION:")
}
