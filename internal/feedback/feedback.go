// Package feedback turns a recorded answer into coaching feedback.
//
// A local rule set always produces a result. When an external generator is
// configured its answer is preferred, bounded by a timeout; any failure of
// the external call falls back to the local result.
package feedback

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/generator"
	"github.com/ashureev/careersim/internal/logging"
	"go.uber.org/zap"
)

// Heuristic feedback texts.
const (
	TextEmpty     = "Try to answer in a structured way: Situation, Task, Action, Result."
	TextTooShort  = "Too short: give more concrete examples and numbers where possible."
	TextTeam      = "Good team orientation is visible. Name the concrete role you had."
	TextOwnership = "Strong: you take responsibility. Mention a concrete result."
	TextDefault   = "Well structured. Add concrete numbers or results to strengthen your answer."
)

// minAnswerRunes is the length below which an answer counts as too short.
const minAnswerRunes = 50

const systemPrompt = "You are a professional interview coach. Give precise, constructive feedback on the candidate's answer. " +
	"Use the STAR method (Situation, Task, Action, Result) for your assessment."

var (
	teamPattern      = regexp.MustCompile(`(?i)\b(team\w*|we|us|our|wir)\b`)
	firstPersonRe    = regexp.MustCompile(`(?i)\b(i|ich)\b`)
	ownershipPattern = regexp.MustCompile(`(?i)(responsib|verantwort|ownership)`)
	overridePattern  = regexp.MustCompile(`(?i)(?:NEXT_QUESTION|NÄCHSTE_FRAGE)[ \t]*:[ \t]*(.+)`)
)

// Context is the interview context embedded in the external prompt.
type Context struct {
	FieldOfStudy   string
	TargetEmployer string
	Question       string
}

// Recorder counts produced feedback by source.
type Recorder interface {
	ObserveFeedback(source domain.Source)
}

// Options configures the external tier.
type Options struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// Synthesizer produces feedback for one answer.
type Synthesizer struct {
	gen    generator.Generator
	opts   Options
	rec    Recorder
	logger *zap.Logger
}

// NewSynthesizer creates a Synthesizer. gen may be nil, in which case only
// the heuristic tier runs.
func NewSynthesizer(gen generator.Generator, opts Options, rec Recorder, logger *zap.Logger) *Synthesizer {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	return &Synthesizer{gen: gen, opts: opts, rec: rec, logger: logging.Named(logger, "feedback")}
}

// Synthesize never fails; it returns external feedback when available and
// the heuristic result otherwise.
func (s *Synthesizer) Synthesize(ctx context.Context, answer string, ic Context) domain.Feedback {
	fb := domain.Feedback{Text: Heuristic(answer), Source: domain.SourceHeuristic}

	if s.gen != nil {
		if text, err := s.external(ctx, answer, ic); err != nil {
			s.logger.Warn("external feedback failed, using heuristic",
				zap.String("provider", s.gen.Name()),
				zap.Error(err))
		} else {
			fb = domain.Feedback{
				Text:                 text,
				NextQuestionOverride: ParseOverride(text),
				Source:               domain.SourceExternal,
			}
		}
	}

	if s.rec != nil {
		s.rec.ObserveFeedback(fb.Source)
	}
	return fb
}

func (s *Synthesizer) external(ctx context.Context, answer string, ic Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	text, err := s.gen.Complete(ctx, generator.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(answer, ic),
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneratorUnavailable, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneratorUnavailable, generator.ErrEmptyResponse)
	}
	return text, nil
}

func buildPrompt(answer string, ic Context) string {
	return fmt.Sprintf(`Field of study: %s
Target employer: %s
Interview question: "%s"
Candidate answer: "%s"

Please provide:
1. Short feedback (2-3 sentences) on the quality of the answer
2. One concrete suggestion for improvement
3. Optional: a fitting follow-up question, on its own line prefixed with "NEXT_QUESTION:"`,
		orUnspecified(ic.FieldOfStudy), orUnspecified(ic.TargetEmployer), ic.Question, answer)
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not specified"
	}
	return s
}

// Heuristic returns the rule-based feedback for answer. Rules are checked in
// order: empty, too short, team language, ownership language, default.
func Heuristic(answer string) string {
	a := strings.TrimSpace(answer)
	switch {
	case a == "":
		return TextEmpty
	case utf8.RuneCountInString(a) < minAnswerRunes:
		return TextTooShort
	case teamPattern.MatchString(a):
		return TextTeam
	case firstPersonRe.MatchString(a) && ownershipPattern.MatchString(a):
		return TextOwnership
	default:
		return TextDefault
	}
}

// ParseOverride extracts the suggested next question from a marked line, or
// returns "" when there is none.
func ParseOverride(text string) string {
	m := overridePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(m[1]), "*\"'` ")
}
