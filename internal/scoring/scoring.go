// Package scoring computes dashboard scores and end-of-interview analyses.
package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/generator"
	"github.com/ashureev/careersim/internal/logging"
	"go.uber.org/zap"
)

// DefaultPosition is used when the candidate has no target employer.
const DefaultPosition = "Software Engineer"

const defaultIndustry = "Technology"

// Heuristic analysis texts.
const (
	heuristicOverall   = "You performed solidly in this interview. Your answers show engagement and preparation."
	heuristicKnowledge = "Your subject knowledge was recognisable. More concrete examples would strengthen your answers."
	heuristicDelivery  = "You came across as mostly confident. Pay attention to an open posture."
	heuristicSpeaking  = "Your wording was clear. Slow down a little on complex topics."
	heuristicStructure = "Your answers were structured. The STAR method helps you become even more precise."
)

var (
	heuristicStrengths = []string{
		"Visible engagement and motivation",
		"Appropriate answer lengths",
		"Attempts to answer in a structured way",
		"Clear interest in the subject",
	}
	heuristicImprovements = []string{
		"Include more concrete examples from practice",
		"Apply the STAR method more consistently",
		"Take more time to think on complex questions",
		"Prepare your own questions about the company",
	}
)

// Offsets from the base score for the four analysis dimensions.
const (
	offsetKnowledge = 5
	offsetDelivery  = -7
	offsetSpeaking  = 2
	offsetStructure = 10
)

const analysisSystemPrompt = `You are an experienced interview coach and HR expert. Analyse the following interview transcript and give detailed feedback.

Rate the following categories (scale 0-100):
1. knowledge: domain knowledge and professional competence
2. body: presence and delivery (judged from answer quality)
3. speaking: clarity and pace (judged from wording)
4. structure: answer structure (STAR method, logic)

Also give:
- strengths: 3-5 concrete strengths
- improvements: 3-5 concrete suggestions
- overallFeedback: overall feedback (2-3 sentences)
- overallScore: overall score 0-100

Answer with a single JSON object using the keys overallScore, overallFeedback, knowledge, knowledgeDesc,
body, bodyDesc, speaking, speakingDesc, structure, structureDesc, strengths, improvements.`

// AnswerPoints returns the dashboard contribution of one answer.
func AnswerPoints(answer string) int {
	n := utf8.RuneCountInString(answer)
	switch {
	case n > 200:
		return 25
	case n > 100:
		return 18
	case n > 50:
		return 12
	default:
		return 5
	}
}

// DashboardScore sums the per-answer points, capped at 100.
func DashboardScore(history []domain.HistoryEntry) int {
	score := 0
	for _, h := range history {
		score += AnswerPoints(h.Answer)
	}
	return min(score, 100)
}

// BaseScore derives the analysis base score from the mean answer length.
func BaseScore(history []domain.HistoryEntry) int {
	if len(history) == 0 {
		return 50
	}
	total := 0
	for _, h := range history {
		total += utf8.RuneCountInString(h.Answer)
	}
	// Integer division floors the non-negative mean.
	return min(100, 50+total/len(history)/10)
}

func clamp(v int) int {
	return max(0, min(100, v))
}

// HeuristicAnalysis builds the local analysis for an interview.
func HeuristicAnalysis(iv *domain.Interview, c *domain.Candidate, now time.Time) domain.Analysis {
	base := BaseScore(iv.History)
	return domain.Analysis{
		Position:        position(c),
		Industry:        defaultIndustry,
		DurationMinutes: iv.DurationMinutes(),
		Date:            now,
		OverallScore:    base,
		OverallFeedback: heuristicOverall,
		Metrics: domain.AnalysisMetrics{
			Knowledge: domain.MetricScore{Score: clamp(base + offsetKnowledge), Description: heuristicKnowledge},
			Delivery:  domain.MetricScore{Score: clamp(base + offsetDelivery), Description: heuristicDelivery},
			Speaking:  domain.MetricScore{Score: clamp(base + offsetSpeaking), Description: heuristicSpeaking},
			Structure: domain.MetricScore{Score: clamp(base + offsetStructure), Description: heuristicStructure},
		},
		Strengths:    append([]string(nil), heuristicStrengths...),
		Improvements: append([]string(nil), heuristicImprovements...),
		Source:       domain.SourceHeuristic,
	}
}

func position(c *domain.Candidate) string {
	if c != nil && strings.TrimSpace(c.TargetEmployer) != "" {
		return c.TargetEmployer
	}
	return DefaultPosition
}

// Recorder counts produced analyses by source.
type Recorder interface {
	ObserveAnalysis(source domain.Source)
}

// Options configures the external tier.
type Options struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// Aggregator produces end-of-interview analyses.
type Aggregator struct {
	gen    generator.Generator
	opts   Options
	rec    Recorder
	logger *zap.Logger
	now    func() time.Time
}

// NewAggregator creates an Aggregator. gen may be nil.
func NewAggregator(gen generator.Generator, opts Options, rec Recorder, logger *zap.Logger) *Aggregator {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1500
	}
	return &Aggregator{gen: gen, opts: opts, rec: rec, logger: logging.Named(logger, "scoring"), now: time.Now}
}

// Analyze never fails. The result is either fully heuristic or the parsed
// external answer with heuristic defaults for missing fields.
func (a *Aggregator) Analyze(ctx context.Context, iv *domain.Interview, c *domain.Candidate) domain.Analysis {
	result := HeuristicAnalysis(iv, c, a.now())

	if a.gen != nil {
		raw, err := a.external(ctx, iv, c)
		switch {
		case err != nil:
			a.logger.Warn("external analysis failed, using heuristic",
				zap.String("interview_id", iv.ID), zap.Error(err))
		default:
			if fields, ok := ParseAnalysis(raw); ok {
				result = fields.Apply(result)
			} else {
				a.logger.Warn("external analysis unparseable, using heuristic",
					zap.String("interview_id", iv.ID),
					zap.String("response_preview", logging.TruncateForLog(raw, 200)))
			}
		}
	}

	if a.rec != nil {
		a.rec.ObserveAnalysis(result.Source)
	}
	return result
}

func (a *Aggregator) external(ctx context.Context, iv *domain.Interview, c *domain.Candidate) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	text, err := a.gen.Complete(ctx, generator.Request{
		System:      analysisSystemPrompt,
		Prompt:      transcriptPrompt(iv, c),
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneratorUnavailable, err)
	}
	return text, nil
}

func transcriptPrompt(iv *domain.Interview, c *domain.Candidate) string {
	var study, target string
	if c != nil {
		study, target = c.FieldOfStudy, c.TargetEmployer
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Candidate: %s\nTarget position: %s\n\nINTERVIEW TRANSCRIPT:\n", orUnspecified(study), orUnspecified(target))
	for i, h := range iv.History {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Question %d: %s\nAnswer: %s\n", i+1, h.Question, h.Answer)
	}
	b.WriteString("\nPlease analyse and rate the interview.")
	return b.String()
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not specified"
	}
	return s
}
