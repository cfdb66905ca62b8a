// Package career implements the coaching tools around the interview engine:
// free-form career advice, CV rating and strength analysis.
//
// Every operation has a local fallback. The external generator, when
// configured, is tried first under a timeout.
package career

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/generator"
	"github.com/ashureev/careersim/internal/logging"
	"go.uber.org/zap"
)

const (
	adviceMaxTokens   = 800
	cvMaxTokens       = 1000
	strengthMaxTokens = 600

	cvTemperature      = 0.5
	defaultTemperature = 0.7
)

const adviceSystemPrompt = `You are a professional career advisor with expertise in:
- career planning and development
- application processes and CV optimisation
- strength and weakness analysis
- career entry for students and graduates
- industry-specific career paths

Answer in a friendly, professional and concrete way. Give practical, actionable advice.`

// Fallback advice texts, selected by keywords in the question.
const (
	AdviceCV        = `For a strong CV: 1) clear structure with headings, 2) measurable achievements (e.g. "increased revenue by 20%"), 3) highlight skills relevant to the target position, 4) at most two pages, 5) flawless spelling and a professional layout.`
	AdviceStrengths = `For the strengths and weaknesses question: name real strengths with examples (e.g. "teamwork: successfully led a five-person team"). For weaknesses show self-reflection and willingness to learn (e.g. "time management: I work on it with the Pomodoro technique").`
	AdviceInterview = `Interview tips: 1) prepare STAR answers (Situation, Task, Action, Result), 2) research the company thoroughly, 3) prepare your own questions, 4) practise with mock interviews, 5) be authentic and show enthusiasm for the position.`
	AdviceCareer    = `For your career planning: 1) define clear short and long term goals, 2) identify the skills you need and close the gaps, 3) network actively (LinkedIn, events), 4) collect relevant experience (internships, projects), 5) stay flexible and open to opportunities.`
	AdviceDefault   = `Thanks for your question! I am happy to help with career planning, applications, CV optimisation and interview preparation. Could you phrase your question a little more specifically?`
)

var adviceRules = []struct {
	keywords []string
	text     string
}{
	{[]string{"cv", "lebenslauf", "resume"}, AdviceCV},
	{[]string{"stärken", "schwächen", "strength", "weakness"}, AdviceStrengths},
	{[]string{"interview", "bewerbungsgespräch"}, AdviceInterview},
	{[]string{"karriere", "beruf", "career"}, AdviceCareer},
}

// Options configures the external tier.
type Options struct {
	Timeout time.Duration
}

// Advisor answers coaching requests.
type Advisor struct {
	gen    generator.Generator
	opts   Options
	logger *zap.Logger
}

// NewAdvisor creates an Advisor. gen may be nil.
func NewAdvisor(gen generator.Generator, opts Options, logger *zap.Logger) *Advisor {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	return &Advisor{gen: gen, opts: opts, logger: logging.Named(logger, "career")}
}

// Advice answers a free-form career question.
func (a *Advisor) Advice(ctx context.Context, c *domain.Candidate, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", domain.WithReason(domain.ErrBadRequest, "message required")
	}

	if a.gen != nil {
		text, err := a.complete(ctx, generator.Request{
			System:      adviceSystemPrompt,
			Prompt:      adviceContext(c, message),
			MaxTokens:   adviceMaxTokens,
			Temperature: defaultTemperature,
		})
		if err == nil {
			return text, nil
		}
		a.logger.Warn("external career advice failed, using fallback", zap.Error(err))
	}
	return FallbackAdvice(message), nil
}

// FallbackAdvice picks a canned answer by keyword.
func FallbackAdvice(message string) string {
	msg := strings.ToLower(message)
	for _, rule := range adviceRules {
		for _, kw := range rule.keywords {
			if strings.Contains(msg, kw) {
				return rule.text
			}
		}
	}
	return AdviceDefault
}

func adviceContext(c *domain.Candidate, message string) string {
	username, study, target := candidateFields(c)
	return fmt.Sprintf("User: %s\nField of study: %s\nTarget employer: %s\n\nQuestion: %s", username, study, target, message)
}

func candidateFields(c *domain.Candidate) (username, study, target string) {
	if c == nil {
		return "", "not specified", "not specified"
	}
	return c.Username, orUnspecified(c.FieldOfStudy), orUnspecified(c.TargetEmployer)
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not specified"
	}
	return s
}

// complete runs one external request under the advisor timeout and rejects
// blank output.
func (a *Advisor) complete(ctx context.Context, req generator.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	text, err := a.gen.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneratorUnavailable, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneratorUnavailable, generator.ErrEmptyResponse)
	}
	return text, nil
}
