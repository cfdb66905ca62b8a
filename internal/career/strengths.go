package career

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/generator"
	"go.uber.org/zap"
)

const strengthSystemPrompt = `You are a career coach for strength and weakness analysis.
Based on the user's answers, identify:
- the top 3-5 strengths
- 2-3 areas for development
- concrete recommendations for further development`

// FallbackStrengthAnalysis is returned when the external call fails.
const FallbackStrengthAnalysis = "Based on your answers you show good analytical skills and team orientation. " +
	"Work on your time management and a structured approach to complex problems."

// StrengthReport is either a structured fallback or a free-text analysis.
type StrengthReport struct {
	Strengths       []string      `json:"strengths,omitempty"`
	Weaknesses      []string      `json:"weaknesses,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
	Analysis        string        `json:"analysis,omitempty"`
	Source          domain.Source `json:"source"`
}

// DefaultStrengthReport is used when no generator is configured.
func DefaultStrengthReport() StrengthReport {
	return StrengthReport{
		Strengths:  []string{"Teamwork", "Analytical thinking", "Communication"},
		Weaknesses: []string{"Time management", "Delegation"},
		Recommendations: []string{
			"Focus on structured working methods",
			"Look for mentoring on leadership skills",
		},
		Source: domain.SourceHeuristic,
	}
}

// Strengths analyses self-assessment answers. responses is any JSON value
// submitted by the client.
func (a *Advisor) Strengths(ctx context.Context, c *domain.Candidate, responses any) (StrengthReport, error) {
	if isEmpty(responses) {
		return StrengthReport{}, domain.WithReason(domain.ErrBadRequest, "responses required")
	}
	if a.gen == nil {
		return DefaultStrengthReport(), nil
	}

	body, err := json.MarshalIndent(responses, "", "  ")
	if err != nil {
		return StrengthReport{}, domain.WithReason(domain.ErrBadRequest, "responses must be JSON")
	}
	username, study, _ := candidateFields(c)
	text, err := a.complete(ctx, generator.Request{
		System:      strengthSystemPrompt,
		Prompt:      fmt.Sprintf("User: %s\nField of study: %s\n\nAnswers:\n%s", username, study, body),
		MaxTokens:   strengthMaxTokens,
		Temperature: defaultTemperature,
	})
	if err != nil {
		a.logger.Warn("external strength analysis failed, using fallback", zap.Error(err))
		return StrengthReport{Analysis: FallbackStrengthAnalysis, Source: domain.SourceHeuristic}, nil
	}
	return StrengthReport{Analysis: text, Source: domain.SourceExternal}, nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
