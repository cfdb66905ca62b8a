package career

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/generator"
	"github.com/ashureev/careersim/internal/logging"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// maxCVPromptRunes bounds the CV text sent to the external generator.
const maxCVPromptRunes = 3000

const cvBaseScore = 70

const cvSystemPrompt = `You are a professional CV analyst. Analyse CVs and rate them in the following categories (0-100 points each):

1. Structure and format: clarity, layout, formatting
2. Content and relevance: quality of experience and qualifications
3. Clarity: comprehensibility, precise wording
4. Professionalism: language, style, completeness

Answer with a single JSON object with the keys overallScore, structureScore, contentScore,
clarityScore, professionalismScore and feedback (an array of {type, title, text}).`

var (
	emailPattern      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern      = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	educationPattern  = regexp.MustCompile(`(?i)bildung|ausbildung|studium|university|universität|education|degree`)
	experiencePattern = regexp.MustCompile(`(?i)erfahrung|praktikum|beruf|project|projekt|experience|internship`)
)

// FeedbackItem is one remark of a CV rating.
type FeedbackItem struct {
	Type  string `json:"type" mapstructure:"type"`
	Title string `json:"title" mapstructure:"title"`
	Text  string `json:"text" mapstructure:"text"`
}

// CVRating scores a CV on four dimensions.
type CVRating struct {
	OverallScore         int            `json:"overallScore"`
	StructureScore       int            `json:"structureScore"`
	ContentScore         int            `json:"contentScore"`
	ClarityScore         int            `json:"clarityScore"`
	ProfessionalismScore int            `json:"professionalismScore"`
	Feedback             []FeedbackItem `json:"feedback"`
	Source               domain.Source  `json:"source"`
}

// RateCV rates the CV text.
func (a *Advisor) RateCV(ctx context.Context, cvText string) (CVRating, error) {
	if strings.TrimSpace(cvText) == "" {
		return CVRating{}, domain.WithReason(domain.ErrBadRequest, "cvText required")
	}
	fallback := HeuristicCV(cvText)
	if a.gen == nil {
		return fallback, nil
	}

	raw, err := a.complete(ctx, generator.Request{
		System:      cvSystemPrompt,
		Prompt:      "Please analyse this CV:\n\n" + truncateRunes(cvText, maxCVPromptRunes),
		MaxTokens:   cvMaxTokens,
		Temperature: cvTemperature,
	})
	if err != nil {
		a.logger.Warn("external CV rating failed, using heuristic", zap.Error(err))
		return fallback, nil
	}
	rating, ok := ParseCVRating(raw)
	if !ok {
		a.logger.Warn("external CV rating unparseable, using heuristic",
			zap.String("response_preview", logging.TruncateForLog(raw, 200)))
		return fallback, nil
	}
	return rating, nil
}

// HeuristicCV scores a CV from word count, contact data and keywords.
func HeuristicCV(cvText string) CVRating {
	words := len(strings.Fields(cvText))
	hasContact := emailPattern.MatchString(cvText) && phonePattern.MatchString(cvText)

	r := CVRating{
		StructureScore:       cvBaseScore,
		ContentScore:         cvBaseScore,
		ClarityScore:         cvBaseScore,
		ProfessionalismScore: cvBaseScore,
		Source:               domain.SourceHeuristic,
	}
	if words > 300 {
		r.ContentScore += 10
	}
	if hasContact {
		r.StructureScore += 15
	}
	if educationPattern.MatchString(cvText) {
		r.ContentScore += 10
	}
	if experiencePattern.MatchString(cvText) {
		r.ContentScore += 10
	}
	r.OverallScore = average(r.StructureScore, r.ContentScore, r.ClarityScore, r.ProfessionalismScore)

	strength := "Basic structure is recognisable"
	if hasContact {
		strength = "Contact details are present"
	}
	improvement := "Add measurable achievements"
	if words < 200 {
		improvement = "The CV is too short, add more detail"
	}
	r.Feedback = []FeedbackItem{
		{Type: "strength", Title: "Strengths", Text: strength},
		{Type: "improvement", Title: "Room for improvement", Text: improvement},
		{Type: "recommendation", Title: "Recommendations", Text: `Use clear headings, add dates and quantify your achievements (e.g. "increased revenue by 20%").`},
	}
	return r
}

type cvFields struct {
	OverallScore         *int           `json:"overallScore"`
	StructureScore       *int           `json:"structureScore"`
	ContentScore         *int           `json:"contentScore"`
	ClarityScore         *int           `json:"clarityScore"`
	ProfessionalismScore *int           `json:"professionalismScore"`
	Feedback             []FeedbackItem `json:"feedback"`
}

// ParseCVRating decodes an external CV rating. All four dimension scores must
// be present; the overall score is derived from them when missing.
func ParseCVRating(raw string) (CVRating, bool) {
	obj := generator.ExtractJSON(raw)
	if obj == "" {
		return CVRating{}, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return CVRating{}, false
	}

	var f cvFields
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           &f,
	})
	if err != nil {
		return CVRating{}, false
	}
	if err := dec.Decode(m); err != nil {
		return CVRating{}, false
	}
	if f.StructureScore == nil || f.ContentScore == nil || f.ClarityScore == nil || f.ProfessionalismScore == nil {
		return CVRating{}, false
	}

	r := CVRating{
		StructureScore:       clamp(*f.StructureScore),
		ContentScore:         clamp(*f.ContentScore),
		ClarityScore:         clamp(*f.ClarityScore),
		ProfessionalismScore: clamp(*f.ProfessionalismScore),
		Source:               domain.SourceExternal,
	}
	if f.OverallScore != nil {
		r.OverallScore = clamp(*f.OverallScore)
	} else {
		r.OverallScore = average(r.StructureScore, r.ContentScore, r.ClarityScore, r.ProfessionalismScore)
	}
	for _, item := range f.Feedback {
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		r.Feedback = append(r.Feedback, item)
	}
	if r.Feedback == nil {
		r.Feedback = []FeedbackItem{}
	}
	return r, true
}

func average(scores ...int) int {
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return int(math.Round(float64(sum) / float64(len(scores))))
}

func clamp(v int) int {
	return max(0, min(100, v))
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
