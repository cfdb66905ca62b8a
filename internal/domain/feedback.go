package domain

import "time"

// Source records which tier produced a feedback or analysis result.
type Source string

const (
	// SourceHeuristic is the local rule-based tier.
	SourceHeuristic Source = "heuristic"
	// SourceExternal is the external generator tier.
	SourceExternal Source = "external"
)

// Feedback is the per-answer result of the feedback pipeline.
type Feedback struct {
	Text                 string
	NextQuestionOverride string
	Source               Source
}

// MetricScore is one scored analysis dimension.
type MetricScore struct {
	Score       int    `json:"score"`
	Description string `json:"description"`
}

// AnalysisMetrics holds the four fixed analysis dimensions.
type AnalysisMetrics struct {
	Knowledge MetricScore `json:"knowledge"`
	Delivery  MetricScore `json:"body"`
	Speaking  MetricScore `json:"speaking"`
	Structure MetricScore `json:"structure"`
}

// Analysis is the end-of-interview assessment.
type Analysis struct {
	Position        string          `json:"position"`
	Industry        string          `json:"industry"`
	DurationMinutes int             `json:"duration"`
	Date            time.Time       `json:"date"`
	OverallScore    int             `json:"overallScore"`
	OverallFeedback string          `json:"overallFeedback"`
	Metrics         AnalysisMetrics `json:"metrics"`
	Strengths       []string        `json:"strengths"`
	Improvements    []string        `json:"improvements"`
	Source          Source          `json:"source"`
}
