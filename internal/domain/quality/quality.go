// Package quality defines the quality metric model shared by the evaluator,
// the experts and the principal orchestrator.
package quality

import (
	"math"
	"strings"
	"time"
)

// Dimension is one axis of a quality assessment.
type Dimension string

const (
	Accuracy      Dimension = "accuracy"
	Completeness  Dimension = "completeness"
	Relevance     Dimension = "relevance"
	Timeliness    Dimension = "timeliness"
	Consistency   Dimension = "consistency"
	Clarity       Dimension = "clarity"
	Actionability Dimension = "actionability"
)

// Dimensions lists every dimension in evaluation order.
var Dimensions = []Dimension{
	Accuracy,
	Completeness,
	Relevance,
	Timeliness,
	Consistency,
	Clarity,
	Actionability,
}

// Title returns the dimension name with an upper-case first letter.
func (d Dimension) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// Metric is the assessment of a single dimension.
type Metric struct {
	Dimension       Dimension `json:"dimension"`
	Score           float64   `json:"score"`
	Weight          float64   `json:"weight"`
	Description     string    `json:"description"`
	Issues          []string  `json:"issues"`
	Recommendations []string  `json:"recommendations"`
}

// Normalize clamps the score into [0,1] and replaces nil slices with empty
// ones so the metric always serializes with list fields.
func (m Metric) Normalize() Metric {
	m.Score = Clamp(m.Score)
	if m.Issues == nil {
		m.Issues = []string{}
	}
	if m.Recommendations == nil {
		m.Recommendations = []string{}
	}
	return m
}

// Report is a complete quality assessment. It is derived from Metrics and
// not mutated after construction.
type Report struct {
	AgentName              string    `json:"agent_name"`
	RequestID              string    `json:"request_id"`
	OverallScore           float64   `json:"overall_score"`
	QualityLevel           Level     `json:"quality_level"`
	Metrics                []Metric  `json:"metrics"`
	Summary                string    `json:"summary"`
	Timestamp              time.Time `json:"timestamp"`
	PassedThreshold        bool      `json:"passed_threshold"`
	ApprovedForPublication bool      `json:"approved_for_publication"`
	TotalIssues            int       `json:"total_issues"`
	TotalRecommendations   int       `json:"total_recommendations"`
}

// WeightedScore returns sum(score*weight)/sum(weight). An empty list or a
// zero total weight yields 0.
func WeightedScore(metrics []Metric) float64 {
	var total, weighted float64
	for _, m := range metrics {
		total += m.Weight
		weighted += m.Score * m.Weight
	}
	if total <= 0 {
		return 0
	}
	return Clamp(weighted / total)
}

// CountFindings returns the total number of issues and recommendations.
func CountFindings(metrics []Metric) (issues, recommendations int) {
	for _, m := range metrics {
		issues += len(m.Issues)
		recommendations += len(m.Recommendations)
	}
	return issues, recommendations
}

// Clamp bounds s to [0,1]; NaN becomes 0.
func Clamp(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
