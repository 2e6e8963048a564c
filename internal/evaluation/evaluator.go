// Package evaluation scores agent output across the seven quality
// dimensions. Each owning component supplies a RuleSet: a strategy map from
// dimension to rule, a threshold, and optional level and summary writers.
// Dimensions without a custom rule fall back to the default table, and
// timeliness always uses the shared rule.
package evaluation

import (
	"errors"
	"fmt"
	"time"

	"github.com/Strob0t/TwinForge/internal/domain/quality"
	"github.com/Strob0t/TwinForge/internal/domain/request"
)

const (
	// PublicationFloor is the global minimum score for publication,
	// independent of a component's own threshold.
	PublicationFloor = 0.70

	// DefaultThreshold applies to rule sets that do not set one.
	DefaultThreshold = 0.60
)

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// Subject is anything the evaluator can score. ProcessingSeconds feeds the
// shared timeliness rule.
type Subject interface {
	ProcessingSeconds() float64
}

// Rule assesses one dimension of subject against the originating request.
type Rule[T Subject] func(subject T, req *request.Request) quality.Metric

// SummaryFunc renders the report summary text.
type SummaryFunc func(metrics []quality.Metric, score float64, level quality.Level) string

// RuleSet is the scoring strategy owned by one agent.
type RuleSet[T Subject] struct {
	Agent string
	// Threshold for passed_threshold. Zero means DefaultThreshold.
	Threshold float64

	// Dimensions evaluated, in order. Nil means quality.Dimensions.
	Dimensions []quality.Dimension
	Rules      map[quality.Dimension]Rule[T]

	// Level defaults to quality.LevelFor, Summary to DefaultSummary.
	Level   func(score float64) quality.Level
	Summary SummaryFunc
}

// Validate checks that the rule set can produce a meaningful report.
func (rs *RuleSet[T]) Validate() error {
	if rs.Agent == "" {
		return errors.New("rule set: agent name is required")
	}
	if rs.Threshold < 0 || rs.Threshold > 1 {
		return fmt.Errorf("rule set %s: threshold %.2f outside [0,1]", rs.Agent, rs.Threshold)
	}
	for _, d := range rs.dimensions() {
		if _, ok := DefaultWeights[d]; !ok {
			return fmt.Errorf("rule set %s: unknown dimension %q", rs.Agent, d)
		}
	}
	return nil
}

func (rs *RuleSet[T]) dimensions() []quality.Dimension {
	if rs.Dimensions == nil {
		return quality.Dimensions
	}
	return rs.Dimensions
}

// Evaluate runs every dimension of rs against subject and assembles the
// report. It never fails: a degenerate metric list scores 0.
func Evaluate[T Subject](subject T, req *request.Request, rs RuleSet[T]) quality.Report {
	dims := rs.dimensions()
	metrics := make([]quality.Metric, 0, len(dims))
	for _, d := range dims {
		var m quality.Metric
		switch rule, ok := rs.Rules[d]; {
		case d == quality.Timeliness:
			m = Timeliness(subject.ProcessingSeconds())
		case ok && rule != nil:
			m = rule(subject, req)
		default:
			m = DefaultMetric(d)
		}
		m.Dimension = d
		metrics = append(metrics, m.Normalize())
	}

	score := quality.WeightedScore(metrics)

	threshold := rs.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	passed := score >= threshold

	levelFor := rs.Level
	if levelFor == nil {
		levelFor = quality.LevelFor
	}
	level := levelFor(score)

	summarize := rs.Summary
	if summarize == nil {
		summarize = DefaultSummary
	}

	issues, recs := quality.CountFindings(metrics)

	requestID := "unknown"
	if req != nil && req.RequestID != "" {
		requestID = req.RequestID
	}

	return quality.Report{
		AgentName:              rs.Agent,
		RequestID:              requestID,
		OverallScore:           score,
		QualityLevel:           level,
		Metrics:                metrics,
		Summary:                summarize(metrics, score, level),
		Timestamp:              now(),
		PassedThreshold:        passed,
		ApprovedForPublication: passed && score >= PublicationFloor,
		TotalIssues:            issues,
		TotalRecommendations:   recs,
	}
}
