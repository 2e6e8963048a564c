package evaluation

import (
	"fmt"
	"strings"

	"github.com/Strob0t/TwinForge/internal/domain/quality"
)

// DefaultWeights is the weight table used by the default rules and by the
// expert rule sets.
var DefaultWeights = map[quality.Dimension]float64{
	quality.Accuracy:      0.30,
	quality.Completeness:  0.20,
	quality.Relevance:     0.20,
	quality.Timeliness:    0.10,
	quality.Consistency:   0.10,
	quality.Clarity:       0.05,
	quality.Actionability: 0.05,
}

// DefaultMetric is the entry for a dimension without a custom rule.
func DefaultMetric(d quality.Dimension) quality.Metric {
	return quality.Metric{
		Dimension:       d,
		Score:           0.5,
		Weight:          DefaultWeights[d],
		Description:     fmt.Sprintf("%s assessment not implemented for this agent", d.Title()),
		Issues:          []string{d.Title() + " assessment not customized"},
		Recommendations: []string{"Implement custom " + string(d) + " assessment"},
	}
}

// Response-time bands for the timeliness rule, in seconds.
const (
	excellentResponse    = 5.0
	goodResponse         = 15.0
	satisfactoryResponse = 30.0
	slowResponse         = 60.0
)

// Timeliness is the shared rule for the timeliness dimension.
func Timeliness(seconds float64) quality.Metric {
	m := quality.Metric{
		Dimension: quality.Timeliness,
		Weight:    DefaultWeights[quality.Timeliness],
	}
	switch {
	case seconds <= excellentResponse:
		m.Score = 1.0
		m.Description = fmt.Sprintf("Excellent response time: %.2fs", seconds)
	case seconds <= goodResponse:
		m.Score = 0.8
		m.Description = fmt.Sprintf("Good response time: %.2fs", seconds)
	case seconds <= satisfactoryResponse:
		m.Score = 0.6
		m.Description = fmt.Sprintf("Satisfactory response time: %.2fs", seconds)
	case seconds <= slowResponse:
		m.Score = 0.4
		m.Description = fmt.Sprintf("Response time needs improvement: %.2fs", seconds)
	default:
		m.Score = 0.2
		m.Description = fmt.Sprintf("Poor response time: %.2fs", seconds)
	}

	if seconds > goodResponse {
		m.Issues = append(m.Issues, fmt.Sprintf("Response time (%.2fs) exceeds optimal threshold", seconds))
		m.Recommendations = append(m.Recommendations, "Consider optimizing agent processing logic")
	}
	return m.Normalize()
}

// DefaultSummary renders the expert report summary.
func DefaultSummary(metrics []quality.Metric, score float64, level quality.Level) string {
	issues, recs := quality.CountFindings(metrics)

	var b strings.Builder
	fmt.Fprintf(&b, "Quality Assessment: %s (Score: %.2f)\n", strings.ToUpper(string(level)), score)
	fmt.Fprintf(&b, "Total Issues Found: %d\n", issues)
	fmt.Fprintf(&b, "Total Recommendations: %d\n", recs)
	if issues == 0 {
		b.WriteString("No quality issues detected. Results are ready for publication.")
	} else {
		b.WriteString("Quality issues detected. Review recommended before publication.")
	}
	return b.String()
}
