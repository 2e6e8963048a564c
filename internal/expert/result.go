package expert

import (
	"fmt"
	"strings"

	"github.com/Strob0t/TwinForge/internal/domain/quality"
)

// Well-known result keys.
const (
	KeyAnalysisType     = "analysis_type"
	KeyProcessingTime   = "processing_time"
	KeyExpertAgent      = "expert_agent"
	KeyExpertise        = "expertise"
	KeyQualityReport    = "quality_report"
	KeyError            = "error"
	KeyStatus           = "status"
	KeyInsights         = "insights"
	KeyRecommendations  = "recommendations"
	KeyMetrics          = "metrics"
	KeyEstimatedSavings = "estimated_savings"
)

// Result is an open-schema expert analysis. Generators emit []string for
// list fields; results decoded from JSON carry []any instead, and the
// accessors accept both.
type Result map[string]any

// ProcessingSeconds implements evaluation.Subject.
func (r Result) ProcessingSeconds() float64 {
	switch v := r[KeyProcessingTime].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// String returns the string value at key, or "" when absent or not a string.
func (r Result) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Strings returns the list at key. ok is false when the key is present but
// does not hold a list of strings.
func (r Result) Strings(key string) (list []string, ok bool) {
	v, present := r[key]
	if !present || v == nil {
		return nil, true
	}
	switch l := v.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			s, isString := item.(string)
			if !isString {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// Len returns the length of the list at key, 0 for anything else.
func (r Result) Len(key string) int {
	switch l := r[key].(type) {
	case []string:
		return len(l)
	case []any:
		return len(l)
	}
	return 0
}

// Present reports whether key holds a non-empty value.
func (r Result) Present(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case []string:
		return len(t) > 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	case bool:
		return t
	}
	return true
}

// Failed reports whether the result is an error slot.
func (r Result) Failed() bool {
	_, ok := r[KeyError]
	return ok
}

// Report returns the embedded quality report, if any.
func (r Result) Report() (quality.Report, bool) {
	rep, ok := r[KeyQualityReport].(quality.Report)
	return rep, ok
}

// Text is the lowercased rendering of the whole result that keyword rules
// scan. Keys are included.
func (r Result) Text() string {
	return strings.ToLower(fmt.Sprint(map[string]any(r)))
}

// FailedResult is the slot recorded for an expert that did not produce an
// analysis.
func FailedResult(key string, err string) Result {
	return Result{
		KeyError:       err,
		KeyExpertAgent: key,
		KeyStatus:      "failed",
	}
}
