package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/expert"
)

// Synthesis is the merged view over every expert result of one request.
// A degraded synthesis carries Error and the "Synthesis failed" summary.
type Synthesis struct {
	Summary           string         `json:"summary"`
	Insights          map[string]any `json:"insights"`
	Recommendations   []string       `json:"recommendations"`
	Metrics           map[string]any `json:"metrics"`
	ExpertCount       int            `json:"expert_count"`
	SuccessfulExperts int            `json:"successful_experts"`
	FailedExperts     int            `json:"failed_experts"`
	Error             string         `json:"error,omitempty"`
}

// Degraded reports whether synthesis failed.
func (s Synthesis) Degraded() bool { return s.Error != "" }

// MarshalJSON writes a degraded synthesis as {error, summary} only.
func (s Synthesis) MarshalJSON() ([]byte, error) {
	if s.Degraded() {
		return json.Marshal(struct {
			Error   string `json:"error"`
			Summary string `json:"summary"`
		}{s.Error, s.Summary})
	}
	type plain Synthesis
	return json.Marshal(plain(s))
}

// SynthesizerService merges expert results.
type SynthesizerService struct{}

// NewSynthesizerService creates a SynthesizerService.
func NewSynthesizerService() *SynthesizerService {
	return &SynthesizerService{}
}

// Synthesize merges results in sorted key order. Failed slots are counted
// but not merged. Recommendations are concatenated without deduplication.
// A malformed result yields a degraded synthesis rather than an error.
func (s *SynthesizerService) Synthesize(req *request.Request, results map[string]expert.Result) Synthesis {
	syn, err := merge(results)
	if err != nil {
		slog.Error("synthesizer: failed to synthesize results", "request_id", req.RequestID, "error", err)
		return Synthesis{
			Error:   fmt.Sprintf("Failed to synthesize results: %v", err),
			Summary: "Synthesis failed",
		}
	}
	return syn
}

func merge(results map[string]expert.Result) (Synthesis, error) {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	syn := Synthesis{
		Insights:        map[string]any{},
		Recommendations: []string{},
		Metrics:         map[string]any{},
		ExpertCount:     len(results),
	}

	for _, k := range keys {
		r := results[k]
		if r.Failed() {
			syn.FailedExperts++
			continue
		}
		syn.SuccessfulExperts++

		if v, ok := r[expert.KeyInsights]; ok {
			syn.Insights[k] = v
		}
		if _, ok := r[expert.KeyRecommendations]; ok {
			recs, valid := r.Strings(expert.KeyRecommendations)
			if !valid {
				return Synthesis{}, fmt.Errorf("expert %s: recommendations is not a list of strings", k)
			}
			syn.Recommendations = append(syn.Recommendations, recs...)
		}
		if v, ok := r[expert.KeyMetrics]; ok {
			syn.Metrics[k] = v
		}
	}

	syn.Summary = fmt.Sprintf("Analysis completed by %d expert agents", len(results))
	return syn, nil
}
