package service

import (
	"fmt"
	"strings"

	"github.com/Strob0t/TwinForge/internal/domain/quality"
	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/evaluation"
	"github.com/Strob0t/TwinForge/internal/expert"
)

// PrincipalName is the agent name on synthesis reports and final responses.
const PrincipalName = "PrincipalAgent"

// SynthesisThreshold is the orchestrator's own pass threshold.
const SynthesisThreshold = 0.70

// Envelope is what the orchestrator's rules score: the request identity,
// every expert slot and the synthesis.
type Envelope struct {
	RequestID     string
	RequestType   string
	ExpertResults map[string]expert.Result
	Synthesis     Synthesis
}

// ProcessingSeconds satisfies evaluation.Subject. Synthesis scoring does not
// include timeliness.
func (Envelope) ProcessingSeconds() float64 { return 0 }

type synthesisRule = evaluation.Rule[Envelope]

// synthesisRules is the orchestrator rule set. Timeliness is omitted and
// consistency carries its weight.
func synthesisRules() evaluation.RuleSet[Envelope] {
	return evaluation.RuleSet[Envelope]{
		Agent:     PrincipalName,
		Threshold: SynthesisThreshold,
		Dimensions: []quality.Dimension{
			quality.Accuracy,
			quality.Completeness,
			quality.Relevance,
			quality.Consistency,
			quality.Clarity,
			quality.Actionability,
		},
		Rules: map[quality.Dimension]synthesisRule{
			quality.Accuracy:      synthesisAccuracy,
			quality.Completeness:  synthesisCompleteness,
			quality.Relevance:     synthesisRelevance,
			quality.Consistency:   synthesisConsistency,
			quality.Clarity:       synthesisClarity,
			quality.Actionability: synthesisActionability,
		},
		Level:   quality.SynthesisLevelFor,
		Summary: synthesisSummary,
	}
}

func synthesisMetric(d quality.Dimension, weight, score float64, desc string, issues, recs []string) quality.Metric {
	return quality.Metric{
		Dimension:       d,
		Score:           max(0, score),
		Weight:          weight,
		Description:     desc,
		Issues:          issues,
		Recommendations: recs,
	}
}

func synthesisAccuracy(e Envelope, _ *request.Request) quality.Metric {
	score := 0.8
	var issues, recs []string

	if len(e.ExpertResults) == 0 {
		score -= 0.3
		issues = append(issues, "No expert results available for synthesis")
	}
	failed := 0
	for _, r := range e.ExpertResults {
		if r.Failed() {
			failed++
		}
	}
	if failed > 0 {
		score -= 0.2 * float64(failed)
		issues = append(issues, fmt.Sprintf("%d expert(s) failed during processing", failed))
	}
	if e.Synthesis.Degraded() {
		score -= 0.4
		issues = append(issues, "Synthesis process failed")
	}
	if score < 0.5 {
		recs = append(recs, "Review expert agent configurations and retry processing")
	}
	return synthesisMetric(quality.Accuracy, 0.25, score, "Synthesis accuracy assessment", issues, recs)
}

func synthesisCompleteness(e Envelope, _ *request.Request) quality.Metric {
	score := 0.9
	var issues, recs []string

	syn := e.Synthesis
	present := map[string]bool{
		"summary":         syn.Summary != "",
		"insights":        len(syn.Insights) > 0,
		"recommendations": len(syn.Recommendations) > 0,
	}
	for _, field := range []string{"summary", "insights", "recommendations"} {
		if !present[field] {
			score -= 0.2
			issues = append(issues, "Missing or empty "+field+" in synthesis")
		}
	}
	if score < 0.6 {
		recs = append(recs, "Ensure all synthesis components are properly generated")
	}
	return synthesisMetric(quality.Completeness, 0.25, score, "Synthesis completeness assessment", issues, recs)
}

func synthesisRelevance(e Envelope, _ *request.Request) quality.Metric {
	score := 0.85
	var issues []string

	t := strings.ToLower(e.RequestType)
	if t != "" && e.Synthesis.Summary != "" && !strings.Contains(strings.ToLower(e.Synthesis.Summary), t) {
		score -= 0.2
		issues = append(issues, "Synthesis may not directly address the request type")
	}
	return synthesisMetric(quality.Relevance, 0.20, score, "Synthesis relevance assessment", issues, nil)
}

func synthesisConsistency(e Envelope, _ *request.Request) quality.Metric {
	score := 0.8
	var issues []string

	successful := 0
	var all []string
	for _, r := range e.ExpertResults {
		if r.Failed() {
			continue
		}
		successful++
		recs, _ := r.Strings(expert.KeyRecommendations)
		all = append(all, recs...)
	}
	if successful > 1 && hasDuplicates(all) {
		score -= 0.1
		issues = append(issues, "Some recommendations may be redundant across experts")
	}
	return synthesisMetric(quality.Consistency, 0.15, score, "Cross-expert consistency assessment", issues, nil)
}

func hasDuplicates(items []string) bool {
	seen := make(map[string]struct{}, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			return true
		}
		seen[s] = struct{}{}
	}
	return false
}

func synthesisClarity(e Envelope, _ *request.Request) quality.Metric {
	score := 0.85
	var issues, recs []string

	if len(e.Synthesis.Summary) < 50 {
		score -= 0.2
		issues = append(issues, "Synthesis summary may be too brief")
		recs = append(recs, "Provide more detailed synthesis summary")
	}
	return synthesisMetric(quality.Clarity, 0.10, score, "Synthesis clarity assessment", issues, recs)
}

func synthesisActionability(e Envelope, _ *request.Request) quality.Metric {
	score := 0.8
	var issues, recs []string

	if len(e.Synthesis.Recommendations) == 0 {
		score -= 0.3
		issues = append(issues, "No actionable recommendations provided")
		recs = append(recs, "Include specific, actionable recommendations")
	}
	return synthesisMetric(quality.Actionability, 0.05, score, "Synthesis actionability assessment", issues, recs)
}

func synthesisSummary(_ []quality.Metric, score float64, _ quality.Level) string {
	switch {
	case score >= 0.8:
		return "High-quality synthesis with comprehensive expert analysis"
	case score >= 0.7:
		return "Good quality synthesis meeting publication standards"
	case score >= 0.6:
		return "Acceptable synthesis with some quality concerns"
	default:
		return "Poor quality synthesis requiring review before publication"
	}
}
