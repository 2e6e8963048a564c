package expert

import (
	"fmt"
	"strings"

	"github.com/Strob0t/TwinForge/internal/domain/quality"
	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/evaluation"
)

// Rule is an expert's assessment of one dimension.
type Rule = evaluation.Rule[Result]

// vocabulary carries the wording an expert's rules use in their messages.
type vocabulary struct {
	tag      string // analysis_type the expert emits, e.g. "financial_health"
	area     string // "financial health"
	short    string // "financial"
	concepts string // "financial concepts", "utility-related concepts"
}

func metric(d quality.Dimension, score float64, desc string, issues, recs []string) quality.Metric {
	return quality.Metric{
		Dimension:       d,
		Score:           score,
		Weight:          evaluation.DefaultWeights[d],
		Description:     desc,
		Issues:          issues,
		Recommendations: recs,
	}
}

func countContained(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}

// accuracyRule short-circuits to 0.3 on an analysis_type mismatch, otherwise
// counts keyword hits across the whole result.
func accuracyRule(v vocabulary, keywords []string, high, mid int) Rule {
	return func(r Result, _ *request.Request) quality.Metric {
		if r.String(KeyAnalysisType) != v.tag {
			return metric(quality.Accuracy, 0.3,
				fmt.Sprintf("Analysis type mismatch - not %s focused", v.area),
				[]string{fmt.Sprintf("Analysis type does not match %s expertise", v.area)},
				[]string{fmt.Sprintf("Ensure analysis focuses on %s aspects", v.area)})
		}

		hits := countContained(r.Text(), keywords)
		switch {
		case hits >= high:
			return metric(quality.Accuracy, 0.9,
				fmt.Sprintf("High accuracy: %d %s identified", hits, v.concepts), nil, nil)
		case hits >= mid:
			return metric(quality.Accuracy, 0.7,
				fmt.Sprintf("Moderate accuracy: %d %s identified", hits, v.concepts),
				[]string{fmt.Sprintf("Limited %s-specific analysis", v.short)},
				[]string{fmt.Sprintf("Include more %s-specific recommendations", v.short)})
		default:
			return metric(quality.Accuracy, 0.4,
				fmt.Sprintf("Low accuracy: No %s-specific analysis detected", v.short),
				[]string{fmt.Sprintf("No %s-specific analysis provided", v.short)},
				[]string{fmt.Sprintf("Focus analysis on %s aspects", v.area)})
		}
	}
}

func completenessRule(sections []string) Rule {
	return func(r Result, _ *request.Request) quality.Metric {
		var missing []string
		for _, s := range sections {
			if !r.Present(s) {
				missing = append(missing, s)
			}
		}
		joined := strings.Join(missing, ", ")

		switch {
		case len(missing) == 0:
			return metric(quality.Completeness, 1.0, "Complete analysis: All required sections present", nil, nil)
		case len(missing) <= 2:
			return metric(quality.Completeness, 0.8,
				fmt.Sprintf("Mostly complete: Missing %d sections", len(missing)),
				[]string{"Missing sections: " + joined},
				[]string{"Add missing sections: " + joined})
		default:
			return metric(quality.Completeness, 0.5,
				fmt.Sprintf("Incomplete analysis: Missing %d sections", len(missing)),
				[]string{"Multiple missing sections: " + joined},
				[]string{"Complete all required analysis sections"})
		}
	}
}

// relevanceRule scores the request description, not the result.
func relevanceRule(v vocabulary, keywords []string) Rule {
	return func(_ Result, req *request.Request) quality.Metric {
		var desc string
		if req != nil {
			desc = strings.ToLower(req.Description)
		}
		hits := countContained(desc, keywords)

		switch {
		case hits >= 2:
			return metric(quality.Relevance, 0.9,
				fmt.Sprintf("Highly relevant: Request clearly %s-focused", v.short), nil, nil)
		case hits >= 1:
			return metric(quality.Relevance, 0.7,
				fmt.Sprintf("Moderately relevant: Some %s aspects in request", v.short),
				[]string{fmt.Sprintf("Request could be more %s-specific", v.short)},
				[]string{fmt.Sprintf("Clarify %s-specific requirements", v.short)})
		default:
			return metric(quality.Relevance, 0.4,
				fmt.Sprintf("Low relevance: Request not clearly %s-focused", v.short),
				[]string{fmt.Sprintf("Request lacks %s-specific context", v.short)},
				[]string{fmt.Sprintf("Provide more %s-specific context in request", v.short)})
		}
	}
}

// consistencyRule checks that the savings estimate is echoed by a
// reduction or percentage in the outcome list.
func consistencyRule(outcomeField string) Rule {
	return func(r Result, _ *request.Request) quality.Metric {
		estimate := r.Present(KeyEstimatedSavings)
		outcomes, _ := r.Strings(outcomeField)
		mentioned := false
		for _, o := range outcomes {
			if strings.Contains(strings.ToLower(o), "reduction") || strings.Contains(o, "%") {
				mentioned = true
				break
			}
		}

		switch {
		case estimate && mentioned:
			return metric(quality.Consistency, 0.9, "Consistent savings estimates across analysis", nil, nil)
		case estimate || mentioned:
			return metric(quality.Consistency, 0.7, "Partial savings consistency",
				[]string{"Savings estimates not consistently mentioned"},
				[]string{"Ensure savings estimates are consistent throughout"})
		default:
			return metric(quality.Consistency, 0.5, "No consistent savings estimates found",
				[]string{"No savings estimates provided"},
				[]string{"Include consistent savings estimates"})
		}
	}
}

// priorityClarityRule wants at least two priority actions and a timeline.
func priorityClarityRule() Rule {
	return func(r Result, _ *request.Request) quality.Metric {
		actions := r.Len("priority_actions")
		switch {
		case actions >= 2 && r.Present("implementation_timeline"):
			return metric(quality.Clarity, 0.9, "Clear priority actions and timeline provided", nil, nil)
		case actions >= 1:
			return metric(quality.Clarity, 0.7, "Some priority actions provided",
				[]string{"Limited implementation guidance"},
				[]string{"Provide more detailed priority actions and timeline"})
		default:
			return metric(quality.Clarity, 0.4, "No clear priority actions",
				[]string{"No implementation guidance provided"},
				[]string{"Include clear priority actions and timeline"})
		}
	}
}

// stepsClarityRule counts implementation steps.
func stepsClarityRule() Rule {
	return func(r Result, _ *request.Request) quality.Metric {
		steps := r.Len("implementation_steps")
		switch {
		case steps >= 3:
			return metric(quality.Clarity, 0.9, "Clear implementation steps provided", nil, nil)
		case steps >= 1:
			return metric(quality.Clarity, 0.7, "Some implementation steps provided",
				[]string{"Limited implementation guidance"},
				[]string{"Provide more detailed implementation steps"})
		default:
			return metric(quality.Clarity, 0.4, "No clear implementation steps",
				[]string{"No implementation guidance provided"},
				[]string{"Include clear implementation steps"})
		}
	}
}

// actionabilityRule sums the recommendation lists in fields.
func actionabilityRule(fields []string, high, mid int) Rule {
	return func(r Result, _ *request.Request) quality.Metric {
		total := 0
		for _, f := range fields {
			total += r.Len(f)
		}
		switch {
		case total >= high:
			return metric(quality.Actionability, 0.9,
				fmt.Sprintf("Highly actionable: %d specific recommendations", total), nil, nil)
		case total >= mid:
			return metric(quality.Actionability, 0.7,
				fmt.Sprintf("Somewhat actionable: %d recommendations", total),
				[]string{"Limited actionable recommendations"},
				[]string{"Provide more specific actionable recommendations"})
		default:
			return metric(quality.Actionability, 0.4, "Not actionable: No specific recommendations",
				[]string{"No actionable recommendations provided"},
				[]string{"Include specific actionable recommendations"})
		}
	}
}
