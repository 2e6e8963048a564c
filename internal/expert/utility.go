package expert

import (
	"github.com/Strob0t/TwinForge/internal/domain/quality"
	"github.com/Strob0t/TwinForge/internal/evaluation"
)

// UtilityThreshold is the passed_threshold cut-off for utility analyses.
const UtilityThreshold = 0.70

var utilityVocabulary = vocabulary{
	tag:      "utility_management",
	area:     "utility management",
	short:    "utility",
	concepts: "utility-related concepts",
}

var utilityTemplate = template{
	scalars: map[string]string{
		KeyAnalysisType:           "utility_management",
		"priority_level":          "medium",
		KeyEstimatedSavings:       "5-15%",
		"implementation_timeline": "3-6 months",
	},
	lists: []string{
		"key_issues", "optimization_opportunities", "cost_savings_recommendations",
		"implementation_steps", "expected_benefits", "risk_considerations",
		"technology_recommendations",
	},
	groups: []keywordGroup{
		{
			triggers: []string{"energy", "electricity", "power", "consumption"},
			adds: map[string][]string{
				"key_issues":                   {"High energy consumption patterns detected"},
				"optimization_opportunities":   {"Implement smart energy monitoring systems"},
				"cost_savings_recommendations": {"Switch to energy-efficient appliances"},
				"implementation_steps":         {"Conduct energy audit and identify high-consumption areas"},
				"expected_benefits":            {"15-25% reduction in energy costs"},
				"technology_recommendations":   {"Smart meters and energy monitoring devices"},
			},
		},
		{
			triggers: []string{"water", "usage", "bills", "leak"},
			adds: map[string][]string{
				"key_issues":                   {"Water usage optimization needed"},
				"optimization_opportunities":   {"Install water-efficient fixtures"},
				"cost_savings_recommendations": {"Implement leak detection systems"},
				"implementation_steps":         {"Audit water usage patterns and identify leaks"},
				"expected_benefits":            {"10-20% reduction in water costs"},
				"technology_recommendations":   {"Smart water meters and leak detectors"},
			},
		},
		{
			triggers: []string{"optimization", "efficiency"},
			adds: map[string][]string{
				"key_issues":                   {"Overall utility efficiency improvement needed"},
				"optimization_opportunities":   {"Implement comprehensive utility monitoring"},
				"cost_savings_recommendations": {"Bundle utility services for better rates"},
				"implementation_steps":         {"Develop utility management strategy and timeline"},
				"expected_benefits":            {"20-30% overall utility cost reduction"},
				"technology_recommendations":   {"Integrated utility management platform"},
			},
		},
	},
	fallback: map[string][]string{
		"key_issues":                   {"General utility management improvement opportunity"},
		"optimization_opportunities":   {"Implement comprehensive utility monitoring and optimization"},
		"cost_savings_recommendations": {"Audit all utility services for optimization opportunities"},
		"implementation_steps":         {"Conduct comprehensive utility audit and develop optimization plan"},
		"expected_benefits":            {"10-25% overall utility cost reduction"},
		"technology_recommendations":   {"Smart utility monitoring and management systems"},
	},
}

// Utility returns the utility management expert.
func Utility() Spec {
	return Spec{
		Key:           "utility",
		Name:          "UtilityManagementExpert",
		Expertise:     "utility_management",
		RouteKeywords: []string{"utility", "energy", "water", "electricity", "consumption", "efficiency", "sustainability"},
		Generate:      utilityTemplate.generator(),
		Rules: evaluation.RuleSet[Result]{
			Agent:     "UtilityManagementExpert",
			Threshold: UtilityThreshold,
			Rules: map[quality.Dimension]Rule{
				quality.Accuracy: accuracyRule(utilityVocabulary,
					[]string{"energy", "water", "electricity", "gas", "utility", "consumption", "efficiency"}, 3, 1),
				quality.Completeness: completenessRule([]string{
					"key_issues", "optimization_opportunities", "cost_savings_recommendations",
					"implementation_steps", "expected_benefits",
				}),
				quality.Relevance: relevanceRule(utilityVocabulary,
					[]string{"utility", "energy", "water", "electricity", "gas", "bills", "consumption"}),
				quality.Consistency: consistencyRule("expected_benefits"),
				quality.Clarity:     stepsClarityRule(),
				quality.Actionability: actionabilityRule(
					[]string{"cost_savings_recommendations", "technology_recommendations"}, 3, 1),
			},
		},
	}
}
