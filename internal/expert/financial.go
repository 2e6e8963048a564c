package expert

import (
	"github.com/Strob0t/TwinForge/internal/domain/quality"
	"github.com/Strob0t/TwinForge/internal/evaluation"
)

// FinancialThreshold is higher than the other experts because the advice has
// monetary consequences.
const FinancialThreshold = 0.75

var financialVocabulary = vocabulary{
	tag:      "financial_health",
	area:     "financial health",
	short:    "financial",
	concepts: "financial concepts",
}

var financialTemplate = template{
	scalars: map[string]string{
		KeyAnalysisType:           "financial_health",
		"financial_health_score":  "good",
		"implementation_timeline": "3-12 months",
		KeyEstimatedSavings:       "10-25%",
		"risk_level":              "moderate",
	},
	lists: []string{
		"key_issues", "budget_optimization", "investment_recommendations", "debt_management",
		"risk_assessment", "expected_outcomes", "priority_actions",
	},
	groups: []keywordGroup{
		{
			triggers: []string{"budget", "spending", "expenses", "cost"},
			adds: map[string][]string{
				"key_issues": {"Budget optimization needed"},
				"budget_optimization": {
					"Implement 50/30/20 budgeting rule",
					"Track all expenses for 30 days",
					"Identify and reduce discretionary spending",
				},
				"expected_outcomes": {"15-25% reduction in unnecessary expenses"},
				"priority_actions":  {"Set up expense tracking system"},
			},
		},
		{
			triggers: []string{"investment", "portfolio", "savings", "retirement"},
			adds: map[string][]string{
				"key_issues": {"Investment strategy optimization needed"},
				"investment_recommendations": {
					"Diversify investment portfolio",
					"Increase retirement contributions",
					"Consider index fund investments",
				},
				"expected_outcomes": {"8-12% annual investment returns"},
				"priority_actions":  {"Review and rebalance investment portfolio"},
			},
		},
		{
			triggers: []string{"debt", "credit", "loan", "payment"},
			adds: map[string][]string{
				"key_issues": {"Debt management strategy needed"},
				"debt_management": {
					"Prioritize high-interest debt repayment",
					"Consider debt consolidation options",
					"Negotiate lower interest rates",
				},
				"expected_outcomes": {"20-40% reduction in debt payments"},
				"priority_actions":  {"Create debt repayment plan"},
			},
		},
		{
			triggers: []string{"financial", "money", "finance"},
			adds: map[string][]string{
				"key_issues":                 {"Comprehensive financial health improvement needed"},
				"budget_optimization":        {"Implement comprehensive financial planning"},
				"investment_recommendations": {"Develop long-term investment strategy"},
				"debt_management":            {"Create debt reduction timeline"},
				"expected_outcomes":          {"25-35% overall financial improvement"},
				"priority_actions":           {"Conduct comprehensive financial audit"},
			},
		},
	},
	fallback: map[string][]string{
		"key_issues":                 {"General financial health assessment needed"},
		"budget_optimization":        {"Implement basic budgeting system"},
		"investment_recommendations": {"Start emergency fund savings"},
		"debt_management":            {"Review all outstanding debts"},
		"expected_outcomes":          {"10-20% overall financial improvement"},
		"priority_actions":           {"Schedule financial health assessment"},
	},
}

// Financial returns the financial health expert.
func Financial() Spec {
	return Spec{
		Key:           "financial",
		Name:          "FinancialHealthExpert",
		Expertise:     "financial_health",
		RouteKeywords: []string{"financial", "budget", "cost", "expense", "revenue", "profit"},
		Generate:      financialTemplate.generator(),
		Rules: evaluation.RuleSet[Result]{
			Agent:     "FinancialHealthExpert",
			Threshold: FinancialThreshold,
			Rules: map[quality.Dimension]Rule{
				quality.Accuracy: accuracyRule(financialVocabulary,
					[]string{"budget", "investment", "debt", "savings", "financial", "money", "expense", "income"}, 4, 2),
				quality.Completeness: completenessRule([]string{
					"key_issues", "budget_optimization", "investment_recommendations",
					"debt_management", "expected_outcomes", "priority_actions",
				}),
				quality.Relevance: relevanceRule(financialVocabulary,
					[]string{"financial", "money", "budget", "investment", "debt", "savings", "expense", "income"}),
				quality.Consistency: consistencyRule("expected_outcomes"),
				quality.Clarity:     priorityClarityRule(),
				quality.Actionability: actionabilityRule(
					[]string{"budget_optimization", "investment_recommendations", "debt_management"}, 4, 2),
			},
		},
	}
}
