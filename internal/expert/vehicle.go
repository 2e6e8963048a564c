package expert

import (
	"github.com/Strob0t/TwinForge/internal/domain/quality"
	"github.com/Strob0t/TwinForge/internal/evaluation"
)

// VehicleThreshold is the passed_threshold cut-off for vehicle analyses.
const VehicleThreshold = 0.65

var vehicleVocabulary = vocabulary{
	tag:      "vehicle_management",
	area:     "vehicle management",
	short:    "vehicle",
	concepts: "vehicle-related concepts",
}

var vehicleTemplate = template{
	scalars: map[string]string{
		KeyAnalysisType:           "vehicle_management",
		"vehicle_health_score":    "good",
		"implementation_timeline": "1-6 months",
		KeyEstimatedSavings:       "15-30%",
		"risk_level":              "low",
	},
	lists: []string{
		"key_issues", "maintenance_recommendations", "cost_optimization", "safety_improvements",
		"efficiency_enhancements", "expected_benefits", "priority_actions",
	},
	groups: []keywordGroup{
		{
			triggers: []string{"maintenance", "service", "repair", "oil", "tire"},
			adds: map[string][]string{
				"key_issues": {"Vehicle maintenance optimization needed"},
				"maintenance_recommendations": {
					"Implement preventive maintenance schedule",
					"Regular oil changes and filter replacements",
					"Tire rotation and alignment checks",
				},
				"expected_benefits": {"Extended vehicle lifespan and reduced repair costs"},
				"priority_actions":  {"Schedule comprehensive vehicle inspection"},
			},
		},
		{
			triggers: []string{"fuel", "gas", "mileage", "efficiency", "consumption"},
			adds: map[string][]string{
				"key_issues": {"Fuel efficiency optimization needed"},
				"efficiency_enhancements": {
					"Optimize driving behavior and routes",
					"Maintain proper tire pressure",
					"Reduce vehicle weight and aerodynamic drag",
				},
				"expected_benefits": {"20-30% improvement in fuel efficiency"},
				"priority_actions":  {"Implement fuel tracking and monitoring system"},
			},
		},
		{
			triggers: []string{"cost", "budget", "expense", "insurance", "registration"},
			adds: map[string][]string{
				"key_issues": {"Vehicle cost optimization needed"},
				"cost_optimization": {
					"Shop around for better insurance rates",
					"Compare fuel prices and use rewards programs",
					"Consider carpooling or ride-sharing options",
				},
				"expected_benefits": {"15-25% reduction in vehicle operating costs"},
				"priority_actions":  {"Conduct comprehensive cost analysis"},
			},
		},
		{
			triggers: []string{"safety", "brake", "light", "seat", "airbag"},
			adds: map[string][]string{
				"key_issues": {"Vehicle safety improvements needed"},
				"safety_improvements": {
					"Regular brake system inspections",
					"Ensure all lights and signals work properly",
					"Check seat belts and airbag systems",
				},
				"expected_benefits": {"Enhanced vehicle and passenger safety"},
				"priority_actions":  {"Schedule safety inspection and repairs"},
			},
		},
		{
			triggers: []string{"vehicle", "car", "auto"},
			adds: map[string][]string{
				"key_issues":                  {"Comprehensive vehicle management optimization needed"},
				"maintenance_recommendations": {"Implement comprehensive maintenance program"},
				"cost_optimization":           {"Develop vehicle cost management strategy"},
				"safety_improvements":         {"Establish regular safety check protocols"},
				"expected_benefits":           {"25-35% overall vehicle cost and efficiency improvement"},
				"priority_actions":            {"Create comprehensive vehicle management plan"},
			},
		},
	},
	fallback: map[string][]string{
		"key_issues":                  {"General vehicle management assessment needed"},
		"maintenance_recommendations": {"Establish regular maintenance schedule"},
		"cost_optimization":           {"Track all vehicle-related expenses"},
		"safety_improvements":         {"Schedule regular safety inspections"},
		"expected_benefits":           {"10-20% overall vehicle improvement"},
		"priority_actions":            {"Schedule comprehensive vehicle assessment"},
	},
}

// Vehicle returns the vehicle management expert.
func Vehicle() Spec {
	return Spec{
		Key:           "vehicle",
		Name:          "VehicleManagementExpert",
		Expertise:     "vehicle_management",
		RouteKeywords: []string{"vehicle", "fleet", "maintenance", "transport", "logistics", "fuel"},
		Generate:      vehicleTemplate.generator(),
		Rules: evaluation.RuleSet[Result]{
			Agent:     "VehicleManagementExpert",
			Threshold: VehicleThreshold,
			Rules: map[quality.Dimension]Rule{
				quality.Accuracy: accuracyRule(vehicleVocabulary,
					[]string{"maintenance", "fuel", "safety", "cost", "vehicle", "car", "tire", "oil", "brake"}, 4, 2),
				quality.Completeness: completenessRule([]string{
					"key_issues", "maintenance_recommendations", "cost_optimization",
					"safety_improvements", "expected_benefits", "priority_actions",
				}),
				quality.Relevance: relevanceRule(vehicleVocabulary,
					[]string{"vehicle", "car", "auto", "maintenance", "fuel", "safety", "cost", "tire", "oil"}),
				quality.Consistency: consistencyRule("expected_benefits"),
				quality.Clarity:     priorityClarityRule(),
				quality.Actionability: actionabilityRule(
					[]string{"maintenance_recommendations", "cost_optimization", "safety_improvements"}, 4, 2),
			},
		},
	}
}
