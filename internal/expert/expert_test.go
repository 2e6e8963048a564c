package expert

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/Strob0t/TwinForge/internal/domain"
	"github.com/Strob0t/TwinForge/internal/domain/quality"
	"github.com/Strob0t/TwinForge/internal/domain/request"
)

const utilityDescription = "I need help optimizing my energy consumption and reducing utility bills. " +
	"My electricity usage has been high and I want to implement energy efficiency measures."

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(Standard()...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func mustAgent(t *testing.T, reg *Registry, key string) *Agent {
	t.Helper()
	a, ok := reg.Get(key)
	if !ok {
		t.Fatalf("expert %q not registered", key)
	}
	return a
}

// steppingClock advances one second per call.
func steppingClock() func() time.Time {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func metricFor(t *testing.T, rep quality.Report, d quality.Dimension) quality.Metric {
	t.Helper()
	for _, m := range rep.Metrics {
		if m.Dimension == d {
			return m
		}
	}
	t.Fatalf("no %s metric in report", d)
	return quality.Metric{}
}

func TestAccuracyShortCircuitsOnAnalysisTypeMismatch(t *testing.T) {
	spec := Financial()
	rule := spec.Rules.Rules[quality.Accuracy]

	// Plenty of financial keywords, but the wrong analysis type.
	r := Result{
		KeyAnalysisType:       "utility_management",
		"budget_optimization": []string{"budget", "investment", "debt", "savings", "money"},
	}
	m := rule(r, &request.Request{Description: "budget debt savings"})
	if m.Score != 0.3 {
		t.Errorf("score = %v, want 0.3", m.Score)
	}
	if m.Description != "Analysis type mismatch - not financial health focused" {
		t.Errorf("description = %q", m.Description)
	}
}

func TestUtilityScenario(t *testing.T) {
	reg := newRegistry(t)
	a := mustAgent(t, reg, "utility")

	req := &request.Request{
		RequestID:   "req-utility",
		UserID:      "u1",
		Type:        request.TypeUtilityManagement,
		Description: utilityDescription,
	}
	out, err := a.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Skipped {
		t.Fatalf("unexpected skip: %s", out.Reason)
	}

	for _, f := range []string{"key_issues", "optimization_opportunities"} {
		if out.Result.Len(f) == 0 {
			t.Errorf("%s is empty", f)
		}
	}

	rep, ok := out.Result.Report()
	if !ok {
		t.Fatal("quality report not embedded")
	}
	if acc := metricFor(t, rep, quality.Accuracy); acc.Score < 0.7 {
		t.Errorf("accuracy = %v, want >= 0.7", acc.Score)
	}
	if rep.OverallScore < UtilityThreshold || !rep.ApprovedForPublication {
		t.Errorf("overall = %v approved = %v", rep.OverallScore, rep.ApprovedForPublication)
	}
	if out.Result.String(KeyExpertAgent) != "UtilityManagementExpert" {
		t.Errorf("expert_agent = %q", out.Result.String(KeyExpertAgent))
	}
	if out.Result.String(KeyExpertise) != "utility_management" {
		t.Errorf("expertise = %q", out.Result.String(KeyExpertise))
	}
}

func TestUtilityScenarioScores(t *testing.T) {
	reg := newRegistry(t)
	a := mustAgent(t, reg, "utility")
	out, err := a.Process(context.Background(), &request.Request{
		RequestID:   "r",
		Type:        request.TypeUtilityManagement,
		Description: utilityDescription,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	rep, _ := out.Result.Report()

	want := map[quality.Dimension]float64{
		quality.Accuracy:      0.9,
		quality.Completeness:  1.0,
		quality.Relevance:     0.9,
		quality.Timeliness:    1.0,
		quality.Consistency:   0.9,
		quality.Clarity:       0.9,
		quality.Actionability: 0.9,
	}
	for d, score := range want {
		if got := metricFor(t, rep, d).Score; got != score {
			t.Errorf("%s = %v, want %v", d, got, score)
		}
	}
	if math.Abs(rep.OverallScore-0.93) > 1e-9 {
		t.Errorf("overall = %v, want 0.93", rep.OverallScore)
	}
	if rep.QualityLevel != quality.LevelExcellent {
		t.Errorf("level = %s", rep.QualityLevel)
	}
}

func TestComprehensiveRequestIsEligibleForEveryExpert(t *testing.T) {
	reg := newRegistry(t)
	req := &request.Request{Type: "comprehensive_analysis"}
	for _, a := range reg.Agents() {
		if el := a.CanHandle(req); !el.Eligible {
			t.Errorf("%s not eligible: %s", a.Name(), el.Reason)
		}
	}
}

func TestIneligibleRequestIsSkipped(t *testing.T) {
	reg := newRegistry(t)
	a := mustAgent(t, reg, "financial")

	out, err := a.Process(context.Background(), &request.Request{
		RequestID:   "r",
		Type:        request.TypeUtilityManagement,
		Description: "budget",
	})
	if err != nil {
		t.Fatalf("skip must not be an error: %v", err)
	}
	if !out.Skipped || out.Result != nil {
		t.Fatalf("expected skipped outcome, got %+v", out)
	}
	if out.Reason != "Request type utility_management not suitable for financial_health expert" {
		t.Errorf("reason = %q", out.Reason)
	}

	st := a.Status()
	if st.ProcessingStats.TotalRequests != 1 || st.ProcessingStats.FailedRequests != 1 {
		t.Errorf("stats = %+v", st.ProcessingStats)
	}
}

func TestProcessBeforeInitialization(t *testing.T) {
	a := NewAgent(Financial())
	_, err := a.Process(context.Background(), &request.Request{Type: "financial_health"})
	if !errors.Is(err, domain.ErrNotInitialized) {
		t.Fatalf("err = %v, want ErrNotInitialized", err)
	}
	if a.Status().ProcessingStats.TotalRequests != 0 {
		t.Error("uninitialized call must not be counted")
	}
}

func TestProcessHonorsCancelledContext(t *testing.T) {
	reg := newRegistry(t)
	a := mustAgent(t, reg, "vehicle")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Process(ctx, &request.Request{Type: "vehicle_management"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestStatsRollingAverage(t *testing.T) {
	reg := newRegistry(t)
	a := mustAgent(t, reg, "vehicle")
	a.clock = steppingClock()

	req := &request.Request{RequestID: "r", Type: "vehicle_management", Description: "car maintenance"}
	for i := 0; i < 3; i++ {
		if _, err := a.Process(context.Background(), req); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	st := a.Status()
	if st.ProcessingStats.SuccessfulRequests != 3 || st.ProcessingStats.TotalRequests != 3 {
		t.Errorf("stats = %+v", st.ProcessingStats)
	}
	if st.ProcessingStats.AverageProcessingTime != 1 {
		t.Errorf("average processing time = %v, want 1", st.ProcessingStats.AverageProcessingTime)
	}
	if len(st.ProcessingStats.QualityScores) != 3 {
		t.Errorf("quality scores = %v", st.ProcessingStats.QualityScores)
	}
	if st.AverageQualityScore <= 0 {
		t.Errorf("average quality = %v", st.AverageQualityScore)
	}
	if !st.IsInitialized || st.Type != "VehicleManagementExpert" || st.Expertise != "vehicle_management" {
		t.Errorf("status = %+v", st)
	}
}

func TestGeneratorGroupsAccumulateInOrder(t *testing.T) {
	r := Financial().Generate(&request.Request{Description: "My budget is tight and my debt keeps growing"})
	got, _ := r.Strings("key_issues")
	want := []string{"Budget optimization needed", "Debt management strategy needed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("key_issues = %v, want %v", got, want)
	}
	if n := r.Len("budget_optimization"); n != 3 {
		t.Errorf("budget_optimization has %d items, want 3", n)
	}
	if n := r.Len("investment_recommendations"); n != 0 {
		t.Errorf("investment_recommendations has %d items, want 0", n)
	}
}

func TestGeneratorFallback(t *testing.T) {
	r := Vehicle().Generate(&request.Request{Description: "hello there"})
	got, _ := r.Strings("key_issues")
	if !reflect.DeepEqual(got, []string{"General vehicle management assessment needed"}) {
		t.Errorf("key_issues = %v", got)
	}
	for _, f := range []string{"maintenance_recommendations", "cost_optimization", "safety_improvements", "expected_benefits", "priority_actions"} {
		if r.Len(f) != 1 {
			t.Errorf("%s has %d items, want 1", f, r.Len(f))
		}
	}
}

func TestGeneratorReturnsFreshLists(t *testing.T) {
	gen := Utility().Generate
	first := gen(&request.Request{Description: "energy"})
	second := gen(&request.Request{Description: "energy"})
	if first.Len("key_issues") != 1 || second.Len("key_issues") != 1 {
		t.Errorf("lists leaked between calls: %d, %d", first.Len("key_issues"), second.Len("key_issues"))
	}
}

func TestCompletenessRule(t *testing.T) {
	rule := Utility().Rules.Rules[quality.Completeness]
	tests := []struct {
		name   string
		result Result
		score  float64
		issue  string
	}{
		{
			name: "complete",
			result: Result{
				"key_issues": []string{"a"}, "optimization_opportunities": []string{"b"},
				"cost_savings_recommendations": []string{"c"}, "implementation_steps": []string{"d"},
				"expected_benefits": []string{"e"},
			},
			score: 1.0,
		},
		{
			name: "two missing",
			result: Result{
				"key_issues": []string{"a"}, "optimization_opportunities": []string{"b"},
				"cost_savings_recommendations": []string{"c"}, "implementation_steps": []string{},
			},
			score: 0.8,
			issue: "Missing sections: implementation_steps, expected_benefits",
		},
		{
			name:   "mostly missing",
			result: Result{"key_issues": []any{"a"}},
			score:  0.5,
			issue:  "Multiple missing sections: optimization_opportunities, cost_savings_recommendations, implementation_steps, expected_benefits",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := rule(tt.result, nil)
			if m.Score != tt.score {
				t.Errorf("score = %v, want %v", m.Score, tt.score)
			}
			if tt.issue != "" && (len(m.Issues) != 1 || m.Issues[0] != tt.issue) {
				t.Errorf("issues = %v, want %q", m.Issues, tt.issue)
			}
		})
	}
}

func TestRelevanceUsesRequestDescription(t *testing.T) {
	rule := Vehicle().Rules.Rules[quality.Relevance]
	tests := []struct {
		desc  string
		score float64
	}{
		{"my car needs an oil change", 0.9},
		{"tire question", 0.7},
		{"what should I cook tonight", 0.4},
	}
	for _, tt := range tests {
		if got := rule(Result{}, &request.Request{Description: tt.desc}).Score; got != tt.score {
			t.Errorf("relevance(%q) = %v, want %v", tt.desc, got, tt.score)
		}
	}
}

func TestConsistencyRule(t *testing.T) {
	rule := Financial().Rules.Rules[quality.Consistency]
	tests := []struct {
		name   string
		result Result
		score  float64
	}{
		{"both", Result{KeyEstimatedSavings: "10%", "expected_outcomes": []string{"20% reduction"}}, 0.9},
		{"estimate only", Result{KeyEstimatedSavings: "10%", "expected_outcomes": []string{"better"}}, 0.7},
		{"outcome only", Result{"expected_outcomes": []string{"Some Reduction"}}, 0.7},
		{"neither", Result{}, 0.5},
	}
	for _, tt := range tests {
		if got := rule(tt.result, nil).Score; got != tt.score {
			t.Errorf("%s: score = %v, want %v", tt.name, got, tt.score)
		}
	}
}

func TestClarityRules(t *testing.T) {
	priority := Financial().Rules.Rules[quality.Clarity]
	if got := priority(Result{"priority_actions": []string{"a", "b"}}, nil).Score; got != 0.7 {
		t.Errorf("priority clarity without timeline = %v, want 0.7", got)
	}
	if got := priority(Result{"priority_actions": []string{"a", "b"}, "implementation_timeline": "soon"}, nil).Score; got != 0.9 {
		t.Errorf("priority clarity with timeline = %v, want 0.9", got)
	}

	steps := Utility().Rules.Rules[quality.Clarity]
	if got := steps(Result{"implementation_steps": []string{"a", "b"}}, nil).Score; got != 0.7 {
		t.Errorf("steps clarity = %v, want 0.7", got)
	}
	if got := steps(Result{}, nil).Score; got != 0.4 {
		t.Errorf("steps clarity empty = %v, want 0.4", got)
	}
}

func TestActionabilityBandsPerExpert(t *testing.T) {
	utility := Utility().Rules.Rules[quality.Actionability]
	financial := Financial().Rules.Rules[quality.Actionability]

	three := Result{
		"cost_savings_recommendations": []string{"a", "b"},
		"technology_recommendations":   []string{"c"},
		"budget_optimization":          []string{"a", "b"},
		"debt_management":              []string{"c"},
	}
	if got := utility(three, nil).Score; got != 0.9 {
		t.Errorf("utility actionability = %v, want 0.9", got)
	}
	if got := financial(three, nil).Score; got != 0.7 {
		t.Errorf("financial actionability = %v, want 0.7", got)
	}
}

func TestRuleTablesPerExpert(t *testing.T) {
	tests := []struct {
		spec         Spec
		agent        string
		threshold    float64
		bareAccuracy float64
	}{
		// The analysis_type value alone is one keyword hit.
		{Financial(), "FinancialHealthExpert", 0.75, 0.4},
		{Utility(), "UtilityManagementExpert", 0.70, 0.7},
		{Vehicle(), "VehicleManagementExpert", 0.65, 0.4},
	}
	custom := []quality.Dimension{
		quality.Accuracy, quality.Completeness, quality.Relevance,
		quality.Consistency, quality.Clarity, quality.Actionability,
	}
	for _, tt := range tests {
		t.Run(tt.spec.Key, func(t *testing.T) {
			rs := tt.spec.Rules
			if rs.Agent != tt.agent || tt.spec.Name != tt.agent {
				t.Errorf("agent = %q name = %q, want %q", rs.Agent, tt.spec.Name, tt.agent)
			}
			if rs.Threshold != tt.threshold {
				t.Errorf("threshold = %v, want %v", rs.Threshold, tt.threshold)
			}
			if len(rs.Rules) != len(custom) {
				t.Errorf("rules = %d, want %d", len(rs.Rules), len(custom))
			}
			for _, d := range custom {
				if rs.Rules[d] == nil {
					t.Errorf("no %s rule", d)
				}
			}
			if _, ok := rs.Rules[quality.Timeliness]; ok {
				t.Error("timeliness must come from the shared evaluator")
			}

			bare := Result{KeyAnalysisType: tt.spec.Expertise}
			if got := rs.Rules[quality.Accuracy](bare, nil).Score; got != tt.bareAccuracy {
				t.Errorf("bare accuracy = %v, want %v", got, tt.bareAccuracy)
			}
			if got := rs.Rules[quality.Completeness](bare, nil).Score; got != 0.5 {
				t.Errorf("bare completeness = %v, want 0.5", got)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := newRegistry(t)
	if !reflect.DeepEqual(reg.Keys(), []string{"financial", "utility", "vehicle"}) {
		t.Errorf("keys = %v", reg.Keys())
	}
	if reg.Len() != 3 {
		t.Errorf("len = %d", reg.Len())
	}
	for _, a := range reg.Agents() {
		if !a.Status().IsInitialized {
			t.Errorf("%s not initialized", a.Name())
		}
	}
	if len(reg.Statuses()) != 3 {
		t.Errorf("statuses = %v", reg.Statuses())
	}

	if _, err := NewRegistry(Financial(), Financial()); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("duplicate key: err = %v", err)
	}
	if _, err := NewRegistry(Spec{Key: "x", Name: "X", Expertise: "x"}); err == nil {
		t.Error("expected error for spec without generator")
	}

	var empty *Registry
	if empty.Len() != 0 || empty.Agents() != nil {
		t.Error("nil registry must be empty")
	}
}

func TestResultAccessors(t *testing.T) {
	r := Result{
		KeyProcessingTime: 2.5,
		"mixed":           []any{"a", 1},
		"list":            []any{"a", "b"},
		"scalar":          "x",
	}
	if r.ProcessingSeconds() != 2.5 {
		t.Errorf("ProcessingSeconds = %v", r.ProcessingSeconds())
	}
	if _, ok := r.Strings("mixed"); ok {
		t.Error("mixed list must not convert")
	}
	if l, ok := r.Strings("list"); !ok || len(l) != 2 {
		t.Errorf("Strings(list) = %v, %v", l, ok)
	}
	if _, ok := r.Strings("scalar"); ok {
		t.Error("scalar must not convert")
	}
	if _, ok := r.Strings("absent"); !ok {
		t.Error("absent key is an empty list")
	}

	f := FailedResult("vehicle", "boom")
	if !f.Failed() || f.String(KeyStatus) != "failed" || f.String(KeyExpertAgent) != "vehicle" {
		t.Errorf("FailedResult = %v", f)
	}
}
