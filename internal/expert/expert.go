// Package expert implements the domain expert stubs. Each expert is a Spec
// pairing a keyword-driven analysis generator with its quality rule set; an
// Agent wraps a Spec with eligibility checks, evaluation and statistics.
package expert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/TwinForge/internal/domain"
	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/evaluation"
)

// broadRequestTokens make every expert eligible regardless of its expertise.
var broadRequestTokens = []string{"comprehensive_analysis", "multi_domain", "all", "general", "overview"}

// Generator produces an analysis for a request. It must not block.
type Generator func(req *request.Request) Result

// Spec describes one expert variant.
type Spec struct {
	Key           string   // registry key, e.g. "financial"
	Name          string   // agent name, e.g. "FinancialHealthExpert"
	Expertise     string   // domain token, e.g. "financial_health"
	RouteKeywords []string // request_type keywords the router matches
	Generate      Generator
	Rules         evaluation.RuleSet[Result]
}

// Validate checks that the spec can be registered.
func (s *Spec) Validate() error {
	switch {
	case s.Key == "":
		return fmt.Errorf("%w: expert key is required", domain.ErrValidation)
	case s.Name == "":
		return fmt.Errorf("%w: expert %s: name is required", domain.ErrValidation, s.Key)
	case s.Expertise == "":
		return fmt.Errorf("%w: expert %s: expertise is required", domain.ErrValidation, s.Key)
	case s.Generate == nil:
		return fmt.Errorf("%w: expert %s: generator is required", domain.ErrValidation, s.Key)
	}
	if s.Rules.Agent == "" {
		s.Rules.Agent = s.Name
	}
	return s.Rules.Validate()
}

// Eligibility is the outcome of an expert's domain check.
type Eligibility struct {
	Eligible bool
	Reason   string
}

// Outcome is the result of Agent.Process. A skipped outcome carries the
// reason and no result.
type Outcome struct {
	Result  Result
	Skipped bool
	Reason  string
}

// Stats are an expert's running counters.
type Stats struct {
	TotalRequests         int       `json:"total_requests"`
	SuccessfulRequests    int       `json:"successful_requests"`
	FailedRequests        int       `json:"failed_requests"`
	AverageProcessingTime float64   `json:"average_processing_time"`
	QualityScores         []float64 `json:"quality_scores"`
}

// Status is the externally visible view of an expert.
type Status struct {
	Name                string  `json:"name"`
	IsInitialized       bool    `json:"is_initialized"`
	Type                string  `json:"type"`
	Expertise           string  `json:"expertise"`
	ProcessingStats     Stats   `json:"processing_stats"`
	AverageQualityScore float64 `json:"average_quality_score"`
}

// Agent runs one expert Spec. It is safe for concurrent use.
type Agent struct {
	spec Spec

	mu          sync.Mutex
	initialized bool
	stats       Stats

	clock func() time.Time
}

// NewAgent wraps spec. The agent refuses work until the registry marks it
// initialized.
func NewAgent(spec Spec) *Agent {
	return &Agent{
		spec:  spec,
		stats: Stats{QualityScores: []float64{}},
		clock: time.Now,
	}
}

func (a *Agent) Key() string             { return a.spec.Key }
func (a *Agent) Name() string            { return a.spec.Name }
func (a *Agent) Expertise() string       { return a.spec.Expertise }
func (a *Agent) RouteKeywords() []string { return a.spec.RouteKeywords }

// Rules returns the quality rule set the agent evaluates with.
func (a *Agent) Rules() evaluation.RuleSet[Result] { return a.spec.Rules }

func (a *Agent) markInitialized() {
	a.mu.Lock()
	a.initialized = true
	a.mu.Unlock()
}

// CanHandle reports whether req is within this expert's scope.
func (a *Agent) CanHandle(req *request.Request) Eligibility {
	t := req.LowerType()
	for _, tok := range broadRequestTokens {
		if strings.Contains(t, tok) {
			return Eligibility{Eligible: true}
		}
	}
	if strings.Contains(t, strings.ReplaceAll(strings.ToLower(a.spec.Expertise), " ", "_")) {
		return Eligibility{Eligible: true}
	}
	return Eligibility{
		Reason: fmt.Sprintf("Request type %s not suitable for %s expert", req.Type, a.spec.Expertise),
	}
}

// Process runs the expert on req. Ineligible requests produce a skipped
// Outcome; the error return is reserved for faults.
func (a *Agent) Process(ctx context.Context, req *request.Request) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	a.mu.Lock()
	if !a.initialized {
		a.mu.Unlock()
		return Outcome{}, fmt.Errorf("expert %s: %w", a.spec.Name, domain.ErrNotInitialized)
	}
	a.stats.TotalRequests++
	a.mu.Unlock()

	start := a.clock()

	if el := a.CanHandle(req); !el.Eligible {
		a.mu.Lock()
		a.stats.FailedRequests++
		a.mu.Unlock()
		slog.Warn("expert skipped request", "expert", a.spec.Name, "request_id", req.RequestID, "reason", el.Reason)
		return Outcome{Skipped: true, Reason: el.Reason}, nil
	}

	result := a.spec.Generate(req)
	if result == nil {
		result = Result{}
	}
	elapsed := a.clock().Sub(start).Seconds()

	result[KeyProcessingTime] = elapsed
	result[KeyExpertAgent] = a.spec.Name
	result[KeyExpertise] = a.spec.Expertise

	report := evaluation.Evaluate(result, req, a.spec.Rules)
	result[KeyQualityReport] = report

	a.mu.Lock()
	a.stats.SuccessfulRequests++
	n := float64(a.stats.SuccessfulRequests)
	a.stats.AverageProcessingTime = (a.stats.AverageProcessingTime*(n-1) + elapsed) / n
	a.stats.QualityScores = append(a.stats.QualityScores, report.OverallScore)
	a.mu.Unlock()

	slog.Info("expert processed request",
		"expert", a.spec.Name,
		"request_id", req.RequestID,
		"duration_s", elapsed,
		"quality_score", report.OverallScore,
		"quality_level", report.QualityLevel,
	)
	if !report.ApprovedForPublication {
		slog.Warn("expert quality threshold not met", "expert", a.spec.Name, "score", report.OverallScore)
	}

	return Outcome{Result: result}, nil
}

// Status returns a snapshot of the agent's state and counters.
func (a *Agent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := a.stats
	stats.QualityScores = append(make([]float64, 0, len(a.stats.QualityScores)), a.stats.QualityScores...)

	var avg float64
	if len(stats.QualityScores) > 0 {
		var sum float64
		for _, s := range stats.QualityScores {
			sum += s
		}
		avg = sum / float64(len(stats.QualityScores))
	}

	return Status{
		Name:                a.spec.Name,
		IsInitialized:       a.initialized,
		Type:                a.spec.Name,
		Expertise:           a.spec.Expertise,
		ProcessingStats:     stats,
		AverageQualityScore: avg,
	}
}
