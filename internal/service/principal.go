// Package service runs requests through the expert agents and reports
// their outcomes.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	tfotel "github.com/Strob0t/TwinForge/internal/adapter/otel"
	"github.com/Strob0t/TwinForge/internal/domain"
	"github.com/Strob0t/TwinForge/internal/domain/quality"
	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/evaluation"
	"github.com/Strob0t/TwinForge/internal/expert"
	"github.com/Strob0t/TwinForge/internal/port/broadcast"
	"github.com/Strob0t/TwinForge/internal/port/messagequeue"
	"github.com/Strob0t/TwinForge/internal/port/sink"
	"github.com/Strob0t/TwinForge/internal/resilience"
)

// PublicationStatus records what happened to a final response.
type PublicationStatus string

const (
	PublicationPublished     PublicationStatus = "published"
	PublicationWithheld      PublicationStatus = "withheld"
	PublicationPublishFailed PublicationStatus = "publish_failed"
)

// recentWorkflowLimit is how many workflow entries Status reports.
const recentWorkflowLimit = 5

// FinalResponse is the principal agent's answer to one request.
type FinalResponse struct {
	RequestID              string                    `json:"request_id"`
	RequestType            string                    `json:"request_type"`
	Status                 string                    `json:"status"`
	ProcessingTime         float64                   `json:"processing_time"`
	PrincipalAgent         string                    `json:"principal_agent"`
	ExpertResults          map[string]expert.Result  `json:"expert_results"`
	QualityAssessments     map[string]quality.Report `json:"quality_assessments"`
	Synthesis              Synthesis                 `json:"synthesis"`
	QualityReport          quality.Report            `json:"quality_report"`
	ApprovedForPublication bool                      `json:"approved_for_publication"`
	PublicationStatus      PublicationStatus         `json:"publication_status"`
	Timestamp              time.Time                 `json:"timestamp"`
}

// WorkflowEntry is one line of the principal's workflow log.
type WorkflowEntry struct {
	RequestID    string    `json:"request_id"`
	Timestamp    time.Time `json:"timestamp"`
	ExpertsUsed  []string  `json:"experts_used"`
	QualityScore float64   `json:"quality_score"`
	Approved     bool      `json:"approved"`
}

// PrincipalStatus is the principal agent's status view.
type PrincipalStatus struct {
	Name                 string                   `json:"name"`
	IsInitialized        bool                     `json:"is_initialized"`
	Type                 string                   `json:"type"`
	ExpertAgents         map[string]expert.Status `json:"expert_agents"`
	WorkflowHistoryCount int                      `json:"workflow_history_count"`
	RecentWorkflows      []WorkflowEntry          `json:"recent_workflows"`
	PublicationQueueSize int                      `json:"publication_queue_size"`
}

// PrincipalConfig tunes the principal agent.
type PrincipalConfig struct {
	HistorySize int // workflow log capacity, keyed by request ID
	MaxParallel int // concurrent expert invocations per request; <= 0 means one per selected expert
}

// PrincipalService coordinates the experts: it routes a request, fans the
// experts out in parallel, synthesizes and scores their results, and
// publishes approved responses to the sink.
type PrincipalService struct {
	registry    *expert.Registry
	router      *RouterService
	synthesizer *SynthesizerService
	out         sink.Sink
	breaker     *resilience.Breaker
	rules       evaluation.RuleSet[Envelope]
	maxParallel int

	hub     broadcast.Broadcaster
	queue   messagequeue.Publisher
	metrics *tfotel.Metrics

	mu          sync.Mutex
	initialized bool
	approved    int
	history     *lru.Cache[string, WorkflowEntry]

	now func() time.Time
}

// NewPrincipalService creates a PrincipalService. It refuses requests until
// Initialize is called.
func NewPrincipalService(
	registry *expert.Registry,
	out sink.Sink,
	breaker *resilience.Breaker,
	cfg PrincipalConfig,
) (*PrincipalService, error) {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 1000
	}
	history, err := lru.New[string, WorkflowEntry](cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("principal workflow log: %w", err)
	}
	if breaker == nil {
		breaker = resilience.NewBreaker("sink", 5, 30*time.Second)
	}
	return &PrincipalService{
		registry:    registry,
		router:      NewRouterService(registry),
		synthesizer: NewSynthesizerService(),
		out:         out,
		breaker:     breaker,
		rules:       synthesisRules(),
		maxParallel: cfg.MaxParallel,
		history:     history,
		now:         time.Now,
	}, nil
}

// SetBroadcaster sets the live event broadcaster.
func (s *PrincipalService) SetBroadcaster(hub broadcast.Broadcaster) {
	s.hub = hub
}

// SetQueue sets the queue publication events are sent to.
func (s *PrincipalService) SetQueue(q messagequeue.Publisher) {
	s.queue = q
}

// SetMetrics sets the metric instruments.
func (s *PrincipalService) SetMetrics(m *tfotel.Metrics) {
	s.metrics = m
}

// Initialize makes the principal accept requests. It fails when no sink is
// configured.
func (s *PrincipalService) Initialize() error {
	if s.out == nil {
		return fmt.Errorf("principal: %w: result sink is required", domain.ErrValidation)
	}
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	slog.Info("principal agent initialized", "experts", s.registry.Keys())
	return nil
}

// Close stops the principal from accepting further requests.
func (s *PrincipalService) Close() {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
	slog.Info("principal agent cleaned up")
}

// Initialized reports whether Initialize has run.
func (s *PrincipalService) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Process runs the full pipeline for req. Per-expert failures become failed
// slots; the only errors returned are validation, ErrNotInitialized and
// context cancellation. A sink failure is reported through
// PublicationStatus, not as an error.
func (s *PrincipalService) Process(ctx context.Context, req *request.Request) (*FinalResponse, error) {
	if !s.Initialized() {
		s.countFailure(ctx, "not_initialized")
		slog.Error("principal agent is not initialized")
		return nil, fmt.Errorf("principal agent: %w", domain.ErrNotInitialized)
	}

	r := *req
	r.Normalize()
	if err := r.Validate(); err != nil {
		s.countFailure(ctx, "validation")
		return nil, err
	}

	ctx, span := tfotel.StartRequestSpan(ctx, r.RequestID, r.Type)
	defer span.End()

	start := s.now()
	if s.metrics != nil {
		s.metrics.RequestsReceived.Add(ctx, 1, metric.WithAttributes(attribute.String("request.type", r.Type)))
	}
	slog.Info("principal agent processing request", "request_id", r.RequestID, "request_type", r.Type)
	s.broadcast(ctx, broadcast.EventRequestReceived, map[string]string{
		"request_id":   r.RequestID,
		"request_type": r.Type,
	})

	selected := s.router.SelectExperts(&r)
	used := agentKeys(selected)
	slog.Info("principal agent selected experts", "request_id", r.RequestID, "experts", used)

	results, err := s.invokeExperts(ctx, &r, selected)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.countFailure(ctx, "cancelled")
		return nil, err
	}

	assessments := make(map[string]quality.Report, len(results))
	for k, res := range results {
		if rep, ok := res.Report(); ok {
			assessments[k] = rep
		}
	}

	syn := s.synthesizer.Synthesize(&r, results)
	report := evaluation.Evaluate(Envelope{
		RequestID:     r.RequestID,
		RequestType:   r.Type,
		ExpertResults: results,
		Synthesis:     syn,
	}, &r, s.rules)

	resp := &FinalResponse{
		RequestID:              r.RequestID,
		RequestType:            r.Type,
		Status:                 "completed",
		ProcessingTime:         s.now().Sub(start).Seconds(),
		PrincipalAgent:         PrincipalName,
		ExpertResults:          results,
		QualityAssessments:     assessments,
		Synthesis:              syn,
		QualityReport:          report,
		ApprovedForPublication: report.ApprovedForPublication,
		PublicationStatus:      PublicationWithheld,
		Timestamp:              s.now(),
	}

	s.mu.Lock()
	s.history.Add(r.RequestID, WorkflowEntry{
		RequestID:    r.RequestID,
		Timestamp:    resp.Timestamp,
		ExpertsUsed:  used,
		QualityScore: report.OverallScore,
		Approved:     report.ApprovedForPublication,
	})
	if report.ApprovedForPublication {
		s.approved++
	}
	s.mu.Unlock()

	slog.Info("principal agent completed processing",
		"request_id", r.RequestID,
		"duration_s", resp.ProcessingTime,
		"quality_score", report.OverallScore,
		"quality_level", report.QualityLevel,
	)

	if report.ApprovedForPublication {
		slog.Info("results approved for publication", "request_id", r.RequestID)
		resp.PublicationStatus = s.publish(ctx, resp)
	} else {
		slog.Warn("results did not meet quality threshold for publication", "request_id", r.RequestID, "score", report.OverallScore)
	}

	s.recordOutcome(ctx, resp, used)
	return resp, nil
}

// invokeExperts runs the selected experts in parallel. Each goroutine owns
// one slot; failures are recorded in the slot and never cancel siblings.
func (s *PrincipalService) invokeExperts(ctx context.Context, req *request.Request, agents []*expert.Agent) (map[string]expert.Result, error) {
	slots := make([]expert.Result, len(agents))

	g, gctx := errgroup.WithContext(ctx)
	if s.maxParallel > 0 {
		g.SetLimit(s.maxParallel)
	}
	for i, a := range agents {
		g.Go(func() error {
			slots[i] = s.invokeExpert(gctx, req, a)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make(map[string]expert.Result, len(agents))
	for i, a := range agents {
		results[a.Key()] = slots[i]
	}
	return results, nil
}

func (s *PrincipalService) invokeExpert(ctx context.Context, req *request.Request, a *expert.Agent) expert.Result {
	ctx, span := tfotel.StartExpertSpan(ctx, req.RequestID, a.Key())
	defer span.End()

	slog.Info("delegating to expert", "request_id", req.RequestID, "expert", a.Key())
	out, err := a.Process(ctx, req)
	attrs := metric.WithAttributes(attribute.String("expert", a.Key()))

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("expert failed", "request_id", req.RequestID, "expert", a.Key(), "error", err)
		if s.metrics != nil {
			s.metrics.ExpertFailures.Add(ctx, 1, attrs)
		}
		return expert.FailedResult(a.Key(), err.Error())
	case out.Skipped:
		span.SetAttributes(attribute.Bool("expert.skipped", true))
		if s.metrics != nil {
			s.metrics.ExpertSkips.Add(ctx, 1, attrs)
		}
		return expert.FailedResult(a.Key(), out.Reason)
	}

	if rep, ok := out.Result.Report(); ok {
		span.SetAttributes(attribute.Float64("quality.score", rep.OverallScore))
		if s.metrics != nil {
			s.metrics.QualityScore.Record(ctx, rep.OverallScore,
				metric.WithAttributes(attribute.String("agent", a.Name())))
		}
	}
	s.broadcast(ctx, broadcast.EventExpertCompleted, map[string]string{
		"request_id": req.RequestID,
		"expert":     a.Key(),
	})
	return out.Result
}

// publish appends resp to the sink through the breaker.
func (s *PrincipalService) publish(ctx context.Context, resp *FinalResponse) PublicationStatus {
	ctx, span := tfotel.StartPublishSpan(ctx, resp.RequestID)
	defer span.End()

	resp.PublicationStatus = PublicationPublished
	rec, err := sink.ToRecord(resp)
	if err == nil {
		err = s.breaker.Execute(ctx, func(ctx context.Context) error {
			return s.out.Append(ctx, rec)
		})
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("error publishing results", "request_id", resp.RequestID, "error", err)
		if s.metrics != nil {
			s.metrics.PublishFailures.Add(ctx, 1)
		}
		return PublicationPublishFailed
	}
	slog.Info("results published", "request_id", resp.RequestID)
	return PublicationPublished
}

// recordOutcome emits metrics, a live event and a queue event for resp.
func (s *PrincipalService) recordOutcome(ctx context.Context, resp *FinalResponse, used []string) {
	published := resp.PublicationStatus == PublicationPublished
	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("request.type", resp.RequestType))
		if published {
			s.metrics.ResponsesPublished.Add(ctx, 1, attrs)
		} else {
			s.metrics.ResponsesWithheld.Add(ctx, 1, attrs)
		}
		s.metrics.QualityScore.Record(ctx, resp.QualityReport.OverallScore,
			metric.WithAttributes(attribute.String("agent", PrincipalName)))
		s.metrics.RequestDuration.Record(ctx, resp.ProcessingTime, attrs)
	}

	event := messagequeue.ResponseEventPayload{
		RequestID:         resp.RequestID,
		RequestType:       resp.RequestType,
		QualityScore:      resp.QualityReport.OverallScore,
		QualityLevel:      string(resp.QualityReport.QualityLevel),
		PublicationStatus: string(resp.PublicationStatus),
		ExpertsUsed:       used,
	}
	eventType, subject := broadcast.EventResponseWithheld, messagequeue.SubjectResponseWithheld
	if published {
		eventType, subject = broadcast.EventResponsePublished, messagequeue.SubjectResponsePublished
	}
	s.broadcast(ctx, eventType, event)

	if s.queue == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal response event", "request_id", resp.RequestID, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish response event failed", "subject", subject, "request_id", resp.RequestID, "error", err)
	}
}

func (s *PrincipalService) broadcast(ctx context.Context, eventType string, payload any) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, eventType, payload)
	}
}

func (s *PrincipalService) countFailure(ctx context.Context, reason string) {
	if s.metrics != nil {
		s.metrics.RequestsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

// Workflow returns the workflow log entry for requestID.
func (s *PrincipalService) Workflow(requestID string) (WorkflowEntry, error) {
	s.mu.Lock()
	entry, ok := s.history.Peek(requestID)
	s.mu.Unlock()
	if !ok {
		return WorkflowEntry{}, fmt.Errorf("workflow %s: %w", requestID, domain.ErrNotFound)
	}
	return entry, nil
}

// Status returns the principal's status with every expert's status.
func (s *PrincipalService) Status() PrincipalStatus {
	s.mu.Lock()
	entries := s.history.Values()
	approved := s.approved
	initialized := s.initialized
	s.mu.Unlock()

	if len(entries) > recentWorkflowLimit {
		entries = entries[len(entries)-recentWorkflowLimit:]
	}
	return PrincipalStatus{
		Name:                 PrincipalName,
		IsInitialized:        initialized,
		Type:                 PrincipalName,
		ExpertAgents:         s.registry.Statuses(),
		WorkflowHistoryCount: s.history.Len(),
		RecentWorkflows:      append([]WorkflowEntry{}, entries...),
		PublicationQueueSize: approved,
	}
}
