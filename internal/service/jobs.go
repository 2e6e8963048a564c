package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	tfotel "github.com/Strob0t/TwinForge/internal/adapter/otel"
	"github.com/Strob0t/TwinForge/internal/domain"
	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/port/broadcast"
	"github.com/Strob0t/TwinForge/internal/port/cache"
	"github.com/Strob0t/TwinForge/internal/port/messagequeue"
	"github.com/Strob0t/TwinForge/internal/port/sink"
	"github.com/Strob0t/TwinForge/internal/resilience"
)

// JobStatus is the lifecycle state of a background request.
type JobStatus string

const (
	JobAccepted   JobStatus = "accepted"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobError      JobStatus = "error"
)

// Job is the pollable state of a background request.
type Job struct {
	ProcessingID      string            `json:"processing_id"`
	RequestID         string            `json:"request_id"`
	Status            JobStatus         `json:"status"`
	Error             string            `json:"error,omitempty"`
	PublicationStatus PublicationStatus `json:"publication_status,omitempty"`
	QualityScore      float64           `json:"quality_score,omitempty"`
	ProcessingTime    float64           `json:"processing_time"`
	SubmittedAt       time.Time         `json:"submitted_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Acceptance is returned when a background request is queued.
type Acceptance struct {
	RequestID    string    `json:"request_id"`
	Status       string    `json:"status"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	ProcessingID string    `json:"processing_id"`
}

// JobService runs requests in the background. With a queue the request is
// published on requests.submitted and picked up by Start's subscriber;
// without one it runs on a goroutine in this process. Either way the
// outcome is appended to the sink as a background record.
type JobService struct {
	principal *PrincipalService
	out       sink.Sink
	statuses  cache.Cache
	ttl       time.Duration

	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	metrics *tfotel.Metrics
	timeout time.Duration
	breaker *resilience.Breaker

	wg  sync.WaitGroup
	now func() time.Time
}

// NewJobService creates a JobService. Job states are kept in statuses for
// ttl.
func NewJobService(principal *PrincipalService, out sink.Sink, statuses cache.Cache, ttl time.Duration) *JobService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JobService{
		principal: principal,
		out:       out,
		statuses:  statuses,
		ttl:       ttl,
		now:       time.Now,
	}
}

// SetQueue routes submissions through q instead of in-process goroutines.
func (s *JobService) SetQueue(q messagequeue.Queue) {
	s.queue = q
}

// SetBroadcaster sets the live event broadcaster.
func (s *JobService) SetBroadcaster(hub broadcast.Broadcaster) {
	s.hub = hub
}

// SetBreaker guards queue publishes with b.
func (s *JobService) SetBreaker(b *resilience.Breaker) {
	s.breaker = b
}

// SetTimeout bounds how long one background request may run. Zero means no
// limit.
func (s *JobService) SetTimeout(d time.Duration) {
	s.timeout = d
}

// SetMetrics sets the metric instruments.
func (s *JobService) SetMetrics(m *tfotel.Metrics) {
	s.metrics = m
}

func jobKey(processingID string) string { return "job:" + processingID }

// Submit validates req, records it as accepted and hands it to the queue or
// a background goroutine. It does not wait for processing.
func (s *JobService) Submit(ctx context.Context, req *request.Request) (*Acceptance, error) {
	r := *req
	r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := s.now()
	job := Job{
		ProcessingID: id,
		RequestID:    r.RequestID,
		Status:       JobAccepted,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}
	if err := s.save(ctx, job); err != nil {
		return nil, err
	}

	if s.queue != nil {
		data, err := json.Marshal(messagequeue.RequestSubmittedPayload{ProcessingID: id, Request: r})
		if err != nil {
			return nil, fmt.Errorf("marshal submitted request: %w", err)
		}
		if err := s.publish(ctx, messagequeue.SubjectRequestSubmitted, data); err != nil {
			return nil, fmt.Errorf("enqueue request %s: %w", r.RequestID, err)
		}
	} else {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(context.WithoutCancel(ctx), id, &r)
		}()
	}

	if s.metrics != nil {
		s.metrics.JobsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("request.type", r.Type)))
	}
	slog.Info("background request accepted", "request_id", r.RequestID, "processing_id", id)

	return &Acceptance{
		RequestID:    r.RequestID,
		Status:       string(JobAccepted),
		Message:      "Request accepted for processing. Processing ID: " + id,
		Timestamp:    now,
		ProcessingID: id,
	}, nil
}

// Start subscribes to requests.submitted when a queue is configured. The
// returned function cancels the subscription; it is a no-op without a
// queue.
func (s *JobService) Start(ctx context.Context) (func(), error) {
	if s.queue == nil {
		return func() {}, nil
	}
	cancel, err := s.queue.Subscribe(ctx, messagequeue.SubjectRequestSubmitted, s.handleSubmitted)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", messagequeue.SubjectRequestSubmitted, err)
	}
	slog.Info("job worker subscribed", "subject", messagequeue.SubjectRequestSubmitted)
	return cancel, nil
}

func (s *JobService) handleSubmitted(ctx context.Context, subject string, data []byte) error {
	if err := messagequeue.Validate(subject, data); err != nil {
		// Redelivery cannot fix a malformed message.
		slog.Error("dropping invalid submitted request", "subject", subject, "error", err)
		return nil
	}
	var p messagequeue.RequestSubmittedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Error("dropping undecodable submitted request", "subject", subject, "error", err)
		return nil
	}
	s.run(ctx, p.ProcessingID, &p.Request)
	return nil
}

// Wait blocks until every in-process job has finished.
func (s *JobService) Wait() {
	s.wg.Wait()
}

// run processes one job and records its outcome in the cache, the sink, the
// queue and the live event stream.
func (s *JobService) run(ctx context.Context, processingID string, req *request.Request) {
	ctx, span := tfotel.StartJobSpan(ctx, processingID, req.RequestID)
	defer span.End()

	job := Job{
		ProcessingID: processingID,
		RequestID:    req.RequestID,
		Status:       JobProcessing,
		UpdatedAt:    s.now(),
	}
	if prev, err := s.Get(ctx, processingID); err == nil {
		job.SubmittedAt = prev.SubmittedAt
	}
	if err := s.save(ctx, job); err != nil {
		slog.Warn("job status update failed", "processing_id", processingID, "error", err)
	}
	s.broadcast(ctx, job)

	start := s.now()
	slog.Info("background processing started", "request_id", req.RequestID, "processing_id", processingID)
	procCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		procCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	resp, procErr := s.principal.Process(procCtx, req)
	job.ProcessingTime = s.now().Sub(start).Seconds()
	job.UpdatedAt = s.now()

	record := sink.Record{
		"processing_id":   processingID,
		"request_id":      req.RequestID,
		"user_id":         req.UserID,
		"request_type":    req.Type,
		"processing_time": job.ProcessingTime,
	}
	if procErr != nil {
		job.Status = JobError
		job.Error = procErr.Error()
		record["status"] = string(JobError)
		record["error"] = procErr.Error()
		slog.Error("background processing failed", "request_id", req.RequestID, "processing_id", processingID, "error", procErr)
	} else {
		job.Status = JobCompleted
		job.PublicationStatus = resp.PublicationStatus
		job.QualityScore = resp.QualityReport.OverallScore
		record["status"] = string(JobCompleted)
		if result, err := sink.ToRecord(resp); err == nil {
			record["result"] = result
		} else {
			record["result"] = nil
			slog.Error("encode background result", "processing_id", processingID, "error", err)
		}
		slog.Info("background processing completed", "request_id", req.RequestID, "processing_id", processingID)
	}

	if err := s.out.Append(ctx, record); err != nil {
		slog.Error("error writing background record", "processing_id", processingID, "error", err)
	}
	if err := s.save(ctx, job); err != nil {
		slog.Warn("job status update failed", "processing_id", processingID, "error", err)
	}
	s.broadcast(ctx, job)
	s.publishCompleted(ctx, job)

	if s.metrics != nil {
		s.metrics.JobsCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(job.Status))))
	}
}

func (s *JobService) publishCompleted(ctx context.Context, job Job) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(messagequeue.JobCompletedPayload{
		ProcessingID:   job.ProcessingID,
		RequestID:      job.RequestID,
		Status:         string(job.Status),
		Error:          job.Error,
		ProcessingTime: job.ProcessingTime,
	})
	if err != nil {
		slog.Error("marshal job completed event", "processing_id", job.ProcessingID, "error", err)
		return
	}
	if err := s.publish(ctx, messagequeue.SubjectJobCompleted, data); err != nil {
		slog.Warn("publish job completed event failed", "processing_id", job.ProcessingID, "error", err)
	}
}

func (s *JobService) publish(ctx context.Context, subject string, data []byte) error {
	if s.breaker == nil {
		return s.queue.Publish(ctx, subject, data)
	}
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.queue.Publish(ctx, subject, data)
	})
}

func (s *JobService) broadcast(ctx context.Context, job Job) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, broadcast.EventJobUpdated, job)
	}
}

func (s *JobService) save(ctx context.Context, job Job) error {
	if err := cache.SetJSON(ctx, s.statuses, jobKey(job.ProcessingID), job, s.ttl); err != nil {
		return fmt.Errorf("store job %s: %w", job.ProcessingID, err)
	}
	return nil
}

// Get returns the state of a background request.
func (s *JobService) Get(ctx context.Context, processingID string) (*Job, error) {
	job, ok, err := cache.GetJSON[Job](ctx, s.statuses, jobKey(processingID))
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", processingID, err)
	}
	if !ok {
		return nil, fmt.Errorf("job %s: %w", processingID, domain.ErrNotFound)
	}
	return &job, nil
}
