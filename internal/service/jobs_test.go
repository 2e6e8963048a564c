package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/TwinForge/internal/adapter/memqueue"
	"github.com/Strob0t/TwinForge/internal/adapter/ristretto"
	"github.com/Strob0t/TwinForge/internal/domain"
	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/expert"
	"github.com/Strob0t/TwinForge/internal/port/broadcast"
	"github.com/Strob0t/TwinForge/internal/resilience"
	"github.com/Strob0t/TwinForge/internal/service"
)

func newStatusCache(t *testing.T) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.New(1 << 20)
	if err != nil {
		t.Fatalf("ristretto.New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func waitForJob(t *testing.T, jobs *service.JobService, id string) *service.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.Get(context.Background(), id)
		if err == nil && (job.Status == service.JobCompleted || job.Status == service.JobError) {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return nil
}

func TestJobs_SubmitInProcess(t *testing.T) {
	out := newFileSink(t)
	p := newPrincipal(t, out)
	jobs := service.NewJobService(p, out, newStatusCache(t), time.Hour)
	hub := &recordingHub{}
	jobs.SetBroadcaster(hub)

	acc, err := jobs.Submit(context.Background(), newRequest("bg-1", request.TypeUtilityManagement, utilityDescription))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if acc.Status != "accepted" || acc.RequestID != "bg-1" || acc.ProcessingID == "" {
		t.Fatalf("acceptance = %+v", acc)
	}
	if !strings.HasSuffix(acc.Message, "Processing ID: "+acc.ProcessingID) {
		t.Errorf("message = %q", acc.Message)
	}

	jobs.Wait()

	job, err := jobs.Get(context.Background(), acc.ProcessingID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != service.JobCompleted || job.PublicationStatus != service.PublicationWithheld {
		t.Errorf("job = %+v", job)
	}
	if job.SubmittedAt.IsZero() {
		t.Error("submitted_at lost across status updates")
	}
	if !hub.has(broadcast.EventJobUpdated) {
		t.Error("job.updated not broadcast")
	}

	recs, err := out.ReadRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("ReadRecent: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want the background record only", len(recs))
	}
	rec := recs[0]
	if rec["processing_id"] != acc.ProcessingID || rec["status"] != "completed" {
		t.Errorf("record = %v", rec)
	}
	if _, ok := rec["result"].(map[string]any); !ok {
		t.Errorf("result = %T", rec["result"])
	}
}

func TestJobs_SubmitThroughQueue(t *testing.T) {
	out := newFileSink(t)
	reg, _ := expert.NewRegistry(expert.Standard()...)
	p, err := service.NewPrincipalService(reg, out, resilience.NewBreaker("sink", 3, time.Minute), service.PrincipalConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Initialize(); err != nil {
		t.Fatal(err)
	}

	q := memqueue.New()
	defer func() { _ = q.Close() }()

	jobs := service.NewJobService(p, out, newStatusCache(t), time.Hour)
	jobs.SetQueue(q)
	p.SetQueue(q)

	cancel, err := jobs.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer cancel()

	acc, err := jobs.Submit(context.Background(), newRequest("bg-q", "vehicle_management", "fleet fuel maintenance"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	job := waitForJob(t, jobs, acc.ProcessingID)
	if job.Status != service.JobCompleted || job.RequestID != "bg-q" {
		t.Errorf("job = %+v", job)
	}
}

func TestJobs_ProcessingErrorIsRecorded(t *testing.T) {
	out := newFileSink(t)
	reg, _ := expert.NewRegistry(expert.Standard()...)
	p, err := service.NewPrincipalService(reg, out, nil, service.PrincipalConfig{})
	if err != nil {
		t.Fatal(err)
	}
	// Never initialized.
	jobs := service.NewJobService(p, out, newStatusCache(t), 0)

	acc, err := jobs.Submit(context.Background(), newRequest("bg-err", "general", "anything"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	jobs.Wait()

	job, err := jobs.Get(context.Background(), acc.ProcessingID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != service.JobError || job.Error == "" {
		t.Errorf("job = %+v", job)
	}

	recs, _ := out.ReadRecent(context.Background(), 0)
	if len(recs) != 1 || recs[0]["status"] != "error" || recs[0]["error"] == nil {
		t.Errorf("records = %v", recs)
	}
}

func TestJobs_SubmitInvalid(t *testing.T) {
	out := newFileSink(t)
	jobs := service.NewJobService(newPrincipal(t, out), out, newStatusCache(t), time.Hour)

	_, err := jobs.Submit(context.Background(), &request.Request{RequestID: "x"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestJobs_GetUnknown(t *testing.T) {
	out := newFileSink(t)
	jobs := service.NewJobService(newPrincipal(t, out), out, newStatusCache(t), time.Hour)

	if _, err := jobs.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

type downQueue struct{ recordingQueue }

func (q *downQueue) Publish(context.Context, string, []byte) error {
	return errors.New("nats: no responders")
}

func TestJobs_QueueBreakerOpens(t *testing.T) {
	out := newFileSink(t)
	jobs := service.NewJobService(newPrincipal(t, out), out, newStatusCache(t), time.Hour)
	jobs.SetQueue(&downQueue{})
	jobs.SetBreaker(resilience.NewBreaker("queue", 1, time.Minute))
	ctx := context.Background()

	_, err := jobs.Submit(ctx, newRequest("q-1", "general", "fleet"))
	if err == nil || errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("first submit err = %v, want queue error", err)
	}
	_, err = jobs.Submit(ctx, newRequest("q-2", "general", "fleet"))
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("second submit err = %v, want ErrCircuitOpen", err)
	}
}
