package logger

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// captureHandler keeps the messages it receives.
type captureHandler struct {
	mu    sync.Mutex
	msgs  []string
	attrs []slog.Attr
	delay time.Duration
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, rec.Message)
	rec.Attrs(func(a slog.Attr) bool {
		h.attrs = append(h.attrs, a)
		return true
	})
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.msgs...)
}

func record(msg string) slog.Record {
	return slog.NewRecord(time.Now(), slog.LevelInfo, msg, 0)
}

func TestAsyncHandler_CloseFlushes(t *testing.T) {
	inner := &captureHandler{}
	h := NewAsyncHandler(inner, 500, 2)

	for range 300 {
		_ = h.Handle(context.Background(), record("request processed"))
	}
	h.Close()

	if got := len(inner.messages()); got != 300 {
		t.Fatalf("records = %d, want 300", got)
	}
}

func TestAsyncHandler_ConcurrentProducers(t *testing.T) {
	inner := &captureHandler{}
	h := NewAsyncHandler(inner, 5000, 4)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 40 {
				_ = h.Handle(context.Background(), record("expert finished"))
			}
		}()
	}
	wg.Wait()
	h.Close()

	if got := len(inner.messages()); got != 2000 {
		t.Fatalf("records = %d, want 2000", got)
	}
}

func TestAsyncHandler_FullBufferDropsAndReports(t *testing.T) {
	inner := &captureHandler{delay: 5 * time.Millisecond}
	h := NewAsyncHandler(inner, 1, 1)

	for range 40 {
		_ = h.Handle(context.Background(), record("flood"))
	}
	h.Close()

	dropped := h.DroppedCount()
	if dropped == 0 {
		t.Fatal("expected dropped records")
	}
	msgs := inner.messages()
	if last := msgs[len(msgs)-1]; last != "async logger dropped records" {
		t.Errorf("last message = %q", last)
	}
	if int64(len(msgs)-1)+dropped != 40 {
		t.Errorf("written %d + dropped %d != 40", len(msgs)-1, dropped)
	}
}

func TestAsyncHandler_HandleAfterClose(t *testing.T) {
	inner := &captureHandler{}
	h := NewAsyncHandler(inner, 10, 1)
	h.Close()
	h.Close()

	if err := h.Handle(context.Background(), record("late")); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if h.DroppedCount() != 1 {
		t.Errorf("dropped = %d, want 1", h.DroppedCount())
	}
	if len(inner.messages()) != 0 {
		t.Errorf("messages = %v", inner.messages())
	}
}

func TestAsyncHandler_DerivedHandlersShareQueue(t *testing.T) {
	inner := &captureHandler{}
	h := NewAsyncHandler(inner, 10, 1)
	child := h.WithAttrs([]slog.Attr{slog.String("component", "jobs")}).WithGroup("job")

	_ = child.Handle(context.Background(), record("from child"))
	_ = h.Handle(context.Background(), record("from parent"))
	h.Close()

	if got := len(inner.messages()); got != 2 {
		t.Errorf("records = %d, want 2", got)
	}
}
