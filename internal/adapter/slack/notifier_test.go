package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Strob0t/TwinForge/internal/port/notifier"
)

// Compile-time interface check.
var _ notifier.Notifier = (*Notifier)(nil)

func TestNotifierName(t *testing.T) {
	if n := NewNotifier(""); n.Name() != "slack" {
		t.Fatalf("expected 'slack', got %q", n.Name())
	}
}

func TestSendNotConfigured(t *testing.T) {
	err := NewNotifier("").Send(context.Background(), notifier.Notification{Title: "test"})
	if !errors.Is(err, notifier.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSendSuccess(t *testing.T) {
	var got slackMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL).Send(context.Background(), notifier.Notification{
		Title:   "Response published",
		Message: "req-1 cleared the publication floor",
		Level:   notifier.LevelSuccess,
		Event:   "responses.published",
		Fields:  []notifier.Field{{Label: "Score", Value: "0.780"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got.Text, "[PUBLISHED]") {
		t.Errorf("text = %q", got.Text)
	}
	if len(got.Blocks) != 4 {
		t.Fatalf("expected header, section, fields and context blocks, got %d", len(got.Blocks))
	}
	if got.Blocks[2].Fields[0].Text != "*Score*\n0.780" {
		t.Errorf("field = %q", got.Blocks[2].Fields[0].Text)
	}
}

func TestSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL).Send(context.Background(), notifier.Notification{Title: "Test", Level: notifier.LevelInfo})
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestRegisteredFactory(t *testing.T) {
	if _, err := notifier.New("slack", nil); !errors.Is(err, notifier.ErrNotConfigured) {
		t.Errorf("empty settings err = %v", err)
	}
	n, err := notifier.New("slack", map[string]string{"webhook_url": "http://hook"})
	if err != nil || n.Name() != "slack" {
		t.Errorf("n = %v err = %v", n, err)
	}
}
