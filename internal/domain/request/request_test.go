package request

import (
	"errors"
	"testing"

	"github.com/Strob0t/TwinForge/internal/domain"
)

func validRequest() Request {
	return Request{
		RequestID:   "req-1",
		UserID:      "user-1",
		Type:        TypeUtilityManagement,
		Description: "reduce my electricity bill",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr bool
	}{
		{"valid", func(*Request) {}, false},
		{"missing request_id", func(r *Request) { r.RequestID = "" }, true},
		{"missing user_id", func(r *Request) { r.UserID = " " }, true},
		{"missing request_type", func(r *Request) { r.Type = "" }, true},
		{"missing description", func(r *Request) { r.Description = "" }, true},
		{"bad priority", func(r *Request) { r.Priority = "urgent" }, true},
		{"high priority", func(r *Request) { r.Priority = PriorityHigh }, false},
		{"free request type", func(r *Request) { r.Type = "comprehensive_analysis" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	r := validRequest()
	r.Normalize()

	if r.Priority != PriorityMedium {
		t.Errorf("expected default priority medium, got %q", r.Priority)
	}
	if r.Metadata == nil {
		t.Error("expected non-nil metadata")
	}
}

func TestLowerType(t *testing.T) {
	r := Request{Type: "Financial_Health"}
	if got := r.LowerType(); got != "financial_health" {
		t.Errorf("LowerType() = %q", got)
	}
}
