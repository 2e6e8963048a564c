// Package request defines the inbound analysis request handled by the
// principal orchestrator and its experts.
package request

import (
	"fmt"
	"strings"

	"github.com/Strob0t/TwinForge/internal/domain"
)

// Well-known request types. Request.Type is a free string; these are the
// values the public API advertises.
const (
	TypeUtilityManagement = "utility_management"
	TypeFinancialHealth   = "financial_health"
	TypeVehicleManagement = "vehicle_management"
	TypeGeneral           = "general"
)

// Priority of a request.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Request is an analysis request. It is never mutated after Normalize.
type Request struct {
	RequestID   string         `json:"request_id"`
	UserID      string         `json:"user_id"`
	Type        string         `json:"request_type"`
	Description string         `json:"description"`
	Priority    Priority       `json:"priority"`
	Metadata    map[string]any `json:"metadata,omitempty"` //nolint:gosec // open key/value metadata
}

// Normalize fills defaults: medium priority and an empty metadata map.
func (r *Request) Normalize() {
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
}

// Validate checks required fields and the priority enum.
func (r *Request) Validate() error {
	switch {
	case strings.TrimSpace(r.RequestID) == "":
		return fmt.Errorf("%w: request_id is required", domain.ErrValidation)
	case strings.TrimSpace(r.UserID) == "":
		return fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	case strings.TrimSpace(r.Type) == "":
		return fmt.Errorf("%w: request_type is required", domain.ErrValidation)
	case strings.TrimSpace(r.Description) == "":
		return fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if r.Priority != "" && !r.Priority.Valid() {
		return fmt.Errorf("%w: priority must be one of low, medium, high", domain.ErrValidation)
	}
	return nil
}

// LowerType returns the request type lowercased, the form every routing and
// eligibility check matches against.
func (r *Request) LowerType() string {
	return strings.ToLower(r.Type)
}
