package messagequeue

import "github.com/Strob0t/TwinForge/internal/domain/request"

// RequestSubmittedPayload is published on SubjectRequestSubmitted.
type RequestSubmittedPayload struct {
	ProcessingID string          `json:"processing_id"`
	Request      request.Request `json:"request"`
}

// JobCompletedPayload is published on SubjectJobCompleted.
type JobCompletedPayload struct {
	ProcessingID   string  `json:"processing_id"`
	RequestID      string  `json:"request_id"`
	Status         string  `json:"status"`
	Error          string  `json:"error,omitempty"`
	ProcessingTime float64 `json:"processing_time"`
}

// ResponseEventPayload is published on SubjectResponsePublished and
// SubjectResponseWithheld.
type ResponseEventPayload struct {
	RequestID         string   `json:"request_id"`
	RequestType       string   `json:"request_type"`
	QualityScore      float64  `json:"quality_score"`
	QualityLevel      string   `json:"quality_level"`
	PublicationStatus string   `json:"publication_status"`
	ExpertsUsed       []string `json:"experts_used"`
}
