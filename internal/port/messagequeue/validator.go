package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need to be valid
// JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	var check func() error
	switch subject {
	case SubjectRequestSubmitted:
		var p RequestSubmittedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		check = func() error {
			if p.ProcessingID == "" {
				return errors.New("processing_id is required")
			}
			return p.Request.Validate()
		}
	case SubjectJobCompleted:
		var p JobCompletedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		check = func() error {
			if p.ProcessingID == "" {
				return errors.New("processing_id is required")
			}
			if p.Status != "completed" && p.Status != "error" {
				return fmt.Errorf("unknown status %q", p.Status)
			}
			return nil
		}
	case SubjectResponsePublished, SubjectResponseWithheld:
		var p ResponseEventPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		check = func() error {
			if p.RequestID == "" {
				return errors.New("request_id is required")
			}
			return nil
		}
	default:
		return nil
	}

	if err := check(); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}
