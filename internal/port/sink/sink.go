// Package sink defines the port interface for the append-only result store.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
)

// Record is one JSON object in the store.
type Record map[string]any

// Sink is an append-only store of published records.
type Sink interface {
	// Append adds record to the end of the store. The store sets the
	// record's timestamp.
	Append(ctx context.Context, record Record) error

	// ReadRecent returns the trailing limit records, most recent last.
	// limit <= 0 returns every record.
	ReadRecent(ctx context.Context, limit int) ([]Record, error)
}

// ToRecord converts any JSON-encodable value into a Record.
func ToRecord(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}
