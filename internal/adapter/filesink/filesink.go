// Package filesink implements the sink port as a single JSON array document
// on disk.
package filesink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Strob0t/TwinForge/internal/port/sink"
)

// Sink appends records to a JSON array file. Every read-modify-write runs
// under one mutex and the file is replaced through a temp file and rename,
// so concurrent appends are never lost and readers never see a torn file.
type Sink struct {
	path string

	mu  sync.Mutex
	now func() time.Time
}

var _ sink.Sink = (*Sink)(nil)

// New creates a Sink writing to path and makes sure its directory exists.
func New(path string) (*Sink, error) {
	if path == "" {
		return nil, errors.New("filesink: path is required")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("filesink: create output directory: %w", err)
	}
	slog.Info("filesink: output directory ensured", "dir", dir)
	return &Sink{path: path, now: time.Now}, nil
}

// Path returns the file the sink writes to.
func (s *Sink) Path() string { return s.path }

// Append implements sink.Sink.
func (s *Sink) Append(ctx context.Context, record sink.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	rec := make(sink.Record, len(record)+1)
	for k, v := range record {
		rec[k] = v
	}
	rec["timestamp"] = s.now().UTC().Format(time.RFC3339)
	records = append(records, rec)

	if err := s.store(records); err != nil {
		return err
	}
	slog.Debug("filesink: record appended", "path", s.path, "count", len(records))
	return nil
}

// ReadRecent implements sink.Sink.
func (s *Sink) ReadRecent(ctx context.Context, limit int) ([]sink.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	records, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

// load must be called with s.mu held. A missing or blank file is empty.
func (s *Sink) load() ([]sink.Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []sink.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filesink: read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []sink.Record{}, nil
	}

	var records []sink.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("filesink: decode %s: %w", s.path, err)
	}
	if records == nil {
		records = []sink.Record{}
	}
	return records, nil
}

// store must be called with s.mu held.
func (s *Sink) store(records []sink.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("filesink: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filesink: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("filesink: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck,gosec // sync error takes precedence
		return fmt.Errorf("filesink: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filesink: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("filesink: replace %s: %w", s.path, err)
	}
	return nil
}
