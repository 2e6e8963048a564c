package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/service"
)

// Client talks to a TwinForge server over its HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Health returns the server's health document.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodGet, "/health", nil, &out)
}

// Process runs req synchronously.
func (c *Client) Process(ctx context.Context, req *request.Request) (*service.FinalResponse, error) {
	var out service.FinalResponse
	if err := c.do(ctx, http.MethodPost, "/process", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit queues req for background processing.
func (c *Client) Submit(ctx context.Context, req *request.Request) (*service.Acceptance, error) {
	var out service.Acceptance
	if err := c.do(ctx, http.MethodPost, "/api/request", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Job returns the state of a background request.
func (c *Client) Job(ctx context.Context, processingID string) (*service.Job, error) {
	var out service.Job
	if err := c.do(ctx, http.MethodGet, "/api/requests/"+url.PathEscape(processingID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitJob polls a background request until it completes or fails.
func (c *Client) WaitJob(ctx context.Context, processingID string, interval time.Duration) (*service.Job, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := c.Job(ctx, processingID)
		if err != nil {
			return nil, err
		}
		if job.Status == service.JobCompleted || job.Status == service.JobError {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ResponsesPage is the listing returned by GET /api/responses.
type ResponsesPage struct {
	Responses []map[string]any `json:"responses"`
	Count     int              `json:"count"`
}

// Responses returns the trailing limit records of the response store.
func (c *Client) Responses(ctx context.Context, limit int) (*ResponsesPage, error) {
	var out ResponsesPage
	if err := c.do(ctx, http.MethodGet, "/api/responses?limit="+strconv.Itoa(limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AgentsStatus returns the principal and expert status.
func (c *Client) AgentsStatus(ctx context.Context) (*service.PrincipalStatus, error) {
	var out service.PrincipalStatus
	if err := c.do(ctx, http.MethodGet, "/api/agents/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
