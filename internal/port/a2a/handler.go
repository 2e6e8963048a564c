package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/TwinForge/internal/domain"
	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/service"
)

// JobRunner accepts background requests and reports their state.
type JobRunner interface {
	Submit(ctx context.Context, req *request.Request) (*service.Acceptance, error)
	Get(ctx context.Context, processingID string) (*service.Job, error)
}

// Handler serves the A2A protocol endpoints. A task becomes a background
// request whose request ID is the task ID.
type Handler struct {
	card AgentCard
	jobs JobRunner

	mu    sync.RWMutex
	tasks map[string]string // task ID -> processing ID
}

// NewHandler creates an A2A handler.
func NewHandler(card AgentCard, jobs JobRunner) *Handler {
	return &Handler{
		card:  card,
		jobs:  jobs,
		tasks: make(map[string]string),
	}
}

// MountRoutes registers A2A routes on the given chi router at the root.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/.well-known/agent.json", h.handleAgentCard)
	r.Post("/a2a/tasks", h.handleCreateTask)
	r.Get("/a2a/tasks/{id}", h.handleGetTask)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.card)
}

func (h *Handler) knownSkill(id string) bool {
	for _, s := range h.card.Skills {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.Skill == "" {
		req.Skill = SkillComprehensive
	}
	if !h.knownSkill(req.Skill) {
		writeError(w, http.StatusBadRequest, "unknown skill "+req.Skill)
		return
	}

	h.mu.RLock()
	_, exists := h.tasks[req.ID]
	h.mu.RUnlock()
	if exists {
		writeError(w, http.StatusConflict, "task "+req.ID+" already exists")
		return
	}

	acc, err := h.jobs.Submit(r.Context(), taskToRequest(req))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "a2a task submit failed", "id", req.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.mu.Lock()
	h.tasks[req.ID] = acc.ProcessingID
	h.mu.Unlock()

	slog.InfoContext(r.Context(), "a2a task created", "id", req.ID, "skill", req.Skill, "processing_id", acc.ProcessingID)

	writeJSON(w, http.StatusCreated, TaskResponse{
		ID:     req.ID,
		Status: StatusQueued,
		Output: map[string]any{"processing_id": acc.ProcessingID},
	})
}

// taskToRequest maps a task onto a request. The skill is the request type
// unless the input names one.
func taskToRequest(t TaskRequest) *request.Request {
	str := func(k string) string {
		v, _ := t.Input[k].(string)
		return v
	}
	typ := str("request_type")
	if typ == "" {
		typ = t.Skill
	}
	return &request.Request{
		RequestID:   t.ID,
		UserID:      str("user_id"),
		Type:        typ,
		Description: str("description"),
		Priority:    request.Priority(str("priority")),
		Metadata:    t.Context,
	}
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.RLock()
	processingID, ok := h.tasks[id]
	h.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	job, err := h.jobs.Get(r.Context(), processingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task state expired")
			return
		}
		slog.ErrorContext(r.Context(), "a2a task lookup failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, jobToTask(id, job))
}

func jobToTask(id string, job *service.Job) TaskResponse {
	resp := TaskResponse{
		ID:     id,
		Output: map[string]any{"processing_id": job.ProcessingID},
	}
	switch job.Status {
	case service.JobAccepted:
		resp.Status = StatusQueued
	case service.JobProcessing:
		resp.Status = StatusRunning
	case service.JobCompleted:
		resp.Status = StatusCompleted
		resp.Output["publication_status"] = job.PublicationStatus
		resp.Output["quality_score"] = job.QualityScore
		resp.Output["processing_time"] = job.ProcessingTime
	default:
		resp.Status = StatusFailed
		resp.Error = job.Error
	}
	return resp
}
