package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/port/sink"
	"github.com/Strob0t/TwinForge/internal/service"
)

// APIVersion is reported by the health endpoint.
const APIVersion = "1.0.0"

const defaultResponsesLimit = 100

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Principal *service.PrincipalService
	Jobs      *service.JobService
	Responses sink.Sink
}

// healthResponse is returned by GET /health.
type healthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Initialized bool      `json:"initialized"`
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Version:     APIVersion,
		Initialized: h.Principal.Initialized(),
	})
}

// Process handles POST /process. The request runs synchronously and the
// FinalResponse is returned whatever its publication status.
func (h *Handlers) Process(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[request.Request](w, r)
	if !ok {
		return
	}
	resp, err := h.Principal.Process(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "request not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitRequest handles POST /api/request.
func (h *Handlers) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[request.Request](w, r)
	if !ok {
		return
	}
	acc, err := h.Jobs.Submit(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "request not found")
		return
	}
	writeJSON(w, http.StatusAccepted, acc)
}

// GetJob handles GET /api/requests/{processing_id}.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Jobs.Get(r.Context(), chi.URLParam(r, "processing_id"))
	if err != nil {
		writeDomainError(w, err, "processing id not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// responsesPage is returned by GET /api/responses.
type responsesPage struct {
	Responses []sink.Record `json:"responses"`
	Count     int           `json:"count"`
}

// ListResponses handles GET /api/responses?limit=N. Records come back
// oldest first, the trailing limit of the store.
func (h *Handlers) ListResponses(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultResponsesLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := h.Responses.ReadRecent(r.Context(), limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if records == nil {
		records = []sink.Record{}
	}
	writeJSON(w, http.StatusOK, responsesPage{Responses: records, Count: len(records)})
}

// AgentsStatus handles GET /api/agents/status.
func (h *Handlers) AgentsStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Principal.Status())
}

// GetWorkflow handles GET /api/workflows/{request_id}.
func (h *Handlers) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Principal.Workflow(chi.URLParam(r, "request_id"))
	if err != nil {
		writeDomainError(w, err, "workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
