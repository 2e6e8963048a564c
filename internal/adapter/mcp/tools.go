package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/TwinForge/internal/domain/request"
)

const defaultResponseLimit = 10

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.processRequestTool(),
		s.submitRequestTool(),
		s.getJobStatusTool(),
		s.listResponsesTool(),
		s.getAgentsStatusTool(),
	)
}

func requestOptions(desc string) []mcplib.ToolOption {
	return []mcplib.ToolOption{
		mcplib.WithDescription(desc),
		mcplib.WithString("request_id", mcplib.Required(), mcplib.Description("Caller-chosen request identifier")),
		mcplib.WithString("user_id", mcplib.Required(), mcplib.Description("Requesting user")),
		mcplib.WithString("request_type", mcplib.Required(),
			mcplib.Description("Routing hint, e.g. financial_health, utility_management, vehicle_management, comprehensive_analysis")),
		mcplib.WithString("description", mcplib.Required(), mcplib.Description("Free-text description of the request")),
		mcplib.WithString("priority", mcplib.Enum("low", "medium", "high"), mcplib.Description("Defaults to medium")),
	}
}

func (s *Server) processRequestTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool:    mcplib.NewTool("process_request", requestOptions("Run a request through the expert agents and return the scored final response")...),
		Handler: s.handleProcessRequest,
	}
}

func (s *Server) submitRequestTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool:    mcplib.NewTool("submit_request", requestOptions("Queue a request for background processing and return its processing ID")...),
		Handler: s.handleSubmitRequest,
	}
}

func (s *Server) getJobStatusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_job_status",
		mcplib.WithDescription("Get the state of a background request by processing ID"),
		mcplib.WithString("processing_id",
			mcplib.Required(),
			mcplib.Description("The processing ID returned by submit_request"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetJobStatus}
}

func (s *Server) listResponsesTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_responses",
		mcplib.WithDescription("List the most recent published responses, oldest first"),
		mcplib.WithNumber("limit", mcplib.Description("Maximum number of records (default 10)")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListResponses}
}

func (s *Server) getAgentsStatusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_agents_status",
		mcplib.WithDescription("Get the principal and expert agent status, including recent workflows"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetAgentsStatus}
}

// requestFromArgs builds a request from tool arguments. Validation is left
// to the services.
func requestFromArgs(args map[string]any) *request.Request {
	str := func(k string) string {
		v, _ := args[k].(string)
		return v
	}
	return &request.Request{
		RequestID:   str("request_id"),
		UserID:      str("user_id"),
		Type:        str("request_type"),
		Description: str("description"),
		Priority:    request.Priority(str("priority")),
	}
}

func (s *Server) handleProcessRequest(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Principal == nil {
		return mcplib.NewToolResultError("principal agent not configured"), nil
	}
	resp, err := s.deps.Principal.Process(ctx, requestFromArgs(req.GetArguments()))
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to process request", err), nil
	}
	return toolResultJSON(resp)
}

func (s *Server) handleSubmitRequest(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Jobs == nil {
		return mcplib.NewToolResultError("job runner not configured"), nil
	}
	acc, err := s.deps.Jobs.Submit(ctx, requestFromArgs(req.GetArguments()))
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to submit request", err), nil
	}
	return toolResultJSON(acc)
}

func (s *Server) handleGetJobStatus(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Jobs == nil {
		return mcplib.NewToolResultError("job runner not configured"), nil
	}
	id, ok := req.GetArguments()["processing_id"].(string)
	if !ok || id == "" {
		return mcplib.NewToolResultError("processing_id is required"), nil
	}
	job, err := s.deps.Jobs.Get(ctx, id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get job %s", id), err), nil
	}
	return toolResultJSON(job)
}

func (s *Server) handleListResponses(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Responses == nil {
		return mcplib.NewToolResultError("response store not configured"), nil
	}
	limit := defaultResponseLimit
	if n, ok := req.GetArguments()["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}
	records, err := s.deps.Responses.ReadRecent(ctx, limit)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to read responses", err), nil
	}
	return toolResultJSON(map[string]any{"responses": records, "count": len(records)})
}

func (s *Server) handleGetAgentsStatus(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Principal == nil {
		return mcplib.NewToolResultError("principal agent not configured"), nil
	}
	return toolResultJSON(s.deps.Principal.Status())
}

func toolResultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}
