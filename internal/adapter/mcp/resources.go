package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const (
	uriAgentsStatus   = "twinforge://agents/status"
	uriRecentResponse = "twinforge://responses/recent"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriAgentsStatus,
			"Agent Status",
			mcplib.WithResourceDescription("Principal and expert agent status"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleAgentsStatusResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriRecentResponse,
			"Recent Responses",
			mcplib.WithResourceDescription("The most recent published responses"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleRecentResponsesResource,
	)
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleAgentsStatusResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Principal == nil {
		return jsonContents(req.Params.URI, map[string]string{"error": "principal agent not configured"})
	}
	return jsonContents(req.Params.URI, s.deps.Principal.Status())
}

func (s *Server) handleRecentResponsesResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Responses == nil {
		return jsonContents(req.Params.URI, map[string]string{"error": "response store not configured"})
	}
	records, err := s.deps.Responses.ReadRecent(ctx, defaultResponseLimit)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, map[string]any{"responses": records, "count": len(records)})
}
