// Package mcp exposes TwinForge to AI agents over the Model Context
// Protocol: tools to submit and process requests and read results, and
// resources for the agent status and recent responses.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/port/sink"
	"github.com/Strob0t/TwinForge/internal/service"
)

// RequestProcessor runs a request through the expert pipeline.
type RequestProcessor interface {
	Process(ctx context.Context, req *request.Request) (*service.FinalResponse, error)
	Status() service.PrincipalStatus
}

// JobRunner accepts background requests and reports their state.
type JobRunner interface {
	Submit(ctx context.Context, req *request.Request) (*service.Acceptance, error)
	Get(ctx context.Context, processingID string) (*service.Job, error)
}

// ServerDeps are the services behind the tools. Nil deps make the matching
// tools report "not configured".
type ServerDeps struct {
	Principal RequestProcessor
	Jobs      JobRunner
	Responses sink.Sink
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
}

// Server is the MCP tool server, served over streamable HTTP at /mcp.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	http      *http.Server
}

// NewServer creates a server with every tool and resource registered.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the streamable HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(s.mcpServer))
	return mux
}

// Start listens on cfg.Addr in the background.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("mcp server listening", "addr", s.cfg.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the HTTP listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	slog.Info("mcp server stopping")
	return s.http.Shutdown(ctx)
}
