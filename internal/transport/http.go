package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/voicenotes/internal/mcp"
)

// ToolHandler dispatches tool calls by name.
type ToolHandler interface {
	Handle(ctx context.Context, method string, params json.RawMessage) (any, error)
	Tools() []mcp.ToolDefinition
}

// Options configures the optional routes of the HTTP server.
type Options struct {
	// MCP serves the streamable MCP transport at /mcp when set.
	MCP http.Handler
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Health reports store reachability on /health when set.
	Health func(context.Context) error
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler ToolHandler
	health  func(context.Context) error
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware. POST /rpc accepts
// plain JSON-RPC: tools/list, tools/call, or a tool name used as the method.
func NewServer(handler ToolHandler, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	srv := &Server{handler: handler, health: opts.Health, logger: logger}

	r.Post("/rpc", srv.handleRPC)
	r.Get("/health", srv.handleHealth)
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, rpcErr := decodeRequest(r.Body)
	if rpcErr != nil {
		writeError(w, nil, rpcErr)
		return
	}

	if req.Method == methodToolsList {
		writeResult(w, req.ID, mcp.ToolsListResult{Tools: s.handler.Tools()})
		return
	}

	tool, args, rpcErr := req.toolCall()
	if rpcErr != nil {
		writeError(w, req.ID, rpcErr)
		return
	}

	result, err := s.handler.Handle(r.Context(), tool, args)
	if err != nil {
		rpcErr := errorFor(err)
		if rpcErr.Code == CodeInternal {
			s.logger.Error("rpc call failed", "tool", tool, "error", err)
		}
		writeError(w, req.ID, rpcErr)
		return
	}

	writeResult(w, req.ID, result)
}
