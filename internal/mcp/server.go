package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Config contains server configuration.
type Config struct {
	Handler *Handler
	Metrics *Metrics
	Logger  *slog.Logger
	Version string
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "voicenotes",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(metricsMiddleware(cfg.Metrics))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Handler)

	return server
}

func registerTools(server *sdkmcp.Server, handler *Handler) {
	for _, def := range handler.Tools() {
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
			Annotations: toolAnnotations(def.Annotations),
		}, toolHandler(handler, def.Name))
	}
}

// toolHandler adapts Handle to the SDK. Domain failures become tool results with
// IsError set so the model can read the code and recovery hint; only failures to
// encode the result surface as protocol errors.
func toolHandler(handler *Handler, name string) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		result, err := handler.Handle(ctx, name, args)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(result, false)
	}
}

func errorResult(err error) (*sdkmcp.CallToolResult, error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = &APIError{Code: "INTERNAL_ERROR", Message: err.Error()}
	}
	return jsonResult(apiErr, true)
}

func jsonResult(payload any, isError bool) (*sdkmcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: isError,
	}, nil
}

func toolAnnotations(hints map[string]any) *sdkmcp.ToolAnnotations {
	if len(hints) == 0 {
		return nil
	}
	annotations := &sdkmcp.ToolAnnotations{}
	if v, ok := hints["readOnlyHint"].(bool); ok {
		annotations.ReadOnlyHint = v
	}
	if v, ok := hints["destructiveHint"].(bool); ok {
		annotations.DestructiveHint = &v
	}
	return annotations
}
