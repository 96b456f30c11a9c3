// Package app assembles the triage layer, the MCP server, and the HTTP routes
// over a note store.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpggio/voicenotes/internal/mcp"
	"github.com/rpggio/voicenotes/internal/repository"
	"github.com/rpggio/voicenotes/internal/transport"
	"github.com/rpggio/voicenotes/internal/triage"
	"github.com/rpggio/voicenotes/internal/viewcache"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Options configures New.
type Options struct {
	Store           repository.Store
	CacheTTL        time.Duration
	CacheMaxEntries int
	// Registry receives cache and MCP metrics and is served on /metrics. Nil
	// disables metrics.
	Registry *prometheus.Registry
	// Health backs /health. Nil reports healthy unconditionally.
	Health func(context.Context) error
	Logger *slog.Logger
}

// App holds the wired components.
type App struct {
	Cache       *viewcache.Cache
	Coordinator *triage.Coordinator
	Queries     *triage.Queries
	Handler     *mcp.Handler
	MCP         *sdkmcp.Server

	registry *prometheus.Registry
	health   func(context.Context) error
	logger   *slog.Logger
}

// New wires the components over opts.Store. The coordinator and the queries
// share one cache; that sharing is what makes writes visible to the next read.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var cacheMetrics *viewcache.Metrics
	var mcpMetrics *mcp.Metrics
	if opts.Registry != nil {
		cacheMetrics = viewcache.NewMetrics(opts.Registry)
		mcpMetrics = mcp.NewMetrics(opts.Registry)
	}

	cache := viewcache.New(viewcache.Options{
		TTL:        opts.CacheTTL,
		MaxEntries: opts.CacheMaxEntries,
		Metrics:    cacheMetrics,
	})
	coordinator := triage.NewCoordinator(opts.Store, cache, logger.With("component", "coordinator"))
	queries := triage.NewQueries(opts.Store, cache, logger.With("component", "queries"))
	handler := mcp.NewHandler(coordinator, queries)

	return &App{
		Cache:       cache,
		Coordinator: coordinator,
		Queries:     queries,
		Handler:     handler,
		MCP: mcp.NewServer(mcp.Config{
			Handler: handler,
			Metrics: mcpMetrics,
			Logger:  logger,
			Version: Version,
		}),
		registry: opts.Registry,
		health:   opts.Health,
		logger:   logger,
	}
}

// HTTPHandler returns the router serving /rpc, /mcp, /health, and /metrics.
func (a *App) HTTPHandler() http.Handler {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return a.MCP },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)

	var metrics http.Handler
	if a.registry != nil {
		metrics = promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
	}

	return transport.NewServer(a.Handler, transport.Options{
		MCP:     mcpHandler,
		Metrics: metrics,
		Health:  a.health,
		Logger:  a.logger,
	})
}
