// Package main provides the voicenotes binary: an MCP server for triaging
// transcribed voice notes into projects.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rpggio/voicenotes/internal/app"
	"github.com/rpggio/voicenotes/internal/config"
	"github.com/rpggio/voicenotes/internal/sqlite"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "voicenotes",
		Short: "Triage transcribed voice notes into projects over MCP",
		Long: `voicenotes serves an MCP tool surface for filing transcribed voice notes
into projects. Notes live in Supabase (or a local SQLite file); every view an
agent reads reflects that agent's own writes immediately.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML); overrides VOICENOTES_CONFIG_PATH")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(&flags), migrateCmd(&flags), checkCmd(&flags))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "voicenotes version %s\n", app.Version)
		},
	})

	return cmd
}

// loadConfig applies command-line overrides on top of config.Load.
func loadConfig(flags *globalFlags, transportMode string) (config.Config, error) {
	if flags.configPath != "" {
		if err := os.Setenv("VOICENOTES_CONFIG_PATH", flags.configPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if transportMode != "" {
		cfg.Transport.Mode = transportMode
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var transportMode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, transportMode)
			if err != nil {
				return err
			}

			logger, closeLog := newLogger(cfg)
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handle, err := openStore(ctx, cfg.Store, logger)
			if err != nil {
				return err
			}
			defer handle.Close()

			var registry *prometheus.Registry
			if cfg.Metrics.Enabled {
				registry = prometheus.NewRegistry()
				registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			}

			stack := app.New(app.Options{
				Store:           handle.store,
				CacheTTL:        cfg.Cache.TTL,
				CacheMaxEntries: cfg.Cache.MaxEntries,
				Registry:        registry,
				Health:          handle.ping,
				Logger:          logger,
			})

			logger.Info("voicenotes starting",
				"version", app.Version,
				"transport", cfg.Transport.Mode,
				"backend", cfg.Store.Backend,
				"cache_ttl", cfg.Cache.TTL)

			if cfg.Transport.Mode == config.ModeStdio {
				return runStdioMode(ctx, logger, stack.MCP)
			}
			return runHTTPMode(ctx, logger, stack.HTTPHandler(), cfg.Addr())
		},
	}

	cmd.Flags().StringVar(&transportMode, "transport", "", "Transport mode (stdio, http); overrides config")
	return cmd
}

func migrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the local SQLite schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, "")
			if err != nil {
				return err
			}
			if cfg.Store.Backend != config.BackendSQLite {
				return fmt.Errorf("migrate applies to the sqlite backend; the %s schema is managed remotely", cfg.Store.Backend)
			}
			if err := ensureDBDir(cfg.Store.Path); err != nil {
				return fmt.Errorf("prepare database path: %w", err)
			}
			db, err := sqlite.New(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.RunMigrations(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready at %s\n", cfg.Store.Path)
			return nil
		},
	}
}

func checkCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Print projects with note counts and inbox statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Stdio mode keeps logs on stderr, off the printed report.
			cfg, err := loadConfig(flags, config.ModeStdio)
			if err != nil {
				return err
			}
			logger, closeLog := newLogger(cfg)
			defer closeLog()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			handle, err := openStore(ctx, cfg.Store, logger)
			if err != nil {
				return err
			}
			defer handle.Close()

			stack := app.New(app.Options{Store: handle.store, Logger: logger})
			return printCheck(ctx, cmd.OutOrStdout(), stack)
		},
	}
}

func printCheck(ctx context.Context, out io.Writer, stack *app.App) error {
	projects, err := stack.Queries.ListProjects(ctx, true)
	if err != nil {
		return err
	}
	stats, err := stack.Queries.InboxStats(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROJECT\tNOTES\tARCHIVED\tID")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%d\t%t\t%s\n", p.Name, p.NoteCount, p.IsArchived, p.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nnotes: %d total, %d unprocessed, %d processed, %d in the last 7 days, %d in inbox\n",
		stats.TotalCount, stats.UnprocessedCount, stats.ProcessedCount, stats.RecentCount, stats.InboxCount)
	return nil
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or the context is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, handler http.Handler, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return waitForShutdown(logger, httpServer)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}
