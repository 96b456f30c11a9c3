package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rpggio/voicenotes/internal/config"
	"github.com/rpggio/voicenotes/internal/repository"
	"github.com/rpggio/voicenotes/internal/sqlite"
	"github.com/rpggio/voicenotes/internal/supabase"
)

type storeHandle struct {
	store repository.Store
	ping  func(context.Context) error
	close func() error
}

func (h *storeHandle) Close() {
	if h.close != nil {
		_ = h.close()
	}
}

// openStore connects the configured backend. A remote store that cannot be
// reached is logged rather than fatal: reads fail with transport errors until
// it comes back.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*storeHandle, error) {
	switch cfg.Backend {
	case config.BackendSupabase:
		retry := supabase.DefaultRetryConfig()
		retry.MaxAttempts = cfg.RetryAttempts
		client := supabase.NewClient(cfg.URL, cfg.Key,
			supabase.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			supabase.WithRetryConfig(retry),
			supabase.WithLogger(logger.With("component", "supabase")),
		)
		if err := client.Ping(ctx); err != nil {
			logger.Warn("supabase unreachable at startup", "url", cfg.URL, "error", err)
		}
		return &storeHandle{store: supabase.NewStore(client), ping: client.Ping}, nil

	case config.BackendSQLite:
		if err := ensureDBDir(cfg.Path); err != nil {
			return nil, fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("using sqlite store", "path", cfg.Path)
		return &storeHandle{store: sqlite.NewStore(db), ping: db.PingContext, close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
