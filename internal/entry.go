// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/gebo/internal/api"
	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/mcpserver"
	"github.com/starford/gebo/internal/remote"
	"github.com/starford/gebo/internal/sse"
	"github.com/starford/gebo/internal/syncer"
	"github.com/starford/gebo/internal/tags"
	"github.com/starford/gebo/internal/vault"
	"github.com/starford/gebo/internal/wikilink"
)

// components bundles the wired application pieces shared by the run modes.
type components struct {
	cfg    *Config
	logger *slog.Logger
	store  vault.Provider
	db     *index.DB
	client *remote.Client
	links  *wikilink.Resolver
	syncer *syncer.Syncer
}

func (c *components) close() {
	c.syncer.Close()
	_ = c.db.Close()
}

// combineNotify fans a sync event out to both observers; either may be nil.
func combineNotify(a, b syncer.EventFunc) syncer.EventFunc {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ev syncer.Event) {
		a(ev)
		b(ev)
	}
}

// setup builds every component from config: logger, vault, index, remote
// client, resolvers, and the orchestrator. notify receives sync progress
// events and may be nil; it is combined with any WithNotify observer.
func setup(opts []Option, notify syncer.EventFunc) (*components, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config
	notify = combineNotify(notify, app.notify)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("index_path", cfg.Index.Path),
		slog.String("remote_url", cfg.Remote.BaseURL),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}

	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Rebuild(db, store, logger); err != nil {
		logger.Warn("initial index rebuild failed", slog.String("error", err.Error()))
	}

	client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token, cfg.Remote.Version, logger)
	tagResolver := tags.NewResolver(logger)
	linkResolver := wikilink.NewResolver(store, logger)

	s := syncer.New(store, client, db, tagResolver, linkResolver, logger, syncer.Options{
		SpaceID:       cfg.Remote.SpaceID,
		TypeKey:       cfg.Remote.TypeKey,
		Folder:        cfg.Vault.Folder,
		ProgressEvery: cfg.Sync.ProgressEvery,
		Notify:        notify,
	})

	return &components{
		cfg:    cfg,
		logger: logger,
		store:  store,
		db:     db,
		client: client,
		links:  linkResolver,
		syncer: s,
	}, nil
}

// Run starts the long-running serve mode: control-plane HTTP API, SSE
// broker, and the vault watcher, shut down together on signal or context
// cancellation.
func Run(ctx context.Context, opts ...Option) error {
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := setup(opts, func(ev syncer.Event) {
		broker.Publish(sse.Event{Type: ev.Kind, Data: ev})
	})
	if err != nil {
		return err
	}
	defer c.close()
	cfg := c.cfg
	logger := c.logger

	h := api.NewHandler(c.syncer, c.db, c.client, cfg.Remote.SpaceID)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Vault watcher keeps the index fresh, invalidates the wikilink title
	// cache, and feeds document events to SSE subscribers.
	g.Go(func() error {
		return index.Watch(gCtx, c.db, c.store, cfg.Vault.Path, logger, func(kind, path string) {
			c.links.ClearCache()
			broker.PublishDocumentEvent(kind, path)
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunSyncAll is the one-shot push mode behind the sync subcommand.
func RunSyncAll(ctx context.Context, opts ...Option) error {
	c, err := setup(opts, nil)
	if err != nil {
		return err
	}
	defer c.close()

	stats, err := c.syncer.SyncAll(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("Sync finished",
		slog.Int("synced", stats.Synced),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed))
	return nil
}

// RunImportAll is the one-shot pull mode behind the import subcommand.
func RunImportAll(ctx context.Context, typeKeys []string, opts ...Option) error {
	c, err := setup(opts, nil)
	if err != nil {
		return err
	}
	defer c.close()

	if c.cfg.Remote.SpaceID == "" {
		return fmt.Errorf("import: remote.space_id is required")
	}
	mode := syncer.ImportMode(c.cfg.Sync.ImportMode)
	stats, err := c.syncer.ImportAll(ctx, c.cfg.Remote.SpaceID, typeKeys, mode)
	if err != nil {
		return err
	}
	c.logger.Info("Import finished",
		slog.Int("created", stats.Created),
		slog.Int("updated", stats.Updated),
		slog.Int("failed", stats.Failed))
	return nil
}

// RunMCP serves the MCP stdio server exposing sync tools.
func RunMCP(ctx context.Context, opts ...Option) error {
	c, err := setup(opts, nil)
	if err != nil {
		return err
	}
	defer c.close()

	srv := mcpserver.New(c.syncer, c.db, c.client, c.cfg.Remote.SpaceID)
	return srv.ServeStdio()
}
