// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/starford/propscope/internal/api"
	"github.com/starford/propscope/internal/assistant"
	"github.com/starford/propscope/internal/catalog"
	"github.com/starford/propscope/internal/mcpserver"
	"github.com/starford/propscope/internal/sse"
	"github.com/starford/propscope/internal/store"
	"github.com/starford/propscope/internal/userdata"
)

// components are the long-lived services shared by the HTTP and MCP entry points.
type components struct {
	catalog   *catalog.Catalog
	assistant *assistant.Service
	redis     *redis.Client
}

func (c *components) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
}

func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	logger := app.logger()
	slog.SetDefault(logger)
	return app, logger, nil
}

func buildComponents(ctx context.Context, cfg *Config, logger *slog.Logger) (*components, error) {
	cat := catalog.New(catalog.Options{
		Path:         cfg.Dataset.Path,
		Redistribute: cfg.Status.Redistribute,
		Weights:      cfg.Status.Weights,
		Logger:       logger,
	})
	if _, err := cat.Load(); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	c := &components{catalog: cat}

	aiOpts := assistant.Options{
		Catalog:      cat,
		ContextLimit: cfg.AI.ContextLimit,
		Timeout:      cfg.AI.Timeout,
		HistoryTurns: cfg.AI.HistoryTurns,
		Logger:       logger,
	}
	if cfg.AI.Enabled() {
		gen, err := assistant.NewGemini(ctx, assistant.GeminiConfig{
			APIKey:          cfg.AI.APIKey,
			Model:           cfg.AI.Model,
			Temperature:     cfg.AI.Temperature,
			MaxOutputTokens: cfg.AI.MaxOutputTokens,
			BaseURL:         cfg.AI.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("init assistant: %w", err)
		}
		aiOpts.Generator = gen
	} else {
		logger.Warn("No AI api key configured, assistant answers will be fallbacks")
	}

	if cfg.Cache.Enabled {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		rc := assistant.NewRedisCache(c.redis, cfg.Cache.TTL)
		if err := rc.Ping(ctx); err != nil {
			// The cache is an optimization; answers still work without it.
			logger.Warn("redis cache unreachable", slog.String("address", cfg.Cache.RedisAddr), slog.String("error", err.Error()))
		}
		aiOpts.Cache = rc
	}

	c.assistant = assistant.NewService(aiOpts)
	return c, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("dataset_path", cfg.Dataset.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("model", cfg.AI.Model),
		slog.Bool("cache", cfg.Cache.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	kv, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer kv.Close()

	comps, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	logger.Info("Dataset loaded", slog.Int("properties", comps.catalog.Len()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	users := userdata.NewService(kv, comps.catalog, logger)

	apiRouter := api.NewRouter(api.Deps{
		Catalog:     comps.catalog,
		Users:       users,
		Assistant:   comps.assistant,
		Broker:      broker,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		AuthToken:   cfg.Auth.Token,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := kv.Ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		if comps.catalog.Len() == 0 {
			writeStatus(w, http.StatusServiceUnavailable, "dataset empty")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start dataset watcher with SSE callback.
	if cfg.Dataset.Watch {
		g.Go(func() error {
			if err := comps.catalog.Watch(gCtx, broker.PublishCatalogEvent); err != nil {
				logger.Error("dataset watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams never end on their own.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher exits once the server is down.
var errShutdown = errors.New("shutdown")

// RunMCP serves the catalog and assistant over MCP stdio until stdin closes.
// Logs go to stderr unless another output was configured.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	comps, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Dataset.Watch {
		go func() {
			if err := comps.catalog.Watch(watchCtx, nil); err != nil {
				logger.Error("dataset watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	logger.Info("MCP server starting", slog.Int("properties", comps.catalog.Len()))
	return mcpserver.New(comps.catalog, comps.assistant, cfg.Status.Weights).ServeStdio()
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
