// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// TravelDesk is the backend API server for a travel agency website. It serves
// customer enquiries, blog content and image uploads over a JSON REST API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/traveldesk-go/internal/cache"
	"github.com/olegiv/traveldesk-go/internal/config"
	"github.com/olegiv/traveldesk-go/internal/handler/api"
	"github.com/olegiv/traveldesk-go/internal/imaging"
	"github.com/olegiv/traveldesk-go/internal/logging"
	"github.com/olegiv/traveldesk-go/internal/middleware"
	"github.com/olegiv/traveldesk-go/internal/scheduler"
	"github.com/olegiv/traveldesk-go/internal/service"
	"github.com/olegiv/traveldesk-go/internal/store"
	"github.com/olegiv/traveldesk-go/internal/version"
	"github.com/olegiv/traveldesk-go/internal/webhook"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	createKeyName := flag.String("create-api-key", "", "Create an API key with the given name, print it and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "TravelDesk - Travel Agency API Server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TDESK_DB_PATH              SQLite database path (default: ./data/traveldesk.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TDESK_SERVER_PORT          Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TDESK_ENV                  Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TDESK_UPLOADS_DIR          Uploaded image directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TDESK_CORS_ORIGIN          Allowed browser origin (default: *)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TDESK_REDIS_URL            Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TDESK_SUBMIT_RPS           Enquiry submit rate limit per IP (default: 1)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TDESK_EVENT_RETENTION_DAYS Event log retention in days (default: 90)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("traveldesk %s (commit: %s, built: %s)\n", version.Version, version.GitCommit, version.BuildTime)
		os.Exit(0)
	}

	if *createKeyName != "" {
		if err := createAPIKey(*createKeyName); err != nil {
			slog.Error("creating API key", "error", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// createAPIKey provisions the first API key from the command line. The admin
// endpoints require a key, so the initial one has to come from somewhere.
func createAPIKey(name string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	admin := service.NewAdmin(db, slog.Default())
	key, rawKey, err := admin.CreateAPIKey(context.Background(), service.AdminActor("cli"), service.CreateAPIKeyInput{Name: name})
	if err != nil {
		return err
	}

	fmt.Printf("API key %q created (prefix %s).\n", key.Name, key.KeyPrefix)
	fmt.Printf("Store this key now, it will not be shown again:\n\n  %s\n", rawKey)
	return nil
}

// newLogHandler picks JSON output in production and human-readable text
// in development.
func newLogHandler(cfg *config.Config, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsDevelopment() {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(newLogHandler(cfg, logLevel))
	slog.SetDefault(logger)

	// Ensure data and uploads directories exist
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	logger = slog.New(logging.NewEventLogHandler(newLogHandler(cfg, logLevel), db))
	slog.SetDefault(logger)

	// Initialize cache: Redis when configured, in-process memory otherwise
	cacheTTL := time.Duration(cfg.CacheTTL) * time.Second
	var appCache cache.Cache
	if cfg.UseRedisCache() {
		redisCache, err := cache.NewRedis(cfg.RedisURL, cfg.CachePrefix, cacheTTL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		appCache = redisCache
		slog.Info("using redis cache", "prefix", cfg.CachePrefix)
	} else {
		appCache = cache.NewMemory(cacheTTL)
		slog.Info("using in-memory cache")
	}
	defer func() {
		if err := appCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	// Start webhook dispatcher
	dispatcher := webhook.NewDispatcher(db, logger, webhook.Config{})
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	// Wire services and HTTP handlers
	enquiries := service.NewEnquiries(db, logger, dispatcher)
	blogs := service.NewBlogs(db, logger, appCache)
	admin := service.NewAdmin(db, logger)
	processor := imaging.NewProcessor(cfg.UploadsDir)
	h := api.NewHandler(enquiries, blogs, admin, processor, logger)

	// Start the background scheduler for blog publishing and event pruning
	sched := scheduler.New(db, logger, cfg.EventRetentionDays, blogs)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.CORS(cfg.CORSOrigin))

	r.Mount("/api/v1", api.Router(h, db, cfg.SubmitRPS, cfg.SubmitBurst))

	// Serve uploaded images with path containment checks
	uploadsRoot, err := filepath.Abs(cfg.UploadsDir)
	if err != nil {
		return fmt.Errorf("resolving uploads directory: %w", err)
	}
	r.Get("/uploads/*", func(w http.ResponseWriter, req *http.Request) {
		rel := chi.URLParam(req, "*")
		filePath := filepath.Join(uploadsRoot, filepath.Clean("/"+rel))

		absFilePath, err := filepath.Abs(filePath)
		if err != nil {
			http.NotFound(w, req)
			return
		}
		contained, err := filepath.Rel(uploadsRoot, absFilePath)
		if err != nil || strings.HasPrefix(contained, "..") || filepath.IsAbs(contained) {
			http.NotFound(w, req)
			return
		}

		http.ServeFile(w, req, absFilePath)
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for large uploads and slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	slog.Info("server stopped")

	return nil
}
