package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rajasatyajit/SasmexMonitor/config"
	"github.com/rajasatyajit/SasmexMonitor/internal/api"
	"github.com/rajasatyajit/SasmexMonitor/internal/builder"
	"github.com/rajasatyajit/SasmexMonitor/internal/database"
	"github.com/rajasatyajit/SasmexMonitor/internal/dedup"
	"github.com/rajasatyajit/SasmexMonitor/internal/fetch"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
	"github.com/rajasatyajit/SasmexMonitor/internal/metrics"
	middlewares "github.com/rajasatyajit/SasmexMonitor/internal/middleware"
	"github.com/rajasatyajit/SasmexMonitor/internal/monitor"
	"github.com/rajasatyajit/SasmexMonitor/internal/notify"
	"github.com/rajasatyajit/SasmexMonitor/internal/ratelimit"
	"github.com/rajasatyajit/SasmexMonitor/internal/sasmex"
	"github.com/rajasatyajit/SasmexMonitor/internal/settings"
	"github.com/rajasatyajit/SasmexMonitor/internal/store"
	"github.com/rajasatyajit/SasmexMonitor/internal/stream"
	"github.com/rajasatyajit/SasmexMonitor/internal/usgs"
)

func runDaemon(cfg *config.Config) error {
	logger.Info("Starting SasmexMonitor",
		"version", Version,
		"build_time", BuildTime,
		"git_commit", GitCommit,
	)

	// Initialize metrics
	metrics.Init(cfg.Metrics.Enabled)
	if cfg.Metrics.Enabled {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := settings.Load(cfg.Settings.Path)
	if err != nil {
		logger.Warn("Settings unreadable, using defaults", "path", cfg.Settings.Path, "error", err)
	}
	holder := settings.NewHolder(cfg.Settings.Path, s)

	alertStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	state, closeState, err := openState(cfg)
	if err != nil {
		return err
	}
	defer closeState()

	loc, err := cfg.Feeds.Location()
	if err != nil {
		return fmt.Errorf("feed time zone: %w", err)
	}

	hub := stream.NewHub(cfg.Server.AllowedOrigins)
	notifier := append(buildNotifier(cfg.Telegram), hub)
	mon := monitor.New(
		monitor.Config{RateLimit: cfg.Pipeline.RateLimit, RetryDelay: cfg.Pipeline.RetryDelay},
		&monitor.SasmexJob{
			Service:  sasmex.NewService(cfg.Feeds.SasmexURL, fetch.New(cfg.Feeds.FetchConfig()), builder.New(builder.WithLocation(loc))),
			Tracker:  dedup.NewAlertTracker(state),
			Store:    alertStore,
			Notifier: notifier,
			Settings: holder,
		},
		&monitor.USGSJob{
			Client:   usgs.NewClient(cfg.Feeds.USGSBaseURL, cfg.Feeds.USGSTimeout, cfg.Feeds.USGSRetries),
			Tracker:  dedup.NewEarthquakeTracker(state),
			Store:    alertStore,
			Notifier: notifier,
			Settings: holder,
			Feed:     cfg.Feeds.USGSFeed,
			Location: loc,
		},
	)
	mon.SetBaseContext(ctx)

	monDone := make(chan struct{})
	if holder.Get().AutoMonitor {
		go func() {
			defer close(monDone)
			if err := mon.Run(ctx); err != nil {
				logger.Error("Monitor error", "error", err)
			}
		}()
	} else {
		close(monDone)
		logger.Info("Auto-monitor disabled; polls run only when triggered", "route", "/v1/admin/poll/{source}")
	}

	// Setup HTTP server
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.Logging)
	r.Use(middlewares.Metrics)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.Timeout(cfg.Server.ReadTimeout))
	r.Use(middlewares.Security)
	r.Use(middlewares.CORS(cfg.Server.AllowedOrigins))

	apiHandler := api.NewHandler(alertStore, mon, holder, cfg.Admin, Version, BuildTime, GitCommit)
	apiHandler.SetStream(hub)

	if cfg.Redis.URL != "" {
		rl, err := ratelimit.NewManager(cfg.Redis.URL)
		if err != nil {
			logger.Warn("Redis rate limiter unavailable, using in-process limiter", "error", err)
			r.Use(middlewares.RateLimit(cfg.Server.RateLimitPerMinute))
		} else {
			defer rl.Close()
			r.Use(middlewares.RedisRateLimit(rl, cfg.Server.RateLimitPerMinute))
			apiHandler.SetUsageReporter(rl)
		}
	} else {
		r.Use(middlewares.RateLimit(cfg.Server.RateLimitPerMinute))
	}

	apiHandler.RegisterRoutes(r)

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		stop()
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer shutdownCancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	<-monDone
	mon.Wait()

	logger.Info("Server exited")
	return nil
}

// openStore picks the alert history backend: Postgres, then SQLite, then
// memory
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize database: %w", err)
		}
		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("Using PostgreSQL store")
		return pg, db.Close, nil
	}

	if cfg.SQLite.Path != "" {
		sq, err := store.NewSQLiteStore(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("Using SQLite store", "path", cfg.SQLite.Path)
		return sq, func() {
			if err := sq.Close(); err != nil {
				logger.Warn("Closing SQLite store", "error", err)
			}
		}, nil
	}

	logger.Info("Using in-memory store")
	return store.NewInMemoryStore(), func() {}, nil
}

// openState picks where last-seen ids live: Redis when configured, otherwise
// the state file
func openState(cfg *config.Config) (dedup.State, func(), error) {
	if cfg.Redis.URL != "" {
		rs, err := dedup.NewRedisState(cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis state: %w", err)
		}
		logger.Info("Tracking last-seen ids in Redis")
		return rs, func() { _ = rs.Close() }, nil
	}
	logger.Info("Tracking last-seen ids in file", "path", cfg.State.File)
	return dedup.NewFileState(cfg.State.File), func() {}, nil
}

// buildNotifier always logs and adds Telegram when configured
func buildNotifier(cfg config.TelegramConfig) notify.Multi {
	notifiers := notify.Multi{notify.LogNotifier{}}
	if !cfg.Enabled() {
		return notifiers
	}
	tg, err := notify.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.CriticalChatID)
	if err != nil {
		logger.Warn("Telegram notifier disabled", "error", err)
		return notifiers
	}
	logger.Info("Telegram notifications enabled", "chat_id", cfg.ChatID)
	return append(notifiers, tg)
}

func startMetricsServer(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info("Starting metrics server", "address", addr, "path", path)

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics server failed", "error", err)
	}
}
