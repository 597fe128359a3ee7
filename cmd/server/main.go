// Package main is the entry point for the RC MediCall scheduling service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/api"
	"github.com/rc-medicall/backend/internal/calendar"
	"github.com/rc-medicall/backend/internal/config"
	"github.com/rc-medicall/backend/internal/directory"
	"github.com/rc-medicall/backend/internal/logging"
	"github.com/rc-medicall/backend/internal/storage"
	"github.com/rc-medicall/backend/internal/syncer"
	"github.com/rc-medicall/backend/internal/websocket"
)

const outboxWorkers = 2

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.HTTP.Addr, "HTTP server address")
	dataDir := flag.String("data", cfg.Store.DataDir, "Data directory for the offline cache")
	staticDir := flag.String("static", cfg.HTTP.StaticDir, "Directory for static frontend files, empty to disable")
	remote := flag.String("remote", cfg.Remote.BaseURL, "Base URL of the remote store")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(*addr); err != nil {
			fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "rc-medicall-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting scheduling service",
		zap.String("version", cfg.App.Version),
		zap.String("env", string(cfg.App.Env)),
		zap.String("remote", *remote),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	store, closeStore, err := openCacheStore(cfg, *dataDir, logger)
	if err != nil {
		logger.Fatal("opening cache store", zap.Error(err))
	}
	defer closeStore()

	weekStart, _ := cfg.WeekStart()
	loc := cfg.Location()
	opts := calendar.DefaultOptions()
	opts.WeekStart = weekStart
	opts.DayStart = cfg.Calendar.DayStart
	opts.DayEnd = cfg.Calendar.DayEnd
	opts.CitaSlots = cfg.Calendar.CitaSlots
	opts.Now = func() time.Time { return time.Now().In(loc) }
	engine := calendar.NewEngine(opts)

	projections, err := calendar.NewProjectionCache(cfg.Cache.ProjectionSize, logger)
	if err != nil {
		logger.Fatal("creating projection cache", zap.Error(err))
	}

	outbox := syncer.NewOutbox(cfg.Sync.OutboxBuffer, cfg.Sync.WriteAttempts, cfg.Sync.WriteBackoff, cfg.Remote.RequestTimeout, logger)
	outbox.Start(outboxWorkers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	svc := syncer.NewService(
		syncer.NewClient(*remote, cfg.Remote.RequestTimeout, cfg.Remote.ReadRetries, logger),
		syncer.NewCache(store, cfg.Sync.CacheVersion),
		outbox,
		engine,
		projections,
		directory.Seed,
		websocket.NewEventBroadcaster(hub, logger),
		cfg.Remote.StartupTimeout,
		logger,
	)

	result := svc.Start(ctx)
	logger.Info("initial load complete",
		zap.String("source", string(result.Source)),
		zap.Int("contacts", result.Contacts),
		zap.Bool("bootstrapped", result.Bootstrapped),
	)

	scheduler := syncer.NewScheduler(svc, hub, cfg.Sync.Interval, cfg.Remote.RequestTimeout, logger)
	if err := scheduler.Start(); err != nil {
		logger.Warn("failed to start resync scheduler", zap.Error(err))
	}

	router := api.NewRouter(svc, scheduler, hub, *staticDir, logger)

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", *addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	scheduler.Stop()

	// Writes still queued get the rest of the shutdown window to reach the store.
	svc.Stop(shutdownCtx)
	if n := outbox.Pending(); n > 0 {
		logger.Warn("writes not delivered before exit", zap.Int("pending", n))
	}
	cancel()

	logger.Info("server stopped")
}

// openCacheStore returns the offline snapshot store selected by CACHE_BACKEND.
func openCacheStore(cfg *config.Config, dataDir string, logger *zap.Logger) (syncer.Store, func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		return syncer.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil

	default:
		db, err := storage.Open(filepath.Join(dataDir, "rc-medicall-cache.db"))
		if err != nil {
			return nil, nil, err
		}
		logger.Info("offline cache opened", zap.String("path", db.Path()))
		return storage.NewCacheRepository(db), func() { _ = db.Close() }, nil
	}
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	resp, err := http.Get("http://localhost" + addr + "/api/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
