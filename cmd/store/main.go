// Package main is the entry point for the RC MediCall remote store: the
// document API the scheduling service syncs against.
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

	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/api"
	"github.com/rc-medicall/backend/internal/config"
	"github.com/rc-medicall/backend/internal/logging"
	"github.com/rc-medicall/backend/internal/storage"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.Store.Addr, "HTTP server address")
	dataDir := flag.String("data", cfg.Store.DataDir, "Data directory for the SQLite database")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	if *healthCheck {
		if err := runHealthCheck(*addr); err != nil {
			fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "rc-medicall-store")
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting remote store", zap.String("version", cfg.App.Version))

	db, err := storage.NewDB(filepath.Join(*dataDir, "rc-medicall.db"))
	if err != nil {
		logger.Fatal("opening database", zap.Error(err))
	}
	defer db.Close()

	applied, err := storage.ApplyMigrations(db)
	if err != nil {
		logger.Fatal("running migrations", zap.Error(err), zap.Strings("applied", applied))
	}
	logger.Info("database ready", zap.String("path", db.Path()), zap.Strings("migrations_applied", applied))

	server := &http.Server{
		Addr:         *addr,
		Handler:      api.NewStoreRouter(db, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("store listening", zap.String("addr", *addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down store")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("store stopped")
}

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
