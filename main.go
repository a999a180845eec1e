package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"plusnotify/config"
	"plusnotify/config/database"
	"plusnotify/internal/scheduler"
	watchRepo "plusnotify/internal/watch/repository"
	watchService "plusnotify/internal/watch/service"
	"plusnotify/pkg/logger"
	"plusnotify/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	if cfg.AdminToken == "" {
		logger.Sugar.Warn("NOTIFICATIONS_ADMIN_TOKEN is not set; admin endpoints will reject every request")
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Sugar.Fatalf("Database unavailable: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Sugar.Fatalf("Failed to migrate database: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(db, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ChangesSchedule != "" {
		watches := watchService.NewWatchService(watchRepo.NewWatchRepository(db))
		sched := scheduler.New(ctx, router.NewNotificationService(db, cfg, watches))
		if err := sched.Start(cfg.ChangesSchedule); err != nil {
			logger.Sugar.Fatalf("Invalid NOTIFICATIONS_CHANGES_SCHEDULE %q: %v", cfg.ChangesSchedule, err)
		}
		defer sched.Stop()
	}

	go func() {
		logger.Sugar.Infof("Listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Graceful shutdown failed: %v", err)
	}
}
