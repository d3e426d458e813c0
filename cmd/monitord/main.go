package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"store-monitor-backend/config"
	"store-monitor-backend/internal/api"
	"store-monitor-backend/internal/db"
	"store-monitor-backend/internal/ingest"
	"store-monitor-backend/internal/notification"
	"store-monitor-backend/internal/report"
	"store-monitor-backend/internal/store"
	"store-monitor-backend/internal/uptime"
)

func main() {
	logger := log.New(os.Stdout, "store-monitor ", log.LstdFlags)

	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("failed to read .env: %v", err)
	}

	configPath := pflag.StringP("config", "c", "", "path to the YAML configuration file")
	pflag.Parse()
	if *configPath == "" {
		*configPath = os.Getenv("CONFIG_PATH")
	}
	if *configPath == "" {
		*configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", *configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", *configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB, cfg.Ingest.BatchSize)

	var scheduler *ingest.Scheduler
	if cfg.Ingest.Enabled {
		loader := ingest.NewLoader(&cfg.Ingest, appStore)
		loader.Bootstrap(ctx)
		scheduler = ingest.NewScheduler(loader, cfg.Ingest.Schedule)
		if err := scheduler.Start(ctx); err != nil {
			logger.Fatalf("failed to start ingest scheduler: %v", err)
		}
		logger.Printf("CSV ingest scheduled (%s) from %s", cfg.Ingest.Schedule, cfg.Ingest.CSVDir)
	}

	aggregator := uptime.NewAggregator(appStore, uptime.WithDefaultTimezone(cfg.Report.DefaultTimezone))
	executor := report.NewGoExecutor()
	managerOpts := []report.ManagerOption{report.WithContext(ctx)}

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		pool.Start(ctx)
		managerOpts = append(managerOpts, report.WithNotifier(pool))
		logger.Printf("push notifications enabled with %d workers", cfg.WorkerPool.Size)
	} else {
		logger.Println("VAPID keys not configured; push notifications disabled")
	}

	manager := report.NewManager(
		report.NewCacheJobStore(cfg.Report.Retention),
		executor,
		aggregator,
		report.NewFileWriter(cfg.Report.OutputDir),
		managerOpts...,
	)

	router := api.NewRouter(&cfg.Server, appStore, manager, webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}

	// Running jobs observe the cancelled context and end as Failed.
	cancel()
	executor.Wait()

	logger.Println("Server gracefully stopped")
}
