package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/dukapos/export-worker/internal/audit"
	"github.com/dukapos/export-worker/internal/config"
	"github.com/dukapos/export-worker/internal/database"
	"github.com/dukapos/export-worker/internal/httpapi"
	"github.com/dukapos/export-worker/internal/repository"
	"github.com/dukapos/export-worker/internal/service"
	"github.com/dukapos/export-worker/internal/storage"
	"github.com/dukapos/export-worker/internal/watcher"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("application error")
	}
}

func run(log *logrus.Logger) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	log.Info("database connected")

	// Run migrations
	log.Info("running database migrations")
	if err := database.RunMigrations(db); err != nil {
		return err
	}

	// Initialize object storage
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store service.ObjectStorage
	s3Store, err := storage.NewS3Store(ctx)
	if err != nil {
		log.WithError(err).Warn("object storage unavailable, bundle exports will fail")
	} else {
		store = s3Store
	}

	// Initialize repositories and services
	jobRepo := repository.NewExportJobRepository(sqlDB)
	tenantRepo := repository.NewTenantRepository(db)
	auditor := audit.NewSQLRecorder(sqlDB, log)
	runner := service.NewExportRunner(jobRepo, tenantRepo, store, auditor, cfg.MaxAttempts, log)

	// Initialize watcher
	w := watcher.New(cfg, runner, log)

	// HTTP surface
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	httpapi.RegisterRoutes(router, &httpapi.App{Exports: runner, Log: log})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 2)
	go func() {
		errChan <- w.Start(ctx)
	}()
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Info("shutdown signal received")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("http server shutdown error")
		}

		select {
		case <-shutdownCtx.Done():
			log.Warn("shutdown timeout exceeded")
		case err := <-errChan:
			if err != nil && err != context.Canceled {
				log.WithError(err).Error("watcher error")
			}
		}

		log.Info("application stopped")
		return nil

	case err := <-errChan:
		return err
	}
}
