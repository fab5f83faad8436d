package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	statementapp "github.com/vaultwrx/billing/internal/application/statement"
	"github.com/vaultwrx/billing/internal/infrastructure/config"
	"github.com/vaultwrx/billing/internal/infrastructure/logger"
	"github.com/vaultwrx/billing/internal/infrastructure/persistence"
	"github.com/vaultwrx/billing/internal/infrastructure/rendering"
	"github.com/vaultwrx/billing/internal/infrastructure/scheduler"
	"github.com/vaultwrx/billing/internal/infrastructure/storage"
	"github.com/vaultwrx/billing/internal/interfaces/http/handler"
	"github.com/vaultwrx/billing/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting VaultWrx billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Object storage
	blobs, err := storage.NewS3BlobStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if err := blobs.EnsureBucket(context.Background()); err != nil {
		log.Fatal("Failed to ensure storage bucket", zap.Error(err))
	}

	// PDF engine shares one browser allocator across every document
	pdfEngine, err := rendering.NewChromedpEngine(&cfg.Render, rendering.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize PDF engine", zap.Error(err))
	}
	defer func() {
		_ = pdfEngine.Close()
	}()

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	retailerRepo := persistence.NewGormRetailerRepository(db.DB)
	statementRepo := persistence.NewGormStatementRepository(db.DB)
	stageRepo := persistence.NewGormStageRepository(db.DB)

	// Statement pipeline
	aggregator := statementapp.NewAggregator(cfg.App.BaseURL)
	formatter := statementapp.NewFormatter(aggregator, stageRepo, blobs, log)
	persister := statementapp.NewPersistenceCoordinator(blobs, statementRepo, stageRepo, log)
	templateSource := rendering.NewBlobTemplateSource(blobs)
	htmlEngine := rendering.NewTemplateEngine()
	renderer := statementapp.NewDocumentRenderer(templateSource, htmlEngine, pdfEngine, persister, log)

	timezone := cfg.Scheduler.Location()
	orchestrator := statementapp.NewOrchestrator(
		orderRepo,
		customerRepo,
		retailerRepo,
		stageRepo,
		formatter,
		renderer,
		cfg.App.Name,
		timezone,
		cfg.Render.Workers,
		log,
	)

	// The reconciler regenerates failed customer invoices through the
	// orchestrator, so it is wired in after construction.
	reconciler := statementapp.NewFailureReconciler(blobs, orchestrator.GenerateCustomerInvoices, log)
	orchestrator.SetReconciler(reconciler)

	// Scheduler
	var statementScheduler *scheduler.StatementScheduler
	if cfg.Scheduler.Enabled {
		statementScheduler = scheduler.NewStatementScheduler(&cfg.Scheduler, orchestrator, log)
		if err := statementScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start statement scheduler", zap.Error(err))
		}
		log.Info("Statement scheduler started",
			zap.String("morning_run", cfg.Scheduler.MorningRun),
			zap.String("evening_run", cfg.Scheduler.EveningRun),
			zap.String("timezone", cfg.Scheduler.Timezone),
		)
	}

	// HTTP interface
	statementHandler := handler.NewStatementHandler(orchestrator, statementRepo)
	if statementScheduler != nil {
		statementHandler.SetScheduler(statementScheduler)
	}

	r := router.NewRouter(log)
	r.Register(statementHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        r.Engine(),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if statementScheduler != nil {
		if err := statementScheduler.Stop(ctx); err != nil {
			log.Warn("Scheduler shutdown incomplete", zap.Error(err))
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
