package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mena-signal/server/app/analysis"
	"github.com/mena-signal/server/app/api"
	"github.com/mena-signal/server/app/cfg"
	"github.com/mena-signal/server/app/database"
	"github.com/mena-signal/server/app/ingest"
	"github.com/mena-signal/server/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting MENA Signal server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	sourceRepo := database.NewSourceRepo(db)
	itemRepo := database.NewItemRepo(db)
	analysisRepo := database.NewAnalysisRepo(db)
	runRepo := database.NewRunRepo(db)

	var analyzer analysis.Analyzer
	if appCfg.OpenAIAPIKey != "" {
		analyzer = analysis.NewLLM(appCfg.OpenAIAPIKey, appCfg.OpenAIBaseURL, appCfg.OpenAIModel)
	} else {
		analyzer = analysis.NewStub()
	}
	slog.Info("Analyzer configured", "model", appCfg.AnalyzerModel())

	service := analysis.NewService(itemRepo, analysisRepo, analyzer)

	// The orchestrator needs a submitter and the submitters need the
	// orchestrator; the closure defers the lookup until after both exist.
	var submitter tasks.Submitter

	httpClient := &http.Client{Timeout: 30 * time.Second}
	fetcher := ingest.NewFetcher(httpClient, appCfg.UserAgent)

	orchestrator := ingest.NewOrchestrator(sourceRepo, itemRepo, runRepo, fetcher,
		ingest.SubmitterFunc(func(ctx context.Context, itemID int64) error {
			return submitter.SubmitAnalysis(ctx, itemID)
		}))

	scheduler := tasks.NewScheduler(appCfg, orchestrator, sourceRepo)

	inline := tasks.NewInlineSubmitter(scheduler, orchestrator, service)
	submitter = inline

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()

	if appCfg.QueueEnabled() {
		kafkaSubmitter := tasks.NewKafkaSubmitter(appCfg.KafkaBrokers, appCfg.KafkaTopic, inline)
		defer kafkaSubmitter.Close()
		submitter = kafkaSubmitter

		consumer := tasks.NewConsumer(appCfg.KafkaBrokers, appCfg.KafkaTopic, appCfg.KafkaGroup,
			scheduler, orchestrator, service)
		go consumer.Run(consumerCtx)

		slog.Info("Job queue enabled", "brokers", appCfg.KafkaBrokers, "topic", appCfg.KafkaTopic)
	} else {
		slog.Info("Job queue disabled, running jobs in-process")
	}

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval_minutes", appCfg.IngestInterval)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(sourceRepo, itemRepo, analysisRepo, runRepo, submitter,
		appCfg.Version, appCfg.AnalyzerModel(), appCfg.QueueEnabled())
	engine := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	stopConsumer()

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
