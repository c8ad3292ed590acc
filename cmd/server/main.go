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

	"github.com/Prasoon2050/Indian-Observer/app/api"
	"github.com/Prasoon2050/Indian-Observer/app/cfg"
	"github.com/Prasoon2050/Indian-Observer/app/classifier"
	"github.com/Prasoon2050/Indian-Observer/app/database"
	"github.com/Prasoon2050/Indian-Observer/app/images"
	"github.com/Prasoon2050/Indian-Observer/app/ingestion"
	"github.com/Prasoon2050/Indian-Observer/app/sources"
	"github.com/Prasoon2050/Indian-Observer/app/synthesis"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
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

	slog.Info("Starting Indian Observer server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	feeds, err := sources.LoadFeedDefinitions(appCfg.FeedsFile)
	if err != nil {
		slog.Error("Failed to load feed definitions", "file", appCfg.FeedsFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded feed definitions", "count", len(feeds))

	articleRepo := database.NewArticleRepository(db)
	statusRepo := database.NewStatusRepository(db)

	sourceClient, err := sources.NewClient(appCfg.SerpAPIKey, appCfg.UserAgent,
		sources.WithFreshnessWindow(time.Duration(appCfg.FreshnessWindow)*time.Hour))
	if err != nil {
		slog.Error("Failed to create source client", "error", err)
		os.Exit(1)
	}

	gateway, err := synthesis.NewGateway(appCfg.GoogleAPIKey,
		time.Duration(appCfg.SynthesisInterval)*time.Second)
	if err != nil {
		slog.Error("Failed to create synthesis gateway", "error", err)
		os.Exit(1)
	}

	resolver := images.NewResolver(appCfg.UserAgent, appCfg.UnsplashAccessKey)
	relevance := classifier.NewClassifier()
	extractor := ingestion.NewExtractor(nil, appCfg.UserAgent)

	orchestrator := ingestion.NewOrchestrator(sourceClient, relevance, resolver,
		gateway, extractor, articleRepo, statusRepo, feeds, ingestion.Settings{
			Region:           appCfg.Region,
			TopicLimit:       appCfg.TopicLimit,
			ArticlesPerTopic: appCfg.ArticlesPerTopic,
			ArticlesPerFeed:  appCfg.ArticlesPerFeed,
		})

	scheduler := ingestion.NewScheduler(orchestrator)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Ingestion scheduler started", "interval_minutes", appCfg.RefreshInterval)

	handler := api.NewHandler(articleRepo, statusRepo, orchestrator, scheduler, appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
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

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
