package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Jefino9488/TruthGuard/internal/ai"
	"github.com/Jefino9488/TruthGuard/internal/analyzer"
	"github.com/Jefino9488/TruthGuard/internal/config"
	"github.com/Jefino9488/TruthGuard/internal/db"
	"github.com/Jefino9488/TruthGuard/internal/handlers"
	"github.com/Jefino9488/TruthGuard/internal/models"
	"github.com/Jefino9488/TruthGuard/internal/pipeline"
	"github.com/Jefino9488/TruthGuard/internal/scraper"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()

	client, database, err := db.Connect(ctx, cfg.Mongo)
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("mongodb disconnect failed", "error", err)
		}
	}()

	articles := models.NewArticleStore(database.Collection(db.ArticlesCollection))
	runLogs := models.NewRunLogStore(database.Collection(db.RunLogsCollection))

	provider, err := scraper.NewNewsAPIClient(cfg.NewsAPI.BaseURL, cfg.NewsAPI.APIKey, cfg.NewsAPI.PageSize)
	if err != nil {
		logger.Error("failed to build news provider", "error", err)
		os.Exit(1)
	}
	model, err := ai.NewGeminiClient(cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Gemini.APIKey)
	if err != nil {
		logger.Error("failed to build analysis model client", "error", err)
		os.Exit(1)
	}
	embedder := ai.NewEmbeddingClient(cfg.Embed.Host, cfg.Embed.Model)

	fetcher := scraper.NewFetcher(provider, scraper.NewExtractor(), embedder, articles, runLogs, scraper.FetchConfig{
		Categories:       cfg.Pipeline.Categories,
		Topics:           cfg.Pipeline.Topics,
		RSSFeeds:         cfg.Pipeline.RSSFeeds,
		MinContentLength: cfg.Pipeline.MinContentLength,
		Concurrency:      cfg.Pipeline.FetchConcurrency,
	}, logger)
	analysis := analyzer.New(articles, model, embedder, runLogs, analyzer.Config{
		MaxRetries:     cfg.Pipeline.MaxRetries,
		RetryBaseDelay: cfg.Pipeline.RetryBaseDelay,
	}, logger)
	runner := pipeline.NewRunner(fetcher, analysis, cfg.Pipeline.AnalysisBatchSize, logger)

	router := handlers.NewRouter(
		handlers.NewArticleHandler(articles),
		handlers.NewAnalyticsHandler(articles),
		handlers.NewTriggerHandler(runner),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("api server stopped")
}
