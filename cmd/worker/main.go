package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Jefino9488/TruthGuard/internal/ai"
	"github.com/Jefino9488/TruthGuard/internal/analyzer"
	"github.com/Jefino9488/TruthGuard/internal/config"
	"github.com/Jefino9488/TruthGuard/internal/db"
	"github.com/Jefino9488/TruthGuard/internal/models"
	"github.com/Jefino9488/TruthGuard/internal/pipeline"
	"github.com/Jefino9488/TruthGuard/internal/scraper"
)

// pipelineSchedule runs the full pipeline every four hours.
const pipelineSchedule = "0 */4 * * *"

// startupDelay gives the Mongo connection and index build a moment to settle
// before the first run.
const startupDelay = 5 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	runner, err := buildRunner(cfg, database, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	c := cron.New()
	if _, err := c.AddFunc(pipelineSchedule, func() {
		runner.RunScrapeThenAnalyze(ctx)
	}); err != nil {
		logger.Error("failed to schedule pipeline", "error", err)
		os.Exit(1)
	}
	c.Start()
	logger.Info("worker started", "schedule", pipelineSchedule)

	// One immediate run on startup so a fresh deployment has data before the
	// first scheduled tick.
	go func() {
		select {
		case <-time.After(startupDelay):
			runner.RunScrapeThenAnalyze(ctx)
		case <-ctx.Done():
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")
	cancel()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("timed out waiting for running jobs")
	}
	logger.Info("worker stopped")
}

func buildRunner(cfg config.Config, database *mongo.Database, logger *slog.Logger) (*pipeline.Runner, error) {
	articles := models.NewArticleStore(database.Collection(db.ArticlesCollection))
	runLogs := models.NewRunLogStore(database.Collection(db.RunLogsCollection))

	provider, err := scraper.NewNewsAPIClient(cfg.NewsAPI.BaseURL, cfg.NewsAPI.APIKey, cfg.NewsAPI.PageSize)
	if err != nil {
		return nil, err
	}
	model, err := ai.NewGeminiClient(cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Gemini.APIKey)
	if err != nil {
		return nil, err
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

	return pipeline.NewRunner(fetcher, analysis, cfg.Pipeline.AnalysisBatchSize, logger), nil
}
