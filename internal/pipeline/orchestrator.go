// Package pipeline chains the fetch and analysis stages into one run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jefino9488/TruthGuard/internal/models"
)

// Scraper runs one fetch pass.
type Scraper interface {
	Run(ctx context.Context) models.FetchStats
}

// Analyzer runs one analysis pass over at most batchSize articles.
type Analyzer interface {
	Run(ctx context.Context, batchSize int) models.AnalysisStats
}

// CombinedResult reports a scrape run and, when the scrape stored anything
// new, the analysis run it triggered.
type CombinedResult struct {
	Status   string                `json:"status"`
	Message  string                `json:"message"`
	Scrape   models.FetchStats     `json:"scrape_result"`
	Analysis *models.AnalysisStats `json:"analysis_triggered_result,omitempty"`
}

// Runner orchestrates the pipeline stages.
type Runner struct {
	scraper      Scraper
	analyzer     Analyzer
	defaultBatch int
	logger       *slog.Logger
}

func NewRunner(scraper Scraper, analyzer Analyzer, defaultBatch int, logger *slog.Logger) *Runner {
	if defaultBatch <= 0 {
		defaultBatch = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		scraper:      scraper,
		analyzer:     analyzer,
		defaultBatch: defaultBatch,
		logger:       logger,
	}
}

// RunScrapeThenAnalyze executes a scrape pass and, only when it stored new
// articles, an analysis pass sized to what was just stored.
func (r *Runner) RunScrapeThenAnalyze(ctx context.Context) CombinedResult {
	r.logger.Info("pipeline run starting")
	scrape := r.scraper.Run(ctx)

	result := CombinedResult{
		Status: "success",
		Scrape: scrape,
	}

	if scrape.ArticlesStored == 0 {
		result.Message = "scrape completed; no new articles to analyze"
		r.logger.Info("pipeline run finished", "stored", 0, "analysis_triggered", false)
		return result
	}

	batch := scrape.ArticlesStored
	if batch > r.defaultBatch {
		batch = r.defaultBatch
	}

	analysis := r.analyzer.Run(ctx, batch)
	result.Analysis = &analysis
	result.Message = fmt.Sprintf("scrape stored %d articles; analysis processed %d",
		scrape.ArticlesStored, analysis.Processed)

	r.logger.Info("pipeline run finished",
		"stored", scrape.ArticlesStored,
		"analysis_triggered", true,
		"analyzed", analysis.Analyzed,
		"fallbacks", analysis.FallbacksUsed)

	return result
}

// RunAnalyze executes a standalone analysis pass.
func (r *Runner) RunAnalyze(ctx context.Context, batchSize int) models.AnalysisStats {
	if batchSize <= 0 {
		batchSize = r.defaultBatch
	}
	return r.analyzer.Run(ctx, batchSize)
}
