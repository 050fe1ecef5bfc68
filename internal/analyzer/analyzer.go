package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/Jefino9488/TruthGuard/internal/ai"
	"github.com/Jefino9488/TruthGuard/internal/models"
)

const (
	highBiasThreshold       = 0.7
	misinformationThreshold = 0.6
)

// Store is the persistence surface the analysis stage needs.
type Store interface {
	FindUnanalyzed(ctx context.Context, limit int) ([]models.Article, error)
	UpdateAnalysis(ctx context.Context, articleID string, update models.AnalysisUpdate) error
	MarkAnalysisFailed(ctx context.Context, articleID, details string) error
}

// Model generates a JSON analysis response for a prompt.
type Model interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
	Model() string
}

// RunLogs records a summary of each pipeline run.
type RunLogs interface {
	Save(ctx context.Context, summary models.RunSummary) error
}

// Config controls retry behavior for model calls.
type Config struct {
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// Analyzer walks batches of unanalyzed articles through the model and writes
// the results back. Every article in a batch ends the run in a terminal
// state: analyzed, analyzed with a fallback result, or marked failed.
type Analyzer struct {
	store    Store
	model    Model
	embedder Embedder
	runLogs  RunLogs
	cfg      Config
	logger   *slog.Logger

	// sleep is replaceable in tests so retry timing can be observed without
	// waiting for it.
	sleep func(time.Duration)
}

func New(store Store, model Model, embedder Embedder, runLogs RunLogs, cfg Config, logger *slog.Logger) *Analyzer {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		store:    store,
		model:    model,
		embedder: embedder,
		runLogs:  runLogs,
		cfg:      cfg,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// Run analyzes up to batchSize unanalyzed articles and returns the per-run
// counters. Per-article failures are absorbed into the stats; only the run
// status reflects them.
func (a *Analyzer) Run(ctx context.Context, batchSize int) models.AnalysisStats {
	stats := models.AnalysisStats{StartTime: time.Now().UTC()}

	articles, err := a.store.FindUnanalyzed(ctx, batchSize)
	if err != nil {
		a.logger.Error("failed to fetch unanalyzed articles", "error", err)
		stats.EndTime = time.Now().UTC()
		stats.Status = "error_db_fetch"
		a.saveSummary(ctx, stats)
		return stats
	}
	if len(articles) == 0 {
		stats.EndTime = time.Now().UTC()
		stats.Status = "completed_no_articles_found"
		a.saveSummary(ctx, stats)
		return stats
	}

	for i := range articles {
		stats.Processed++
		a.analyzeOne(ctx, &articles[i], &stats)
	}

	stats.EndTime = time.Now().UTC()
	if stats.FallbacksUsed > 0 || stats.ProcessingErrors > 0 {
		stats.Status = "completed_with_errors_or_fallbacks"
	} else {
		stats.Status = "completed_successfully"
	}

	a.logger.Info("analysis stage finished",
		"processed", stats.Processed,
		"analyzed", stats.Analyzed,
		"fallbacks", stats.FallbacksUsed,
		"high_bias", stats.HighBiasDetected,
		"misinformation", stats.MisinformationFlags,
		"retries", stats.APIRetries,
		"status", stats.Status)

	a.saveSummary(ctx, stats)
	return stats
}

func (a *Analyzer) saveSummary(ctx context.Context, stats models.AnalysisStats) {
	summary := models.NewRunSummary("analyze", stats.StartTime, stats.EndTime)
	summary.AnalysisStats = &stats
	summary.Model = a.model.Name()
	summary.EmbeddingModel = a.embedder.Model()
	if err := a.runLogs.Save(ctx, summary); err != nil {
		a.logger.Warn("failed to save run summary", "run_id", summary.RunID, "error", err)
	}
}

// analyzeOne drives the retry state machine for a single article and writes
// either the model result or a fallback.
func (a *Analyzer) analyzeOne(ctx context.Context, article *models.Article, stats *models.AnalysisStats) {
	result, fallbackReason := a.generate(ctx, article, stats)

	modelName := a.model.Name()
	status := models.StatusAnalyzed
	if fallbackReason != "" {
		fb := NewFallbackAnalysis(fallbackReason)
		result = &fb
		status = models.StatusAnalyzedFallback
		modelName = "fallback (" + fallbackReason + ")"
		stats.FallbacksUsed++
		a.logger.Warn("using fallback analysis",
			"article_id", article.ArticleID, "reason", fallbackReason)
	} else {
		stats.Analyzed++
		if result.BiasAnalysis.OverallScore > highBiasThreshold {
			stats.HighBiasDetected++
		}
		if result.MisinformationAnalysis.RiskScore > misinformationThreshold {
			stats.MisinformationFlags++
		}
	}

	update := models.AnalysisUpdate{
		Analysis:           *result,
		BiasScore:          result.BiasAnalysis.OverallScore,
		MisinformationRisk: result.MisinformationAnalysis.RiskScore,
		Sentiment:          result.SentimentAnalysis.OverallSentiment,
		CredibilityScore:   result.CredibilityAssessment.OverallScore,
		ProcessingStatus:   status,
		AnalyzedAt:         time.Now().UTC(),
		AnalysisModel:      modelName,
	}
	a.backfillEmbeddings(ctx, article, result, &update, stats)

	if err := a.store.UpdateAnalysis(ctx, article.ArticleID, update); err != nil {
		stats.ProcessingErrors++
		a.logger.Error("failed to store analysis",
			"article_id", article.ArticleID, "error", err)
		if markErr := a.store.MarkAnalysisFailed(ctx, article.ArticleID, err.Error()); markErr != nil {
			a.logger.Error("failed to mark article failed",
				"article_id", article.ArticleID, "error", markErr)
		}
	}
}

// generate calls the model with retries and returns either a validated result
// or the reason a fallback should be used instead. Exactly one of the two is
// set.
func (a *Analyzer) generate(ctx context.Context, article *models.Article, stats *models.AnalysisStats) (*models.AnalysisResult, string) {
	prompt := BuildPrompt(article.Title, article.Source, article.Content)
	attempts := a.cfg.MaxRetries + 1
	lastReason := "UnknownError"

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			a.sleep(a.backoff(attempt - 1))
			stats.APIRetries++
		}

		raw, err := a.model.GenerateJSON(ctx, prompt)
		if err != nil {
			var callErr *ai.CallError
			if errors.As(err, &callErr) {
				switch callErr.Kind {
				case ai.KindSafety:
					return nil, callErr.Reason
				case ai.KindFatal:
					return nil, callErr.Reason
				default:
					lastReason = callErr.Reason
				}
			} else {
				lastReason = "UnknownError"
			}
			a.logger.Warn("model call failed",
				"article_id", article.ArticleID,
				"attempt", attempt+1,
				"error", err)
			continue
		}

		result, err := ParseAndValidate(raw)
		if err != nil {
			stats.ProcessingErrors++
			lastReason = "ValidationError"
			a.logger.Warn("model response failed validation",
				"article_id", article.ArticleID,
				"attempt", attempt+1,
				"error", err)
			continue
		}
		return result, ""
	}

	return nil, lastReason
}

// backoff computes the delay before retry attempt n (0-based). Delays are
// strictly increasing: the base doubles each attempt and the jitter is always
// smaller than one doubling step.
func (a *Analyzer) backoff(n int) time.Duration {
	base := a.cfg.RetryBaseDelay << uint(n)
	jitter := time.Duration(rand.Int63n(int64(time.Second)))
	return base + jitter
}

// backfillEmbeddings generates any embeddings the article is still missing.
// Existing vectors are never regenerated.
func (a *Analyzer) backfillEmbeddings(ctx context.Context, article *models.Article, result *models.AnalysisResult, update *models.AnalysisUpdate, stats *models.AnalysisStats) {
	if article.ContentEmbedding == nil && article.Content != "" {
		if emb := a.embedder.Embed(ctx, article.Content); emb != nil {
			update.ContentEmbedding = emb
			stats.EmbeddingsGenerated++
		}
	}
	if article.TitleEmbedding == nil && article.Title != "" {
		if emb := a.embedder.Embed(ctx, article.Title); emb != nil {
			update.TitleEmbedding = emb
			stats.EmbeddingsGenerated++
		}
	}
	if article.AnalysisEmbedding == nil {
		if text := analysisText(result); text != "" {
			if emb := a.embedder.Embed(ctx, text); emb != nil {
				update.AnalysisEmbedding = emb
				stats.EmbeddingsGenerated++
			}
		}
	}
}

// analysisText flattens the categorical analysis fields into one string for
// the analysis embedding.
func analysisText(result *models.AnalysisResult) string {
	parts := make([]string, 0, 4)
	if result.BiasAnalysis.PoliticalLeaning != "" {
		parts = append(parts, result.BiasAnalysis.PoliticalLeaning)
	}
	parts = append(parts, result.BiasAnalysis.BiasIndicators...)
	parts = append(parts, result.MisinformationAnalysis.RedFlags...)
	if result.SentimentAnalysis.EmotionalTone != "" {
		parts = append(parts, result.SentimentAnalysis.EmotionalTone)
	}
	return strings.Join(parts, " ")
}
