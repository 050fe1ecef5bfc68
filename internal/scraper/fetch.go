package scraper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Jefino9488/TruthGuard/internal/models"
)

const sampleLimit = 10

// ArticleStore is the persistence surface the fetch stage needs.
type ArticleStore interface {
	Exists(ctx context.Context, articleID string) (bool, error)
	InsertMany(ctx context.Context, articles []models.Article) (stored, failed int, err error)
}

// RunLogs records a summary of each pipeline run.
type RunLogs interface {
	Save(ctx context.Context, summary models.RunSummary) error
}

// Provider lists fresh headlines from an upstream news API.
type Provider interface {
	TopHeadlines(ctx context.Context, category string) ([]RawEntry, error)
	Everything(ctx context.Context, topic string) ([]RawEntry, error)
}

// ContentExtractor pulls full article text from a URL.
type ContentExtractor interface {
	Extract(ctx context.Context, articleURL string) string
}

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
	Model() string
}

// FetchConfig controls what the fetch stage collects and how.
type FetchConfig struct {
	Categories       []string
	Topics           []string
	RSSFeeds         []string
	MinContentLength int
	Concurrency      int
}

// Fetcher discovers articles from the configured sources, extracts and
// embeds their content, and stores anything not seen before.
type Fetcher struct {
	provider  Provider
	extractor ContentExtractor
	embedder  Embedder
	store     ArticleStore
	runLogs   RunLogs
	cfg       FetchConfig
	logger    *slog.Logger
}

func NewFetcher(provider Provider, extractor ContentExtractor, embedder Embedder, store ArticleStore, runLogs RunLogs, cfg FetchConfig, logger *slog.Logger) *Fetcher {
	if cfg.MinContentLength <= 0 {
		cfg.MinContentLength = 150
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		provider:  provider,
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		runLogs:   runLogs,
		cfg:       cfg,
		logger:    logger,
	}
}

type sourceQuery struct {
	kind  string // "category", "topic" or "feed"
	value string
}

type queryResult struct {
	query   sourceQuery
	entries []RawEntry
	err     error
}

// Run executes a full fetch pass. Individual source failures are counted
// rather than propagated; the returned stats always describe what happened.
func (f *Fetcher) Run(ctx context.Context) models.FetchStats {
	stats := models.FetchStats{StartTime: time.Now().UTC()}

	queries := make([]sourceQuery, 0, len(f.cfg.Categories)+len(f.cfg.Topics)+len(f.cfg.RSSFeeds))
	for _, c := range f.cfg.Categories {
		queries = append(queries, sourceQuery{kind: "category", value: c})
	}
	for _, t := range f.cfg.Topics {
		queries = append(queries, sourceQuery{kind: "topic", value: t})
	}
	for _, u := range f.cfg.RSSFeeds {
		queries = append(queries, sourceQuery{kind: "feed", value: u})
	}

	results := f.collect(ctx, queries)

	var entries []RawEntry
	for _, res := range results {
		switch {
		case res.err != nil:
			stats.FetchErrors++
			f.logger.Warn("source query failed",
				"kind", res.query.kind, "value", res.query.value, "error", res.err)
		default:
			entries = append(entries, res.entries...)
			switch res.query.kind {
			case "category":
				stats.CategoriesProcessed++
			case "topic":
				stats.TopicsProcessed++
			case "feed":
				stats.FeedsProcessed++
			}
		}
	}
	stats.ArticlesFound = len(entries)

	articles, sample := f.prepare(ctx, entries, &stats)

	if len(articles) > 0 {
		stored, failed, err := f.store.InsertMany(ctx, articles)
		if err != nil {
			stats.StorageErrors += len(articles)
			f.logger.Error("bulk insert failed", "count", len(articles), "error", err)
		} else {
			stats.ArticlesStored = stored
			stats.StorageErrors += failed
		}
	}

	stats.EndTime = time.Now().UTC()
	if stats.FetchErrors > 0 || stats.StorageErrors > 0 {
		stats.Status = "completed_with_errors"
	} else {
		stats.Status = "completed"
	}

	f.logger.Info("fetch stage finished",
		"found", stats.ArticlesFound,
		"stored", stats.ArticlesStored,
		"duplicates", stats.DuplicatesSkipped,
		"low_content", stats.SkippedLowContent,
		"fetch_errors", stats.FetchErrors,
		"status", stats.Status)

	summary := models.NewRunSummary("scrape", stats.StartTime, stats.EndTime)
	summary.FetchStats = &stats
	summary.Sample = sample
	summary.EmbeddingModel = f.embedder.Model()
	if err := f.runLogs.Save(ctx, summary); err != nil {
		f.logger.Warn("failed to save run summary", "run_id", summary.RunID, "error", err)
	}

	return stats
}

// collect fans source queries out over a bounded worker pool and gathers the
// results in query order.
func (f *Fetcher) collect(ctx context.Context, queries []sourceQuery) []queryResult {
	results := make([]queryResult, len(queries))
	sem := make(chan struct{}, f.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, q := range queries {
		wg.Add(1)
		go func(i int, q sourceQuery) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var entries []RawEntry
			var err error
			switch q.kind {
			case "category":
				entries, err = f.provider.TopHeadlines(ctx, q.value)
			case "topic":
				entries, err = f.provider.Everything(ctx, q.value)
			case "feed":
				entries, err = FetchFeed(ctx, q.value)
			}
			results[i] = queryResult{query: q, entries: entries, err: err}
		}(i, q)
	}
	wg.Wait()

	return results
}

// prepare turns raw entries into storable articles: it drops malformed and
// duplicate entries, extracts full text, applies the content quality gate
// and computes embeddings. Entries are processed sequentially so the
// extractor's own politeness limits govern request pacing.
func (f *Fetcher) prepare(ctx context.Context, entries []RawEntry, stats *models.FetchStats) ([]models.Article, []models.RunSampleItem) {
	seen := make(map[string]struct{}, len(entries))
	articles := make([]models.Article, 0, len(entries))
	sample := make([]models.RunSampleItem, 0, sampleLimit)

	for _, entry := range entries {
		if entry.Title == "" || entry.URL == "" {
			continue
		}

		id := ArticleID(entry.URL)
		if _, dup := seen[id]; dup {
			stats.DuplicatesSkipped++
			continue
		}
		seen[id] = struct{}{}

		exists, err := f.store.Exists(ctx, id)
		if err != nil {
			stats.StorageErrors++
			f.logger.Warn("existence check failed", "article_id", id, "error", err)
			continue
		}
		if exists {
			stats.DuplicatesSkipped++
			continue
		}

		content := f.extractor.Extract(ctx, entry.URL)
		if content == "" {
			content = NormalizeText(entry.Description)
		}
		if len(content) < f.cfg.MinContentLength {
			stats.SkippedLowContent++
			continue
		}

		now := time.Now().UTC()
		article := models.Article{
			ArticleID:        id,
			Title:            NormalizeText(entry.Title),
			Source:           entry.Source,
			URL:              CanonicalizeURL(entry.URL),
			Content:          content,
			Description:      NormalizeText(entry.Description),
			PublishedAt:      ParsePublishedAt(entry.PublishedAt),
			ScrapedAt:        now,
			ContentHash:      HashContent(content),
			WordCount:        WordCount(content),
			ProcessingStatus: models.StatusPending,
		}

		if emb := f.embedder.Embed(ctx, content); emb != nil {
			article.ContentEmbedding = emb
			stats.EmbeddingsGenerated++
		}
		if emb := f.embedder.Embed(ctx, article.Title); emb != nil {
			article.TitleEmbedding = emb
			stats.EmbeddingsGenerated++
		}

		articles = append(articles, article)

		if len(sample) < sampleLimit {
			sample = append(sample, models.RunSampleItem{
				Title:          article.Title,
				URL:            article.URL,
				Source:         article.Source,
				WordCount:      article.WordCount,
				ContentPreview: truncate(content, 500),
			})
		}
	}

	return articles, sample
}
