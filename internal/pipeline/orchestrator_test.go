package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jefino9488/TruthGuard/internal/models"
)

type fakeScraper struct {
	stats models.FetchStats
	calls int
}

func (f *fakeScraper) Run(_ context.Context) models.FetchStats {
	f.calls++
	return f.stats
}

type fakeAnalyzer struct {
	stats      models.AnalysisStats
	calls      int
	batchSizes []int
}

func (f *fakeAnalyzer) Run(_ context.Context, batchSize int) models.AnalysisStats {
	f.calls++
	f.batchSizes = append(f.batchSizes, batchSize)
	return f.stats
}

func TestRunScrapeThenAnalyzeChainsWhenArticlesStored(t *testing.T) {
	scraper := &fakeScraper{stats: models.FetchStats{ArticlesStored: 5, Status: "completed"}}
	analyzer := &fakeAnalyzer{stats: models.AnalysisStats{Processed: 5, Analyzed: 5, Status: "completed_successfully"}}

	r := NewRunner(scraper, analyzer, 20, nil)
	result := r.RunScrapeThenAnalyze(context.Background())

	assert.Equal(t, 1, scraper.calls)
	assert.Equal(t, 1, analyzer.calls)
	// Batch is sized to what was just stored when under the default.
	assert.Equal(t, []int{5}, analyzer.batchSizes)

	assert.Equal(t, "success", result.Status)
	assert.Equal(t, 5, result.Scrape.ArticlesStored)
	require.NotNil(t, result.Analysis)
	assert.Equal(t, 5, result.Analysis.Analyzed)
}

func TestRunScrapeThenAnalyzeSkipsAnalysisWhenNothingStored(t *testing.T) {
	scraper := &fakeScraper{stats: models.FetchStats{ArticlesStored: 0, Status: "completed"}}
	analyzer := &fakeAnalyzer{}

	r := NewRunner(scraper, analyzer, 20, nil)
	result := r.RunScrapeThenAnalyze(context.Background())

	assert.Equal(t, 1, scraper.calls)
	assert.Equal(t, 0, analyzer.calls)
	assert.Nil(t, result.Analysis)
	assert.Equal(t, "success", result.Status)
}

func TestRunScrapeThenAnalyzeCapsBatchAtDefault(t *testing.T) {
	scraper := &fakeScraper{stats: models.FetchStats{ArticlesStored: 50}}
	analyzer := &fakeAnalyzer{}

	r := NewRunner(scraper, analyzer, 20, nil)
	r.RunScrapeThenAnalyze(context.Background())

	assert.Equal(t, []int{20}, analyzer.batchSizes)
}

func TestRunAnalyze(t *testing.T) {
	analyzer := &fakeAnalyzer{stats: models.AnalysisStats{Status: "completed_successfully"}}
	r := NewRunner(&fakeScraper{}, analyzer, 20, nil)

	r.RunAnalyze(context.Background(), 7)
	// Zero or negative batch sizes fall back to the default.
	r.RunAnalyze(context.Background(), 0)

	assert.Equal(t, []int{7, 20}, analyzer.batchSizes)
}
