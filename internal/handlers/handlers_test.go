package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jefino9488/TruthGuard/internal/models"
	"github.com/Jefino9488/TruthGuard/internal/pipeline"
)

type fakeReader struct {
	articles   map[string]*models.Article
	listResult []models.Article
	listTotal  int64
	lastFilter models.ListFilter
	total      int64
	byStatus   map[string]int64
	sources    []models.SourceStats
	buckets    []models.BiasBucket
	err        error
}

func (f *fakeReader) GetByID(_ context.Context, id string) (*models.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.articles[id], nil
}

func (f *fakeReader) List(_ context.Context, filter models.ListFilter) ([]models.Article, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	f.lastFilter = filter
	return f.listResult, f.listTotal, nil
}

func (f *fakeReader) Total(_ context.Context) (int64, error) {
	return f.total, f.err
}

func (f *fakeReader) CountByStatus(_ context.Context) (map[string]int64, error) {
	return f.byStatus, f.err
}

func (f *fakeReader) SourceAverages(_ context.Context) ([]models.SourceStats, error) {
	return f.sources, f.err
}

func (f *fakeReader) BiasDistribution(_ context.Context) ([]models.BiasBucket, error) {
	return f.buckets, f.err
}

type fakePipeline struct {
	combined   pipeline.CombinedResult
	stats      models.AnalysisStats
	batchSizes []int
}

func (f *fakePipeline) RunScrapeThenAnalyze(_ context.Context) pipeline.CombinedResult {
	return f.combined
}

func (f *fakePipeline) RunAnalyze(_ context.Context, batchSize int) models.AnalysisStats {
	f.batchSizes = append(f.batchSizes, batchSize)
	return f.stats
}

func newTestRouter(reader *fakeReader, runner *fakePipeline) http.Handler {
	return NewRouter(
		NewArticleHandler(reader),
		NewAnalyticsHandler(reader),
		NewTriggerHandler(runner),
	)
}

func doRequest(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestListArticles(t *testing.T) {
	reader := &fakeReader{
		listResult: []models.Article{{ArticleID: "abc", Title: "Story"}},
		listTotal:  1,
	}
	router := newTestRouter(reader, &fakePipeline{})

	rec := doRequest(t, router, http.MethodGet, "/api/articles?source=Wire&status=analyzed&min_bias=0.5&page=2&per_page=10")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "Wire", reader.lastFilter.Source)
	assert.Equal(t, "analyzed", reader.lastFilter.Status)
	require.NotNil(t, reader.lastFilter.MinBias)
	assert.Equal(t, 0.5, *reader.lastFilter.MinBias)
	assert.Equal(t, 2, reader.lastFilter.Page)
	assert.Equal(t, 10, reader.lastFilter.PerPage)

	var body struct {
		Articles []models.Article `json:"articles"`
		Total    int64            `json:"total"`
		Page     int              `json:"page"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Articles, 1)
	assert.Equal(t, "abc", body.Articles[0].ArticleID)
	assert.Equal(t, int64(1), body.Total)
	assert.Equal(t, 2, body.Page)
}

func TestListArticlesDefaultsPagination(t *testing.T) {
	reader := &fakeReader{}
	router := newTestRouter(reader, &fakePipeline{})

	rec := doRequest(t, router, http.MethodGet, "/api/articles?page=-3&per_page=9999")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, reader.lastFilter.Page)
	assert.Equal(t, 20, reader.lastFilter.PerPage)
}

func TestGetArticle(t *testing.T) {
	reader := &fakeReader{articles: map[string]*models.Article{
		"abc": {ArticleID: "abc", Title: "Found story"},
	}}
	router := newTestRouter(reader, &fakePipeline{})

	rec := doRequest(t, router, http.MethodGet, "/api/articles/abc")
	require.Equal(t, http.StatusOK, rec.Code)

	var article models.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &article))
	assert.Equal(t, "Found story", article.Title)
}

func TestGetArticleNotFound(t *testing.T) {
	router := newTestRouter(&fakeReader{articles: map[string]*models.Article{}}, &fakePipeline{})

	rec := doRequest(t, router, http.MethodGet, "/api/articles/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
}

func TestGetArticleStoreError(t *testing.T) {
	router := newTestRouter(&fakeReader{err: errors.New("db down")}, &fakePipeline{})

	rec := doRequest(t, router, http.MethodGet, "/api/articles/abc")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAnalyticsOverview(t *testing.T) {
	reader := &fakeReader{
		total:    42,
		byStatus: map[string]int64{"analyzed": 40, "pending": 2},
		sources: []models.SourceStats{
			{Source: "Wire", ArticleCount: 42, AvgBias: 0.4},
		},
	}
	router := newTestRouter(reader, &fakePipeline{})

	rec := doRequest(t, router, http.MethodGet, "/api/analytics/overview")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TotalArticles int64                `json:"total_articles"`
		ByStatus      map[string]int64     `json:"by_status"`
		Sources       []models.SourceStats `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(42), body.TotalArticles)
	assert.Equal(t, int64(40), body.ByStatus["analyzed"])
	require.Len(t, body.Sources, 1)
	assert.Equal(t, "Wire", body.Sources[0].Source)
}

func TestAnalyticsBiasDistribution(t *testing.T) {
	reader := &fakeReader{buckets: []models.BiasBucket{
		{Lower: 0.0, Count: 10},
		{Lower: 0.2, Count: 5},
	}}
	router := newTestRouter(reader, &fakePipeline{})

	rec := doRequest(t, router, http.MethodGet, "/api/analytics/bias-distribution")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Buckets []models.BiasBucket `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Buckets, 2)
	assert.Equal(t, int64(10), body.Buckets[0].Count)
}

func TestScrapeTrigger(t *testing.T) {
	runner := &fakePipeline{combined: pipeline.CombinedResult{
		Status:  "success",
		Message: "scrape stored 3 articles; analysis processed 3",
		Scrape:  models.FetchStats{ArticlesStored: 3},
	}}
	router := newTestRouter(&fakeReader{}, runner)

	rec := doRequest(t, router, http.MethodPost, "/api/scrape")
	require.Equal(t, http.StatusOK, rec.Code)

	var body pipeline.CombinedResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 3, body.Scrape.ArticlesStored)
}

func TestAnalyzeTrigger(t *testing.T) {
	runner := &fakePipeline{stats: models.AnalysisStats{Processed: 4, Status: "completed_successfully"}}
	router := newTestRouter(&fakeReader{}, runner)

	rec := doRequest(t, router, http.MethodPost, "/api/analyze?batch_size=4")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []int{4}, runner.batchSizes)

	var body struct {
		Status string               `json:"status"`
		Result models.AnalysisStats `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 4, body.Result.Processed)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&fakeReader{}, &fakePipeline{})
	rec := doRequest(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}
