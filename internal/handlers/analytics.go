package handlers

import (
	"context"
	"net/http"

	"github.com/Jefino9488/TruthGuard/internal/models"
)

// AnalyticsReader is the aggregation surface for analytics endpoints.
type AnalyticsReader interface {
	Total(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	SourceAverages(ctx context.Context) ([]models.SourceStats, error)
	BiasDistribution(ctx context.Context) ([]models.BiasBucket, error)
}

// AnalyticsHandler serves aggregate views over the analyzed corpus.
type AnalyticsHandler struct {
	store AnalyticsReader
}

func NewAnalyticsHandler(store AnalyticsReader) *AnalyticsHandler {
	return &AnalyticsHandler{store: store}
}

// Overview returns corpus totals, the status breakdown and per-source
// averages. GET /api/analytics/overview.
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.store.Total(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	byStatus, err := h.store.CountByStatus(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	sources, err := h.store.SourceAverages(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	if sources == nil {
		sources = []models.SourceStats{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_articles": total,
		"by_status":      byStatus,
		"sources":        sources,
	})
}

// BiasDistribution returns the bias-score histogram.
// GET /api/analytics/bias-distribution.
func (h *AnalyticsHandler) BiasDistribution(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.store.BiasDistribution(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute bias distribution")
		return
	}
	if buckets == nil {
		buckets = []models.BiasBucket{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"buckets": buckets,
	})
}
