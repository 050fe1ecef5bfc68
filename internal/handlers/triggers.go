package handlers

import (
	"context"
	"net/http"

	"github.com/Jefino9488/TruthGuard/internal/models"
	"github.com/Jefino9488/TruthGuard/internal/pipeline"
)

// Pipeline is the orchestration surface the trigger endpoints call into.
type Pipeline interface {
	RunScrapeThenAnalyze(ctx context.Context) pipeline.CombinedResult
	RunAnalyze(ctx context.Context, batchSize int) models.AnalysisStats
}

// TriggerHandler exposes on-demand pipeline runs.
type TriggerHandler struct {
	runner Pipeline
}

func NewTriggerHandler(runner Pipeline) *TriggerHandler {
	return &TriggerHandler{runner: runner}
}

// Scrape runs a full scrape-then-analyze pass synchronously and returns the
// combined result. POST /api/scrape.
func (h *TriggerHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	result := h.runner.RunScrapeThenAnalyze(r.Context())
	writeJSON(w, http.StatusOK, result)
}

// Analyze runs a standalone analysis pass over the current backlog.
// POST /api/analyze?batch_size=N.
func (h *TriggerHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	batchSize := queryInt(r, "batch_size", 0)
	stats := h.runner.RunAnalyze(r.Context(), batchSize)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"result": stats,
	})
}
