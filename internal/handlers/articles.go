package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Jefino9488/TruthGuard/internal/models"
)

// ArticleReader is the read-side store surface for article endpoints.
type ArticleReader interface {
	GetByID(ctx context.Context, articleID string) (*models.Article, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Article, int64, error)
}

// ArticleHandler serves stored articles.
type ArticleHandler struct {
	store ArticleReader
}

func NewArticleHandler(store ArticleReader) *ArticleHandler {
	return &ArticleHandler{store: store}
}

// List returns a paginated article listing with optional source, status and
// minimum-bias filters. GET /api/articles.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.ListFilter{
		Source:  r.URL.Query().Get("source"),
		Status:  r.URL.Query().Get("status"),
		MinBias: queryFloat(r, "min_bias"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 20),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > 100 {
		filter.PerPage = 20
	}

	articles, total, err := h.store.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list articles")
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"articles": articles,
		"total":    total,
		"page":     filter.Page,
		"per_page": filter.PerPage,
	})
}

// Get returns a single article by its id. GET /api/articles/{id}.
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing article id")
		return
	}

	article, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load article")
		return
	}
	if article == nil {
		writeError(w, http.StatusNotFound, "article not found")
		return
	}

	writeJSON(w, http.StatusOK, article)
}
