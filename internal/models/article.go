// Package models defines the article data model and its MongoDB stores.
package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Processing status lifecycle. Articles move from StatusPending to exactly
// one of the terminal analysis states; StatusFailedAnalysis remains eligible
// for re-selection on a later run.
const (
	StatusPending          = "pending"
	StatusAnalyzed         = "analyzed"
	StatusAnalyzedFallback = "analyzed_fallback"
	StatusFailedAnalysis   = "failed_analysis"
)

// Article is the central entity: one stored document per distinct canonical
// URL. ArticleID is a pure function of the canonical URL, enforced unique at
// the collection level.
type Article struct {
	ArticleID          string          `bson:"article_id" json:"article_id"`
	Title              string          `bson:"title" json:"title"`
	Source             string          `bson:"source" json:"source"`
	URL                string          `bson:"url" json:"url"`
	Content            string          `bson:"content" json:"content,omitempty"`
	Description        string          `bson:"description,omitempty" json:"description,omitempty"`
	PublishedAt        *time.Time      `bson:"published_at,omitempty" json:"published_at,omitempty"`
	ScrapedAt          time.Time       `bson:"scraped_at" json:"scraped_at"`
	ContentHash        string          `bson:"content_hash" json:"content_hash"`
	WordCount          int             `bson:"word_count" json:"word_count"`
	ContentEmbedding   []float32       `bson:"content_embedding,omitempty" json:"-"`
	TitleEmbedding     []float32       `bson:"title_embedding,omitempty" json:"-"`
	AnalysisEmbedding  []float32       `bson:"analysis_embedding,omitempty" json:"-"`
	ProcessingStatus   string          `bson:"processing_status,omitempty" json:"processing_status,omitempty"`
	AIAnalysis         *AnalysisResult `bson:"ai_analysis,omitempty" json:"ai_analysis,omitempty"`
	BiasScore          *float64        `bson:"bias_score,omitempty" json:"bias_score,omitempty"`
	MisinformationRisk *float64        `bson:"misinformation_risk,omitempty" json:"misinformation_risk,omitempty"`
	Sentiment          *float64        `bson:"sentiment,omitempty" json:"sentiment,omitempty"`
	CredibilityScore   *float64        `bson:"credibility_score,omitempty" json:"credibility_score,omitempty"`
	AnalyzedAt         *time.Time      `bson:"analyzed_at,omitempty" json:"analyzed_at,omitempty"`
	AnalysisModel      string          `bson:"analysis_model,omitempty" json:"analysis_model,omitempty"`
	LastErrorDetails   string          `bson:"last_error_details,omitempty" json:"-"`
}

// AnalysisResult is the structured output of the analysis stage. The field
// layout is versioned; the prompt schema description in the analyzer package
// is derived from it and must be kept in sync.
type AnalysisResult struct {
	BiasAnalysis           BiasAnalysis           `bson:"bias_analysis" json:"bias_analysis"`
	MisinformationAnalysis MisinformationAnalysis `bson:"misinformation_analysis" json:"misinformation_analysis"`
	SentimentAnalysis      SentimentAnalysis      `bson:"sentiment_analysis" json:"sentiment_analysis"`
	CredibilityAssessment  CredibilityAssessment  `bson:"credibility_assessment" json:"credibility_assessment"`
	Confidence             float64                `bson:"confidence" json:"confidence"`
}

// BiasAnalysis scores article bias. All numeric scores are in [0,1].
type BiasAnalysis struct {
	OverallScore     float64  `bson:"overall_score" json:"overall_score"`
	PoliticalLeaning string   `bson:"political_leaning" json:"political_leaning"`
	BiasIndicators   []string `bson:"bias_indicators" json:"bias_indicators"`
	LanguageBias     float64  `bson:"language_bias" json:"language_bias"`
	SourceBias       float64  `bson:"source_bias" json:"source_bias"`
	FramingBias      float64  `bson:"framing_bias" json:"framing_bias"`
}

// FactCheck is a single claim/verdict pair from the misinformation analysis.
type FactCheck struct {
	Claim       string  `bson:"claim" json:"claim"`
	Verdict     string  `bson:"verdict" json:"verdict"`
	Confidence  float64 `bson:"confidence" json:"confidence"`
	Explanation string  `bson:"explanation" json:"explanation"`
}

// MisinformationAnalysis scores misinformation risk in [0,1].
type MisinformationAnalysis struct {
	RiskScore  float64     `bson:"risk_score" json:"risk_score"`
	FactChecks []FactCheck `bson:"fact_checks" json:"fact_checks"`
	RedFlags   []string    `bson:"red_flags" json:"red_flags"`
}

// SentimentAnalysis holds the signed sentiment score in [-1,1].
type SentimentAnalysis struct {
	OverallSentiment float64  `bson:"overall_sentiment" json:"overall_sentiment"`
	EmotionalTone    string   `bson:"emotional_tone" json:"emotional_tone"`
	KeyPhrases       []string `bson:"key_phrases" json:"key_phrases"`
}

// CredibilityAssessment scores source and evidence credibility in [0,1].
type CredibilityAssessment struct {
	OverallScore      float64 `bson:"overall_score" json:"overall_score"`
	EvidenceQuality   float64 `bson:"evidence_quality" json:"evidence_quality"`
	SourceReliability float64 `bson:"source_reliability" json:"source_reliability"`
}

// AnalysisUpdate carries the fields written back to an article after the
// analysis stage runs. Nil embedding slices are left untouched in the stored
// document so existing embeddings are never regenerated.
type AnalysisUpdate struct {
	Analysis           AnalysisResult
	BiasScore          float64
	MisinformationRisk float64
	Sentiment          float64
	CredibilityScore   float64
	ProcessingStatus   string
	AnalyzedAt         time.Time
	AnalysisModel      string
	ContentEmbedding   []float32
	TitleEmbedding     []float32
	AnalysisEmbedding  []float32
}

// ListFilter narrows article listings on the read-side API.
type ListFilter struct {
	Source  string
	Status  string
	MinBias *float64
	Page    int
	PerPage int
}

// SourceStats is one row of the per-source analytics aggregation.
type SourceStats struct {
	Source         string  `bson:"_id" json:"source"`
	ArticleCount   int64   `bson:"article_count" json:"article_count"`
	AvgBias        float64 `bson:"avg_bias" json:"avg_bias"`
	AvgMisinfoRisk float64 `bson:"avg_misinfo_risk" json:"avg_misinfo_risk"`
	AvgCredibility float64 `bson:"avg_credibility" json:"avg_credibility"`
}

// BiasBucket is one histogram bucket of the bias distribution aggregation.
type BiasBucket struct {
	Lower float64 `bson:"_id" json:"lower"`
	Count int64   `bson:"count" json:"count"`
}

// ArticleStore provides data access methods for the articles collection.
type ArticleStore struct {
	coll *mongo.Collection
}

// NewArticleStore creates a new ArticleStore.
func NewArticleStore(coll *mongo.Collection) *ArticleStore {
	return &ArticleStore{coll: coll}
}

// Exists reports whether an article with the given identifier is already
// stored. Used by the fetch stage's check-and-skip; the unique index on
// article_id is the backstop for the check-then-insert race.
func (s *ArticleStore) Exists(ctx context.Context, articleID string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"article_id": articleID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("article exists: %w", err)
	}
	return n > 0, nil
}

// InsertMany performs one unordered bulk insert so a single duplicate-key or
// validation failure does not abort the rest of the batch. Returns the number
// of documents stored and the number of per-item write failures.
func (s *ArticleStore) InsertMany(ctx context.Context, articles []Article) (stored, failed int, err error) {
	if len(articles) == 0 {
		return 0, 0, nil
	}

	docs := make([]any, len(articles))
	for i := range articles {
		docs[i] = articles[i]
	}

	res, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			inserted := 0
			if res != nil {
				inserted = len(res.InsertedIDs)
			}
			// With unordered inserts every non-failing document still lands.
			if inserted == 0 {
				inserted = len(articles) - len(bwe.WriteErrors)
			}
			return inserted, len(bwe.WriteErrors), nil
		}
		return 0, len(articles), fmt.Errorf("article insert many: %w", err)
	}

	return len(res.InsertedIDs), 0, nil
}

// FindUnanalyzed returns up to limit articles eligible for analysis: status
// pending, failed_analysis, or absent, newest-scraped first.
func (s *ArticleStore) FindUnanalyzed(ctx context.Context, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 10
	}

	filter := bson.M{"$or": bson.A{
		bson.M{"processing_status": bson.M{"$in": bson.A{StatusPending, StatusFailedAnalysis}}},
		bson.M{"processing_status": bson.M{"$exists": false}},
	}}

	cursor, err := s.coll.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "scraped_at", Value: -1}}).
			SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("find unanalyzed: %w", err)
	}
	defer cursor.Close(ctx)

	var articles []Article
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("decode unanalyzed: %w", err)
	}
	return articles, nil
}

// UpdateAnalysis writes the analysis outcome back to a single article with a
// partial $set, leaving unset embedding fields untouched.
func (s *ArticleStore) UpdateAnalysis(ctx context.Context, articleID string, upd AnalysisUpdate) error {
	set := bson.M{
		"ai_analysis":         upd.Analysis,
		"bias_score":          upd.BiasScore,
		"misinformation_risk": upd.MisinformationRisk,
		"sentiment":           upd.Sentiment,
		"credibility_score":   upd.CredibilityScore,
		"processing_status":   upd.ProcessingStatus,
		"analyzed_at":         upd.AnalyzedAt,
		"analysis_model":      upd.AnalysisModel,
	}
	if upd.ContentEmbedding != nil {
		set["content_embedding"] = upd.ContentEmbedding
	}
	if upd.TitleEmbedding != nil {
		set["title_embedding"] = upd.TitleEmbedding
	}
	if upd.AnalysisEmbedding != nil {
		set["analysis_embedding"] = upd.AnalysisEmbedding
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"article_id": articleID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update analysis: article %s not found", articleID)
	}
	return nil
}

// MarkAnalysisFailed marks an article as failed so a later run re-selects it.
func (s *ArticleStore) MarkAnalysisFailed(ctx context.Context, articleID, details string) error {
	if len(details) > 500 {
		details = details[:500]
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"article_id": articleID}, bson.M{"$set": bson.M{
		"processing_status":  StatusFailedAnalysis,
		"last_error_details": details,
	}})
	if err != nil {
		return fmt.Errorf("mark analysis failed: %w", err)
	}
	return nil
}

// GetByID returns a single article by its identifier.
func (s *ArticleStore) GetByID(ctx context.Context, articleID string) (*Article, error) {
	var a Article
	err := s.coll.FindOne(ctx, bson.M{"article_id": articleID}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("article get: %w", err)
	}
	return &a, nil
}

// List returns a filtered, paginated page of articles plus the total count
// matching the filter.
func (s *ArticleStore) List(ctx context.Context, f ListFilter) ([]Article, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 10
	}
	if f.PerPage > 100 {
		f.PerPage = 100
	}

	filter := bson.M{}
	if f.Source != "" {
		filter["source"] = f.Source
	}
	if f.Status != "" {
		filter["processing_status"] = f.Status
	}
	if f.MinBias != nil {
		filter["bias_score"] = bson.M{"$gte": *f.MinBias}
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("article count: %w", err)
	}

	cursor, err := s.coll.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "published_at", Value: -1}, {Key: "scraped_at", Value: -1}}).
			SetSkip(int64((f.Page-1)*f.PerPage)).
			SetLimit(int64(f.PerPage)))
	if err != nil {
		return nil, 0, fmt.Errorf("article list: %w", err)
	}
	defer cursor.Close(ctx)

	var articles []Article
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, 0, fmt.Errorf("article list decode: %w", err)
	}
	return articles, total, nil
}

// CountByStatus groups article counts by processing status.
func (s *ArticleStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$ifNull": bson.A{"$processing_status", "unknown"}},
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("count by status decode: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Count
	}
	return out, nil
}

// SourceAverages aggregates average analysis scores per source over analyzed
// articles.
func (s *ArticleStore) SourceAverages(ctx context.Context) ([]SourceStats, error) {
	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"bias_score": bson.M{"$exists": true}}}},
		{{Key: "$group", Value: bson.M{
			"_id":              "$source",
			"article_count":    bson.M{"$sum": 1},
			"avg_bias":         bson.M{"$avg": "$bias_score"},
			"avg_misinfo_risk": bson.M{"$avg": "$misinformation_risk"},
			"avg_credibility":  bson.M{"$avg": "$credibility_score"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "article_count", Value: -1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("source averages: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []SourceStats
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("source averages decode: %w", err)
	}
	return rows, nil
}

// BiasDistribution buckets analyzed articles by bias score.
func (s *ArticleStore) BiasDistribution(ctx context.Context) ([]BiasBucket, error) {
	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"bias_score": bson.M{"$exists": true}}}},
		{{Key: "$bucket", Value: bson.M{
			"groupBy":    "$bias_score",
			"boundaries": bson.A{0.0, 0.2, 0.4, 0.6, 0.8, 1.01},
			"default":    -1.0,
			"output":     bson.M{"count": bson.M{"$sum": 1}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("bias distribution: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []BiasBucket
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("bias distribution decode: %w", err)
	}
	return rows, nil
}

// Total returns the number of stored articles.
func (s *ArticleStore) Total(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("article total: %w", err)
	}
	return n, nil
}
