package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// FetchStats are the per-run counters for one execution of the fetch stage.
// Each run owns its own value; nothing is shared across runs.
type FetchStats struct {
	StartTime           time.Time `bson:"start_time" json:"start_time"`
	EndTime             time.Time `bson:"end_time" json:"end_time"`
	CategoriesProcessed int       `bson:"categories_processed" json:"categories_processed"`
	TopicsProcessed     int       `bson:"topics_processed" json:"topics_processed"`
	FeedsProcessed      int       `bson:"feeds_processed" json:"feeds_processed"`
	ArticlesFound       int       `bson:"articles_found" json:"articles_found"`
	ArticlesStored      int       `bson:"articles_stored" json:"articles_stored"`
	DuplicatesSkipped   int       `bson:"duplicates_skipped" json:"duplicates_skipped"`
	SkippedLowContent   int       `bson:"skipped_low_content" json:"skipped_low_content"`
	FetchErrors         int       `bson:"fetch_errors" json:"fetch_errors"`
	StorageErrors       int       `bson:"storage_errors" json:"storage_errors"`
	EmbeddingsGenerated int       `bson:"embeddings_generated" json:"embeddings_generated"`
	Status              string    `bson:"status" json:"status"`
}

// AnalysisStats are the per-run counters for one execution of the analysis
// stage.
type AnalysisStats struct {
	StartTime           time.Time `bson:"start_time" json:"start_time"`
	EndTime             time.Time `bson:"end_time" json:"end_time"`
	Processed           int       `bson:"articles_processed_for_analysis" json:"articles_processed_for_analysis"`
	Analyzed            int       `bson:"articles_successfully_analyzed" json:"articles_successfully_analyzed"`
	FallbacksUsed       int       `bson:"fallback_analyses_used" json:"fallback_analyses_used"`
	HighBiasDetected    int       `bson:"high_bias_detected" json:"high_bias_detected"`
	MisinformationFlags int       `bson:"misinformation_flagged" json:"misinformation_flagged"`
	EmbeddingsGenerated int       `bson:"embeddings_generated" json:"embeddings_generated"`
	ProcessingErrors    int       `bson:"processing_errors" json:"processing_errors"`
	APIRetries          int       `bson:"api_retries" json:"api_retries"`
	Status              string    `bson:"status" json:"status"`
}

// RunSampleItem is one entry of the bounded sample attached to a run summary.
type RunSampleItem struct {
	Title          string `bson:"title" json:"title"`
	URL            string `bson:"url" json:"url"`
	Source         string `bson:"source" json:"source"`
	WordCount      int    `bson:"word_count" json:"word_count"`
	ContentPreview string `bson:"content_preview,omitempty" json:"content_preview,omitempty"`
}

// RunSummary is the immutable per-run artifact persisted after a stage
// completes. It is write-only: nothing in the pipeline reads it back.
type RunSummary struct {
	RunID           string          `bson:"run_id" json:"run_id"`
	Stage           string          `bson:"stage" json:"stage"`
	StartedAt       time.Time       `bson:"started_at" json:"started_at"`
	FinishedAt      time.Time       `bson:"finished_at" json:"finished_at"`
	DurationSeconds float64         `bson:"duration_seconds" json:"duration_seconds"`
	FetchStats      *FetchStats     `bson:"fetch_stats,omitempty" json:"fetch_stats,omitempty"`
	AnalysisStats   *AnalysisStats  `bson:"analysis_stats,omitempty" json:"analysis_stats,omitempty"`
	Sample          []RunSampleItem `bson:"sample,omitempty" json:"sample,omitempty"`
	Model           string          `bson:"model,omitempty" json:"model,omitempty"`
	EmbeddingModel  string          `bson:"embedding_model,omitempty" json:"embedding_model,omitempty"`
}

// NewRunSummary stamps a summary skeleton with a fresh run id and timing
// derived from the given window.
func NewRunSummary(stage string, start, end time.Time) RunSummary {
	return RunSummary{
		RunID:           uuid.NewString(),
		Stage:           stage,
		StartedAt:       start,
		FinishedAt:      end,
		DurationSeconds: end.Sub(start).Seconds(),
	}
}

// RunLogStore persists run summaries into the pipeline_runs collection.
type RunLogStore struct {
	coll *mongo.Collection
}

// NewRunLogStore creates a new RunLogStore.
func NewRunLogStore(coll *mongo.Collection) *RunLogStore {
	return &RunLogStore{coll: coll}
}

// Save inserts a run summary. Summaries are never updated after insert.
func (s *RunLogStore) Save(ctx context.Context, summary RunSummary) error {
	if _, err := s.coll.InsertOne(ctx, summary); err != nil {
		return fmt.Errorf("run summary save: %w", err)
	}
	return nil
}
