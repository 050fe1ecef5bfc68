// Package db manages the MongoDB connection and index bootstrap.
package db

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Jefino9488/TruthGuard/internal/config"
)

// Collection names used by the pipeline.
const (
	ArticlesCollection = "articles"
	RunLogsCollection  = "pipeline_runs"
)

// Connect establishes a MongoDB client, verifies connectivity, and ensures
// the indexes the pipeline depends on. The unique index on article_id is
// mandatory: it is the backstop for the fetch stage's check-then-insert race.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if cfg.URI == "" {
		return nil, nil, fmt.Errorf("db: MONGODB_URI is required")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("db: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("db: ping: %w", err)
	}

	database := client.Database(cfg.Database)
	slog.Info("database connected", "database", cfg.Database)

	if err := ensureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("db: indexes: %w", err)
	}

	return client, database, nil
}

// ensureIndexes creates the articles indexes. CreateMany is idempotent for
// indexes that already exist with the same definition.
func ensureIndexes(ctx context.Context, database *mongo.Database) error {
	articles := database.Collection(ArticlesCollection)

	_, err := articles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "article_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_article_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "processing_status", Value: 1}},
			Options: options.Index().SetName("idx_processing_status_asc"),
		},
		{
			Keys:    bson.D{{Key: "published_at", Value: -1}},
			Options: options.Index().SetName("idx_published_at_desc"),
		},
		{
			Keys:    bson.D{{Key: "scraped_at", Value: -1}},
			Options: options.Index().SetName("idx_scraped_at_desc"),
		},
		{
			Keys:    bson.D{{Key: "source", Value: 1}},
			Options: options.Index().SetName("idx_source_asc"),
		},
		{
			Keys:    bson.D{{Key: "bias_score", Value: -1}},
			Options: options.Index().SetName("idx_bias_score_desc"),
		},
		{
			Keys:    bson.D{{Key: "misinformation_risk", Value: -1}},
			Options: options.Index().SetName("idx_misinfo_risk_desc"),
		},
		{
			Keys:    bson.D{{Key: "credibility_score", Value: -1}},
			Options: options.Index().SetName("idx_credibility_score_desc"),
		},
	})
	if err != nil {
		return fmt.Errorf("create article indexes: %w", err)
	}

	slog.Info("article indexes ensured")
	return nil
}
