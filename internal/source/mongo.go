package source

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/denuncia-labs/conversation-insights/internal/model"
	"github.com/denuncia-labs/conversation-insights/pkg/logger"
	"github.com/denuncia-labs/conversation-insights/pkg/metrics"
)

// DefaultLogWindow bounds the recency of loaded log entries.
const DefaultLogWindow = 30 * 24 * time.Hour

// MongoReader loads raw log entries from the event-log store. A nil client
// means the store was not configured; reads then return an empty set.
type MongoReader struct {
	client     *mongo.Client
	database   string
	collection string
	window     time.Duration
	logger     *logger.Logger
}

// NewMongoReader creates a reader over client, which may be nil. A
// non-positive window falls back to DefaultLogWindow.
func NewMongoReader(client *mongo.Client, database, collection string, window time.Duration, log *logger.Logger) *MongoReader {
	if window <= 0 {
		window = DefaultLogWindow
	}
	return &MongoReader{
		client:     client,
		database:   database,
		collection: collection,
		window:     window,
		logger:     log,
	}
}

// Entries returns all log entries whose timestamp falls within the recency
// window, normalized to UTC. Absence of a configured connection yields an
// empty set without error.
func (r *MongoReader) Entries(ctx context.Context) ([]model.RawLogEntry, error) {
	if r.client == nil {
		r.logger.Debug("mongodb not configured, returning no log entries")
		return nil, nil
	}

	cutoff := time.Now().UTC().Add(-r.window)
	coll := r.client.Database(r.database).Collection(r.collection)

	cursor, err := coll.Find(ctx,
		bson.M{"timestamp": bson.M{"$gte": cutoff}},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []model.RawLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode log entries: %w", err)
	}

	// Comparisons and sorting downstream assume one consistent location.
	for i := range entries {
		entries[i].Timestamp = entries[i].Timestamp.UTC()
	}

	metrics.SourceRowsRead.WithLabelValues("mongo").Set(float64(len(entries)))
	r.logger.Info("loaded log entries from mongodb",
		zap.Int("entries", len(entries)),
		zap.Time("cutoff", cutoff),
	)
	return entries, nil
}
