package audit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
)

// MongoLedger is the durable Ledger implementation backed by a MongoDB
// collection. Sequence numbers are assigned from an in-process counter seeded
// with the highest stored sequence, so they keep increasing across restarts.
type MongoLedger struct {
	collection *mongo.Collection
	seq        int64
}

// NewMongoLedger creates a MongoLedger over the given collection and seeds
// the sequence counter from the existing entries.
func NewMongoLedger(ctx context.Context, db *mongo.Database, collectionName string) (*MongoLedger, error) {
	l := &MongoLedger{collection: db.Collection(collectionName)}

	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})
	var last models.AuditEntry
	err := l.collection.FindOne(ctx, bson.M{}, opts).Decode(&last)
	switch {
	case err == mongo.ErrNoDocuments:
		l.seq = 0
	case err != nil:
		return nil, fmt.Errorf("failed to seed audit sequence counter: %w", err)
	default:
		l.seq = last.Seq
	}
	return l, nil
}

// Append assigns the next sequence number and inserts the entry. The _id is
// the sequence number, so a duplicate insert can never silently overwrite an
// existing entry.
func (l *MongoLedger) Append(ctx context.Context, entry *models.AuditEntry) (int64, error) {
	entry.Seq = atomic.AddInt64(&l.seq, 1)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if _, err := l.collection.InsertOne(ctx, entry); err != nil {
		return 0, fmt.Errorf("failed to append audit entry: %w", err)
	}
	return entry.Seq, nil
}

// Query returns matching entries newest-first, capped at the filter limit.
func (l *MongoLedger) Query(ctx context.Context, filter Filter) ([]*models.AuditEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	query := bson.M{}
	if filter.TaskID != "" {
		query["task_id"] = filter.TaskID
	}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.Agent != "" {
		query["agent"] = filter.Agent
	}
	if filter.Event != "" {
		query["event"] = filter.Event
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := l.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.AuditEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExportRange folds the entries in [start, end] into a summary. The range is
// filtered server-side; the grouping matches the in-memory ledger's.
func (l *MongoLedger) ExportRange(ctx context.Context, start, end time.Time) (*ExportSummary, error) {
	rangeQuery := bson.M{}
	if !start.IsZero() {
		rangeQuery["$gte"] = start
	}
	if !end.IsZero() {
		rangeQuery["$lte"] = end
	}
	query := bson.M{}
	if len(rangeQuery) > 0 {
		query["timestamp"] = rangeQuery
	}

	cursor, err := l.collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	summary := &ExportSummary{
		Start:       start,
		End:         end,
		UserSummary: make(map[string]*UserActivity),
		ExportedAt:  time.Now().UTC(),
	}
	for cursor.Next(ctx) {
		var entry models.AuditEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, err
		}
		summary.add(&entry)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return summary, nil
}
