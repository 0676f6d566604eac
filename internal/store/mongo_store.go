package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
)

// MongoTaskStore is an implementation of TaskStore using MongoDB.
type MongoTaskStore struct {
	collection *mongo.Collection
}

// NewMongoTaskStore creates a new MongoTaskStore.
func NewMongoTaskStore(db *mongo.Database, collectionName string) *MongoTaskStore {
	return &MongoTaskStore{
		collection: db.Collection(collectionName),
	}
}

// Create inserts a new task record into the database.
func (s *MongoTaskStore) Create(ctx context.Context, task *models.TaskState) error {
	_, err := s.collection.InsertOne(ctx, task)
	return err
}

// GetByID retrieves a task by its ID, or (nil, nil) when absent.
func (s *MongoTaskStore) GetByID(ctx context.Context, id string) (*models.TaskState, error) {
	var task models.TaskState
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// GetByUserID retrieves a paginated list of tasks for a specific user.
func (s *MongoTaskStore) GetByUserID(ctx context.Context, userID string, page, limit int) ([]*models.TaskState, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []*models.TaskState
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update replaces the mutable fields of an existing task record.
func (s *MongoTaskStore) Update(ctx context.Context, task *models.TaskState) error {
	filter := bson.M{"_id": task.ID}
	update := bson.M{
		"$set": bson.M{
			"status":          task.Status,
			"outputs":         task.Outputs,
			"agent_calls":     task.AgentCalls,
			"requires_review": task.RequiresReview,
			"flags":           task.Flags,
			"error":           task.Error,
			"updated_at":      task.UpdatedAt,
		},
	}
	_, err := s.collection.UpdateOne(ctx, filter, update)
	return err
}
