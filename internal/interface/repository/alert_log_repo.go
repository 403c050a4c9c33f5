package repository

import (
	"context"

	"railwatch-service/internal/domain/entity"
	"railwatch-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAlertLogRepository implements the AlertLogRepository interface
type MongoAlertLogRepository struct {
	collection *mongo.Collection
}

// NewMongoAlertLogRepository creates a new MongoDB alert log repository
func NewMongoAlertLogRepository(db *mongo.Database) repository.AlertLogRepository {
	collection := db.Collection("alertLogs")

	// Create indexes for better performance
	ctx := context.Background()

	taskIDIndex := mongo.IndexModel{
		Keys: bson.M{"taskId": 1},
	}

	// Index on sentAt for sorting and retention queries
	sentAtIndex := mongo.IndexModel{
		Keys: bson.M{"sentAt": -1},
	}

	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		taskIDIndex,
		sentAtIndex,
	})

	return &MongoAlertLogRepository{
		collection: collection,
	}
}

// Save appends one delivered-alert record
func (r *MongoAlertLogRepository) Save(ctx context.Context, alert *entity.AlertLog) error {
	_, err := r.collection.InsertOne(ctx, alert)
	return err
}

// FindByTaskID returns the most recent alerts for a task
func (r *MongoAlertLogRepository) FindByTaskID(ctx context.Context, taskID uint, limit int) ([]*entity.AlertLog, error) {
	limit64 := int64(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"taskId": taskID}, &options.FindOptions{
		Limit: &limit64,
		Sort:  bson.D{{Key: "sentAt", Value: -1}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []*entity.AlertLog
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}

	return alerts, nil
}
