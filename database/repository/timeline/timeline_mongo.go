package timelineRepo

import (
	"context"
	"fmt"

	"loadline/database"
	"loadline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoTimelineRepo struct {
	coll *mongo.Collection
}

func NewMongoTimelineRepo() *MongoTimelineRepo {
	return &MongoTimelineRepo{coll: database.DB().Collection("timeline_events")}
}

// Append inserts one event. The unique eventId index turns a replayed append
// into ErrDuplicateEvent instead of a second entry.
func (repo *MongoTimelineRepo) Append(ctx context.Context, ev *models.TimelineEvent) error {
	if _, err := repo.coll.InsertOne(ctx, ev); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("failed to append timeline event: %w", err)
	}
	return nil
}

func (repo *MongoTimelineRepo) ListBySubject(ctx context.Context, subject string) ([]models.TimelineEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := repo.coll.Find(ctx, bson.M{"subject": subject}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline events: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.TimelineEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode timeline events: %w", err)
	}
	return out, nil
}
