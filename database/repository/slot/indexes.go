package slotRepo

import (
	"context"
	"fmt"

	"loadline/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique keys the booking transactions rely on.
// The (company, date, key) uniqueness on bookings is what makes order locks
// and position claims race-safe.
func EnsureIndexes(ctx context.Context) error {
	db := database.DB()

	keyed := mongo.IndexModel{
		Keys: bson.D{
			{Key: "company", Value: 1},
			{Key: "date", Value: 1},
			{Key: "key", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}

	if _, err := db.Collection("slot_capacity").Indexes().CreateOne(ctx, keyed); err != nil {
		return fmt.Errorf("failed to create capacity index: %w", err)
	}
	if _, err := db.Collection("slot_bookings").Indexes().CreateOne(ctx, keyed); err != nil {
		return fmt.Errorf("failed to create booking index: %w", err)
	}

	orderID := mongo.IndexModel{
		Keys:    bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection("orders").Indexes().CreateOne(ctx, orderID); err != nil {
		return fmt.Errorf("failed to create order index: %w", err)
	}

	eventID := mongo.IndexModel{
		Keys: bson.D{{Key: "eventId", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"eventId": bson.M{"$type": "string"}}),
	}
	if _, err := db.Collection("timeline_events").Indexes().CreateOne(ctx, eventID); err != nil {
		return fmt.Errorf("failed to create timeline index: %w", err)
	}

	return nil
}
