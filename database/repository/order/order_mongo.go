package orderRepo

import (
	"context"
	"fmt"
	"time"

	"loadline/database"
	"loadline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoOrderRepo struct {
	coll *mongo.Collection
}

func NewMongoOrderRepo() *MongoOrderRepo {
	return &MongoOrderRepo{coll: database.DB().Collection("orders")}
}

func (repo *MongoOrderRepo) Get(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	err := repo.coll.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&o)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return &o, nil
}

func (repo *MongoOrderRepo) Insert(ctx context.Context, order *models.Order) error {
	if _, err := repo.coll.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (repo *MongoOrderRepo) Delete(ctx context.Context, orderID string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *MongoOrderRepo) ListByCompanyDate(ctx context.Context, company, date string) ([]models.Order, error) {
	filter := bson.M{"companyCode": company, "slotDate": date}
	cur, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Order
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return out, nil
}

func (repo *MongoOrderRepo) ListByDriver(ctx context.Context, driverID string, activeOnly bool) ([]models.Order, error) {
	filter := bson.M{"driverId": driverID}
	if activeOnly {
		filter["status"] = bson.M{"$ne": models.StatusDeliveryCompleted}
		filter["tripClosed"] = bson.M{"$ne": true}
	}
	cur, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list driver orders: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Order
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode driver orders: %w", err)
	}
	return out, nil
}

func (repo *MongoOrderRepo) BindSlot(ctx context.Context, orderID string, b SlotBinding) error {
	set := bson.M{
		"slotBooked":       true,
		"slotId":           b.SlotID,
		"slotDate":         b.SlotDate,
		"slotTime":         b.SlotTime,
		"slotVehicleClass": b.VehicleClass,
		"updatedAt":        time.Now().UTC(),
	}
	if b.Position != "" {
		set["slotPosition"] = b.Position
	}
	if b.MergeKey != "" {
		set["mergeKey"] = b.MergeKey
	}
	if b.TripStatus != "" {
		set["tripStatus"] = b.TripStatus
	}
	return repo.updateOne(ctx, orderID, bson.M{"$set": set})
}

func (repo *MongoOrderRepo) ClearSlot(ctx context.Context, orderID string) error {
	update := bson.M{
		"$set": bson.M{"slotBooked": false, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{
			"slotId": "", "slotDate": "", "slotTime": "", "slotVehicleClass": "",
			"slotPosition": "", "mergeKey": "", "tripStatus": "", "mergedIntoOrderId": "",
		},
	}
	return repo.updateOne(ctx, orderID, update)
}

func (repo *MongoOrderRepo) SetTripStatus(ctx context.Context, orderID, tripStatus string) error {
	return repo.updateOne(ctx, orderID, bson.M{
		"$set": bson.M{"tripStatus": tripStatus, "updatedAt": time.Now().UTC()},
	})
}

func (repo *MongoOrderRepo) SetMergeKey(ctx context.Context, orderID, mergeKey string) error {
	return repo.updateOne(ctx, orderID, bson.M{
		"$set": bson.M{"mergeKey": mergeKey, "updatedAt": time.Now().UTC()},
	})
}

func (repo *MongoOrderRepo) SetStops(ctx context.Context, orderID string, stops []models.Stop) error {
	return repo.updateOne(ctx, orderID, bson.M{
		"$set": bson.M{"stops": stops, "updatedAt": time.Now().UTC()},
	})
}

func (repo *MongoOrderRepo) AssignDriver(ctx context.Context, orderID, driverID, driverName, vehicleNumber string) error {
	return repo.updateOne(ctx, orderID, bson.M{
		"$set": bson.M{
			"driverId":         driverID,
			"driverName":       driverName,
			"vehicleNumber":    vehicleNumber,
			"status":           models.StatusDriverAssigned,
			"currentStopIndex": 0,
			"updatedAt":        time.Now().UTC(),
		},
	})
}

// ApplyDeliveryUpdate is the compare-and-set step of the delivery state
// machine: the write matches only while the stored status equals the one the
// caller validated against, so concurrent updates cannot skip states.
func (repo *MongoOrderRepo) ApplyDeliveryUpdate(ctx context.Context, upd DeliveryUpdate) error {
	now := time.Now().UTC()
	set := bson.M{"status": upd.NewStatus, "updatedAt": now}

	stop := fmt.Sprintf("stops.%d", upd.StopIndex)
	if upd.SetReachedAt {
		set[stop+".reachedAt"] = now
	}
	if upd.SetUnloadStartAt {
		set[stop+".unloadStartAt"] = now
	}
	if upd.SetUnloadEndAt {
		set[stop+".unloadEndAt"] = now
	}
	if upd.AdvanceStop {
		set["currentStopIndex"] = upd.AdvanceStopTo
	}
	if upd.CloseTrip {
		set["tripClosed"] = true
	}

	filter := bson.M{"orderId": upd.OrderID, "status": upd.ExpectedStatus}
	res, err := repo.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to apply delivery update: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, gerr := repo.Get(ctx, upd.OrderID); gerr != nil {
			return gerr
		}
		return ErrStaleStatus
	}
	return nil
}

func (repo *MongoOrderRepo) SetGoalDeducted(ctx context.Context, orderID string, deducted bool) error {
	return repo.updateOne(ctx, orderID, bson.M{
		"$set": bson.M{"goalDeducted": deducted, "updatedAt": time.Now().UTC()},
	})
}

func (repo *MongoOrderRepo) updateOne(ctx context.Context, orderID string, update bson.M) error {
	res, err := repo.coll.UpdateOne(ctx, bson.M{"orderId": orderID}, update)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
