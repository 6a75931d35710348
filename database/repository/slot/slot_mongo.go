package slotRepo

import (
	"context"
	"fmt"
	"time"

	"loadline/database"
	"loadline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSlotRepo implements Repository on MongoDB. Multi-record groups run
// inside a session transaction so a failed leg aborts the whole group.
type MongoSlotRepo struct {
	capacityColl *mongo.Collection
	bookingColl  *mongo.Collection
	orderColl    *mongo.Collection
}

func NewMongoSlotRepo() *MongoSlotRepo {
	db := database.DB()
	return &MongoSlotRepo{
		capacityColl: db.Collection("slot_capacity"),
		bookingColl:  db.Collection("slot_bookings"),
		orderColl:    db.Collection("orders"),
	}
}

func (repo *MongoSlotRepo) withTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	client := repo.capacityColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}

// --- reads ---

func (repo *MongoSlotRepo) GetCapacity(ctx context.Context, company, date, key string) (*models.SlotCapacity, error) {
	var rec models.SlotCapacity
	err := repo.capacityColl.FindOne(ctx, bson.M{"company": company, "date": date, "key": key}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch capacity record: %w", err)
	}
	return &rec, nil
}

func (repo *MongoSlotRepo) ListCapacity(ctx context.Context, company, date string) ([]models.SlotCapacity, error) {
	cur, err := repo.capacityColl.Find(ctx, bson.M{"company": company, "date": date})
	if err != nil {
		return nil, fmt.Errorf("failed to list capacity records: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.SlotCapacity
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode capacity records: %w", err)
	}
	return out, nil
}

func (repo *MongoSlotRepo) GetBooking(ctx context.Context, company, date, key string) (*models.Booking, error) {
	var b models.Booking
	err := repo.bookingColl.FindOne(ctx, bson.M{"company": company, "date": date, "key": key}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return &b, nil
}

func (repo *MongoSlotRepo) ListBookings(ctx context.Context, company, date string) ([]models.Booking, error) {
	filter := bson.M{
		"company": company,
		"date":    date,
		"key":     bson.M{"$regex": "^BOOKING#"},
	}
	cur, err := repo.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return out, nil
}

func (repo *MongoSlotRepo) HasOrderLock(ctx context.Context, company, date, orderID string) (bool, error) {
	filter := bson.M{"company": company, "date": date, "key": models.OrderLockKey(orderID)}
	n, err := repo.bookingColl.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check order lock: %w", err)
	}
	return n > 0, nil
}

func (repo *MongoSlotRepo) DeleteOrderLock(ctx context.Context, company, date, orderID string) error {
	_, err := repo.bookingColl.DeleteOne(ctx, bson.M{"company": company, "date": date, "key": models.OrderLockKey(orderID)})
	if err != nil {
		return fmt.Errorf("failed to delete order lock: %w", err)
	}
	return nil
}

// --- single-record writes ---

func (repo *MongoSlotRepo) WriteBucketTotals(ctx context.Context, bucket *models.SlotCapacity) error {
	bucket.UpdatedAt = time.Now().UTC()
	filter := bson.M{"company": bucket.Company, "date": bucket.Date, "key": bucket.Key}
	_, err := repo.capacityColl.ReplaceOne(ctx, filter, bucket, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write bucket totals: %w", err)
	}
	return nil
}

func (repo *MongoSlotRepo) SetBucketState(ctx context.Context, company, date, key, tripStatus string, blink bool) error {
	filter := bson.M{"company": company, "date": date, "key": key}
	update := bson.M{"$set": bson.M{"tripStatus": tripStatus, "blink": blink, "updatedAt": time.Now().UTC()}}
	res, err := repo.capacityColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set bucket state: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *MongoSlotRepo) DeleteCapacity(ctx context.Context, company, date, key string) error {
	_, err := repo.capacityColl.DeleteOne(ctx, bson.M{"company": company, "date": date, "key": key})
	if err != nil {
		return fmt.Errorf("failed to delete capacity record: %w", err)
	}
	return nil
}

func (repo *MongoSlotRepo) EnableFullSlot(ctx context.Context, company, date, slotTime, position string) error {
	key := models.FullSlotKey(slotTime, position)
	filter := bson.M{"company": company, "date": date, "key": key, "status": bson.M{"$ne": models.SlotBooked}}
	update := bson.M{
		"$set": bson.M{"status": models.SlotAvailable, "updatedAt": time.Now().UTC()},
		"$setOnInsert": bson.M{
			"company":      company,
			"date":         date,
			"key":          key,
			"time":         slotTime,
			"vehicleClass": models.VehicleFull,
			"position":     position,
		},
	}
	_, err := repo.capacityColl.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlotConflict
		}
		return fmt.Errorf("failed to enable slot: %w", err)
	}
	return nil
}

func (repo *MongoSlotRepo) ReleaseFullSlot(ctx context.Context, company, date, slotTime, position string) error {
	return repo.releaseSlot(ctx, company, date, slotTime, position)
}

// --- transactional groups ---

func (repo *MongoSlotRepo) ClaimFullSlot(ctx context.Context, claim FullClaim) error {
	now := time.Now().UTC()
	booking := &models.Booking{
		Company:         claim.Company,
		Date:            claim.Date,
		Key:             models.FullBookingKey(claim.SlotTime, claim.Position, claim.UserID),
		BookingID:       claim.OrderID,
		SlotTime:        claim.SlotTime,
		VehicleClass:    models.VehicleFull,
		Position:        claim.Position,
		OrderID:         claim.OrderID,
		UserID:          claim.UserID,
		DistributorCode: claim.DistributorCode,
		DistributorName: claim.DistributorName,
		Amount:          claim.Amount,
		Location:        claim.Location,
		Status:          models.BookingConfirmed,
		CreatedAt:       now,
	}

	return repo.withTxn(ctx, func(sc mongo.SessionContext) error {
		if !claim.SkipLock {
			if err := repo.insertLock(sc, claim.Company, claim.Date, claim.OrderID); err != nil {
				return err
			}
		}
		if err := repo.claimPosition(sc, claim); err != nil {
			return err
		}
		if _, err := repo.bookingColl.InsertOne(sc, booking); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrSlotConflict
			}
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	})
}

func (repo *MongoSlotRepo) RegisterHalfBooking(ctx context.Context, reg HalfRegistration) error {
	now := time.Now().UTC()
	booking := &models.Booking{
		Company:         reg.Company,
		Date:            reg.Date,
		Key:             models.HalfBookingKey(reg.SlotTime, reg.MergeKey, reg.UserID, reg.BookingID),
		BookingID:       reg.BookingID,
		SlotTime:        reg.SlotTime,
		VehicleClass:    models.VehicleHalf,
		OrderID:         reg.OrderID,
		UserID:          reg.UserID,
		DistributorCode: reg.DistributorCode,
		DistributorName: reg.DistributorName,
		Amount:          reg.Amount,
		Location:        reg.Location,
		MergeKey:        reg.MergeKey,
		LocationID:      reg.LocationID,
		Status:          models.BookingPendingConfirm,
		CreatedAt:       now,
	}

	return repo.withTxn(ctx, func(sc mongo.SessionContext) error {
		if err := repo.insertLock(sc, reg.Company, reg.Date, reg.OrderID); err != nil {
			return err
		}
		timeKey := models.MergeTimeKey(reg.SlotTime, reg.MergeKey)
		if err := repo.creditBucket(sc, reg.Company, reg.Date, timeKey, reg.SlotTime, reg.MergeKey, reg.LocationID, reg.Amount); err != nil {
			return err
		}
		dayKey := models.MergeDayKey(reg.MergeKey)
		if err := repo.creditBucket(sc, reg.Company, reg.Date, dayKey, "", reg.MergeKey, reg.LocationID, reg.Amount); err != nil {
			return err
		}
		if _, err := repo.bookingColl.InsertOne(sc, booking); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrBookingExists
			}
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	})
}

func (repo *MongoSlotRepo) ConfirmMerge(ctx context.Context, conf MergeConfirmation) error {
	now := time.Now().UTC()
	fullBooking := &models.Booking{
		Company:         conf.Company,
		Date:            conf.Date,
		Key:             models.FullBookingKey(conf.SlotTime, conf.Position, conf.MergeKey),
		BookingID:       conf.MasterOrder.OrderID,
		SlotTime:        conf.SlotTime,
		VehicleClass:    models.VehicleFull,
		Position:        conf.Position,
		OrderID:         conf.MasterOrder.OrderID,
		UserID:          conf.MergeKey,
		DistributorCode: conf.DistributorCode,
		DistributorName: conf.DistributorName,
		Amount:          conf.TotalAmount,
		MergeKey:        conf.MergeKey,
		Status:          models.BookingConfirmed,
		ConfirmedBy:     conf.ConfirmedBy,
		ConfirmedAt:     &now,
		CreatedAt:       now,
	}

	return repo.withTxn(ctx, func(sc mongo.SessionContext) error {
		claim := FullClaim{
			Company:         conf.Company,
			Date:            conf.Date,
			SlotTime:        conf.SlotTime,
			Position:        conf.Position,
			OrderID:         conf.MasterOrder.OrderID,
			DistributorCode: conf.DistributorCode,
			DistributorName: conf.DistributorName,
			Amount:          conf.TotalAmount,
			BookedBy:        conf.ConfirmedBy,
		}
		if err := repo.claimPosition(sc, claim); err != nil {
			return err
		}
		if _, err := repo.bookingColl.InsertOne(sc, fullBooking); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrSlotConflict
			}
			return fmt.Errorf("insert master booking failed: %w", err)
		}
		if _, err := repo.orderColl.InsertOne(sc, conf.MasterOrder); err != nil {
			return fmt.Errorf("insert master order failed: %w", err)
		}

		for _, child := range conf.Children {
			bFilter := bson.M{"company": conf.Company, "date": conf.Date, "key": child.BookingKey}
			bUpdate := bson.M{"$set": bson.M{
				"status":            models.BookingMerged,
				"mergedIntoOrderId": conf.MasterOrder.OrderID,
				"confirmedBy":       conf.ConfirmedBy,
				"confirmedAt":       now,
			}}
			if _, err := repo.bookingColl.UpdateOne(sc, bFilter, bUpdate); err != nil {
				return fmt.Errorf("mark child booking merged failed: %w", err)
			}
			oUpdate := bson.M{"$set": bson.M{
				"mergedIntoOrderId": conf.MasterOrder.OrderID,
				"updatedAt":         now,
			}}
			if _, err := repo.orderColl.UpdateOne(sc, bson.M{"orderId": child.OrderID}, oUpdate); err != nil {
				return fmt.Errorf("link child order failed: %w", err)
			}
		}

		for _, key := range conf.ConsumedBucketKeys {
			filter := bson.M{"company": conf.Company, "date": conf.Date, "key": key}
			update := bson.M{"$set": bson.M{
				"tripStatus":  models.TripFull,
				"blink":       false,
				"confirmedBy": conf.ConfirmedBy,
				"confirmedAt": now,
				"updatedAt":   now,
			}}
			if _, err := repo.capacityColl.UpdateOne(sc, filter, update); err != nil {
				return fmt.Errorf("close merge bucket failed: %w", err)
			}
		}
		return nil
	})
}

func (repo *MongoSlotRepo) CancelConfirmedMerge(ctx context.Context, canc MergeCancellation) error {
	now := time.Now().UTC()
	return repo.withTxn(ctx, func(sc mongo.SessionContext) error {
		if err := repo.releaseSlot(sc, canc.Company, canc.Date, canc.SlotTime, canc.Position); err != nil {
			return err
		}
		if canc.FullBookingKey != "" {
			filter := bson.M{"company": canc.Company, "date": canc.Date, "key": canc.FullBookingKey}
			if _, err := repo.bookingColl.DeleteOne(sc, filter); err != nil {
				return fmt.Errorf("delete master booking failed: %w", err)
			}
		}
		if _, err := repo.orderColl.DeleteOne(sc, bson.M{"orderId": canc.MasterOrderID}); err != nil {
			return fmt.Errorf("delete master order failed: %w", err)
		}

		for _, child := range canc.Children {
			bFilter := bson.M{"company": canc.Company, "date": canc.Date, "key": child.BookingKey}
			bUpdate := bson.M{
				"$set":   bson.M{"status": models.BookingPendingConfirm},
				"$unset": bson.M{"mergedIntoOrderId": "", "confirmedBy": "", "confirmedAt": ""},
			}
			if _, err := repo.bookingColl.UpdateOne(sc, bFilter, bUpdate); err != nil {
				return fmt.Errorf("reset child booking failed: %w", err)
			}
			oUpdate := bson.M{
				"$set": bson.M{"slotBooked": false, "updatedAt": now},
				"$unset": bson.M{
					"slotId": "", "slotDate": "", "slotTime": "", "slotVehicleClass": "",
					"slotPosition": "", "mergeKey": "", "tripStatus": "", "mergedIntoOrderId": "",
				},
			}
			if _, err := repo.orderColl.UpdateOne(sc, bson.M{"orderId": child.OrderID}, oUpdate); err != nil {
				return fmt.Errorf("reset child order failed: %w", err)
			}
			lockFilter := bson.M{"company": canc.Company, "date": canc.Date, "key": models.OrderLockKey(child.OrderID)}
			if _, err := repo.bookingColl.DeleteOne(sc, lockFilter); err != nil {
				return fmt.Errorf("delete child order lock failed: %w", err)
			}
		}

		for _, key := range canc.ResetBucketKeys {
			filter := bson.M{"company": canc.Company, "date": canc.Date, "key": key}
			update := bson.M{
				"$set":   bson.M{"tripStatus": models.TripPartial, "blink": true, "updatedAt": now},
				"$unset": bson.M{"confirmedBy": "", "confirmedAt": ""},
			}
			if _, err := repo.capacityColl.UpdateOne(sc, filter, update); err != nil {
				return fmt.Errorf("reset merge bucket failed: %w", err)
			}
		}
		return nil
	})
}

func (repo *MongoSlotRepo) CancelBooking(ctx context.Context, canc BookingCancellation) error {
	now := time.Now().UTC()
	return repo.withTxn(ctx, func(sc mongo.SessionContext) error {
		if canc.BookingKey != "" {
			filter := bson.M{"company": canc.Company, "date": canc.Date, "key": canc.BookingKey}
			if _, err := repo.bookingColl.DeleteOne(sc, filter); err != nil {
				return fmt.Errorf("delete booking failed: %w", err)
			}
		}
		if canc.ReleaseSlotTime != "" {
			if err := repo.releaseSlot(sc, canc.Company, canc.Date, canc.ReleaseSlotTime, canc.ReleasePosition); err != nil {
				return err
			}
		}
		for _, d := range canc.BucketDebits {
			if err := repo.debitBucket(sc, canc.Company, canc.Date, d); err != nil {
				return err
			}
		}

		resetIDs := make([]string, 0, 1+len(canc.ChildOrderIDs))
		if canc.OrderID != "" {
			resetIDs = append(resetIDs, canc.OrderID)
		}
		resetIDs = append(resetIDs, canc.ChildOrderIDs...)
		for _, oid := range resetIDs {
			oUpdate := bson.M{
				"$set": bson.M{"slotBooked": false, "updatedAt": now},
				"$unset": bson.M{
					"slotId": "", "slotDate": "", "slotTime": "", "slotVehicleClass": "",
					"slotPosition": "", "mergeKey": "", "tripStatus": "", "mergedIntoOrderId": "",
				},
			}
			if _, err := repo.orderColl.UpdateOne(sc, bson.M{"orderId": oid}, oUpdate); err != nil {
				return fmt.Errorf("reset order slot binding failed: %w", err)
			}
			lockFilter := bson.M{"company": canc.Company, "date": canc.Date, "key": models.OrderLockKey(oid)}
			if _, err := repo.bookingColl.DeleteOne(sc, lockFilter); err != nil {
				return fmt.Errorf("delete order lock failed: %w", err)
			}
		}

		if canc.DeleteMasterOrder && canc.MasterOrderID != "" {
			if _, err := repo.orderColl.DeleteOne(sc, bson.M{"orderId": canc.MasterOrderID}); err != nil {
				return fmt.Errorf("delete master order failed: %w", err)
			}
		}
		return nil
	})
}

func (repo *MongoSlotRepo) MoveBookingBucket(ctx context.Context, mv BucketMove) error {
	now := time.Now().UTC()
	return repo.withTxn(ctx, func(sc mongo.SessionContext) error {
		debits := []BucketDebit{
			{Key: models.MergeTimeKey(mv.SlotTime, mv.FromMergeKey), Amount: mv.Amount, Count: 1},
			{Key: models.MergeDayKey(mv.FromMergeKey), Amount: mv.Amount, Count: 1},
		}
		for _, d := range debits {
			if err := repo.debitBucket(sc, mv.Company, mv.Date, d); err != nil {
				return err
			}
		}
		timeKey := models.MergeTimeKey(mv.SlotTime, mv.ToMergeKey)
		if err := repo.creditBucket(sc, mv.Company, mv.Date, timeKey, mv.SlotTime, mv.ToMergeKey, "", mv.Amount); err != nil {
			return err
		}
		dayKey := models.MergeDayKey(mv.ToMergeKey)
		if err := repo.creditBucket(sc, mv.Company, mv.Date, dayKey, "", mv.ToMergeKey, "", mv.Amount); err != nil {
			return err
		}

		filter := bson.M{"company": mv.Company, "date": mv.Date, "key": mv.BookingKey}
		update := bson.M{"$set": bson.M{
			"key":      mv.NewBookingKey,
			"mergeKey": mv.ToMergeKey,
			"movedBy":  mv.MovedBy,
			"movedAt":  now,
		}}
		res, err := repo.bookingColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("rekey booking failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// --- transaction legs ---

func (repo *MongoSlotRepo) insertLock(sc mongo.SessionContext, company, date, orderID string) error {
	lock := models.OrderLock{
		Company:   company,
		Date:      date,
		Key:       models.OrderLockKey(orderID),
		OrderID:   orderID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := repo.bookingColl.InsertOne(sc, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrLockExists
		}
		return fmt.Errorf("insert order lock failed: %w", err)
	}
	return nil
}

// claimPosition flips a FULL position to BOOKED only while it is not already
// booked. A concurrent claim loses on either the filter or the unique key.
func (repo *MongoSlotRepo) claimPosition(sc mongo.SessionContext, claim FullClaim) error {
	key := models.FullSlotKey(claim.SlotTime, claim.Position)
	filter := bson.M{
		"company": claim.Company,
		"date":    claim.Date,
		"key":     key,
		"status":  bson.M{"$nin": bson.A{models.SlotBooked, models.SlotDisabled}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":          models.SlotBooked,
			"orderId":         claim.OrderID,
			"bookedBy":        claim.BookedBy,
			"distributorCode": claim.DistributorCode,
			"distributorName": claim.DistributorName,
			"amount":          claim.Amount,
			"updatedAt":       time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"company":      claim.Company,
			"date":         claim.Date,
			"key":          key,
			"time":         claim.SlotTime,
			"vehicleClass": models.VehicleFull,
			"position":     claim.Position,
		},
	}
	_, err := repo.capacityColl.UpdateOne(sc, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlotConflict
		}
		return fmt.Errorf("claim slot position failed: %w", err)
	}
	return nil
}

func (repo *MongoSlotRepo) releaseSlot(ctx context.Context, company, date, slotTime, position string) error {
	filter := bson.M{"company": company, "date": date, "key": models.FullSlotKey(slotTime, position)}
	update := bson.M{
		"$set": bson.M{"status": models.SlotAvailable, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{
			"orderId": "", "bookedBy": "", "distributorCode": "", "distributorName": "",
			"amount": "", "mergeKey": "", "confirmedBy": "", "confirmedAt": "",
		},
	}
	if _, err := repo.capacityColl.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("release slot position failed: %w", err)
	}
	return nil
}

func (repo *MongoSlotRepo) creditBucket(sc mongo.SessionContext, company, date, key, slotTime, mergeKey, locationID string, amount float64) error {
	filter := bson.M{"company": company, "date": date, "key": key}
	set := bson.M{"mergeKey": mergeKey, "updatedAt": time.Now().UTC()}
	if locationID != "" {
		set["locationId"] = locationID
	}
	update := bson.M{
		"$inc": bson.M{"totalAmount": amount, "bookingCount": 1},
		"$set": set,
		"$setOnInsert": bson.M{
			"company":      company,
			"date":         date,
			"key":          key,
			"time":         slotTime,
			"vehicleClass": models.VehicleHalf,
			"tripStatus":   models.TripPartial,
			"blink":        true,
		},
	}
	_, err := repo.capacityColl.UpdateOne(sc, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("credit merge bucket failed: %w", err)
	}
	return nil
}

// debitBucket decrements a bucket behind a sufficient-balance filter so two
// racing cancels cannot take the totals negative.
func (repo *MongoSlotRepo) debitBucket(sc mongo.SessionContext, company, date string, d BucketDebit) error {
	filter := bson.M{
		"company":      company,
		"date":         date,
		"key":          d.Key,
		"totalAmount":  bson.M{"$gte": d.Amount},
		"bookingCount": bson.M{"$gte": d.Count},
	}
	update := bson.M{
		"$inc": bson.M{"totalAmount": -d.Amount, "bookingCount": -d.Count},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := repo.capacityColl.UpdateOne(sc, filter, update)
	if err != nil {
		return fmt.Errorf("debit merge bucket failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrInsufficientBucket
	}
	return nil
}
