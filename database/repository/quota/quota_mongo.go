package quotaRepo

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

type MongoQuotaRepo struct {
	coll *mongo.Collection
}

func NewMongoQuotaRepo() *MongoQuotaRepo {
	return &MongoQuotaRepo{coll: database.DB().Collection("monthly_goals")}
}

func goalFilter(distributorCode, month, productCode string) bson.M {
	return bson.M{"distributorCode": distributorCode, "month": month, "productCode": productCode}
}

func (repo *MongoQuotaRepo) List(ctx context.Context, distributorCode, month string) ([]models.MonthlyGoal, error) {
	cur, err := repo.coll.Find(ctx, bson.M{"distributorCode": distributorCode, "month": month})
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly goals: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.MonthlyGoal
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode monthly goals: %w", err)
	}
	return out, nil
}

func (repo *MongoQuotaRepo) ensure(ctx context.Context, distributorCode, month, productCode string) error {
	update := bson.M{
		"$setOnInsert": models.MonthlyGoal{
			DistributorCode: distributorCode,
			Month:           month,
			ProductCode:     productCode,
			GoalQty:         models.DefaultMonthlyGoalQty,
			UsedQty:         0,
			RemainingQty:    models.DefaultMonthlyGoalQty,
			UpdatedAt:       time.Now().UTC(),
		},
	}
	_, err := repo.coll.UpdateOne(ctx, goalFilter(distributorCode, month, productCode), update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to seed monthly goal: %w", err)
	}
	return nil
}

func (repo *MongoQuotaRepo) Deduct(ctx context.Context, distributorCode, month, productCode string, qty int) error {
	if qty <= 0 {
		return nil
	}
	if err := repo.ensure(ctx, distributorCode, month, productCode); err != nil {
		return err
	}

	filter := goalFilter(distributorCode, month, productCode)
	filter["remainingQty"] = bson.M{"$gte": qty}
	update := bson.M{
		"$inc": bson.M{"usedQty": qty, "remainingQty": -qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to deduct monthly goal: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrGoalExceeded
	}
	return nil
}

func (repo *MongoQuotaRepo) AddBack(ctx context.Context, distributorCode, month, productCode string, qty int) error {
	if qty <= 0 {
		return nil
	}
	if err := repo.ensure(ctx, distributorCode, month, productCode); err != nil {
		return err
	}

	// Two steps: restore remaining, then clamp used at zero.
	update := bson.M{
		"$inc": bson.M{"remainingQty": qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	if _, err := repo.coll.UpdateOne(ctx, goalFilter(distributorCode, month, productCode), update); err != nil {
		return fmt.Errorf("failed to restore monthly goal: %w", err)
	}

	clampFilter := goalFilter(distributorCode, month, productCode)
	clampFilter["usedQty"] = bson.M{"$gte": qty}
	res, err := repo.coll.UpdateOne(ctx, clampFilter, bson.M{"$inc": bson.M{"usedQty": -qty}})
	if err != nil {
		return fmt.Errorf("failed to adjust used quantity: %w", err)
	}
	if res.MatchedCount == 0 {
		_, err = repo.coll.UpdateOne(ctx, goalFilter(distributorCode, month, productCode), bson.M{"$set": bson.M{"usedQty": 0}})
		if err != nil {
			return fmt.Errorf("failed to clamp used quantity: %w", err)
		}
	}
	return nil
}

func (repo *MongoQuotaRepo) SetGoal(ctx context.Context, distributorCode, month, productCode string, goalQty int) error {
	update := bson.M{
		"$set": bson.M{"goalQty": goalQty, "updatedAt": time.Now().UTC()},
		"$setOnInsert": bson.M{
			"usedQty":      0,
			"remainingQty": goalQty,
		},
	}
	_, err := repo.coll.UpdateOne(ctx, goalFilter(distributorCode, month, productCode), update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set monthly goal: %w", err)
	}
	return nil
}
