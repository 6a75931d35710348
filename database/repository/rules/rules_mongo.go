package rulesRepo

import (
	"context"
	"fmt"

	"loadline/database"
	"loadline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRulesRepo struct {
	coll *mongo.Collection
}

func NewMongoRulesRepo() *MongoRulesRepo {
	return &MongoRulesRepo{coll: database.DB().Collection("dispatch_rules")}
}

func (repo *MongoRulesRepo) Get(ctx context.Context, companyCode string) (*models.DispatchRules, error) {
	var r models.DispatchRules
	err := repo.coll.FindOne(ctx, bson.M{"companyCode": companyCode}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dispatch rules: %w", err)
	}
	return &r, nil
}

func (repo *MongoRulesRepo) Upsert(ctx context.Context, rules *models.DispatchRules) error {
	filter := bson.M{"companyCode": rules.CompanyCode}
	_, err := repo.coll.ReplaceOne(ctx, filter, rules, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert dispatch rules: %w", err)
	}
	return nil
}
