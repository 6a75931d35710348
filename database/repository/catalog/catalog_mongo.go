package catalogRepo

import (
	"context"
	"fmt"

	"loadline/database"
	"loadline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCatalogRepo struct {
	coll *mongo.Collection
}

func NewMongoCatalogRepo() *MongoCatalogRepo {
	return &MongoCatalogRepo{coll: database.DB().Collection("distributors")}
}

func (repo *MongoCatalogRepo) Get(ctx context.Context, companyCode, code string) (*models.Distributor, error) {
	var d models.Distributor
	err := repo.coll.FindOne(ctx, bson.M{"companyCode": companyCode, "code": code}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch distributor: %w", err)
	}
	return &d, nil
}

func (repo *MongoCatalogRepo) List(ctx context.Context, companyCode string) ([]models.Distributor, error) {
	cur, err := repo.coll.Find(ctx, bson.M{"companyCode": companyCode})
	if err != nil {
		return nil, fmt.Errorf("failed to list distributors: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Distributor
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode distributors: %w", err)
	}
	return out, nil
}

func (repo *MongoCatalogRepo) Upsert(ctx context.Context, d *models.Distributor) error {
	filter := bson.M{"companyCode": d.CompanyCode, "code": d.Code}
	_, err := repo.coll.ReplaceOne(ctx, filter, d, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert distributor: %w", err)
	}
	return nil
}
