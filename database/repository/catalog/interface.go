package catalogRepo

import (
	"context"
	"errors"

	"loadline/models"
)

var ErrNotFound = errors.New("distributor not found")

// Repository stores the distributor catalog.
type Repository interface {
	Get(ctx context.Context, companyCode, code string) (*models.Distributor, error)
	List(ctx context.Context, companyCode string) ([]models.Distributor, error)
	Upsert(ctx context.Context, d *models.Distributor) error
}
