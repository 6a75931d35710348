package rulesRepo

import (
	"context"
	"errors"

	"loadline/models"
)

var ErrNotFound = errors.New("dispatch rules not found")

// Repository stores per-company dispatch rules.
type Repository interface {
	Get(ctx context.Context, companyCode string) (*models.DispatchRules, error)
	Upsert(ctx context.Context, rules *models.DispatchRules) error
}
