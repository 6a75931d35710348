package quotaRepo

import (
	"context"
	"errors"

	"loadline/models"
)

// ErrGoalExceeded reports that a deduction would take a goal below zero.
var ErrGoalExceeded = errors.New("monthly goal exceeded")

// Repository stores per-distributor monthly product goals.
type Repository interface {
	List(ctx context.Context, distributorCode, month string) ([]models.MonthlyGoal, error)
	// Deduct decrements the remaining quota, seeding the record with the
	// default goal on first touch. It fails with ErrGoalExceeded rather
	// than going negative.
	Deduct(ctx context.Context, distributorCode, month, productCode string, qty int) error
	// AddBack restores quota after a cancellation; used quantity never
	// drops below zero.
	AddBack(ctx context.Context, distributorCode, month, productCode string, qty int) error
	SetGoal(ctx context.Context, distributorCode, month, productCode string, goalQty int) error
}
