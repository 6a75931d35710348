package quota

import (
	"context"
	"time"

	quotaRepo "loadline/database/repository/quota"
	"loadline/models"
	"loadline/services/slot"
	"loadline/utils"

	"go.uber.org/zap"
)

// MonthKey is the YYYY-MM bucket goals are tracked under.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// Service enforces per-distributor monthly product quotas. Order creation
// deducts, cancellation adds back; a deduction that would exceed the goal
// blocks the order.
type Service interface {
	DeductForOrder(ctx context.Context, distributorCode string, items []models.OrderItem) error
	AddBackForOrder(ctx context.Context, distributorCode string, items []models.OrderItem) error
	ListGoals(ctx context.Context, distributorCode, month string) ([]models.MonthlyGoal, error)
	SetGoal(ctx context.Context, distributorCode, month, productCode string, goalQty int) error
}

type DefaultQuotaService struct {
	Repo quotaRepo.Repository
}

func NewDefaultQuotaService(repo quotaRepo.Repository) *DefaultQuotaService {
	return &DefaultQuotaService{Repo: repo}
}

func (s *DefaultQuotaService) DeductForOrder(ctx context.Context, distributorCode string, items []models.OrderItem) error {
	month := MonthKey(time.Now())
	deducted := make([]models.OrderItem, 0, len(items))

	for _, it := range items {
		if it.ProductCode == "" || it.Qty <= 0 {
			continue
		}
		if err := s.Repo.Deduct(ctx, distributorCode, month, it.ProductCode, it.Qty); err != nil {
			// Roll back the items already taken so a partial order does
			// not eat quota.
			for _, d := range deducted {
				if aerr := s.Repo.AddBack(ctx, distributorCode, month, d.ProductCode, d.Qty); aerr != nil {
					utils.GetLogger().Error("quota rollback failed",
						zap.String("distributor", distributorCode),
						zap.String("product", d.ProductCode),
						zap.Error(aerr))
				}
			}
			if err == quotaRepo.ErrGoalExceeded {
				return slot.Errorf(slot.KindConflict, "monthly goal exceeded for product %s", it.ProductCode)
			}
			return err
		}
		deducted = append(deducted, it)
	}
	return nil
}

func (s *DefaultQuotaService) AddBackForOrder(ctx context.Context, distributorCode string, items []models.OrderItem) error {
	month := MonthKey(time.Now())
	for _, it := range items {
		if it.ProductCode == "" || it.Qty <= 0 {
			continue
		}
		if err := s.Repo.AddBack(ctx, distributorCode, month, it.ProductCode, it.Qty); err != nil {
			return err
		}
	}
	return nil
}

func (s *DefaultQuotaService) ListGoals(ctx context.Context, distributorCode, month string) ([]models.MonthlyGoal, error) {
	if month == "" {
		month = MonthKey(time.Now())
	}
	return s.Repo.List(ctx, distributorCode, month)
}

func (s *DefaultQuotaService) SetGoal(ctx context.Context, distributorCode, month, productCode string, goalQty int) error {
	if goalQty < 0 {
		return slot.Errorf(slot.KindInvalidInput, "goal quantity cannot be negative")
	}
	if month == "" {
		month = MonthKey(time.Now())
	}
	return s.Repo.SetGoal(ctx, distributorCode, month, productCode, goalQty)
}
