package orderRepo

import (
	"context"
	"errors"

	"loadline/models"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrStaleStatus   = errors.New("order status changed concurrently")
	ErrAlreadyExists = errors.New("order already exists")
)

// SlotBinding is the slot-side state stamped onto an order when a booking
// succeeds.
type SlotBinding struct {
	SlotID       string
	SlotDate     string
	SlotTime     string
	VehicleClass string
	Position     string
	MergeKey     string
	TripStatus   string
}

// DeliveryUpdate is a compare-and-set delivery mutation: it applies only
// while the stored status still equals ExpectedStatus.
type DeliveryUpdate struct {
	OrderID        string
	ExpectedStatus string
	NewStatus      string

	// Optional stop mutations, applied alongside the status flip.
	StopIndex        int
	SetReachedAt     bool
	SetUnloadStartAt bool
	SetUnloadEndAt   bool
	AdvanceStop      bool
	AdvanceStopTo    int
	CloseTrip        bool
}

// Repository stores sales orders and master orders.
type Repository interface {
	Get(ctx context.Context, orderID string) (*models.Order, error)
	Insert(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, orderID string) error
	ListByCompanyDate(ctx context.Context, company, date string) ([]models.Order, error)
	ListByDriver(ctx context.Context, driverID string, activeOnly bool) ([]models.Order, error)

	BindSlot(ctx context.Context, orderID string, binding SlotBinding) error
	ClearSlot(ctx context.Context, orderID string) error
	SetTripStatus(ctx context.Context, orderID, tripStatus string) error
	SetMergeKey(ctx context.Context, orderID, mergeKey string) error

	SetStops(ctx context.Context, orderID string, stops []models.Stop) error
	AssignDriver(ctx context.Context, orderID, driverID, driverName, vehicleNumber string) error
	ApplyDeliveryUpdate(ctx context.Context, upd DeliveryUpdate) error

	SetGoalDeducted(ctx context.Context, orderID string, deducted bool) error
}
