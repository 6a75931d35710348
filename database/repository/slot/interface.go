package slotRepo

import (
	"context"
	"errors"

	"loadline/models"
)

// Sentinel errors. Store-specific conflict codes are translated to these at
// the repository boundary and never leak past it.
var (
	ErrSlotConflict       = errors.New("slot already booked")
	ErrLockExists         = errors.New("order lock already exists")
	ErrBookingExists      = errors.New("booking already exists")
	ErrInsufficientBucket = errors.New("bucket balance insufficient")
	ErrNotFound           = errors.New("record not found")
)

// FullClaim is the atomic group that books a FULL truck position for one
// order: order lock + conditional slot claim + booking record.
type FullClaim struct {
	Company  string
	Date     string
	SlotTime string
	Position string

	OrderID         string
	UserID          string
	DistributorCode string
	DistributorName string
	Amount          float64
	Location        *models.GeoPoint
	BookedBy        string

	// Master orders never carry a lock; locks belong to customer orders.
	SkipLock bool
}

// HalfRegistration is the atomic group that registers a partial-load
// booking: order lock + time bucket credit + day bucket credit + booking.
type HalfRegistration struct {
	Company  string
	Date     string
	SlotTime string

	OrderID         string
	UserID          string
	BookingID       string
	DistributorCode string
	DistributorName string
	Amount          float64
	Location        *models.GeoPoint

	MergeKey   string
	LocationID string
}

// ChildMark identifies one contributing HALF booking and its order inside a
// merge confirmation or cancellation.
type ChildMark struct {
	BookingKey string
	OrderID    string
}

// MergeConfirmation is the atomic group of a confirm-merge: the slot claim
// is the first mutation; either the whole merge commits or none of it does.
type MergeConfirmation struct {
	Company  string
	Date     string
	SlotTime string
	Position string

	MasterOrder     *models.Order
	DistributorCode string
	DistributorName string
	TotalAmount     float64
	MergeKey        string
	ConfirmedBy     string

	Children []ChildMark

	// Buckets marked consumed (trip status FULL, blink off). The day bucket
	// plus every time bucket sharing the merge key.
	ConsumedBucketKeys []string
}

// MergeCancellation reverses a MergeConfirmation exactly.
type MergeCancellation struct {
	Company  string
	Date     string
	SlotTime string
	Position string

	MasterOrderID  string
	FullBookingKey string
	Children       []ChildMark

	// Buckets reset to PARTIAL/blinking, pending the authoritative recompute.
	ResetBucketKeys []string
}

// BucketDebit is one leg of a bucket decrement, guarded by a sufficient
// balance precondition so a racing cancel cannot drive the bucket negative.
type BucketDebit struct {
	Key    string
	Amount float64
	Count  int
}

// BookingCancellation removes a single booking (FULL or HALF) before
// confirmation, together with its lock and order resets.
type BookingCancellation struct {
	Company string
	Date    string

	BookingKey string
	OrderID    string

	// FULL cancels release the occupied position.
	ReleaseSlotTime string
	ReleasePosition string

	// When the cancelled order is a master, its children cascade-reset.
	ChildOrderIDs     []string
	DeleteMasterOrder bool
	MasterOrderID     string

	// HALF cancels debit their time and day buckets.
	BucketDebits []BucketDebit
}

// BucketMove shifts one booking between merge keys, debiting the source
// buckets and crediting the destination buckets in one transaction.
type BucketMove struct {
	Company  string
	Date     string
	SlotTime string

	BookingKey    string
	NewBookingKey string
	FromMergeKey  string
	ToMergeKey    string
	Amount        float64
	MovedBy       string
}

// Repository is the transactional store behind the capacity grid, bookings
// and order locks. Every method that names a multi-record group applies all
// of its writes or none of them.
type Repository interface {
	GetCapacity(ctx context.Context, company, date, key string) (*models.SlotCapacity, error)
	ListCapacity(ctx context.Context, company, date string) ([]models.SlotCapacity, error)
	// WriteBucketTotals rewrites a merge bucket from a recompute; it is the
	// authoritative write path for bucket state.
	WriteBucketTotals(ctx context.Context, bucket *models.SlotCapacity) error
	SetBucketState(ctx context.Context, company, date, key, tripStatus string, blink bool) error
	DeleteCapacity(ctx context.Context, company, date, key string) error
	EnableFullSlot(ctx context.Context, company, date, slotTime, position string) error

	GetBooking(ctx context.Context, company, date, key string) (*models.Booking, error)
	ListBookings(ctx context.Context, company, date string) ([]models.Booking, error)
	HasOrderLock(ctx context.Context, company, date, orderID string) (bool, error)
	DeleteOrderLock(ctx context.Context, company, date, orderID string) error

	ClaimFullSlot(ctx context.Context, claim FullClaim) error
	ReleaseFullSlot(ctx context.Context, company, date, slotTime, position string) error
	RegisterHalfBooking(ctx context.Context, reg HalfRegistration) error
	ConfirmMerge(ctx context.Context, conf MergeConfirmation) error
	CancelConfirmedMerge(ctx context.Context, canc MergeCancellation) error
	CancelBooking(ctx context.Context, canc BookingCancellation) error
	MoveBookingBucket(ctx context.Context, mv BucketMove) error
}
