package models

import (
	"fmt"
	"time"
)

// Booking statuses.
const (
	BookingPendingConfirm = "PENDING_CONFIRM"
	BookingWaitingConfirm = "WAITING_CONFIRM"
	BookingConfirmed      = "CONFIRMED"
	BookingMerged         = "MERGED"
)

// Booking is one slot booking record: a FULL booking occupying a truck
// position, or a HALF booking awaiting aggregation under its merge key.
type Booking struct {
	Company string `bson:"company" json:"company"`
	Date    string `bson:"date" json:"date"`
	Key     string `bson:"key" json:"key"`

	BookingID    string `bson:"bookingId" json:"bookingId"`
	SlotTime     string `bson:"slotTime" json:"slotTime"`
	VehicleClass string `bson:"vehicleClass" json:"vehicleClass"`
	Position     string `bson:"position,omitempty" json:"position,omitempty"`

	OrderID         string    `bson:"orderId" json:"orderId"`
	UserID          string    `bson:"userId" json:"userId"`
	DistributorCode string    `bson:"distributorCode" json:"distributorCode"`
	DistributorName string    `bson:"distributorName,omitempty" json:"distributorName,omitempty"`
	Amount          float64   `bson:"amount" json:"amount"`
	Location        *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`

	// HALF bookings only.
	MergeKey   string `bson:"mergeKey,omitempty" json:"mergeKey,omitempty"`
	LocationID string `bson:"locationId,omitempty" json:"locationId,omitempty"`

	Status            string     `bson:"status" json:"status"`
	MergedIntoOrderID string     `bson:"mergedIntoOrderId,omitempty" json:"mergedIntoOrderId,omitempty"`
	ConfirmedBy       string     `bson:"confirmedBy,omitempty" json:"confirmedBy,omitempty"`
	ConfirmedAt       *time.Time `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	MovedBy           string     `bson:"movedBy,omitempty" json:"movedBy,omitempty"`
	MovedAt           *time.Time `bson:"movedAt,omitempty" json:"movedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Live reports whether the booking still contributes to its merge bucket:
// merged and cancelled bookings no longer count.
func (b *Booking) Live() bool {
	switch b.Status {
	case BookingPendingConfirm, BookingWaitingConfirm:
		return true
	}
	return false
}

// FullBookingKey is the record key for a FULL booking.
func FullBookingKey(slotTime, position, userID string) string {
	return fmt.Sprintf("BOOKING#%s#TYPE#FULL#POS#%s#USER#%s", slotTime, position, userID)
}

// HalfBookingKey is the record key for a HALF booking.
func HalfBookingKey(slotTime, mergeKey, userID, bookingID string) string {
	return fmt.Sprintf("BOOKING#%s#KEY#%s#USER#%s#%s", slotTime, mergeKey, userID, bookingID)
}

// OrderLock guards against double-booking one order. At most one live lock
// exists per order id; its uniqueness is enforced by the store.
type OrderLock struct {
	Company   string    `bson:"company" json:"company"`
	Date      string    `bson:"date" json:"date"`
	Key       string    `bson:"key" json:"key"`
	OrderID   string    `bson:"orderId" json:"orderId"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// OrderLockKey is the record key for an order lock.
func OrderLockKey(orderID string) string {
	return fmt.Sprintf("ORDERLOCK#%s", orderID)
}
