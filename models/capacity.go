package models

import (
	"fmt"
	"time"
)

// Slot statuses for FULL truck positions.
const (
	SlotAvailable = "AVAILABLE"
	SlotBooked    = "BOOKED"
	SlotDisabled  = "DISABLED"
)

// Trip statuses (readiness) for merge buckets, ordered by rank.
const (
	TripPartial = "PARTIAL"
	TripWaiting = "WAITING"
	TripReady   = "READY"
	TripFull    = "FULL"
)

// Vehicle classes.
const (
	VehicleFull = "FULL"
	VehicleHalf = "HALF"
)

// AllPositions is the fixed set of truck positions per slot time.
var AllPositions = []string{"A", "B", "C", "D"}

// SlotCapacity is one record in the capacity store. Depending on Key it is
// either a FULL truck position (time x position) or a merge roll-up bucket
// (time-scoped or day-scoped per merge key).
type SlotCapacity struct {
	Company string `bson:"company" json:"company"`
	Date    string `bson:"date" json:"date"` // YYYY-MM-DD
	Key     string `bson:"key" json:"key"`

	Time         string `bson:"time,omitempty" json:"time,omitempty"`
	VehicleClass string `bson:"vehicleClass,omitempty" json:"vehicleClass,omitempty"`
	Position     string `bson:"position,omitempty" json:"position,omitempty"`

	// FULL slot occupancy.
	Status          string  `bson:"status,omitempty" json:"status,omitempty"`
	OrderID         string  `bson:"orderId,omitempty" json:"orderId,omitempty"`
	BookedBy        string  `bson:"bookedBy,omitempty" json:"bookedBy,omitempty"`
	DistributorCode string  `bson:"distributorCode,omitempty" json:"distributorCode,omitempty"`
	DistributorName string  `bson:"distributorName,omitempty" json:"distributorName,omitempty"`
	Amount          float64 `bson:"amount,omitempty" json:"amount,omitempty"`

	// Merge bucket roll-up.
	MergeKey     string     `bson:"mergeKey,omitempty" json:"mergeKey,omitempty"`
	LocationID   string     `bson:"locationId,omitempty" json:"locationId,omitempty"`
	Location     *GeoPoint  `bson:"location,omitempty" json:"location,omitempty"`
	TotalAmount  float64    `bson:"totalAmount,omitempty" json:"totalAmount,omitempty"`
	BookingCount int        `bson:"bookingCount,omitempty" json:"bookingCount,omitempty"`
	TripStatus   string     `bson:"tripStatus,omitempty" json:"tripStatus,omitempty"`
	Blink        bool       `bson:"blink,omitempty" json:"blink,omitempty"`
	ConfirmedBy  string     `bson:"confirmedBy,omitempty" json:"confirmedBy,omitempty"`
	ConfirmedAt  *time.Time `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`

	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FullSlotKey is the capacity key for a FULL truck position.
func FullSlotKey(slotTime, position string) string {
	return fmt.Sprintf("SLOT#%s#TYPE#FULL#POS#%s", slotTime, position)
}

// MergeTimeKey is the capacity key for the time-scoped merge bucket.
func MergeTimeKey(slotTime, mergeKey string) string {
	return fmt.Sprintf("MERGE_SLOT#%s#KEY#%s", slotTime, mergeKey)
}

// MergeDayKey is the capacity key for the day-scoped merge bucket.
func MergeDayKey(mergeKey string) string {
	return fmt.Sprintf("MERGE_DAY#KEY#%s", mergeKey)
}

// SlotID is the externally visible identity of a booked FULL slot.
func SlotID(company, date, slotTime, position string) string {
	return fmt.Sprintf("%s#%s#%s#FULL#%s", company, date, slotTime, position)
}
