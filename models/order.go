package models

import (
	"strings"
	"time"
)

// Delivery statuses (canonical, stop-indexed where applicable).
const (
	StatusCreated           = "CREATED"
	StatusCancelled         = "CANCELLED"
	StatusDriverAssigned    = "DRIVER_ASSIGNED"
	StatusDriverStarted     = "DRIVER_STARTED"
	StatusWarehouseReached  = "WAREHOUSE_REACHED"
	StatusDeliveryCompleted = "DELIVERY_COMPLETED"
)

// OrderKind distinguishes leaf (customer) orders from synthetic master
// orders created by the merge engine.
type OrderKind int

const (
	LeafOrder OrderKind = iota
	MasterOrder
)

// MasterOrderPrefix keeps the master-order identifier space recognizable to
// external systems. Code should branch on Kind(), not on the prefix.
const MasterOrderPrefix = "ORD-FULL-"

// OrderItem is a single line on an order or stop.
type OrderItem struct {
	ProductCode string  `bson:"productCode" json:"productCode"`
	ProductName string  `bson:"productName,omitempty" json:"productName,omitempty"`
	Qty         int     `bson:"qty" json:"qty"`
	Amount      float64 `bson:"amount" json:"amount"`
}

// Stop is one delivery stop on an order's route.
type Stop struct {
	DistributorCode string      `bson:"distributorCode" json:"distributorCode"`
	DistributorName string      `bson:"distributorName,omitempty" json:"distributorName,omitempty"`
	Location        *GeoPoint   `bson:"location,omitempty" json:"location,omitempty"`
	Items           []OrderItem `bson:"items,omitempty" json:"items,omitempty"`
	ReachedAt       *time.Time  `bson:"reachedAt,omitempty" json:"reachedAt,omitempty"`
	UnloadStartAt   *time.Time  `bson:"unloadStartAt,omitempty" json:"unloadStartAt,omitempty"`
	UnloadEndAt     *time.Time  `bson:"unloadEndAt,omitempty" json:"unloadEndAt,omitempty"`
}

// Order carries the dispatch-relevant view of a sales order. Master orders
// are created only by the merge engine and additionally carry their child
// order ids.
type Order struct {
	OrderID     string `bson:"orderId" json:"orderId"`
	CompanyCode string `bson:"companyCode" json:"companyCode"`

	DistributorCode string      `bson:"distributorCode,omitempty" json:"distributorCode,omitempty"`
	DistributorName string      `bson:"distributorName,omitempty" json:"distributorName,omitempty"`
	LocationID      string      `bson:"locationId,omitempty" json:"locationId,omitempty"`
	Items           []OrderItem `bson:"items,omitempty" json:"items,omitempty"`
	TotalAmount     float64     `bson:"totalAmount" json:"totalAmount"`
	Status          string      `bson:"status" json:"status"`

	// Slot binding.
	SlotBooked       bool   `bson:"slotBooked" json:"slotBooked"`
	SlotID           string `bson:"slotId,omitempty" json:"slotId,omitempty"`
	SlotDate         string `bson:"slotDate,omitempty" json:"slotDate,omitempty"`
	SlotTime         string `bson:"slotTime,omitempty" json:"slotTime,omitempty"`
	SlotVehicleClass string `bson:"slotVehicleClass,omitempty" json:"slotVehicleClass,omitempty"`
	SlotPosition     string `bson:"slotPosition,omitempty" json:"slotPosition,omitempty"`
	MergeKey         string `bson:"mergeKey,omitempty" json:"mergeKey,omitempty"`
	TripStatus       string `bson:"tripStatus,omitempty" json:"tripStatus,omitempty"`

	// Merge linkage.
	MergedIntoOrderID string     `bson:"mergedIntoOrderId,omitempty" json:"mergedIntoOrderId,omitempty"`
	IsMerged          bool       `bson:"isMerged,omitempty" json:"isMerged,omitempty"`
	MergedOrderIDs    []string   `bson:"mergedOrderIds,omitempty" json:"mergedOrderIds,omitempty"`
	MergedAt          *time.Time `bson:"mergedAt,omitempty" json:"mergedAt,omitempty"`

	// Delivery.
	DriverID         string `bson:"driverId,omitempty" json:"driverId,omitempty"`
	DriverName       string `bson:"driverName,omitempty" json:"driverName,omitempty"`
	VehicleNumber    string `bson:"vehicleNumber,omitempty" json:"vehicleNumber,omitempty"`
	Stops            []Stop `bson:"stops,omitempty" json:"stops,omitempty"`
	CurrentStopIndex int    `bson:"currentStopIndex" json:"currentStopIndex"`
	TripClosed       bool   `bson:"tripClosed,omitempty" json:"tripClosed,omitempty"`

	GoalDeducted bool      `bson:"goalDeducted,omitempty" json:"goalDeducted,omitempty"`
	CreatedBy    string    `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Kind resolves the order variant once at load time, replacing identifier
// prefix sniffing throughout the codebase.
func (o *Order) Kind() OrderKind {
	if o.IsMerged || len(o.MergedOrderIDs) > 0 {
		return MasterOrder
	}
	return LeafOrder
}

// NormalizeStatus maps legacy aliases onto the canonical status names.
func NormalizeStatus(s string) string {
	x := strings.ToUpper(strings.TrimSpace(s))
	if x == "DRIVE_STARTED" {
		return StatusDriverStarted
	}
	return x
}
