package models

import "time"

// TimelineEvent is one immutable entry in the per-order (or per-slot)
// event ledger. Events are only ever appended.
type TimelineEvent struct {
	Subject string `bson:"subject" json:"subject"` // ORDER#<id> or SLOT#<id>
	OrderID string `bson:"orderId,omitempty" json:"orderId,omitempty"`
	SlotID  string `bson:"slotId,omitempty" json:"slotId,omitempty"`

	Event string `bson:"event" json:"event"`
	Step  string `bson:"step" json:"step"`

	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
	DisplayTime string    `bson:"displayTime" json:"displayTime"`

	By         string `bson:"by" json:"by"`
	ByUserName string `bson:"byUserName,omitempty" json:"byUserName,omitempty"`
	Role       string `bson:"role,omitempty" json:"role,omitempty"`

	DistributorName string  `bson:"distributorName,omitempty" json:"distributorName,omitempty"`
	Amount          float64 `bson:"amount,omitempty" json:"amount,omitempty"`

	// EventID, when supplied by the caller, makes the append idempotent.
	EventID string                 `bson:"eventId,omitempty" json:"eventId,omitempty"`
	Data    map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
