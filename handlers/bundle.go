package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Slot endpoints
	BookSlotHandler             gin.HandlerFunc
	CancelBookingHandler        gin.HandlerFunc
	ConfirmMergeHandler         gin.HandlerFunc
	CancelConfirmedMergeHandler gin.HandlerFunc
	MoveBookingHandler          gin.HandlerFunc
	GridHandler                 gin.HandlerFunc
	RecomputeHandler            gin.HandlerFunc
	EnableSlotHandler           gin.HandlerFunc

	// Driver endpoints
	DriverUpdateStatusHandler  gin.HandlerFunc
	DriverValidateReachHandler gin.HandlerFunc
	DriverListOrdersHandler    gin.HandlerFunc
	DriverGetOrderHandler      gin.HandlerFunc

	// Timeline endpoints
	AppendEventHandler   gin.HandlerFunc
	OrderTimelineHandler gin.HandlerFunc
	SlotTimelineHandler  gin.HandlerFunc

	// Order endpoints
	CreateOrderHandler  gin.HandlerFunc
	GetOrderHandler     gin.HandlerFunc
	AssignDriverHandler gin.HandlerFunc
	CancelOrderHandler  gin.HandlerFunc
	ListGoalsHandler    gin.HandlerFunc
	SetGoalHandler      gin.HandlerFunc

	// Admin endpoints
	GetRulesHandler          gin.HandlerFunc
	UpdateRulesHandler       gin.HandlerFunc
	OpenNightSlotsHandler    gin.HandlerFunc
	ListDistributorsHandler  gin.HandlerFunc
	UpsertDistributorHandler gin.HandlerFunc
}
