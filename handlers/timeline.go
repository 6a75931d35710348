package handlers

import (
	"net/http"

	"loadline/middleware"
	"loadline/services/timeline"

	"github.com/gin-gonic/gin"
)

// TimelineHandler exposes the order/slot event ledger.
type TimelineHandler struct {
	Svc timeline.Service
}

func NewTimelineHandler(svc timeline.Service) *TimelineHandler {
	return &TimelineHandler{Svc: svc}
}

// AppendEventHandler handles POST /api/timeline.
func (h *TimelineHandler) AppendEventHandler(c *gin.Context) {
	var input struct {
		OrderID string                 `json:"orderId"`
		SlotID  string                 `json:"slotId"`
		Event   string                 `json:"event" binding:"required"`
		Step    string                 `json:"step"`
		EventID string                 `json:"eventId"`
		Amount  float64                `json:"amount"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	userID, userName, role, _ := middleware.Actor(c)
	ev, err := h.Svc.Append(c.Request.Context(), timeline.AppendRequest{
		OrderID:    input.OrderID,
		SlotID:     input.SlotID,
		Event:      input.Event,
		Step:       input.Step,
		By:         userID,
		ByUserName: userName,
		Role:       role,
		Amount:     input.Amount,
		EventID:    input.EventID,
		Data:       input.Data,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// OrderTimelineHandler handles GET /api/timeline/order/:orderId.
func (h *TimelineHandler) OrderTimelineHandler(c *gin.Context) {
	resolved, events, err := h.Svc.ListByOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": resolved, "events": events})
}

// SlotTimelineHandler handles GET /api/timeline/slot/:slotId.
func (h *TimelineHandler) SlotTimelineHandler(c *gin.Context) {
	events, err := h.Svc.ListBySlot(c.Request.Context(), c.Param("slotId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
