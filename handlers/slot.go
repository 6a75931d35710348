package handlers

import (
	"net/http"

	"loadline/middleware"
	"loadline/models"
	"loadline/services/slot"

	"github.com/gin-gonic/gin"
)

// SlotHandler exposes the booking and merge engine.
type SlotHandler struct {
	Svc slot.Service
}

func NewSlotHandler(svc slot.Service) *SlotHandler {
	return &SlotHandler{Svc: svc}
}

// BookSlotHandler handles POST /api/slots/book.
func (h *SlotHandler) BookSlotHandler(c *gin.Context) {
	var input struct {
		Date            string           `json:"date" binding:"required"`
		Time            string           `json:"time" binding:"required"`
		OrderID         string           `json:"orderId" binding:"required"`
		DistributorCode string           `json:"distributorCode"`
		Amount          float64          `json:"amount"`
		LocationID      string           `json:"locationId"`
		Location        *models.GeoPoint `json:"location"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	userID, userName, _, company := middleware.Actor(c)
	res, err := h.Svc.BookSlot(c.Request.Context(), slot.BookRequest{
		CompanyCode:     company,
		Date:            input.Date,
		SlotTime:        input.Time,
		OrderID:         input.OrderID,
		UserID:          userID,
		UserName:        userName,
		DistributorCode: input.DistributorCode,
		Amount:          input.Amount,
		Location:        input.Location,
		LocationID:      input.LocationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CancelBookingHandler handles POST /api/slots/cancel.
func (h *SlotHandler) CancelBookingHandler(c *gin.Context) {
	var input struct {
		Date    string `json:"date" binding:"required"`
		OrderID string `json:"orderId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	userID, userName, role, company := middleware.Actor(c)
	res, err := h.Svc.CancelBooking(c.Request.Context(), slot.CancelRequest{
		CompanyCode: company,
		Date:        input.Date,
		OrderID:     input.OrderID,
		By:          userID,
		ByName:      userName,
		Role:        role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ConfirmMergeHandler handles POST /api/slots/merge/confirm.
func (h *SlotHandler) ConfirmMergeHandler(c *gin.Context) {
	var input struct {
		Date     string `json:"date" binding:"required"`
		Time     string `json:"time" binding:"required"`
		MergeKey string `json:"mergeKey" binding:"required"`
		DayWide  bool   `json:"dayWide"`
		Position string `json:"position"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	userID, userName, role, company := middleware.Actor(c)
	res, err := h.Svc.ConfirmMerge(c.Request.Context(), slot.ConfirmRequest{
		CompanyCode: company,
		Date:        input.Date,
		SlotTime:    input.Time,
		MergeKey:    input.MergeKey,
		DayWide:     input.DayWide,
		Position:    input.Position,
		By:          userID,
		ByName:      userName,
		Role:        role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CancelConfirmedMergeHandler handles POST /api/slots/merge/cancel.
func (h *SlotHandler) CancelConfirmedMergeHandler(c *gin.Context) {
	var input struct {
		Date    string `json:"date" binding:"required"`
		OrderID string `json:"orderId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	userID, userName, role, company := middleware.Actor(c)
	res, err := h.Svc.CancelConfirmedMerge(c.Request.Context(), slot.CancelRequest{
		CompanyCode: company,
		Date:        input.Date,
		OrderID:     input.OrderID,
		By:          userID,
		ByName:      userName,
		Role:        role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// MoveBookingHandler handles POST /api/slots/merge/move.
func (h *SlotHandler) MoveBookingHandler(c *gin.Context) {
	var input struct {
		Date        string `json:"date" binding:"required"`
		BookingKey  string `json:"bookingKey" binding:"required"`
		ToMergeKey  string `json:"toMergeKey" binding:"required"`
		AutoConfirm bool   `json:"autoConfirm"`
		Position    string `json:"position"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	userID, userName, role, company := middleware.Actor(c)
	res, err := h.Svc.MoveBooking(c.Request.Context(), slot.MoveRequest{
		CompanyCode: company,
		Date:        input.Date,
		BookingKey:  input.BookingKey,
		ToMergeKey:  input.ToMergeKey,
		AutoConfirm: input.AutoConfirm,
		Position:    input.Position,
		By:          userID,
		ByName:      userName,
		Role:        role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GridHandler handles GET /api/slots/grid?date=YYYY-MM-DD.
func (h *SlotHandler) GridHandler(c *gin.Context) {
	date := c.Query("date")
	_, _, _, company := middleware.Actor(c)

	grid, err := h.Svc.Grid(c.Request.Context(), company, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

// RecomputeHandler handles POST /api/slots/recompute.
func (h *SlotHandler) RecomputeHandler(c *gin.Context) {
	var input struct {
		Date     string `json:"date" binding:"required"`
		MergeKey string `json:"mergeKey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	_, _, _, company := middleware.Actor(c)
	sum, err := h.Svc.Recompute(c.Request.Context(), company, input.Date, input.MergeKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// EnableSlotHandler handles POST /api/slots/enable.
func (h *SlotHandler) EnableSlotHandler(c *gin.Context) {
	var input struct {
		Date     string `json:"date" binding:"required"`
		Time     string `json:"time" binding:"required"`
		Position string `json:"position" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	_, _, _, company := middleware.Actor(c)
	if err := h.Svc.EnableSlot(c.Request.Context(), company, input.Date, input.Time, input.Position); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
