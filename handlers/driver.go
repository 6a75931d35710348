package handlers

import (
	"net/http"

	"loadline/middleware"
	"loadline/models"
	"loadline/services/driver"

	"github.com/gin-gonic/gin"
)

// DriverHandler exposes the delivery state machine to the driver app.
type DriverHandler struct {
	Svc driver.Service
}

func NewDriverHandler(svc driver.Service) *DriverHandler {
	return &DriverHandler{Svc: svc}
}

// UpdateStatusHandler handles POST /api/driver/status.
func (h *DriverHandler) UpdateStatusHandler(c *gin.Context) {
	var input struct {
		OrderID    string  `json:"orderId" binding:"required"`
		NextStatus string  `json:"nextStatus" binding:"required"`
		Lat        float64 `json:"currentLat"`
		Lng        float64 `json:"currentLng"`
		Force      bool    `json:"force"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	userID, userName, _, _ := middleware.Actor(c)
	var loc *models.GeoPoint
	if input.Lat != 0 || input.Lng != 0 {
		loc = &models.GeoPoint{Lat: input.Lat, Lng: input.Lng}
	}

	res, err := h.Svc.UpdateStatus(c.Request.Context(), driver.UpdateStatusRequest{
		OrderID:    input.OrderID,
		NextStatus: input.NextStatus,
		Location:   loc,
		Force:      input.Force,
		By:         userID,
		ByName:     userName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ValidateReachHandler handles POST /api/driver/validate-reach.
func (h *DriverHandler) ValidateReachHandler(c *gin.Context) {
	var input struct {
		OrderID string  `json:"orderId" binding:"required"`
		Lat     float64 `json:"currentLat" binding:"required"`
		Lng     float64 `json:"currentLng" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	check, err := h.Svc.ValidateReach(c.Request.Context(), input.OrderID, &models.GeoPoint{Lat: input.Lat, Lng: input.Lng})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

// ListOrdersHandler handles GET /api/driver/orders.
func (h *DriverHandler) ListOrdersHandler(c *gin.Context) {
	userID, _, _, _ := middleware.Actor(c)
	driverID := c.Query("driverId")
	if driverID == "" {
		driverID = userID
	}

	orders, err := h.Svc.ListOrders(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderHandler handles GET /api/driver/orders/:orderId.
func (h *DriverHandler) GetOrderHandler(c *gin.Context) {
	o, err := h.Svc.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
