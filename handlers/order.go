package handlers

import (
	"net/http"

	"loadline/middleware"
	"loadline/models"
	"loadline/services/order"
	"loadline/services/quota"

	"github.com/gin-gonic/gin"
)

// OrderHandler exposes the order lifecycle around the slot engine.
type OrderHandler struct {
	Svc   order.Service
	Quota quota.Service
}

func NewOrderHandler(svc order.Service, quotaSvc quota.Service) *OrderHandler {
	return &OrderHandler{Svc: svc, Quota: quotaSvc}
}

// CreateOrderHandler handles POST /api/orders.
func (h *OrderHandler) CreateOrderHandler(c *gin.Context) {
	var input struct {
		DistributorCode string             `json:"distributorCode" binding:"required"`
		Items           []models.OrderItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	userID, userName, role, company := middleware.Actor(c)
	o, err := h.Svc.CreateOrder(c.Request.Context(), order.CreateRequest{
		CompanyCode:     company,
		DistributorCode: input.DistributorCode,
		Items:           input.Items,
		By:              userID,
		ByName:          userName,
		Role:            role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// GetOrderHandler handles GET /api/orders/:orderId.
func (h *OrderHandler) GetOrderHandler(c *gin.Context) {
	o, err := h.Svc.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// AssignDriverHandler handles POST /api/orders/:orderId/assign-driver.
func (h *OrderHandler) AssignDriverHandler(c *gin.Context) {
	var input struct {
		DriverID      string `json:"driverId" binding:"required"`
		DriverName    string `json:"driverName"`
		VehicleNumber string `json:"vehicleNumber"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	userID, userName, _, _ := middleware.Actor(c)
	o, err := h.Svc.AssignDriver(c.Request.Context(), order.AssignDriverRequest{
		OrderID:       c.Param("orderId"),
		DriverID:      input.DriverID,
		DriverName:    input.DriverName,
		VehicleNumber: input.VehicleNumber,
		By:            userID,
		ByName:        userName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// CancelOrderHandler handles POST /api/orders/:orderId/cancel.
func (h *OrderHandler) CancelOrderHandler(c *gin.Context) {
	userID, userName, _, _ := middleware.Actor(c)
	o, err := h.Svc.CancelOrder(c.Request.Context(), c.Param("orderId"), userID, userName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ListGoalsHandler handles GET /api/orders/goals/:distributorCode.
func (h *OrderHandler) ListGoalsHandler(c *gin.Context) {
	goals, err := h.Quota.ListGoals(c.Request.Context(), c.Param("distributorCode"), c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

// SetGoalHandler handles PUT /api/orders/goals/:distributorCode.
func (h *OrderHandler) SetGoalHandler(c *gin.Context) {
	var input struct {
		Month       string `json:"month"`
		ProductCode string `json:"productCode" binding:"required"`
		GoalQty     int    `json:"goalQty" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Quota.SetGoal(c.Request.Context(), c.Param("distributorCode"), input.Month, input.ProductCode, input.GoalQty); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
