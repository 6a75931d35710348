package routes

import (
	"net/http"
	"time"

	"loadline/handlers"
	"loadline/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSlotRoutes registers the booking and merge endpoints.
func RegisterSlotRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/slots")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("/grid", hb.GridHandler)
		api.POST("/book", hb.BookSlotHandler)
		api.POST("/cancel", hb.CancelBookingHandler)

		// Merge control is a manager action.
		manager := api.Group("")
		manager.Use(middleware.RequireRole(middleware.RoleManager))
		manager.POST("/merge/confirm", hb.ConfirmMergeHandler)
		manager.POST("/merge/cancel", hb.CancelConfirmedMergeHandler)
		manager.POST("/merge/move", hb.MoveBookingHandler)
		manager.POST("/recompute", hb.RecomputeHandler)
		manager.POST("/enable", hb.EnableSlotHandler)
	}
}

// RegisterDriverRoutes registers the delivery state machine endpoints.
func RegisterDriverRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/driver")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("/orders", hb.DriverListOrdersHandler)
		api.GET("/orders/:orderId", hb.DriverGetOrderHandler)
		api.POST("/status", hb.DriverUpdateStatusHandler)
		api.POST("/validate-reach", hb.DriverValidateReachHandler)
	}
}

// RegisterTimelineRoutes registers the event ledger endpoints.
func RegisterTimelineRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/timeline")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", hb.AppendEventHandler)
		api.GET("/order/:orderId", hb.OrderTimelineHandler)
		api.GET("/slot/:slotId", hb.SlotTimelineHandler)
	}
}

// RegisterOrderRoutes registers the order lifecycle endpoints.
func RegisterOrderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/orders")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", hb.CreateOrderHandler)
		api.GET("/:orderId", hb.GetOrderHandler)
		api.POST("/:orderId/cancel", hb.CancelOrderHandler)
		api.GET("/goals/:distributorCode", hb.ListGoalsHandler)

		manager := api.Group("")
		manager.Use(middleware.RequireRole(middleware.RoleManager))
		manager.POST("/:orderId/assign-driver", hb.AssignDriverHandler)
		manager.PUT("/goals/:distributorCode", hb.SetGoalHandler)
	}
}

// RegisterAdminRoutes registers company configuration endpoints.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/admin")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.Use(middleware.RequireRole(middleware.RoleManager))
		api.GET("/rules", hb.GetRulesHandler)
		api.PUT("/rules", hb.UpdateRulesHandler)
		api.POST("/rules/open-night", hb.OpenNightSlotsHandler)
		api.GET("/distributors", hb.ListDistributorsHandler)
		api.PUT("/distributors", hb.UpsertDistributorHandler)
	}
}

// RegisterHealthRoute registers the liveness endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterSlotRoutes(r, hb)
	RegisterDriverRoutes(r, hb)
	RegisterTimelineRoutes(r, hb)
	RegisterOrderRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
