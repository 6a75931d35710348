// File: loadline/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loadline/config"
	"loadline/database"
	catalogRepo "loadline/database/repository/catalog"
	orderRepo "loadline/database/repository/order"
	quotaRepo "loadline/database/repository/quota"
	rulesRepo "loadline/database/repository/rules"
	slotRepo "loadline/database/repository/slot"
	timelineRepo "loadline/database/repository/timeline"
	"loadline/handlers"
	"loadline/middleware"
	"loadline/routes"
	"loadline/services/catalog"
	"loadline/services/driver"
	"loadline/services/notification"
	"loadline/services/order"
	"loadline/services/quota"
	"loadline/services/rules"
	"loadline/services/slot"
	"loadline/services/timeline"
	"loadline/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCatalogCache()
	utils.InitRulesCache()
	utils.FirebaseInit()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := slotRepo.EnsureIndexes(ctx); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure indexes: %v", err)
	}
	cancel()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	slots := slotRepo.NewMongoSlotRepo()
	orders := orderRepo.NewMongoOrderRepo()
	timelines := timelineRepo.NewMongoTimelineRepo()
	ruleStore := rulesRepo.NewMongoRulesRepo()
	catalogStore := catalogRepo.NewMongoCatalogRepo()
	goals := quotaRepo.NewMongoQuotaRepo()

	// services.
	notifier := notification.NewFCMNotifier()
	timelineService := timeline.NewDefaultTimelineService(timelines, orders, notifier)
	rulesService := rules.NewDefaultRulesService(ruleStore)
	catalogService := catalog.NewDefaultCatalogService(catalogStore)
	slotService := slot.NewDefaultSlotService(slots, orders, rulesService, catalogService, timelineService)
	driverService := driver.NewDefaultDriverService(orders, timelineService)
	quotaService := quota.NewDefaultQuotaService(goals)
	orderService := order.NewDefaultOrderService(orders, slotService, quotaService, catalogService, timelineService)

	slotHandler := handlers.NewSlotHandler(slotService)
	driverHandler := handlers.NewDriverHandler(driverService)
	timelineHandler := handlers.NewTimelineHandler(timelineService)
	orderHandler := handlers.NewOrderHandler(orderService, quotaService)
	adminHandler := handlers.NewAdminHandler(rulesService, catalogService)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		// Slot endpoints.
		BookSlotHandler:             slotHandler.BookSlotHandler,
		CancelBookingHandler:        slotHandler.CancelBookingHandler,
		ConfirmMergeHandler:         slotHandler.ConfirmMergeHandler,
		CancelConfirmedMergeHandler: slotHandler.CancelConfirmedMergeHandler,
		MoveBookingHandler:          slotHandler.MoveBookingHandler,
		GridHandler:                 slotHandler.GridHandler,
		RecomputeHandler:            slotHandler.RecomputeHandler,
		EnableSlotHandler:           slotHandler.EnableSlotHandler,

		// Driver endpoints.
		DriverUpdateStatusHandler:  driverHandler.UpdateStatusHandler,
		DriverValidateReachHandler: driverHandler.ValidateReachHandler,
		DriverListOrdersHandler:    driverHandler.ListOrdersHandler,
		DriverGetOrderHandler:      driverHandler.GetOrderHandler,

		// Timeline endpoints.
		AppendEventHandler:   timelineHandler.AppendEventHandler,
		OrderTimelineHandler: timelineHandler.OrderTimelineHandler,
		SlotTimelineHandler:  timelineHandler.SlotTimelineHandler,

		// Order endpoints.
		CreateOrderHandler:  orderHandler.CreateOrderHandler,
		GetOrderHandler:     orderHandler.GetOrderHandler,
		AssignDriverHandler: orderHandler.AssignDriverHandler,
		CancelOrderHandler:  orderHandler.CancelOrderHandler,
		ListGoalsHandler:    orderHandler.ListGoalsHandler,
		SetGoalHandler:      orderHandler.SetGoalHandler,

		// Admin endpoints.
		GetRulesHandler:          adminHandler.GetRulesHandler,
		UpdateRulesHandler:       adminHandler.UpdateRulesHandler,
		OpenNightSlotsHandler:    adminHandler.OpenNightSlotsHandler,
		ListDistributorsHandler:  adminHandler.ListDistributorsHandler,
		UpsertDistributorHandler: adminHandler.UpsertDistributorHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	database.Disconnect(shutdownCtx)

	logger.Sugar().Info("main: server stopped gracefully")
}
