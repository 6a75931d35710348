package driver

import (
	"context"
	"fmt"
	"math"

	"loadline/config"
	orderRepo "loadline/database/repository/order"
	"loadline/models"
	"loadline/services/notification"
	"loadline/services/slot"
	"loadline/services/timeline"
	"loadline/utils"

	"go.uber.org/zap"
)

// UpdateStatusRequest advances one delivery through its state machine.
type UpdateStatusRequest struct {
	OrderID    string
	NextStatus string
	Location   *models.GeoPoint

	// Force skips the geofence check on reach events.
	Force bool

	By     string
	ByName string
}

// UpdateStatusResult reports the outcome. A geofence miss comes back with
// OK=false and the measured distance; it is not an error and changes no
// state.
type UpdateStatusResult struct {
	OK               bool          `json:"ok"`
	Reached          bool          `json:"reached,omitempty"`
	Message          string        `json:"message,omitempty"`
	Status           string        `json:"status,omitempty"`
	DistanceMeters   int           `json:"distanceMeters,omitempty"`
	RadiusMeters     int           `json:"radiusMeters,omitempty"`
	CurrentStopIndex int           `json:"currentStopIndex"`
	Order            *models.Order `json:"order,omitempty"`
}

// ReachCheck is the standalone geofence probe the driver app polls.
type ReachCheck struct {
	Within           bool `json:"within"`
	DistanceMeters   int  `json:"distanceMeters"`
	RadiusMeters     int  `json:"radiusMeters"`
	CurrentStopIndex int  `json:"currentStopIndex"`
}

// Service runs the multi-stop delivery state machine.
type Service interface {
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*UpdateStatusResult, error)
	ValidateReach(ctx context.Context, orderID string, loc *models.GeoPoint) (*ReachCheck, error)
	ListOrders(ctx context.Context, driverID string) ([]models.Order, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
}

type DefaultDriverService struct {
	Orders   orderRepo.Repository
	Timeline timeline.Service
}

func NewDefaultDriverService(orders orderRepo.Repository, timelineSvc timeline.Service) *DefaultDriverService {
	return &DefaultDriverService{Orders: orders, Timeline: timelineSvc}
}

func haversineMeters(a, b *models.GeoPoint) float64 {
	return slot.HaversineKm(a, b) * 1000
}

func reachRadiusMeters() float64 {
	if r := config.AppConfig.ReachRadiusMeters; r > 0 {
		return r
	}
	return 200
}

func (s *DefaultDriverService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err == orderRepo.ErrNotFound {
		return nil, slot.Errorf(slot.KindNotFound, "order %s not found", orderID)
	}
	return o, err
}

func (s *DefaultDriverService) ListOrders(ctx context.Context, driverID string) ([]models.Order, error) {
	if driverID == "" {
		return nil, slot.Errorf(slot.KindInvalidInput, "driverId required")
	}
	return s.Orders.ListByDriver(ctx, driverID, false)
}

// ValidateReach measures the driver's distance to the current stop.
func (s *DefaultDriverService) ValidateReach(ctx context.Context, orderID string, loc *models.GeoPoint) (*ReachCheck, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	idx, stop, err := currentStop(order)
	if err != nil {
		return nil, err
	}
	if !stop.Location.Valid() {
		return nil, slot.Errorf(slot.KindInvalidInput, "distributor location missing or invalid")
	}
	if !loc.Valid() {
		return nil, slot.Errorf(slot.KindInvalidInput, "driver location missing or invalid")
	}

	dist := haversineMeters(loc, stop.Location)
	if math.IsInf(dist, 1) {
		return nil, slot.Errorf(slot.KindInvalidInput, "distance calculation failed")
	}
	radius := reachRadiusMeters()
	return &ReachCheck{
		Within:           dist <= radius,
		DistanceMeters:   int(math.Round(dist)),
		RadiusMeters:     int(radius),
		CurrentStopIndex: idx,
	}, nil
}

func currentStop(order *models.Order) (int, *models.Stop, error) {
	if len(order.Stops) == 0 {
		return 0, nil, slot.Errorf(slot.KindInvalidInput, "order %s has no delivery stops", order.OrderID)
	}
	idx := order.CurrentStopIndex
	if idx < 0 || idx >= len(order.Stops) {
		idx = 0
	}
	return idx, &order.Stops[idx], nil
}

func (s *DefaultDriverService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*UpdateStatusResult, error) {
	logger := utils.GetLogger()

	order, err := s.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	idx, _, stopErr := currentStop(order)
	hasSecondStop := len(order.Stops) > 1

	desired := models.NormalizeStatus(req.NextStatus)
	switch desired {
	case EventReachedDistributor:
		desired = reachedEvent(idx)
	case EventUnloadStart:
		desired = unloadStartEvent(idx)
	case EventUnloadEnd:
		desired = unloadEndEvent(idx)
	}

	if !hasSecondStop && secondStopEvents[desired] {
		return nil, slot.Errorf(slot.KindInvalidTransition, "second stop events not applicable for single-stop order")
	}
	if err := ValidateTransition(order.Status, desired); err != nil {
		return nil, err
	}

	upd := orderRepo.DeliveryUpdate{
		OrderID:        order.OrderID,
		ExpectedStatus: order.Status,
		NewStatus:      desired,
		StopIndex:      idx,
	}

	isReach := desired == ReachedD1 || desired == ReachedD2
	switch {
	case isReach:
		if stopErr != nil {
			return nil, stopErr
		}
		if !req.Force {
			check, cerr := s.ValidateReach(ctx, req.OrderID, req.Location)
			if cerr != nil {
				return nil, cerr
			}
			if !check.Within {
				return &UpdateStatusResult{
					OK:               false,
					Reached:          false,
					Message:          "Try again",
					DistanceMeters:   check.DistanceMeters,
					RadiusMeters:     check.RadiusMeters,
					CurrentStopIndex: check.CurrentStopIndex,
				}, nil
			}
		}
		upd.SetReachedAt = true

	case desired == UnloadingStartD1 || desired == UnloadingStartD2:
		if stopErr != nil {
			return nil, stopErr
		}
		upd.SetUnloadStartAt = true

	case desired == UnloadingEndD1 || desired == UnloadingEndD2:
		if stopErr != nil {
			return nil, stopErr
		}
		upd.SetUnloadEndAt = true
		if idx+1 < len(order.Stops) {
			upd.AdvanceStop = true
			upd.AdvanceStopTo = idx + 1
		}

	case desired == models.StatusWarehouseReached || desired == models.StatusDeliveryCompleted:
		upd.CloseTrip = true
	}

	if err := s.Orders.ApplyDeliveryUpdate(ctx, upd); err != nil {
		if err == orderRepo.ErrStaleStatus {
			return nil, slot.Errorf(slot.KindConflict, "order %s status changed concurrently, refresh and retry", req.OrderID)
		}
		if err == orderRepo.ErrNotFound {
			return nil, slot.Errorf(slot.KindNotFound, "order %s not found", req.OrderID)
		}
		return nil, err
	}

	logger.Info("delivery status updated",
		zap.String("orderId", req.OrderID),
		zap.String("from", order.Status),
		zap.String("to", desired),
		zap.Int("stopIndex", idx))

	stage := StopLabel(idx)
	if desired == models.StatusWarehouseReached {
		stage = "WAREHOUSE"
	}
	if desired == models.StatusDeliveryCompleted {
		stage = "DONE"
	}
	data := map[string]interface{}{"stage": stage, "stopIndex": idx}
	if req.Location.Valid() {
		data["lat"] = req.Location.Lat
		data["lng"] = req.Location.Lng
	}

	by := req.By
	if by == "" {
		by = order.DriverID
	}
	if s.Timeline != nil {
		if _, terr := s.Timeline.Append(ctx, timeline.AppendRequest{
			OrderID:     req.OrderID,
			Event:       desired,
			Step:        "DELIVERY",
			By:          by,
			ByUserName:  req.ByName,
			Role:        "DRIVER",
			Data:        data,
			NotifyTopic: notification.CompanyTopic(order.CompanyCode),
			NotifyTitle: "Delivery update",
			NotifyBody:  fmt.Sprintf("Order %s: %s", req.OrderID, desired),
		}); terr != nil {
			logger.Warn("timeline append failed", zap.String("orderId", req.OrderID), zap.Error(terr))
		}
	}

	updated, err := s.GetOrder(ctx, req.OrderID)
	if err != nil {
		updated = order
	}

	res := &UpdateStatusResult{
		OK:               true,
		Status:           desired,
		CurrentStopIndex: updated.CurrentStopIndex,
		Order:            updated,
	}
	if isReach {
		res.Reached = true
	}
	return res, nil
}
