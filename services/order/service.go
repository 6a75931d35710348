package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	orderRepo "loadline/database/repository/order"
	"loadline/models"
	"loadline/services/catalog"
	"loadline/services/notification"
	"loadline/services/quota"
	"loadline/services/slot"
	"loadline/services/timeline"
	"loadline/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateRequest opens a new sales order for a distributor.
type CreateRequest struct {
	CompanyCode     string
	DistributorCode string
	Items           []models.OrderItem

	By     string
	ByName string
	Role   string
}

// AssignDriverRequest hands a dispatchable order to a driver.
type AssignDriverRequest struct {
	OrderID       string
	DriverID      string
	DriverName    string
	VehicleNumber string

	By     string
	ByName string
}

// Service is the order lifecycle around the slot engine: creation with
// quota enforcement, driver assignment and cancellation with quota
// restoration.
type Service interface {
	CreateOrder(ctx context.Context, req CreateRequest) (*models.Order, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	AssignDriver(ctx context.Context, req AssignDriverRequest) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID, by, byName string) (*models.Order, error)
}

type DefaultOrderService struct {
	Orders   orderRepo.Repository
	Slots    slot.Service
	Quota    quota.Service
	Catalog  catalog.Service
	Timeline timeline.Service
}

func NewDefaultOrderService(
	orders orderRepo.Repository,
	slots slot.Service,
	quotaSvc quota.Service,
	catalogSvc catalog.Service,
	timelineSvc timeline.Service,
) *DefaultOrderService {
	return &DefaultOrderService{
		Orders:   orders,
		Slots:    slots,
		Quota:    quotaSvc,
		Catalog:  catalogSvc,
		Timeline: timelineSvc,
	}
}

func newOrderID() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *DefaultOrderService) CreateOrder(ctx context.Context, req CreateRequest) (*models.Order, error) {
	if req.CompanyCode == "" || req.DistributorCode == "" {
		return nil, slot.Errorf(slot.KindInvalidInput, "companyCode and distributorCode are required")
	}
	if len(req.Items) == 0 {
		return nil, slot.Errorf(slot.KindInvalidInput, "order needs at least one item")
	}

	dist, err := s.Catalog.GetDistributor(ctx, req.CompanyCode, req.DistributorCode)
	if err != nil {
		return nil, slot.Errorf(slot.KindNotFound, "distributor %s not found", req.DistributorCode)
	}

	total := 0.0
	for _, it := range req.Items {
		total += it.Amount
	}

	// Quota first: an order that would blow the monthly goal never exists.
	if err := s.Quota.DeductForOrder(ctx, req.DistributorCode, req.Items); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &models.Order{
		OrderID:         newOrderID(),
		CompanyCode:     req.CompanyCode,
		DistributorCode: req.DistributorCode,
		DistributorName: dist.AgencyName,
		LocationID:      dist.LocationID,
		Items:           req.Items,
		TotalAmount:     total,
		Status:          models.StatusCreated,
		GoalDeducted:    true,
		CreatedBy:       req.By,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Orders.Insert(ctx, o); err != nil {
		// Undo the deduction; the order never made it in.
		if aerr := s.Quota.AddBackForOrder(ctx, req.DistributorCode, req.Items); aerr != nil {
			utils.GetLogger().Error("quota restore after failed insert",
				zap.String("distributor", req.DistributorCode), zap.Error(aerr))
		}
		return nil, err
	}

	utils.GetLogger().Info("order created",
		zap.String("orderId", o.OrderID),
		zap.String("company", req.CompanyCode),
		zap.String("distributor", req.DistributorCode),
		zap.Float64("totalAmount", total))

	s.append(ctx, timeline.AppendRequest{
		OrderID:         o.OrderID,
		Event:           "ORDER_CREATED",
		Step:            "ORDER",
		By:              req.By,
		ByUserName:      req.ByName,
		Role:            req.Role,
		DistributorName: dist.AgencyName,
		Amount:          total,
	})
	return o, nil
}

func (s *DefaultOrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err == orderRepo.ErrNotFound {
		return nil, slot.Errorf(slot.KindNotFound, "order %s not found", orderID)
	}
	return o, err
}

func (s *DefaultOrderService) AssignDriver(ctx context.Context, req AssignDriverRequest) (*models.Order, error) {
	if req.OrderID == "" || req.DriverID == "" {
		return nil, slot.Errorf(slot.KindInvalidInput, "orderId and driverId are required")
	}

	o, err := s.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.SlotBooked {
		return nil, slot.Errorf(slot.KindInvalidTransition, "order %s has no slot booking", req.OrderID)
	}
	if o.Status != models.StatusCreated {
		return nil, slot.Errorf(slot.KindInvalidTransition, "order %s is %s, cannot assign a driver", req.OrderID, o.Status)
	}

	// Leaf orders get a single delivery stop; master orders already carry
	// the stops of their children.
	if o.Kind() == models.LeafOrder && len(o.Stops) == 0 {
		stop := models.Stop{
			DistributorCode: o.DistributorCode,
			DistributorName: o.DistributorName,
			Items:           o.Items,
		}
		if d, derr := s.Catalog.GetDistributor(ctx, o.CompanyCode, o.DistributorCode); derr == nil {
			stop.Location = d.Location
		}
		if serr := s.Orders.SetStops(ctx, o.OrderID, []models.Stop{stop}); serr != nil {
			return nil, serr
		}
	}

	if err := s.Orders.AssignDriver(ctx, req.OrderID, req.DriverID, req.DriverName, req.VehicleNumber); err != nil {
		return nil, err
	}

	s.append(ctx, timeline.AppendRequest{
		OrderID:     req.OrderID,
		Event:       models.StatusDriverAssigned,
		Step:        "DELIVERY",
		By:          req.By,
		ByUserName:  req.ByName,
		Data:        map[string]interface{}{"driverId": req.DriverID, "vehicleNumber": req.VehicleNumber},
		NotifyTopic: notification.DriverTopic(req.DriverID),
		NotifyTitle: "New delivery assigned",
		NotifyBody:  fmt.Sprintf("Order %s assigned to you", req.OrderID),
	})

	return s.GetOrder(ctx, req.OrderID)
}

func (s *DefaultOrderService) CancelOrder(ctx context.Context, orderID, by, byName string) (*models.Order, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.TripClosed || o.Status == models.StatusDeliveryCompleted {
		return nil, slot.Errorf(slot.KindInvalidTransition, "order %s already completed", orderID)
	}

	if o.SlotBooked || o.MergedIntoOrderID != "" {
		if _, err := s.Slots.CancelBooking(ctx, slot.CancelRequest{
			CompanyCode: o.CompanyCode,
			Date:        o.SlotDate,
			OrderID:     o.OrderID,
			By:          by,
			ByName:      byName,
		}); err != nil && slot.KindOf(err) != slot.KindNotFound {
			return nil, err
		}
	}

	if o.GoalDeducted {
		if err := s.Quota.AddBackForOrder(ctx, o.DistributorCode, o.Items); err != nil {
			return nil, err
		}
		if err := s.Orders.SetGoalDeducted(ctx, orderID, false); err != nil {
			return nil, err
		}
	}

	upd := orderRepo.DeliveryUpdate{
		OrderID:        orderID,
		ExpectedStatus: o.Status,
		NewStatus:      models.StatusCancelled,
	}
	if err := s.Orders.ApplyDeliveryUpdate(ctx, upd); err != nil {
		return nil, err
	}

	utils.GetLogger().Info("order cancelled",
		zap.String("orderId", orderID),
		zap.String("by", by))

	s.append(ctx, timeline.AppendRequest{
		OrderID:    orderID,
		Event:      "ORDER_CANCELLED",
		Step:       "ORDER",
		By:         by,
		ByUserName: byName,
	})

	return s.GetOrder(ctx, orderID)
}

func (s *DefaultOrderService) append(ctx context.Context, req timeline.AppendRequest) {
	if s.Timeline == nil {
		return
	}
	if _, err := s.Timeline.Append(ctx, req); err != nil {
		utils.GetLogger().Warn("timeline append failed",
			zap.String("orderId", req.OrderID),
			zap.String("event", req.Event),
			zap.Error(err))
	}
}
