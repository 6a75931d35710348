package order

import (
	"context"
	"sync"
	"testing"

	catalogRepo "loadline/database/repository/catalog"
	orderRepo "loadline/database/repository/order"
	"loadline/models"
	"loadline/services/slot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func newFakeOrders(orders ...*models.Order) *fakeOrders {
	f := &fakeOrders{orders: make(map[string]*models.Order)}
	for _, o := range orders {
		cp := *o
		f.orders[o.OrderID] = &cp
	}
	return f
}

func (f *fakeOrders) Get(ctx context.Context, orderID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, orderRepo.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) Insert(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[order.OrderID]; ok {
		return orderRepo.ErrAlreadyExists
	}
	cp := *order
	f.orders[order.OrderID] = &cp
	return nil
}

func (f *fakeOrders) Delete(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, orderID)
	return nil
}

func (f *fakeOrders) ListByCompanyDate(ctx context.Context, company, date string) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrders) ListByDriver(ctx context.Context, driverID string, activeOnly bool) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrders) BindSlot(ctx context.Context, orderID string, binding orderRepo.SlotBinding) error {
	return nil
}

func (f *fakeOrders) ClearSlot(ctx context.Context, orderID string) error { return nil }

func (f *fakeOrders) SetTripStatus(ctx context.Context, orderID, tripStatus string) error {
	return nil
}

func (f *fakeOrders) SetMergeKey(ctx context.Context, orderID, mergeKey string) error { return nil }

func (f *fakeOrders) SetStops(ctx context.Context, orderID string, stops []models.Stop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok {
		o.Stops = stops
	}
	return nil
}

func (f *fakeOrders) AssignDriver(ctx context.Context, orderID, driverID, driverName, vehicleNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return orderRepo.ErrNotFound
	}
	o.DriverID = driverID
	o.DriverName = driverName
	o.VehicleNumber = vehicleNumber
	o.Status = models.StatusDriverAssigned
	o.CurrentStopIndex = 0
	return nil
}

func (f *fakeOrders) ApplyDeliveryUpdate(ctx context.Context, upd orderRepo.DeliveryUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[upd.OrderID]
	if !ok {
		return orderRepo.ErrNotFound
	}
	if o.Status != upd.ExpectedStatus {
		return orderRepo.ErrStaleStatus
	}
	o.Status = upd.NewStatus
	return nil
}

func (f *fakeOrders) SetGoalDeducted(ctx context.Context, orderID string, deducted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok {
		o.GoalDeducted = deducted
	}
	return nil
}

type fakeCatalogSvc struct {
	dists map[string]*models.Distributor
}

func (f *fakeCatalogSvc) GetDistributor(ctx context.Context, companyCode, code string) (*models.Distributor, error) {
	if d, ok := f.dists[code]; ok {
		return d, nil
	}
	return nil, catalogRepo.ErrNotFound
}

func (f *fakeCatalogSvc) ListDistributors(ctx context.Context, companyCode string) ([]models.Distributor, error) {
	return nil, nil
}

func (f *fakeCatalogSvc) UpsertDistributor(ctx context.Context, d *models.Distributor) error {
	return nil
}

type fakeQuotaSvc struct {
	deductErr error
	deducted  []models.OrderItem
	restored  []models.OrderItem
}

func (f *fakeQuotaSvc) DeductForOrder(ctx context.Context, distributorCode string, items []models.OrderItem) error {
	if f.deductErr != nil {
		return f.deductErr
	}
	f.deducted = append(f.deducted, items...)
	return nil
}

func (f *fakeQuotaSvc) AddBackForOrder(ctx context.Context, distributorCode string, items []models.OrderItem) error {
	f.restored = append(f.restored, items...)
	return nil
}

func (f *fakeQuotaSvc) ListGoals(ctx context.Context, distributorCode, month string) ([]models.MonthlyGoal, error) {
	return nil, nil
}

func (f *fakeQuotaSvc) SetGoal(ctx context.Context, distributorCode, month, productCode string, goalQty int) error {
	return nil
}

type fakeSlotSvc struct {
	cancelled []string
	cancelErr error
}

func (f *fakeSlotSvc) BookSlot(ctx context.Context, req slot.BookRequest) (*slot.BookResult, error) {
	return nil, nil
}

func (f *fakeSlotSvc) CancelBooking(ctx context.Context, req slot.CancelRequest) (*slot.CancelResult, error) {
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	f.cancelled = append(f.cancelled, req.OrderID)
	return &slot.CancelResult{OrderID: req.OrderID}, nil
}

func (f *fakeSlotSvc) ConfirmMerge(ctx context.Context, req slot.ConfirmRequest) (*slot.ConfirmResult, error) {
	return nil, nil
}

func (f *fakeSlotSvc) CancelConfirmedMerge(ctx context.Context, req slot.CancelRequest) (*slot.CancelResult, error) {
	return nil, nil
}

func (f *fakeSlotSvc) MoveBooking(ctx context.Context, req slot.MoveRequest) (*slot.MoveResult, error) {
	return nil, nil
}

func (f *fakeSlotSvc) Recompute(ctx context.Context, companyCode, date, mergeKey string) (*slot.MergeSummary, error) {
	return nil, nil
}

func (f *fakeSlotSvc) Grid(ctx context.Context, companyCode, date string) (*slot.SlotGrid, error) {
	return nil, nil
}

func (f *fakeSlotSvc) EnableSlot(ctx context.Context, companyCode, date, slotTime, position string) error {
	return nil
}

func testCatalog() *fakeCatalogSvc {
	return &fakeCatalogSvc{dists: map[string]*models.Distributor{
		"D-1": {
			Code:       "D-1",
			AgencyName: "Hilltop Agencies",
			LocationID: "42",
			Location:   &models.GeoPoint{Lat: 12.97, Lng: 77.59},
		},
	}}
}

func newTestService(orders *fakeOrders) (*DefaultOrderService, *fakeQuotaSvc, *fakeSlotSvc) {
	q := &fakeQuotaSvc{}
	sl := &fakeSlotSvc{}
	svc := &DefaultOrderService{
		Orders:  orders,
		Slots:   sl,
		Quota:   q,
		Catalog: testCatalog(),
	}
	return svc, q, sl
}

func TestCreateOrder(t *testing.T) {
	orders := newFakeOrders()
	svc, q, _ := newTestService(orders)

	o, err := svc.CreateOrder(context.Background(), CreateRequest{
		CompanyCode:     "ACME",
		DistributorCode: "D-1",
		Items: []models.OrderItem{
			{ProductCode: "P1", Qty: 10, Amount: 30000},
			{ProductCode: "P2", Qty: 5, Amount: 20000},
		},
		By: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, 50000.0, o.TotalAmount)
	assert.Equal(t, "Hilltop Agencies", o.DistributorName)
	assert.Equal(t, "42", o.LocationID)
	assert.Equal(t, models.StatusCreated, o.Status)
	assert.True(t, o.GoalDeducted)
	assert.Len(t, q.deducted, 2)

	stored, err := orders.Get(context.Background(), o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderID, stored.OrderID)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _ := newTestService(newFakeOrders())
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateRequest{CompanyCode: "ACME", DistributorCode: "D-1"})
	assert.Equal(t, slot.KindInvalidInput, slot.KindOf(err))

	_, err = svc.CreateOrder(ctx, CreateRequest{
		CompanyCode: "ACME", DistributorCode: "NOPE",
		Items: []models.OrderItem{{ProductCode: "P1", Qty: 1, Amount: 100}},
	})
	assert.Equal(t, slot.KindNotFound, slot.KindOf(err))
}

func TestCreateOrderBlockedByQuota(t *testing.T) {
	orders := newFakeOrders()
	svc, q, _ := newTestService(orders)
	q.deductErr = slot.Errorf(slot.KindConflict, "monthly goal exceeded for product P1")

	_, err := svc.CreateOrder(context.Background(), CreateRequest{
		CompanyCode: "ACME", DistributorCode: "D-1",
		Items: []models.OrderItem{{ProductCode: "P1", Qty: 1000, Amount: 100}},
	})
	assert.Equal(t, slot.KindConflict, slot.KindOf(err))
	assert.Empty(t, orders.orders)
}

func TestAssignDriver(t *testing.T) {
	o := &models.Order{
		OrderID:         "ORD-1",
		CompanyCode:     "ACME",
		DistributorCode: "D-1",
		DistributorName: "Hilltop Agencies",
		Items:           []models.OrderItem{{ProductCode: "P1", Qty: 2, Amount: 90000}},
		Status:          models.StatusCreated,
		SlotBooked:      true,
	}
	orders := newFakeOrders(o)
	svc, _, _ := newTestService(orders)

	got, err := svc.AssignDriver(context.Background(), AssignDriverRequest{
		OrderID: "ORD-1", DriverID: "drv1", DriverName: "Ravi", VehicleNumber: "KA01AB1234",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDriverAssigned, got.Status)
	assert.Equal(t, "drv1", got.DriverID)
	require.Len(t, got.Stops, 1)
	assert.Equal(t, "D-1", got.Stops[0].DistributorCode)
	assert.NotNil(t, got.Stops[0].Location)
}

func TestAssignDriverNeedsSlot(t *testing.T) {
	orders := newFakeOrders(&models.Order{
		OrderID: "ORD-1", CompanyCode: "ACME", Status: models.StatusCreated,
	})
	svc, _, _ := newTestService(orders)

	_, err := svc.AssignDriver(context.Background(), AssignDriverRequest{
		OrderID: "ORD-1", DriverID: "drv1",
	})
	assert.Equal(t, slot.KindInvalidTransition, slot.KindOf(err))
}

func TestAssignDriverRejectsInFlightOrder(t *testing.T) {
	orders := newFakeOrders(&models.Order{
		OrderID: "ORD-1", CompanyCode: "ACME",
		Status: models.StatusDriverStarted, SlotBooked: true,
	})
	svc, _, _ := newTestService(orders)

	_, err := svc.AssignDriver(context.Background(), AssignDriverRequest{
		OrderID: "ORD-1", DriverID: "drv2",
	})
	assert.Equal(t, slot.KindInvalidTransition, slot.KindOf(err))
}

func TestCancelOrderReleasesSlotAndQuota(t *testing.T) {
	o := &models.Order{
		OrderID:         "ORD-1",
		CompanyCode:     "ACME",
		DistributorCode: "D-1",
		Items:           []models.OrderItem{{ProductCode: "P1", Qty: 3, Amount: 50000}},
		Status:          models.StatusCreated,
		SlotBooked:      true,
		SlotDate:        "2026-09-01",
		GoalDeducted:    true,
	}
	orders := newFakeOrders(o)
	svc, q, sl := newTestService(orders)

	got, err := svc.CancelOrder(context.Background(), "ORD-1", "u1", "User One")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.False(t, got.GoalDeducted)
	assert.Equal(t, []string{"ORD-1"}, sl.cancelled)
	assert.Len(t, q.restored, 1)
}

func TestCancelOrderToleratesMissingBooking(t *testing.T) {
	o := &models.Order{
		OrderID: "ORD-1", CompanyCode: "ACME",
		Status: models.StatusCreated, SlotBooked: true, SlotDate: "2026-09-01",
	}
	orders := newFakeOrders(o)
	svc, _, sl := newTestService(orders)
	sl.cancelErr = slot.Errorf(slot.KindNotFound, "order ORD-1 not found")

	got, err := svc.CancelOrder(context.Background(), "ORD-1", "u1", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestCancelOrderRejectsCompleted(t *testing.T) {
	orders := newFakeOrders(&models.Order{
		OrderID: "ORD-1", CompanyCode: "ACME",
		Status: models.StatusDeliveryCompleted, TripClosed: true,
	})
	svc, _, _ := newTestService(orders)

	_, err := svc.CancelOrder(context.Background(), "ORD-1", "u1", "")
	assert.Equal(t, slot.KindInvalidTransition, slot.KindOf(err))
}
