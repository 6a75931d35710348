package slot

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"loadline/config"
	catalogRepo "loadline/database/repository/catalog"
	orderRepo "loadline/database/repository/order"
	slotRepo "loadline/database/repository/slot"
	"loadline/models"
)

func TestMain(m *testing.M) {
	config.AppConfig.DefaultThreshold = 80000
	config.AppConfig.MergeRadiusKm = 25
	os.Exit(m.Run())
}

func rk(company, date, key string) string {
	return company + "|" + date + "|" + key
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func newFakeOrderRepo(orders ...*models.Order) *fakeOrderRepo {
	f := &fakeOrderRepo{orders: make(map[string]*models.Order)}
	for _, o := range orders {
		cp := *o
		f.orders[o.OrderID] = &cp
	}
	return f
}

func (f *fakeOrderRepo) Get(ctx context.Context, orderID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, orderRepo.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) Insert(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[order.OrderID]; ok {
		return orderRepo.ErrAlreadyExists
	}
	cp := *order
	f.orders[order.OrderID] = &cp
	return nil
}

func (f *fakeOrderRepo) Delete(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, orderID)
	return nil
}

func (f *fakeOrderRepo) ListByCompanyDate(ctx context.Context, company, date string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.CompanyCode == company && o.SlotDate == date {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListByDriver(ctx context.Context, driverID string, activeOnly bool) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.DriverID != driverID {
			continue
		}
		if activeOnly && (o.TripClosed || o.Status == models.StatusDeliveryCompleted) {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderRepo) BindSlot(ctx context.Context, orderID string, binding orderRepo.SlotBinding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return orderRepo.ErrNotFound
	}
	o.SlotBooked = true
	o.SlotID = binding.SlotID
	o.SlotDate = binding.SlotDate
	o.SlotTime = binding.SlotTime
	o.SlotVehicleClass = binding.VehicleClass
	o.SlotPosition = binding.Position
	o.MergeKey = binding.MergeKey
	o.TripStatus = binding.TripStatus
	return nil
}

func (f *fakeOrderRepo) ClearSlot(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return orderRepo.ErrNotFound
	}
	clearOrderSlot(o)
	return nil
}

func clearOrderSlot(o *models.Order) {
	o.SlotBooked = false
	o.SlotID = ""
	o.SlotDate = ""
	o.SlotTime = ""
	o.SlotVehicleClass = ""
	o.SlotPosition = ""
	o.MergeKey = ""
	o.TripStatus = ""
	o.MergedIntoOrderID = ""
}

func (f *fakeOrderRepo) SetTripStatus(ctx context.Context, orderID, tripStatus string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok {
		o.TripStatus = tripStatus
	}
	return nil
}

func (f *fakeOrderRepo) SetMergeKey(ctx context.Context, orderID, mergeKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return orderRepo.ErrNotFound
	}
	o.MergeKey = mergeKey
	return nil
}

func (f *fakeOrderRepo) SetStops(ctx context.Context, orderID string, stops []models.Stop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return orderRepo.ErrNotFound
	}
	o.Stops = stops
	return nil
}

func (f *fakeOrderRepo) AssignDriver(ctx context.Context, orderID, driverID, driverName, vehicleNumber string) error {
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

func (f *fakeOrderRepo) ApplyDeliveryUpdate(ctx context.Context, upd orderRepo.DeliveryUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[upd.OrderID]
	if !ok {
		return orderRepo.ErrNotFound
	}
	if o.Status != upd.ExpectedStatus {
		return orderRepo.ErrStaleStatus
	}
	now := time.Now().UTC()
	o.Status = upd.NewStatus
	if upd.StopIndex >= 0 && upd.StopIndex < len(o.Stops) {
		st := &o.Stops[upd.StopIndex]
		if upd.SetReachedAt {
			st.ReachedAt = &now
		}
		if upd.SetUnloadStartAt {
			st.UnloadStartAt = &now
		}
		if upd.SetUnloadEndAt {
			st.UnloadEndAt = &now
		}
	}
	if upd.AdvanceStop {
		o.CurrentStopIndex = upd.AdvanceStopTo
	}
	if upd.CloseTrip {
		o.TripClosed = true
	}
	return nil
}

func (f *fakeOrderRepo) SetGoalDeducted(ctx context.Context, orderID string, deducted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok {
		o.GoalDeducted = deducted
	}
	return nil
}

// fakeSlotRepo is an in-memory stand-in for the transactional slot store. It
// applies each write group under one lock, mirroring the all-or-nothing
// behavior of the real repository.
type fakeSlotRepo struct {
	mu       sync.Mutex
	caps     map[string]models.SlotCapacity
	bookings map[string]models.Booking
	locks    map[string]bool
	orders   *fakeOrderRepo
}

func newFakeSlotRepo(orders *fakeOrderRepo) *fakeSlotRepo {
	return &fakeSlotRepo{
		caps:     make(map[string]models.SlotCapacity),
		bookings: make(map[string]models.Booking),
		locks:    make(map[string]bool),
		orders:   orders,
	}
}

func (f *fakeSlotRepo) GetCapacity(ctx context.Context, company, date, key string) (*models.SlotCapacity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.caps[rk(company, date, key)]
	if !ok {
		return nil, slotRepo.ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (f *fakeSlotRepo) ListCapacity(ctx context.Context, company, date string) ([]models.SlotCapacity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := company + "|" + date + "|"
	var out []models.SlotCapacity
	for k, c := range f.caps {
		if strings.HasPrefix(k, prefix) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) WriteBucketTotals(ctx context.Context, bucket *models.SlotCapacity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.caps[rk(bucket.Company, bucket.Date, bucket.Key)] = *bucket
	return nil
}

func (f *fakeSlotRepo) SetBucketState(ctx context.Context, company, date, key, tripStatus string, blink bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.caps[rk(company, date, key)]
	if !ok {
		return slotRepo.ErrNotFound
	}
	c.TripStatus = tripStatus
	c.Blink = blink
	f.caps[rk(company, date, key)] = c
	return nil
}

func (f *fakeSlotRepo) DeleteCapacity(ctx context.Context, company, date, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.caps, rk(company, date, key))
	return nil
}

func (f *fakeSlotRepo) EnableFullSlot(ctx context.Context, company, date, slotTime, position string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := rk(company, date, models.FullSlotKey(slotTime, position))
	c := f.caps[key]
	if c.Status == models.SlotBooked {
		return slotRepo.ErrSlotConflict
	}
	c.Company = company
	c.Date = date
	c.Key = models.FullSlotKey(slotTime, position)
	c.Time = slotTime
	c.Position = position
	c.VehicleClass = models.VehicleFull
	c.Status = models.SlotAvailable
	f.caps[key] = c
	return nil
}

func (f *fakeSlotRepo) GetBooking(ctx context.Context, company, date, key string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[rk(company, date, key)]
	if !ok {
		return nil, slotRepo.ErrNotFound
	}
	cp := b
	return &cp, nil
}

func (f *fakeSlotRepo) ListBookings(ctx context.Context, company, date string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := company + "|" + date + "|"
	var out []models.Booking
	for k, b := range f.bookings {
		if strings.HasPrefix(k, prefix) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) HasOrderLock(ctx context.Context, company, date, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locks[rk(company, date, orderID)], nil
}

func (f *fakeSlotRepo) DeleteOrderLock(ctx context.Context, company, date, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, rk(company, date, orderID))
	return nil
}

func (f *fakeSlotRepo) ClaimFullSlot(ctx context.Context, claim slotRepo.FullClaim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lockKey := rk(claim.Company, claim.Date, claim.OrderID)
	if !claim.SkipLock && f.locks[lockKey] {
		return slotRepo.ErrLockExists
	}

	capKey := rk(claim.Company, claim.Date, models.FullSlotKey(claim.SlotTime, claim.Position))
	c := f.caps[capKey]
	if c.Status == models.SlotBooked || c.Status == models.SlotDisabled {
		return slotRepo.ErrSlotConflict
	}
	c.Company = claim.Company
	c.Date = claim.Date
	c.Key = models.FullSlotKey(claim.SlotTime, claim.Position)
	c.Time = claim.SlotTime
	c.Position = claim.Position
	c.VehicleClass = models.VehicleFull
	c.Status = models.SlotBooked
	c.OrderID = claim.OrderID
	c.BookedBy = claim.BookedBy
	c.DistributorCode = claim.DistributorCode
	c.DistributorName = claim.DistributorName
	c.Amount = claim.Amount
	f.caps[capKey] = c

	if !claim.SkipLock {
		f.locks[lockKey] = true
	}

	b := models.Booking{
		Company:         claim.Company,
		Date:            claim.Date,
		Key:             models.FullBookingKey(claim.SlotTime, claim.Position, claim.UserID),
		SlotTime:        claim.SlotTime,
		VehicleClass:    models.VehicleFull,
		Position:        claim.Position,
		OrderID:         claim.OrderID,
		UserID:          claim.UserID,
		DistributorCode: claim.DistributorCode,
		DistributorName: claim.DistributorName,
		Amount:          claim.Amount,
		Location:        claim.Location,
		Status:          models.BookingConfirmed,
		CreatedAt:       time.Now().UTC(),
	}
	f.bookings[rk(claim.Company, claim.Date, b.Key)] = b
	return nil
}

func (f *fakeSlotRepo) ReleaseFullSlot(ctx context.Context, company, date, slotTime, position string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseSlotLocked(company, date, slotTime, position)
	return nil
}

func (f *fakeSlotRepo) releaseSlotLocked(company, date, slotTime, position string) {
	key := rk(company, date, models.FullSlotKey(slotTime, position))
	c, ok := f.caps[key]
	if !ok {
		return
	}
	c.Status = models.SlotAvailable
	c.OrderID = ""
	c.BookedBy = ""
	c.DistributorCode = ""
	c.DistributorName = ""
	c.Amount = 0
	f.caps[key] = c
}

func (f *fakeSlotRepo) creditBucketLocked(company, date, key, slotTime, mergeKey, locationID string, loc *models.GeoPoint, amount float64) {
	k := rk(company, date, key)
	c, ok := f.caps[k]
	if !ok {
		c = models.SlotCapacity{
			Company:      company,
			Date:         date,
			Key:          key,
			Time:         slotTime,
			VehicleClass: models.VehicleHalf,
			MergeKey:     mergeKey,
			LocationID:   locationID,
			Location:     loc,
			TripStatus:   models.TripPartial,
			Blink:        true,
		}
	}
	c.TotalAmount += amount
	c.BookingCount++
	f.caps[k] = c
}

func (f *fakeSlotRepo) debitBucketLocked(company, date, key string, amount float64, count int) error {
	k := rk(company, date, key)
	c, ok := f.caps[k]
	if !ok || c.TotalAmount < amount || c.BookingCount < count {
		return slotRepo.ErrInsufficientBucket
	}
	c.TotalAmount -= amount
	c.BookingCount -= count
	f.caps[k] = c
	return nil
}

func (f *fakeSlotRepo) RegisterHalfBooking(ctx context.Context, reg slotRepo.HalfRegistration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lockKey := rk(reg.Company, reg.Date, reg.OrderID)
	if f.locks[lockKey] {
		return slotRepo.ErrLockExists
	}
	f.locks[lockKey] = true

	f.creditBucketLocked(reg.Company, reg.Date, models.MergeTimeKey(reg.SlotTime, reg.MergeKey),
		reg.SlotTime, reg.MergeKey, reg.LocationID, reg.Location, reg.Amount)
	f.creditBucketLocked(reg.Company, reg.Date, models.MergeDayKey(reg.MergeKey),
		"", reg.MergeKey, reg.LocationID, reg.Location, reg.Amount)

	b := models.Booking{
		Company:         reg.Company,
		Date:            reg.Date,
		Key:             models.HalfBookingKey(reg.SlotTime, reg.MergeKey, reg.UserID, reg.BookingID),
		BookingID:       reg.BookingID,
		SlotTime:        reg.SlotTime,
		VehicleClass:    models.VehicleHalf,
		OrderID:         reg.OrderID,
		UserID:          reg.UserID,
		DistributorCode: reg.DistributorCode,
		DistributorName: reg.DistributorName,
		Amount:          reg.Amount,
		Location:        reg.Location,
		MergeKey:        reg.MergeKey,
		LocationID:      reg.LocationID,
		Status:          models.BookingPendingConfirm,
		CreatedAt:       time.Now().UTC(),
	}
	f.bookings[rk(reg.Company, reg.Date, b.Key)] = b
	return nil
}

func (f *fakeSlotRepo) ConfirmMerge(ctx context.Context, conf slotRepo.MergeConfirmation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	capKey := rk(conf.Company, conf.Date, models.FullSlotKey(conf.SlotTime, conf.Position))
	c := f.caps[capKey]
	if c.Status == models.SlotBooked || c.Status == models.SlotDisabled {
		return slotRepo.ErrSlotConflict
	}
	masterID := conf.MasterOrder.OrderID
	c.Company = conf.Company
	c.Date = conf.Date
	c.Key = models.FullSlotKey(conf.SlotTime, conf.Position)
	c.Time = conf.SlotTime
	c.Position = conf.Position
	c.VehicleClass = models.VehicleFull
	c.Status = models.SlotBooked
	c.OrderID = masterID
	c.DistributorCode = conf.DistributorCode
	c.DistributorName = conf.DistributorName
	c.Amount = conf.TotalAmount
	f.caps[capKey] = c

	now := time.Now().UTC()
	mb := models.Booking{
		Company:         conf.Company,
		Date:            conf.Date,
		Key:             models.FullBookingKey(conf.SlotTime, conf.Position, conf.MergeKey),
		SlotTime:        conf.SlotTime,
		VehicleClass:    models.VehicleFull,
		Position:        conf.Position,
		OrderID:         masterID,
		UserID:          conf.MergeKey,
		DistributorCode: conf.DistributorCode,
		DistributorName: conf.DistributorName,
		Amount:          conf.TotalAmount,
		MergeKey:        conf.MergeKey,
		Status:          models.BookingConfirmed,
		CreatedAt:       now,
	}
	f.bookings[rk(conf.Company, conf.Date, mb.Key)] = mb

	f.orders.mu.Lock()
	cp := *conf.MasterOrder
	f.orders.orders[masterID] = &cp
	for _, child := range conf.Children {
		if o, ok := f.orders.orders[child.OrderID]; ok {
			o.MergedIntoOrderID = masterID
		}
	}
	f.orders.mu.Unlock()

	for _, child := range conf.Children {
		bk := rk(conf.Company, conf.Date, child.BookingKey)
		if b, ok := f.bookings[bk]; ok {
			b.Status = models.BookingMerged
			b.MergedIntoOrderID = masterID
			b.ConfirmedBy = conf.ConfirmedBy
			b.ConfirmedAt = &now
			f.bookings[bk] = b
		}
	}
	for _, key := range conf.ConsumedBucketKeys {
		k := rk(conf.Company, conf.Date, key)
		if b, ok := f.caps[k]; ok {
			b.TripStatus = models.TripFull
			b.Blink = false
			b.ConfirmedBy = conf.ConfirmedBy
			b.ConfirmedAt = &now
			f.caps[k] = b
		}
	}
	return nil
}

func (f *fakeSlotRepo) CancelConfirmedMerge(ctx context.Context, canc slotRepo.MergeCancellation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseSlotLocked(canc.Company, canc.Date, canc.SlotTime, canc.Position)
	delete(f.bookings, rk(canc.Company, canc.Date, canc.FullBookingKey))

	f.orders.mu.Lock()
	delete(f.orders.orders, canc.MasterOrderID)
	for _, child := range canc.Children {
		if o, ok := f.orders.orders[child.OrderID]; ok {
			clearOrderSlot(o)
		}
	}
	f.orders.mu.Unlock()

	for _, child := range canc.Children {
		bk := rk(canc.Company, canc.Date, child.BookingKey)
		if b, ok := f.bookings[bk]; ok {
			b.Status = models.BookingPendingConfirm
			b.MergedIntoOrderID = ""
			b.ConfirmedBy = ""
			b.ConfirmedAt = nil
			f.bookings[bk] = b
		}
		delete(f.locks, rk(canc.Company, canc.Date, child.OrderID))
	}
	for _, key := range canc.ResetBucketKeys {
		k := rk(canc.Company, canc.Date, key)
		if b, ok := f.caps[k]; ok {
			b.TripStatus = models.TripPartial
			b.Blink = true
			b.ConfirmedBy = ""
			b.ConfirmedAt = nil
			f.caps[k] = b
		}
	}
	return nil
}

func (f *fakeSlotRepo) CancelBooking(ctx context.Context, canc slotRepo.BookingCancellation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range canc.BucketDebits {
		k := rk(canc.Company, canc.Date, d.Key)
		c, ok := f.caps[k]
		if !ok || c.TotalAmount < d.Amount || c.BookingCount < d.Count {
			return slotRepo.ErrInsufficientBucket
		}
	}
	for _, d := range canc.BucketDebits {
		_ = f.debitBucketLocked(canc.Company, canc.Date, d.Key, d.Amount, d.Count)
	}

	if canc.BookingKey != "" {
		delete(f.bookings, rk(canc.Company, canc.Date, canc.BookingKey))
	}
	if canc.ReleaseSlotTime != "" {
		f.releaseSlotLocked(canc.Company, canc.Date, canc.ReleaseSlotTime, canc.ReleasePosition)
	}

	resetIDs := append([]string{canc.OrderID}, canc.ChildOrderIDs...)
	f.orders.mu.Lock()
	for _, id := range resetIDs {
		if o, ok := f.orders.orders[id]; ok {
			clearOrderSlot(o)
		}
	}
	if canc.DeleteMasterOrder {
		delete(f.orders.orders, canc.MasterOrderID)
	}
	f.orders.mu.Unlock()
	for _, id := range resetIDs {
		delete(f.locks, rk(canc.Company, canc.Date, id))
	}
	return nil
}

func (f *fakeSlotRepo) MoveBookingBucket(ctx context.Context, mv slotRepo.BucketMove) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	bk := rk(mv.Company, mv.Date, mv.BookingKey)
	b, ok := f.bookings[bk]
	if !ok {
		return slotRepo.ErrNotFound
	}

	if err := f.debitBucketLocked(mv.Company, mv.Date, models.MergeTimeKey(mv.SlotTime, mv.FromMergeKey), mv.Amount, 1); err != nil {
		return err
	}
	if err := f.debitBucketLocked(mv.Company, mv.Date, models.MergeDayKey(mv.FromMergeKey), mv.Amount, 1); err != nil {
		return err
	}
	f.creditBucketLocked(mv.Company, mv.Date, models.MergeTimeKey(mv.SlotTime, mv.ToMergeKey),
		mv.SlotTime, mv.ToMergeKey, b.LocationID, b.Location, mv.Amount)
	f.creditBucketLocked(mv.Company, mv.Date, models.MergeDayKey(mv.ToMergeKey),
		"", mv.ToMergeKey, b.LocationID, b.Location, mv.Amount)

	now := time.Now().UTC()
	delete(f.bookings, bk)
	b.Key = mv.NewBookingKey
	b.MergeKey = mv.ToMergeKey
	b.MovedBy = mv.MovedBy
	b.MovedAt = &now
	f.bookings[rk(mv.Company, mv.Date, b.Key)] = b
	return nil
}

type fakeRules struct {
	rules *models.DispatchRules
}

func (f *fakeRules) Resolve(ctx context.Context, companyCode string) (*models.DispatchRules, error) {
	cp := *f.rules
	return &cp, nil
}

func (f *fakeRules) Update(ctx context.Context, rules *models.DispatchRules) error {
	f.rules = rules
	return nil
}

func (f *fakeRules) OpenNightSlots(ctx context.Context, companyCode string) (*models.DispatchRules, error) {
	f.rules.LastSlotEnabled = true
	cp := *f.rules
	return &cp, nil
}

type fakeCatalog struct {
	dists map[string]*models.Distributor
}

func (f *fakeCatalog) GetDistributor(ctx context.Context, companyCode, code string) (*models.Distributor, error) {
	if d, ok := f.dists[code]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, catalogRepo.ErrNotFound
}

func (f *fakeCatalog) ListDistributors(ctx context.Context, companyCode string) ([]models.Distributor, error) {
	var out []models.Distributor
	for _, d := range f.dists {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeCatalog) UpsertDistributor(ctx context.Context, d *models.Distributor) error {
	f.dists[d.Code] = d
	return nil
}

func halfReg(orderID, userID, bookingID, slotTime, mergeKey string, amount float64) slotRepo.HalfRegistration {
	return slotRepo.HalfRegistration{
		Company:   testCompany,
		Date:      testDate,
		SlotTime:  slotTime,
		OrderID:   orderID,
		UserID:    userID,
		BookingID: bookingID,
		Amount:    amount,
		MergeKey:  mergeKey,
	}
}

func testRules(threshold float64) *fakeRules {
	return &fakeRules{rules: &models.DispatchRules{
		CompanyCode:       "ACME",
		Threshold:         threshold,
		LastSlotOpenAfter: "",
		SlotTimes:         models.DefaultSlotTimes(),
	}}
}

func newTestService(orders *fakeOrderRepo) (*DefaultSlotService, *fakeSlotRepo) {
	repo := newFakeSlotRepo(orders)
	svc := &DefaultSlotService{
		Repo:     repo,
		Orders:   orders,
		Rules:    testRules(80000),
		Catalog:  &fakeCatalog{dists: map[string]*models.Distributor{}},
		Location: time.UTC,
	}
	return svc, repo
}
