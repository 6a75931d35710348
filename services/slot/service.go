package slot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loadline/config"
	orderRepo "loadline/database/repository/order"
	slotRepo "loadline/database/repository/slot"
	"loadline/models"
	"loadline/services/catalog"
	"loadline/services/notification"
	"loadline/services/rules"
	"loadline/services/timeline"
	"loadline/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookRequest books one slot for one order on one day.
type BookRequest struct {
	CompanyCode string
	Date        string
	SlotTime    string

	OrderID  string
	UserID   string
	UserName string

	DistributorCode string
	Amount          float64
	Location        *models.GeoPoint
	LocationID      string
}

// BookResult describes the booking that was made. HALF bookings carry the
// merge bucket they joined; FULL bookings carry the claimed position.
type BookResult struct {
	VehicleClass string  `json:"vehicleClass"`
	SlotID       string  `json:"slotId,omitempty"`
	SlotTime     string  `json:"slotTime"`
	Position     string  `json:"position,omitempty"`
	BookingID    string  `json:"bookingId,omitempty"`
	MergeKey     string  `json:"mergeKey,omitempty"`
	TripStatus   string  `json:"tripStatus,omitempty"`
	TotalAmount  float64 `json:"totalAmount,omitempty"`
	BookingCount int     `json:"bookingCount,omitempty"`
}

// ConfirmRequest confirms a ready merge bucket into a FULL departure.
type ConfirmRequest struct {
	CompanyCode string
	Date        string
	SlotTime    string
	MergeKey    string

	// DayWide pulls contributors from every time bucket of the merge key
	// instead of only the named slot time.
	DayWide bool

	By       string
	ByName   string
	Role     string
	Position string // optional explicit position, first fit when empty
}

// ConfirmResult reports the master order minted by a merge confirmation.
type ConfirmResult struct {
	MasterOrderID string   `json:"masterOrderId"`
	SlotID        string   `json:"slotId"`
	SlotTime      string   `json:"slotTime"`
	Position      string   `json:"position"`
	MergeKey      string   `json:"mergeKey"`
	TotalAmount   float64  `json:"totalAmount"`
	ChildOrderIDs []string `json:"childOrderIds"`
}

// MoveRequest relocates one HALF booking into another merge bucket.
type MoveRequest struct {
	CompanyCode string
	Date        string
	BookingKey  string
	ToMergeKey  string

	By     string
	ByName string
	Role   string

	// AutoConfirm confirms the destination bucket when the move makes it
	// ready.
	AutoConfirm bool
	Position    string
}

// MoveResult reports the move and, when auto-confirm fired, the resulting
// confirmation.
type MoveResult struct {
	BookingKey string         `json:"bookingKey"`
	FromKey    string         `json:"fromMergeKey"`
	ToKey      string         `json:"toMergeKey"`
	TripStatus string         `json:"tripStatus"`
	Confirmed  *ConfirmResult `json:"confirmed,omitempty"`
}

// CancelRequest cancels whatever booking state an order holds.
type CancelRequest struct {
	CompanyCode string
	Date        string
	OrderID     string

	By     string
	ByName string
	Role   string
}

// CancelResult reports what the cancellation released.
type CancelResult struct {
	OrderID        string   `json:"orderId"`
	VehicleClass   string   `json:"vehicleClass,omitempty"`
	FreedSlotTime  string   `json:"freedSlotTime,omitempty"`
	FreedPosition  string   `json:"freedPosition,omitempty"`
	MergeKey       string   `json:"mergeKey,omitempty"`
	ResetOrderIDs  []string `json:"resetOrderIds,omitempty"`
	MergeCancelled bool     `json:"mergeCancelled,omitempty"`
}

// Service is the slot booking and merge engine.
type Service interface {
	BookSlot(ctx context.Context, req BookRequest) (*BookResult, error)
	CancelBooking(ctx context.Context, req CancelRequest) (*CancelResult, error)
	ConfirmMerge(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error)
	CancelConfirmedMerge(ctx context.Context, req CancelRequest) (*CancelResult, error)
	MoveBooking(ctx context.Context, req MoveRequest) (*MoveResult, error)
	Recompute(ctx context.Context, companyCode, date, mergeKey string) (*MergeSummary, error)
	Grid(ctx context.Context, companyCode, date string) (*SlotGrid, error)
	EnableSlot(ctx context.Context, companyCode, date, slotTime, position string) error
}

type DefaultSlotService struct {
	Repo     slotRepo.Repository
	Orders   orderRepo.Repository
	Rules    rules.Service
	Catalog  catalog.Service
	Timeline timeline.Service
	Location *time.Location
}

func NewDefaultSlotService(
	repo slotRepo.Repository,
	orders orderRepo.Repository,
	rulesSvc rules.Service,
	catalogSvc catalog.Service,
	timelineSvc timeline.Service,
) *DefaultSlotService {
	loc, err := time.LoadLocation(config.AppConfig.AppTimezone)
	if err != nil {
		loc = time.UTC
	}
	return &DefaultSlotService{
		Repo:     repo,
		Orders:   orders,
		Rules:    rulesSvc,
		Catalog:  catalogSvc,
		Timeline: timelineSvc,
		Location: loc,
	}
}

func (s *DefaultSlotService) BookSlot(ctx context.Context, req BookRequest) (*BookResult, error) {
	logger := utils.GetLogger()

	if req.CompanyCode == "" || req.Date == "" || req.SlotTime == "" || req.OrderID == "" {
		return nil, newError(KindInvalidInput, "companyCode, date, time and orderId are required")
	}

	r, err := s.Rules.Resolve(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	if !containsString(r.SlotTimes.Flatten(), req.SlotTime) {
		return nil, newError(KindInvalidInput, "unknown slot time %q", req.SlotTime)
	}
	if r.NightSlot(req.SlotTime) && !s.nightOpen(r) {
		return nil, newError(KindNoCapacity, "night slots are not open yet")
	}

	order, err := s.Orders.Get(ctx, req.OrderID)
	if err == orderRepo.ErrNotFound {
		return nil, newError(KindNotFound, "order %s not found", req.OrderID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.reconcileOrderSlotState(ctx, req.CompanyCode, order); err != nil {
		return nil, err
	}

	amount := req.Amount
	if amount <= 0 {
		amount = order.TotalAmount
	}
	if amount <= 0 {
		return nil, newError(KindInvalidInput, "order amount missing")
	}

	if amount >= r.Threshold {
		res, err := s.bookFull(ctx, req, order, amount)
		if err != nil {
			return nil, err
		}
		logger.Info("slot booked",
			zap.String("company", req.CompanyCode),
			zap.String("orderId", req.OrderID),
			zap.String("slotId", res.SlotID))
		return res, nil
	}

	res, err := s.bookHalf(ctx, req, order, amount, r.Threshold)
	if err != nil {
		return nil, err
	}
	logger.Info("half booking registered",
		zap.String("company", req.CompanyCode),
		zap.String("orderId", req.OrderID),
		zap.String("mergeKey", res.MergeKey),
		zap.String("tripStatus", res.TripStatus))
	return res, nil
}

// nightOpen reports whether night slots are bookable right now: either a
// manager opened them, or the local clock has passed the open-after time.
func (s *DefaultSlotService) nightOpen(r *models.DispatchRules) bool {
	if r.LastSlotEnabled {
		return true
	}
	if r.LastSlotOpenAfter == "" {
		return false
	}
	return time.Now().In(s.Location).Format("15:04") >= r.LastSlotOpenAfter
}

// reconcileOrderSlotState heals the denormalized slot binding on the order
// before a new booking. A binding without a live lock is stale and cleared;
// a binding with a live lock rejects the double booking.
func (s *DefaultSlotService) reconcileOrderSlotState(ctx context.Context, company string, order *models.Order) error {
	if !order.SlotBooked {
		return nil
	}
	date := order.SlotDate
	if date == "" {
		order.SlotBooked = false
		return s.Orders.ClearSlot(ctx, order.OrderID)
	}

	locked, err := s.Repo.HasOrderLock(ctx, company, date, order.OrderID)
	if err != nil {
		return err
	}
	if locked {
		return newError(KindDuplicateBooking, "order %s already has a live booking on %s", order.OrderID, date)
	}

	utils.GetLogger().Warn("clearing stale slot binding",
		zap.String("orderId", order.OrderID),
		zap.String("slotDate", date))
	order.SlotBooked = false
	return s.Orders.ClearSlot(ctx, order.OrderID)
}

func (s *DefaultSlotService) bookFull(ctx context.Context, req BookRequest, order *models.Order, amount float64) (*BookResult, error) {
	caps, err := s.Repo.ListCapacity(ctx, req.CompanyCode, req.Date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool)
	for i := range caps {
		c := &caps[i]
		if c.Status == models.SlotBooked || c.Status == models.SlotDisabled {
			taken[c.Key] = true
		}
	}

	distName := order.DistributorName
	claim := slotRepo.FullClaim{
		Company:         req.CompanyCode,
		Date:            req.Date,
		SlotTime:        req.SlotTime,
		OrderID:         req.OrderID,
		UserID:          req.UserID,
		DistributorCode: req.DistributorCode,
		DistributorName: distName,
		Amount:          amount,
		Location:        req.Location,
		BookedBy:        req.UserID,
	}

	claimed := ""
	for _, pos := range models.AllPositions {
		if taken[models.FullSlotKey(req.SlotTime, pos)] {
			continue
		}
		claim.Position = pos
		err := s.Repo.ClaimFullSlot(ctx, claim)
		if err == nil {
			claimed = pos
			break
		}
		if err == slotRepo.ErrSlotConflict {
			continue
		}
		if err == slotRepo.ErrLockExists {
			return nil, newError(KindDuplicateBooking, "order %s already has a live booking on %s", req.OrderID, req.Date)
		}
		return nil, err
	}
	if claimed == "" {
		return nil, newError(KindNoCapacity, "no FULL positions left at %s", req.SlotTime)
	}

	slotID := models.SlotID(req.CompanyCode, req.Date, req.SlotTime, claimed)
	binding := orderRepo.SlotBinding{
		SlotID:       slotID,
		SlotDate:     req.Date,
		SlotTime:     req.SlotTime,
		VehicleClass: models.VehicleFull,
		Position:     claimed,
	}
	if err := s.Orders.BindSlot(ctx, req.OrderID, binding); err != nil {
		return nil, err
	}

	s.appendEvent(ctx, timeline.AppendRequest{
		OrderID:         req.OrderID,
		SlotID:          slotID,
		Event:           "SLOT_BOOKED",
		Step:            "BOOKING",
		By:              req.UserID,
		ByUserName:      req.UserName,
		DistributorName: distName,
		Amount:          amount,
		NotifyTopic:     notification.CompanyTopic(req.CompanyCode),
		NotifyTitle:     "Slot booked",
		NotifyBody:      fmt.Sprintf("%s booked %s position %s", distName, req.SlotTime, claimed),
	})

	return &BookResult{
		VehicleClass: models.VehicleFull,
		SlotID:       slotID,
		SlotTime:     req.SlotTime,
		Position:     claimed,
	}, nil
}

func (s *DefaultSlotService) bookHalf(ctx context.Context, req BookRequest, order *models.Order, amount, threshold float64) (*BookResult, error) {
	mergeKey, locationID, err := s.resolveMergeKey(ctx, req, order)
	if err != nil {
		return nil, err
	}

	// A confirmed merge never accepts new contributors; the recompute fold
	// skips FULL buckets, so a late join would drift the closed totals.
	if bucket, err := s.Repo.GetCapacity(ctx, req.CompanyCode, req.Date, models.MergeDayKey(mergeKey)); err == nil {
		if bucket.TripStatus == models.TripFull {
			return nil, newError(KindAlreadyBooked, "merge %s is already confirmed, cancel and rebook", mergeKey)
		}
	} else if err != slotRepo.ErrNotFound {
		return nil, err
	}

	reg := slotRepo.HalfRegistration{
		Company:         req.CompanyCode,
		Date:            req.Date,
		SlotTime:        req.SlotTime,
		OrderID:         req.OrderID,
		UserID:          req.UserID,
		BookingID:       uuid.NewString(),
		DistributorCode: req.DistributorCode,
		DistributorName: order.DistributorName,
		Amount:          amount,
		Location:        req.Location,
		MergeKey:        mergeKey,
		LocationID:      locationID,
	}
	if err := s.Repo.RegisterHalfBooking(ctx, reg); err != nil {
		if err == slotRepo.ErrLockExists {
			return nil, newError(KindDuplicateBooking, "order %s already has a live booking on %s", req.OrderID, req.Date)
		}
		if err == slotRepo.ErrBookingExists {
			return nil, newError(KindConflict, "booking %s already exists", reg.BookingID)
		}
		return nil, err
	}

	sum, err := s.Recompute(ctx, req.CompanyCode, req.Date, mergeKey)
	if err != nil {
		return nil, err
	}
	tripStatus := TripStatusFor(sum.Day.Count, sum.Day.Amount, threshold)

	binding := orderRepo.SlotBinding{
		SlotID:       models.MergeTimeKey(req.SlotTime, mergeKey),
		SlotDate:     req.Date,
		SlotTime:     req.SlotTime,
		VehicleClass: models.VehicleHalf,
		MergeKey:     mergeKey,
		TripStatus:   tripStatus,
	}
	if err := s.Orders.BindSlot(ctx, req.OrderID, binding); err != nil {
		return nil, err
	}

	notifyTitle := "Partial load registered"
	if tripStatus == models.TripReady {
		notifyTitle = "Merge ready to confirm"
	}
	s.appendEvent(ctx, timeline.AppendRequest{
		OrderID:         req.OrderID,
		Event:           "HALF_BOOKED",
		Step:            "BOOKING",
		By:              req.UserID,
		ByUserName:      req.UserName,
		DistributorName: order.DistributorName,
		Amount:          amount,
		Data:            map[string]interface{}{"mergeKey": mergeKey, "tripStatus": tripStatus},
		NotifyTopic:     notification.CompanyTopic(req.CompanyCode),
		NotifyTitle:     notifyTitle,
		NotifyBody:      fmt.Sprintf("%s joined merge %s at %s", order.DistributorName, mergeKey, req.SlotTime),
	})

	return &BookResult{
		VehicleClass: models.VehicleHalf,
		SlotTime:     req.SlotTime,
		BookingID:    reg.BookingID,
		MergeKey:     mergeKey,
		TripStatus:   tripStatus,
		TotalAmount:  sum.Day.Amount,
		BookingCount: sum.Day.Count,
	}, nil
}

// resolveMergeKey derives the merge key for a HALF booking: catalog location
// id first, then the nearest existing geo bucket within the merge radius,
// then a fresh coordinate key.
func (s *DefaultSlotService) resolveMergeKey(ctx context.Context, req BookRequest, order *models.Order) (string, string, error) {
	locationID := NormalizeLocationID(req.LocationID)
	if locationID == "" {
		locationID = NormalizeLocationID(order.LocationID)
	}
	if locationID == "" && strings.HasPrefix(order.MergeKey, "LOC#") {
		locationID = NormalizeLocationID(strings.TrimPrefix(order.MergeKey, "LOC#"))
	}

	loc := req.Location
	if locationID == "" && req.DistributorCode != "" {
		dist, err := s.Catalog.GetDistributor(ctx, req.CompanyCode, req.DistributorCode)
		if err == nil {
			locationID = NormalizeLocationID(dist.LocationID)
			if loc == nil {
				loc = dist.Location
			}
		} else {
			utils.GetLogger().Warn("distributor lookup failed",
				zap.String("code", req.DistributorCode), zap.Error(err))
		}
	}

	if locationID != "" {
		return LocationMergeKey(locationID), locationID, nil
	}
	if !loc.Valid() {
		return "", "", newError(KindInvalidInput, "locationId missing for distributor %s", req.DistributorCode)
	}

	caps, err := s.Repo.ListCapacity(ctx, req.CompanyCode, req.Date)
	if err != nil {
		return "", "", err
	}
	var cands []mergeCandidate
	for i := range caps {
		c := &caps[i]
		if !strings.HasPrefix(c.Key, "MERGE_DAY#") || c.Location == nil {
			continue
		}
		cands = append(cands, mergeCandidate{MergeKey: c.MergeKey, Location: c.Location})
	}
	mk, _ := ResolveMergeKeyByRadius(cands, loc, config.AppConfig.MergeRadiusKm)
	return mk, "", nil
}

// Recompute rebuilds the stored buckets of one merge key from its live
// bookings. The fold is authoritative; counters drifted by partial failures
// are overwritten and empty buckets removed. Confirmed merges are left
// untouched.
func (s *DefaultSlotService) Recompute(ctx context.Context, companyCode, date, mergeKey string) (*MergeSummary, error) {
	dayKey := models.MergeDayKey(mergeKey)
	if bucket, err := s.Repo.GetCapacity(ctx, companyCode, date, dayKey); err == nil {
		if bucket.TripStatus == models.TripFull {
			sum := MergeSummary{MergeKey: mergeKey, ByTime: map[string]BucketTotals{}}
			sum.Day = BucketTotals{Amount: bucket.TotalAmount, Count: bucket.BookingCount}
			return &sum, nil
		}
	} else if err != slotRepo.ErrNotFound {
		return nil, err
	}

	r, err := s.Rules.Resolve(ctx, companyCode)
	if err != nil {
		return nil, err
	}

	bookings, err := s.Repo.ListBookings(ctx, companyCode, date)
	if err != nil {
		return nil, err
	}
	sum := SummarizeMerge(bookings, mergeKey)

	caps, err := s.Repo.ListCapacity(ctx, companyCode, date)
	if err != nil {
		return nil, err
	}

	if sum.Day.Count == 0 {
		if err := s.Repo.DeleteCapacity(ctx, companyCode, date, dayKey); err != nil {
			return nil, err
		}
	} else {
		day := &models.SlotCapacity{
			Company:      companyCode,
			Date:         date,
			Key:          dayKey,
			VehicleClass: models.VehicleHalf,
			MergeKey:     mergeKey,
			LocationID:   sum.Day.LocationID,
			Location:     sum.Day.Location,
			TotalAmount:  sum.Day.Amount,
			BookingCount: sum.Day.Count,
			TripStatus:   TripStatusFor(sum.Day.Count, sum.Day.Amount, r.Threshold),
			Blink:        true,
		}
		if err := s.Repo.WriteBucketTotals(ctx, day); err != nil {
			return nil, err
		}
	}

	// Rewrite live time buckets and drop the ones the fold no longer sees.
	seen := make(map[string]bool, len(sum.ByTime))
	for slotTime, t := range sum.ByTime {
		key := models.MergeTimeKey(slotTime, mergeKey)
		seen[key] = true
		bucket := &models.SlotCapacity{
			Company:      companyCode,
			Date:         date,
			Key:          key,
			Time:         slotTime,
			VehicleClass: models.VehicleHalf,
			MergeKey:     mergeKey,
			LocationID:   t.LocationID,
			Location:     t.Location,
			TotalAmount:  t.Amount,
			BookingCount: t.Count,
			TripStatus:   TripStatusFor(t.Count, t.Amount, r.Threshold),
			Blink:        true,
		}
		if err := s.Repo.WriteBucketTotals(ctx, bucket); err != nil {
			return nil, err
		}
	}
	for i := range caps {
		c := &caps[i]
		if c.MergeKey != mergeKey || !strings.HasPrefix(c.Key, "MERGE_SLOT#") || seen[c.Key] {
			continue
		}
		if err := s.Repo.DeleteCapacity(ctx, companyCode, date, c.Key); err != nil {
			return nil, err
		}
	}

	return &sum, nil
}

func (s *DefaultSlotService) EnableSlot(ctx context.Context, companyCode, date, slotTime, position string) error {
	if err := s.Repo.EnableFullSlot(ctx, companyCode, date, slotTime, position); err != nil {
		if err == slotRepo.ErrSlotConflict {
			return newError(KindConflict, "slot %s %s is booked", slotTime, position)
		}
		return err
	}
	return nil
}

// appendEvent records a timeline entry; ledger failures are logged, not
// surfaced, because the booking has already committed.
func (s *DefaultSlotService) appendEvent(ctx context.Context, req timeline.AppendRequest) {
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

func containsString(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
