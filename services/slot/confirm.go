package slot

import (
	"context"
	"fmt"
	"strings"
	"time"

	orderRepo "loadline/database/repository/order"
	slotRepo "loadline/database/repository/slot"
	"loadline/models"
	"loadline/services/notification"
	"loadline/services/timeline"
	"loadline/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// newMasterOrderID mints the identifier for a merged departure.
func newMasterOrderID() string {
	return models.MasterOrderPrefix + strings.ToUpper(uuid.NewString()[:8])
}

// ConfirmMerge turns a ready merge bucket into a FULL departure: it claims a
// truck position, mints the master order, marks every contributing booking
// MERGED and closes the bucket. The whole group commits atomically.
func (s *DefaultSlotService) ConfirmMerge(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	logger := utils.GetLogger()

	if req.CompanyCode == "" || req.Date == "" || req.SlotTime == "" || req.MergeKey == "" {
		return nil, newError(KindInvalidInput, "companyCode, date, time and mergeKey are required")
	}

	r, err := s.Rules.Resolve(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}

	dayKey := models.MergeDayKey(req.MergeKey)
	dayBucket, err := s.Repo.GetCapacity(ctx, req.CompanyCode, req.Date, dayKey)
	if err == slotRepo.ErrNotFound {
		return nil, newError(KindNotFound, "merge %s not found on %s", req.MergeKey, req.Date)
	}
	if err != nil {
		return nil, err
	}
	if dayBucket.TripStatus == models.TripFull {
		return nil, newError(KindConflict, "merge %s is already confirmed", req.MergeKey)
	}

	bookings, err := s.Repo.ListBookings(ctx, req.CompanyCode, req.Date)
	if err != nil {
		return nil, err
	}

	var children []models.Booking
	total := 0.0
	for i := range bookings {
		b := &bookings[i]
		if b.VehicleClass != models.VehicleHalf || b.MergeKey != req.MergeKey || !b.Live() {
			continue
		}
		if !req.DayWide && b.SlotTime != req.SlotTime {
			continue
		}
		children = append(children, *b)
		total += b.Amount
	}
	if len(children) < 2 {
		return nil, newError(KindBelowThreshold, "merge needs at least two bookings, have %d", len(children))
	}
	if total < r.Threshold {
		return nil, newError(KindBelowThreshold, "merge total %.0f below threshold %.0f", total, r.Threshold)
	}

	caps, err := s.Repo.ListCapacity(ctx, req.CompanyCode, req.Date)
	if err != nil {
		return nil, err
	}
	position, err := s.pickPosition(caps, req.SlotTime, req.Position)
	if err != nil {
		return nil, err
	}

	masterID := newMasterOrderID()
	now := time.Now().UTC()
	slotID := models.SlotID(req.CompanyCode, req.Date, req.SlotTime, position)

	childIDs := make([]string, 0, len(children))
	marks := make([]slotRepo.ChildMark, 0, len(children))
	stops := make([]models.Stop, 0, len(children))
	for i := range children {
		c := &children[i]
		childIDs = append(childIDs, c.OrderID)
		marks = append(marks, slotRepo.ChildMark{BookingKey: c.Key, OrderID: c.OrderID})

		stop := models.Stop{
			DistributorCode: c.DistributorCode,
			DistributorName: c.DistributorName,
			Location:        c.Location,
		}
		if o, gerr := s.Orders.Get(ctx, c.OrderID); gerr == nil {
			stop.Items = o.Items
			if stop.Location == nil {
				// catalog coordinates as a last resort for geofencing
				if d, derr := s.Catalog.GetDistributor(ctx, req.CompanyCode, c.DistributorCode); derr == nil {
					stop.Location = d.Location
				}
			}
		}
		stops = append(stops, stop)
	}

	master := &models.Order{
		OrderID:          masterID,
		CompanyCode:      req.CompanyCode,
		DistributorName:  children[0].DistributorName,
		TotalAmount:      total,
		Status:           models.StatusCreated,
		SlotBooked:       true,
		SlotID:           slotID,
		SlotDate:         req.Date,
		SlotTime:         req.SlotTime,
		SlotVehicleClass: models.VehicleFull,
		SlotPosition:     position,
		MergeKey:         req.MergeKey,
		TripStatus:       models.TripFull,
		IsMerged:         true,
		MergedOrderIDs:   childIDs,
		MergedAt:         &now,
		Stops:            stops,
		CreatedBy:        req.By,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	consumed := []string{dayKey}
	for i := range caps {
		c := &caps[i]
		if c.MergeKey == req.MergeKey && strings.HasPrefix(c.Key, "MERGE_SLOT#") {
			consumed = append(consumed, c.Key)
		}
	}

	conf := slotRepo.MergeConfirmation{
		Company:            req.CompanyCode,
		Date:               req.Date,
		SlotTime:           req.SlotTime,
		Position:           position,
		MasterOrder:        master,
		DistributorCode:    children[0].DistributorCode,
		DistributorName:    children[0].DistributorName,
		TotalAmount:        total,
		MergeKey:           req.MergeKey,
		ConfirmedBy:        req.By,
		Children:           marks,
		ConsumedBucketKeys: consumed,
	}
	if err := s.Repo.ConfirmMerge(ctx, conf); err != nil {
		if err == slotRepo.ErrSlotConflict {
			return nil, newError(KindNoCapacity, "position %s at %s was taken, retry", position, req.SlotTime)
		}
		return nil, err
	}

	logger.Info("merge confirmed",
		zap.String("company", req.CompanyCode),
		zap.String("mergeKey", req.MergeKey),
		zap.String("masterOrderId", masterID),
		zap.Float64("totalAmount", total),
		zap.Int("children", len(childIDs)))

	s.appendEvent(ctx, timeline.AppendRequest{
		OrderID:     masterID,
		SlotID:      slotID,
		Event:       "MERGE_CONFIRMED",
		Step:        "MERGE",
		By:          req.By,
		ByUserName:  req.ByName,
		Role:        req.Role,
		Amount:      total,
		Data:        map[string]interface{}{"mergeKey": req.MergeKey, "childOrderIds": childIDs},
		NotifyTopic: notification.CompanyTopic(req.CompanyCode),
		NotifyTitle: "Merge confirmed",
		NotifyBody:  fmt.Sprintf("Merge %s confirmed into %s at %s", req.MergeKey, masterID, req.SlotTime),
	})

	return &ConfirmResult{
		MasterOrderID: masterID,
		SlotID:        slotID,
		SlotTime:      req.SlotTime,
		Position:      position,
		MergeKey:      req.MergeKey,
		TotalAmount:   total,
		ChildOrderIDs: childIDs,
	}, nil
}

// pickPosition returns the requested position if free, or the first free
// position at the slot time.
func (s *DefaultSlotService) pickPosition(caps []models.SlotCapacity, slotTime, requested string) (string, error) {
	taken := make(map[string]bool)
	for i := range caps {
		c := &caps[i]
		if c.Status == models.SlotBooked || c.Status == models.SlotDisabled {
			taken[c.Key] = true
		}
	}

	if requested != "" {
		if taken[models.FullSlotKey(slotTime, requested)] {
			return "", newError(KindNoCapacity, "position %s at %s is taken", requested, slotTime)
		}
		return requested, nil
	}
	for _, pos := range models.AllPositions {
		if !taken[models.FullSlotKey(slotTime, pos)] {
			return pos, nil
		}
	}
	return "", newError(KindNoCapacity, "no FULL positions left at %s", slotTime)
}

// MoveBooking relocates a HALF booking into another merge bucket, then
// recomputes both buckets. With AutoConfirm set it confirms the destination
// when the move makes it ready.
func (s *DefaultSlotService) MoveBooking(ctx context.Context, req MoveRequest) (*MoveResult, error) {
	if req.CompanyCode == "" || req.Date == "" || req.BookingKey == "" || req.ToMergeKey == "" {
		return nil, newError(KindInvalidInput, "companyCode, date, bookingKey and toMergeKey are required")
	}

	b, err := s.Repo.GetBooking(ctx, req.CompanyCode, req.Date, req.BookingKey)
	if err == slotRepo.ErrNotFound {
		return nil, newError(KindNotFound, "booking not found")
	}
	if err != nil {
		return nil, err
	}
	if b.VehicleClass != models.VehicleHalf || !b.Live() {
		return nil, newError(KindInvalidTransition, "only live HALF bookings can be moved")
	}
	if b.MergeKey == req.ToMergeKey {
		return nil, newError(KindInvalidInput, "booking is already in merge %s", req.ToMergeKey)
	}

	// Confirmed targets reject new contributors for the same reason booking
	// does: the closed bucket's totals are frozen.
	if bucket, err := s.Repo.GetCapacity(ctx, req.CompanyCode, req.Date, models.MergeDayKey(req.ToMergeKey)); err == nil {
		if bucket.TripStatus == models.TripFull {
			return nil, newError(KindConflict, "merge %s is already confirmed, cancel and rebook", req.ToMergeKey)
		}
	} else if err != slotRepo.ErrNotFound {
		return nil, err
	}

	fromKey := b.MergeKey
	mv := slotRepo.BucketMove{
		Company:       req.CompanyCode,
		Date:          req.Date,
		SlotTime:      b.SlotTime,
		BookingKey:    b.Key,
		NewBookingKey: models.HalfBookingKey(b.SlotTime, req.ToMergeKey, b.UserID, b.BookingID),
		FromMergeKey:  fromKey,
		ToMergeKey:    req.ToMergeKey,
		Amount:        b.Amount,
		MovedBy:       req.By,
	}
	if err := s.Repo.MoveBookingBucket(ctx, mv); err != nil {
		if err == slotRepo.ErrInsufficientBucket {
			return nil, newError(KindConflict, "merge buckets changed concurrently, retry")
		}
		return nil, err
	}

	if err := s.Orders.SetMergeKey(ctx, b.OrderID, req.ToMergeKey); err != nil && err != orderRepo.ErrNotFound {
		return nil, err
	}

	if _, err := s.Recompute(ctx, req.CompanyCode, req.Date, fromKey); err != nil {
		return nil, err
	}
	sum, err := s.Recompute(ctx, req.CompanyCode, req.Date, req.ToMergeKey)
	if err != nil {
		return nil, err
	}

	r, err := s.Rules.Resolve(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	tripStatus := TripStatusFor(sum.Day.Count, sum.Day.Amount, r.Threshold)

	s.appendEvent(ctx, timeline.AppendRequest{
		OrderID:    b.OrderID,
		Event:      "BOOKING_MOVED",
		Step:       "MERGE",
		By:         req.By,
		ByUserName: req.ByName,
		Role:       req.Role,
		Amount:     b.Amount,
		Data:       map[string]interface{}{"fromMergeKey": fromKey, "toMergeKey": req.ToMergeKey},
	})

	res := &MoveResult{
		BookingKey: mv.NewBookingKey,
		FromKey:    fromKey,
		ToKey:      req.ToMergeKey,
		TripStatus: tripStatus,
	}

	if req.AutoConfirm && tripStatus == models.TripReady {
		conf, cerr := s.ConfirmMerge(ctx, ConfirmRequest{
			CompanyCode: req.CompanyCode,
			Date:        req.Date,
			SlotTime:    b.SlotTime,
			MergeKey:    req.ToMergeKey,
			DayWide:     true,
			By:          req.By,
			ByName:      req.ByName,
			Role:        req.Role,
			Position:    req.Position,
		})
		if cerr != nil {
			utils.GetLogger().Warn("auto-confirm after move failed",
				zap.String("mergeKey", req.ToMergeKey), zap.Error(cerr))
		} else {
			res.Confirmed = conf
			res.TripStatus = models.TripFull
		}
	}
	return res, nil
}
