package slot

import (
	"context"
	"fmt"
	"strings"

	orderRepo "loadline/database/repository/order"
	slotRepo "loadline/database/repository/slot"
	"loadline/models"
	"loadline/services/notification"
	"loadline/services/timeline"
	"loadline/utils"

	"go.uber.org/zap"
)

// CancelBooking releases whatever slot state the order holds. A child of a
// confirmed merge redirects to cancelling the whole merge, matching what the
// dispatcher sees on screen.
func (s *DefaultSlotService) CancelBooking(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	if req.CompanyCode == "" || req.Date == "" || req.OrderID == "" {
		return nil, newError(KindInvalidInput, "companyCode, date and orderId are required")
	}

	order, err := s.Orders.Get(ctx, req.OrderID)
	if err == orderRepo.ErrNotFound {
		return nil, newError(KindNotFound, "order %s not found", req.OrderID)
	}
	if err != nil {
		return nil, err
	}

	// Merged child or master: the unit of cancellation is the merge itself.
	if order.MergedIntoOrderID != "" {
		if master, merr := s.Orders.Get(ctx, order.MergedIntoOrderID); merr == nil {
			order = master
		}
	}
	if order.Kind() == models.MasterOrder {
		mergeReq := req
		mergeReq.OrderID = order.OrderID
		return s.cancelMergeByOrder(ctx, mergeReq, order)
	}

	return s.cancelLeafBooking(ctx, req, order)
}

func (s *DefaultSlotService) cancelLeafBooking(ctx context.Context, req CancelRequest, order *models.Order) (*CancelResult, error) {
	bookings, err := s.Repo.ListBookings(ctx, req.CompanyCode, req.Date)
	if err != nil {
		return nil, err
	}

	var booking *models.Booking
	for i := range bookings {
		b := &bookings[i]
		if b.OrderID == order.OrderID && b.Status != models.BookingMerged {
			booking = b
			break
		}
	}

	canc := slotRepo.BookingCancellation{
		Company: req.CompanyCode,
		Date:    req.Date,
		OrderID: order.OrderID,
	}
	result := &CancelResult{OrderID: order.OrderID}

	if booking != nil {
		canc.BookingKey = booking.Key
		result.VehicleClass = booking.VehicleClass

		switch booking.VehicleClass {
		case models.VehicleFull:
			canc.ReleaseSlotTime = booking.SlotTime
			canc.ReleasePosition = booking.Position
			result.FreedSlotTime = booking.SlotTime
			result.FreedPosition = booking.Position
		case models.VehicleHalf:
			canc.BucketDebits = []slotRepo.BucketDebit{
				{Key: models.MergeTimeKey(booking.SlotTime, booking.MergeKey), Amount: booking.Amount, Count: 1},
				{Key: models.MergeDayKey(booking.MergeKey), Amount: booking.Amount, Count: 1},
			}
			result.MergeKey = booking.MergeKey
		}
	}

	if err := s.Repo.CancelBooking(ctx, canc); err != nil {
		if err == slotRepo.ErrInsufficientBucket {
			// Counters drifted; fall through to the recompute below after
			// removing the booking and lock without the debits.
			canc.BucketDebits = nil
			if err2 := s.Repo.CancelBooking(ctx, canc); err2 != nil {
				return nil, err2
			}
		} else {
			return nil, err
		}
	}

	if result.MergeKey != "" {
		if _, err := s.Recompute(ctx, req.CompanyCode, req.Date, result.MergeKey); err != nil {
			return nil, err
		}
	}

	utils.GetLogger().Info("booking cancelled",
		zap.String("company", req.CompanyCode),
		zap.String("orderId", order.OrderID),
		zap.String("vehicleClass", result.VehicleClass))

	s.appendEvent(ctx, timeline.AppendRequest{
		OrderID:         order.OrderID,
		Event:           "BOOKING_CANCELLED",
		Step:            "BOOKING",
		By:              req.By,
		ByUserName:      req.ByName,
		Role:            req.Role,
		DistributorName: order.DistributorName,
		NotifyTopic:     notification.CompanyTopic(req.CompanyCode),
		NotifyTitle:     "Booking cancelled",
		NotifyBody:      fmt.Sprintf("Booking for order %s was cancelled", order.OrderID),
	})

	return result, nil
}

// CancelConfirmedMerge reverses a confirmed merge by order id: the master
// order and its FULL slot are removed, every child reverts to an unbooked
// order with a pending HALF booking, and the buckets are rebuilt.
func (s *DefaultSlotService) CancelConfirmedMerge(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	order, err := s.Orders.Get(ctx, req.OrderID)
	if err == orderRepo.ErrNotFound {
		return nil, newError(KindNotFound, "order %s not found", req.OrderID)
	}
	if err != nil {
		return nil, err
	}
	if order.Kind() != models.MasterOrder {
		if order.MergedIntoOrderID == "" {
			return nil, newError(KindInvalidTransition, "order %s is not part of a confirmed merge", req.OrderID)
		}
		master, merr := s.Orders.Get(ctx, order.MergedIntoOrderID)
		if merr != nil {
			return nil, merr
		}
		order = master
	}
	return s.cancelMergeByOrder(ctx, req, order)
}

func (s *DefaultSlotService) cancelMergeByOrder(ctx context.Context, req CancelRequest, master *models.Order) (*CancelResult, error) {
	mergeKey := master.MergeKey
	if mergeKey == "" {
		return nil, newError(KindInvalidTransition, "master order %s has no merge key", master.OrderID)
	}
	date := master.SlotDate
	if date == "" {
		date = req.Date
	}

	dayBucket, err := s.Repo.GetCapacity(ctx, req.CompanyCode, date, models.MergeDayKey(mergeKey))
	if err == slotRepo.ErrNotFound {
		return nil, newError(KindNotFound, "merge %s not found on %s", mergeKey, date)
	}
	if err != nil {
		return nil, err
	}
	if dayBucket.TripStatus != models.TripFull {
		return nil, newError(KindInvalidTransition, "only confirmed merges can be cancelled")
	}

	bookings, err := s.Repo.ListBookings(ctx, req.CompanyCode, date)
	if err != nil {
		return nil, err
	}

	fullBookingKey := ""
	for i := range bookings {
		b := &bookings[i]
		if b.VehicleClass == models.VehicleFull && b.OrderID == master.OrderID {
			fullBookingKey = b.Key
			break
		}
	}

	var children []slotRepo.ChildMark
	for i := range bookings {
		b := &bookings[i]
		if b.VehicleClass == models.VehicleHalf && b.MergeKey == mergeKey && b.Status == models.BookingMerged {
			children = append(children, slotRepo.ChildMark{BookingKey: b.Key, OrderID: b.OrderID})
		}
	}
	if len(children) == 0 {
		return nil, newError(KindNotFound, "no merged bookings found for %s", mergeKey)
	}

	caps, err := s.Repo.ListCapacity(ctx, req.CompanyCode, date)
	if err != nil {
		return nil, err
	}
	resetKeys := []string{models.MergeDayKey(mergeKey)}
	for i := range caps {
		c := &caps[i]
		if c.MergeKey == mergeKey && strings.HasPrefix(c.Key, "MERGE_SLOT#") {
			resetKeys = append(resetKeys, c.Key)
		}
	}

	canc := slotRepo.MergeCancellation{
		Company:         req.CompanyCode,
		Date:            date,
		SlotTime:        master.SlotTime,
		Position:        master.SlotPosition,
		MasterOrderID:   master.OrderID,
		FullBookingKey:  fullBookingKey,
		Children:        children,
		ResetBucketKeys: resetKeys,
	}
	if err := s.Repo.CancelConfirmedMerge(ctx, canc); err != nil {
		return nil, err
	}

	if _, err := s.Recompute(ctx, req.CompanyCode, date, mergeKey); err != nil {
		return nil, err
	}

	resetIDs := make([]string, 0, len(children))
	for _, c := range children {
		resetIDs = append(resetIDs, c.OrderID)
	}

	utils.GetLogger().Info("confirmed merge cancelled",
		zap.String("company", req.CompanyCode),
		zap.String("mergeKey", mergeKey),
		zap.String("masterOrderId", master.OrderID),
		zap.Int("children", len(resetIDs)))

	s.appendEvent(ctx, timeline.AppendRequest{
		SlotID:      master.SlotID,
		Event:       "MERGE_CANCELLED",
		Step:        "MERGE",
		By:          req.By,
		ByUserName:  req.ByName,
		Role:        req.Role,
		Data:        map[string]interface{}{"mergeKey": mergeKey, "masterOrderId": master.OrderID, "resetOrderIds": resetIDs},
		NotifyTopic: notification.CompanyTopic(req.CompanyCode),
		NotifyTitle: "Merge cancelled",
		NotifyBody:  fmt.Sprintf("Merge %s was cancelled, slot %s freed", mergeKey, master.SlotTime),
	})

	return &CancelResult{
		OrderID:        master.OrderID,
		VehicleClass:   models.VehicleFull,
		FreedSlotTime:  master.SlotTime,
		FreedPosition:  master.SlotPosition,
		MergeKey:       mergeKey,
		ResetOrderIDs:  resetIDs,
		MergeCancelled: true,
	}, nil
}
