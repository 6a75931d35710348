package timeline

import (
	"context"
	"fmt"
	"time"

	orderRepo "loadline/database/repository/order"
	timelineRepo "loadline/database/repository/timeline"
	"loadline/models"
	"loadline/services/notification"
	"loadline/utils"

	"go.uber.org/zap"
)

// displayLayout renders timestamps for the dispatch UI, e.g.
// "05 Mar 2026, 02:45 PM".
const displayLayout = "02 Jan 2006, 03:04 PM"

// AppendRequest is one event to record against an order or a slot.
type AppendRequest struct {
	OrderID string
	SlotID  string

	Event string
	Step  string

	By              string
	ByUserName      string
	Role            string
	DistributorName string
	Amount          float64

	EventID string
	Data    map[string]interface{}

	NotifyTopic string
	NotifyTitle string
	NotifyBody  string
}

// Service is the append-only order/slot event ledger. Events against a
// merged order land on its master's timeline.
type Service interface {
	Append(ctx context.Context, req AppendRequest) (*models.TimelineEvent, error)
	ListByOrder(ctx context.Context, orderID string) (string, []models.TimelineEvent, error)
	ListBySlot(ctx context.Context, slotID string) ([]models.TimelineEvent, error)
}

type DefaultTimelineService struct {
	Repo     timelineRepo.Repository
	Orders   orderRepo.Repository
	Notifier notification.Notifier
	Location *time.Location
}

func NewDefaultTimelineService(repo timelineRepo.Repository, orders orderRepo.Repository, notifier notification.Notifier) *DefaultTimelineService {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.UTC
	}
	return &DefaultTimelineService{Repo: repo, Orders: orders, Notifier: notifier, Location: loc}
}

// resolveOrderID follows the merge redirect: events for a child order belong
// to the master that absorbed it.
func (s *DefaultTimelineService) resolveOrderID(ctx context.Context, orderID string) string {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return orderID
	}
	if o.MergedIntoOrderID != "" && o.MergedIntoOrderID != orderID {
		return o.MergedIntoOrderID
	}
	return orderID
}

func (s *DefaultTimelineService) Append(ctx context.Context, req AppendRequest) (*models.TimelineEvent, error) {
	logger := utils.GetLogger()

	if req.OrderID == "" && req.SlotID == "" {
		return nil, fmt.Errorf("orderId or slotId required")
	}
	if req.Event == "" {
		return nil, fmt.Errorf("event required")
	}

	subject := ""
	orderID := req.OrderID
	if orderID != "" {
		orderID = s.resolveOrderID(ctx, orderID)
		subject = "ORDER#" + orderID
	} else {
		subject = "SLOT#" + req.SlotID
	}

	now := time.Now().UTC()
	ev := &models.TimelineEvent{
		Subject:         subject,
		OrderID:         orderID,
		SlotID:          req.SlotID,
		Event:           req.Event,
		Step:            req.Step,
		Timestamp:       now,
		DisplayTime:     now.In(s.Location).Format(displayLayout),
		By:              req.By,
		ByUserName:      req.ByUserName,
		Role:            req.Role,
		DistributorName: req.DistributorName,
		Amount:          req.Amount,
		EventID:         req.EventID,
		Data:            req.Data,
		CreatedAt:       now,
	}

	if err := s.Repo.Append(ctx, ev); err != nil {
		if err == timelineRepo.ErrDuplicateEvent {
			logger.Debug("timeline append replayed", zap.String("eventId", req.EventID))
			return ev, nil
		}
		return nil, err
	}

	if req.NotifyTopic != "" && s.Notifier != nil {
		s.Notifier.Notify(ctx, notification.Notification{
			Topic: req.NotifyTopic,
			Title: req.NotifyTitle,
			Body:  req.NotifyBody,
			Data:  map[string]string{"event": req.Event, "orderId": orderID},
		})
	}
	return ev, nil
}

// ListByOrder returns the timeline of an order, following the merge
// redirect. The resolved order id is returned alongside the events.
func (s *DefaultTimelineService) ListByOrder(ctx context.Context, orderID string) (string, []models.TimelineEvent, error) {
	resolved := s.resolveOrderID(ctx, orderID)
	events, err := s.Repo.ListBySubject(ctx, "ORDER#"+resolved)
	if err != nil {
		return resolved, nil, err
	}
	return resolved, events, nil
}

func (s *DefaultTimelineService) ListBySlot(ctx context.Context, slotID string) ([]models.TimelineEvent, error) {
	return s.Repo.ListBySubject(ctx, "SLOT#"+slotID)
}
