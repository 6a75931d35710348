package notification

import (
	"context"
	"fmt"

	"loadline/utils"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Notification is one push message. Company-wide events go out on the
// company topic; driver events target the driver topic.
type Notification struct {
	Topic string
	Title string
	Body  string
	Data  map[string]string
}

// CompanyTopic is the broadcast topic for a company's dispatch staff.
func CompanyTopic(companyCode string) string {
	return fmt.Sprintf("company_%s", companyCode)
}

// DriverTopic is the topic a driver's app subscribes to.
func DriverTopic(driverID string) string {
	return fmt.Sprintf("driver_%s", driverID)
}

// Notifier delivers push notifications. Delivery is best effort; callers
// never fail a committed operation on a notification error.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// FCMNotifier sends through Firebase Cloud Messaging.
type FCMNotifier struct {
	Client *messaging.Client
}

func NewFCMNotifier() *FCMNotifier {
	return &FCMNotifier{Client: utils.FCMClient}
}

func (f *FCMNotifier) Notify(ctx context.Context, n Notification) {
	logger := utils.GetLogger()
	if f.Client == nil {
		logger.Debug("fcm client not configured, dropping notification", zap.String("topic", n.Topic))
		return
	}

	msg := &messaging.Message{
		Topic: n.Topic,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	}
	if _, err := f.Client.Send(ctx, msg); err != nil {
		logger.Warn("push notification failed",
			zap.String("topic", n.Topic),
			zap.String("title", n.Title),
			zap.Error(err))
	}
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, n Notification) {}
