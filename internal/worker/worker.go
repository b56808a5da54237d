// Package worker runs the background notification consumer. Emails are
// composed here, off the request path, from events on the notification topic.
package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"procurement-service/internal/broker"
	"procurement-service/internal/mailer"
	"procurement-service/internal/models"
	"procurement-service/internal/util"
)

// NotificationWorker consumes notification events and sends the matching
// emails. One worker instance per process; Kafka's consumer group handles
// scale-out across processes.
type NotificationWorker struct {
	consumer   *broker.Consumer
	mail       mailer.Mailer
	adminEmail string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, mail mailer.Mailer, adminEmail string) *NotificationWorker {
	return &NotificationWorker{
		consumer:   consumer,
		mail:       mail,
		adminEmail: adminEmail,
	}
}

// Start begins consuming in a background goroutine.
func (w *NotificationWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	logger := util.Named("notifier")

	handler := broker.NewEventHandler(
		w.handleUserRegistered,
		w.handleOrderConfirmed,
		w.handleOperatorNotice,
	)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.StartConsuming(ctx, handler.HandleMessage); err != nil && ctx.Err() == nil {
			logger.Error("notification consumer stopped", zap.Error(err))
		}
	}()
}

// Stop cancels consumption and waits for the worker to drain.
func (w *NotificationWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *NotificationWorker) handleUserRegistered(ctx context.Context, event models.UserRegisteredEvent) error {
	subject := "Confirm your account"
	body := fmt.Sprintf("Your confirmation token: %s\n", event.Token)

	if err := w.mail.Send(ctx, event.Email, subject, body); err != nil {
		util.NotificationFailuresTotal.WithLabelValues(models.EventTypeUserRegistered).Inc()
		return err
	}

	util.NotificationsSentTotal.WithLabelValues(models.EventTypeUserRegistered).Inc()
	util.GetLogger().Info("confirmation email sent",
		zap.Int64("user_id", event.UserID),
		zap.String("email", event.Email))
	return nil
}

func (w *NotificationWorker) handleOrderConfirmed(ctx context.Context, event models.OrderConfirmedEvent) error {
	subject := fmt.Sprintf("Order %d placed", event.OrderID)
	body := fmt.Sprintf("Thank you for your order.\n\nOrder number: %d\nTotal: %d\n", event.OrderID, event.Total)

	if err := w.mail.Send(ctx, event.Email, subject, body); err != nil {
		util.NotificationFailuresTotal.WithLabelValues(models.EventTypeOrderConfirmed).Inc()
		return err
	}

	util.NotificationsSentTotal.WithLabelValues(models.EventTypeOrderConfirmed).Inc()
	util.GetLogger().Info("order receipt sent",
		zap.Int64("order_id", event.OrderID),
		zap.String("email", event.Email))
	return nil
}

func (w *NotificationWorker) handleOperatorNotice(ctx context.Context, event models.OperatorNoticeEvent) error {
	if w.adminEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("New order %d", event.OrderID)

	var body strings.Builder
	fmt.Fprintf(&body, "Order %d was placed by %s.\n", event.OrderID, event.Email)
	fmt.Fprintf(&body, "Total: %d\n", event.Total)
	if c := event.Contact; c != nil {
		fmt.Fprintf(&body, "Delivery: %s, %s %s, phone %s\n", c.City, c.Street, c.House, c.Phone)
	}

	if err := w.mail.Send(ctx, w.adminEmail, subject, body.String()); err != nil {
		util.NotificationFailuresTotal.WithLabelValues(models.EventTypeOperatorNotice).Inc()
		return err
	}

	util.NotificationsSentTotal.WithLabelValues(models.EventTypeOperatorNotice).Inc()
	util.GetLogger().Info("operator notice sent", zap.Int64("order_id", event.OrderID))
	return nil
}
