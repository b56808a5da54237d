package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"procurement-service/internal/models"
	"procurement-service/internal/store"
	"procurement-service/internal/util"
)

var (
	ErrOrderNotOwned   = errors.New("order belongs to another user")
	ErrContactNotOwned = errors.New("contact belongs to another user")
	ErrBasketEmpty     = errors.New("basket has no items")
	ErrWrongOrderState = errors.New("order is not a basket")
)

// OrderStore is the persistence surface the order service needs.
type OrderStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItemDetail, error)
	GetContactByID(ctx context.Context, id int64) (*models.Contact, error)
	ConfirmOrder(ctx context.Context, orderID, contactID int64) error
	OrderTotal(ctx context.Context, orderID int64) (int64, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.OrderSummary, error)
}

type OrderService struct {
	store  OrderStore
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(s OrderStore) *OrderService {
	return &OrderService{store: s, logger: util.GetLogger()}
}

// ConfirmResult carries the outcome of a confirmation plus the notification
// events for the caller to publish. The service changes state; it does not
// talk to the broker.
type ConfirmResult struct {
	OrderID       int64
	Total         int64
	BuyerEvent    models.OrderConfirmedEvent
	OperatorEvent models.OperatorNoticeEvent
}

// Confirm turns the user's basket into a placed order with the chosen
// delivery contact. Every check failure leaves the order untouched.
func (s *OrderService) Confirm(ctx context.Context, user *models.User, orderID, contactID int64) (*ConfirmResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Confirm")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.OrderConfirmFailuresTotal.WithLabelValues("not_found").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.UserID != user.ID {
		util.OrderConfirmFailuresTotal.WithLabelValues("ownership").Inc()
		return nil, ErrOrderNotOwned
	}
	if order.Status != models.OrderStatusBasket {
		util.OrderConfirmFailuresTotal.WithLabelValues("state").Inc()
		return nil, ErrWrongOrderState
	}

	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	if len(items) == 0 {
		util.OrderConfirmFailuresTotal.WithLabelValues("empty").Inc()
		return nil, ErrBasketEmpty
	}

	contact, err := s.store.GetContactByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.OrderConfirmFailuresTotal.WithLabelValues("contact").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}
	if contact.UserID != user.ID {
		util.OrderConfirmFailuresTotal.WithLabelValues("contact").Inc()
		return nil, ErrContactNotOwned
	}

	if err := s.store.ConfirmOrder(ctx, orderID, contactID); err != nil {
		if errors.Is(err, store.ErrWrongOrderState) {
			util.OrderConfirmFailuresTotal.WithLabelValues("state").Inc()
			return nil, ErrWrongOrderState
		}
		return nil, fmt.Errorf("failed to confirm order: %w", err)
	}

	total, err := s.store.OrderTotal(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute order total: %w", err)
	}

	util.OrdersConfirmedTotal.Inc()
	s.logger.Info("order confirmed",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", user.ID),
		zap.Int64("total", total))

	return &ConfirmResult{
		OrderID: orderID,
		Total:   total,
		BuyerEvent: models.OrderConfirmedEvent{
			OrderID: orderID,
			UserID:  user.ID,
			Email:   user.Email,
			Total:   total,
		},
		OperatorEvent: models.OperatorNoticeEvent{
			OrderID: orderID,
			UserID:  user.ID,
			Email:   user.Email,
			Total:   total,
			Contact: contact,
		},
	}, nil
}

// ListOrders returns the user's placed orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.OrderSummary, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}
