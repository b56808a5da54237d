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
	ErrUnknownListing    = errors.New("unknown product listing")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
	ErrEmptyBatch        = errors.New("no items in request")
)

// BasketStore is the persistence surface the basket service needs.
type BasketStore interface {
	GetProductInfosByIDs(ctx context.Context, ids []int64) ([]models.ProductInfo, error)
	GetOrCreateBasket(ctx context.Context, userID int64) (*models.Order, error)
	GetBasket(ctx context.Context, userID int64) (*models.Order, error)
	UpsertOrderItem(ctx context.Context, orderID, productInfoID int64, quantity int) error
	DeleteBasket(ctx context.Context, userID int64) error
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItemDetail, error)
	OrderTotal(ctx context.Context, orderID int64) (int64, error)
}

type BasketService struct {
	store  BasketStore
	logger *zap.Logger
}

// NewBasketService creates a new basket service
func NewBasketService(s BasketStore) *BasketService {
	return &BasketService{store: s, logger: util.GetLogger()}
}

// BasketItemRequest is one line of a basket update batch.
type BasketItemRequest struct {
	ProductInfoID int64 `json:"product_info" binding:"required"`
	Quantity      int   `json:"quantity" binding:"required"`
}

// Get returns the user's basket with items and total. A user who never
// added anything gets an empty basket view, not an error.
func (s *BasketService) Get(ctx context.Context, userID int64) (*models.OrderSummary, error) {
	order, err := s.store.GetBasket(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.OrderSummary{
			Status: models.OrderStatusBasket,
			Items:  []models.OrderItemDetail{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load basket: %w", err)
	}

	items, err := s.store.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load basket items: %w", err)
	}
	total, err := s.store.OrderTotal(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute basket total: %w", err)
	}

	return &models.OrderSummary{
		ID:        order.ID,
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
		TotalSum:  total,
		Items:     items,
	}, nil
}

// AddItems applies a batch of basket lines. The whole batch is validated
// against the catalog first; any bad line rejects the batch with no writes.
// A line for a listing already in the basket overwrites its quantity.
func (s *BasketService) AddItems(ctx context.Context, userID int64, items []BasketItemRequest) (*models.OrderSummary, error) {
	ctx, span := util.StartSpan(ctx, "BasketService.AddItems")
	defer span.End()

	if len(items) == 0 {
		util.BasketRejectionsTotal.WithLabelValues("empty_batch").Inc()
		return nil, ErrEmptyBatch
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			util.BasketRejectionsTotal.WithLabelValues("bad_quantity").Inc()
			return nil, fmt.Errorf("%w: listing %d", ErrInvalidQuantity, item.ProductInfoID)
		}
		ids = append(ids, item.ProductInfoID)
	}

	infos, err := s.store.GetProductInfosByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	stock := make(map[int64]int, len(infos))
	for _, info := range infos {
		stock[info.ID] = info.Quantity
	}

	for _, item := range items {
		available, ok := stock[item.ProductInfoID]
		if !ok {
			util.BasketRejectionsTotal.WithLabelValues("unknown_listing").Inc()
			return nil, fmt.Errorf("%w: %d", ErrUnknownListing, item.ProductInfoID)
		}
		if item.Quantity > available {
			util.BasketRejectionsTotal.WithLabelValues("stock").Inc()
			return nil, fmt.Errorf("%w: listing %d has %d, requested %d",
				ErrInsufficientStock, item.ProductInfoID, available, item.Quantity)
		}
	}

	order, err := s.store.GetOrCreateBasket(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to open basket: %w", err)
	}
	for _, item := range items {
		if err := s.store.UpsertOrderItem(ctx, order.ID, item.ProductInfoID, item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to write basket line: %w", err)
		}
	}

	util.BasketUpdatesTotal.Inc()
	s.logger.Info("basket updated",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", order.ID),
		zap.Int("lines", len(items)))

	return s.Get(ctx, userID)
}

// Clear deletes the user's basket and everything in it.
func (s *BasketService) Clear(ctx context.Context, userID int64) error {
	if err := s.store.DeleteBasket(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("basket cleared", zap.Int64("user_id", userID))
	return nil
}
