package store

import (
	"context"
	"database/sql"
	"errors"

	"procurement-service/internal/models"
)

// ErrWrongOrderState is returned when a guarded status transition matched
// no row, meaning the order left the expected state concurrently.
var ErrWrongOrderState = errors.New("order is not in the expected state")

// GetOrCreateBasket returns the user's basket order, creating it when
// absent. At most one basket exists per user (partial unique index).
func (s *Store) GetOrCreateBasket(ctx context.Context, userID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		INSERT INTO orders (user_id, status) VALUES ($1, $2)
		ON CONFLICT (user_id) WHERE status = 'basket'
		DO UPDATE SET updated_at = NOW()
		RETURNING *`, userID, models.OrderStatusBasket)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetBasket retrieves the user's basket order without items.
func (s *Store) GetBasket(ctx context.Context, userID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE user_id = $1 AND status = $2",
		userID, models.OrderStatusBasket)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpsertOrderItem writes an order line keyed by (order, listing); a second
// write for the same listing overwrites the quantity.
func (s *Store) UpsertOrderItem(ctx context.Context, orderID, productInfoID int64, quantity int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO order_items (order_id, product_info_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, product_info_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		orderID, productInfoID, quantity)
	return err
}

// DeleteBasket removes the user's basket order and its items.
func (s *Store) DeleteBasket(ctx context.Context, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM orders WHERE user_id = $1 AND status = $2",
		userID, models.OrderStatusBasket)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ConfirmOrder transitions a basket order to state new with the chosen
// contact attached. The status guard makes concurrent confirmations of the
// same basket race safely: only one update matches.
func (s *Store) ConfirmOrder(ctx context.Context, orderID, contactID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, contact_id = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`,
		models.OrderStatusNew, contactID, orderID, models.OrderStatusBasket)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWrongOrderState
	}
	return nil
}

// OrderTotal computes sum(quantity * listing price) over an order's items.
func (s *Store) OrderTotal(ctx context.Context, orderID int64) (int64, error) {
	var total int64
	err := s.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(oi.quantity * pi.price), 0)
		FROM order_items oi
		JOIN product_infos pi ON pi.id = oi.product_info_id
		WHERE oi.order_id = $1`, orderID)
	return total, err
}

// GetOrderItems retrieves all lines of an order with listing detail.
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItemDetail, error) {
	items := []models.OrderItemDetail{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT oi.id, oi.order_id, oi.product_info_id, oi.quantity,
		       p.name AS product_name, pi.shop_id, pi.price
		FROM order_items oi
		JOIN product_infos pi ON pi.id = oi.product_info_id
		JOIN products p ON p.id = pi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	return items, err
}

// ListOrdersByUser retrieves the user's placed (non-basket) orders with
// items, contact and computed totals, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]models.OrderSummary, error) {
	return s.listOrders(ctx, `
		SELECT o.id, o.status, o.created_at, o.contact_id,
		       COALESCE((SELECT SUM(oi.quantity * pi.price)
		                 FROM order_items oi
		                 JOIN product_infos pi ON pi.id = oi.product_info_id
		                 WHERE oi.order_id = o.id), 0) AS total_sum
		FROM orders o
		WHERE o.user_id = $1 AND o.status <> 'basket'
		ORDER BY o.created_at DESC`, userID)
}

// ListOrdersByPartner retrieves placed orders containing at least one item
// from a shop owned by the given user.
func (s *Store) ListOrdersByPartner(ctx context.Context, userID int64) ([]models.OrderSummary, error) {
	return s.listOrders(ctx, `
		SELECT o.id, o.status, o.created_at, o.contact_id,
		       COALESCE((SELECT SUM(oi.quantity * pi.price)
		                 FROM order_items oi
		                 JOIN product_infos pi ON pi.id = oi.product_info_id
		                 WHERE oi.order_id = o.id), 0) AS total_sum
		FROM orders o
		WHERE o.status <> 'basket'
		  AND EXISTS (SELECT 1
		              FROM order_items oi
		              JOIN product_infos pi ON pi.id = oi.product_info_id
		              JOIN shops sh ON sh.id = pi.shop_id
		              WHERE oi.order_id = o.id AND sh.user_id = $1)
		ORDER BY o.created_at DESC`, userID)
}

func (s *Store) listOrders(ctx context.Context, query string, arg int64) ([]models.OrderSummary, error) {
	var rows []struct {
		ID        int64         `db:"id"`
		Status    string        `db:"status"`
		CreatedAt sql.NullTime  `db:"created_at"`
		ContactID sql.NullInt64 `db:"contact_id"`
		TotalSum  int64         `db:"total_sum"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, err
	}

	orders := make([]models.OrderSummary, 0, len(rows))
	for _, r := range rows {
		summary := models.OrderSummary{ID: r.ID, Status: r.Status, TotalSum: r.TotalSum}
		if r.CreatedAt.Valid {
			summary.CreatedAt = r.CreatedAt.Time
		}

		items, err := s.GetOrderItems(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		summary.Items = items

		if r.ContactID.Valid {
			contact, err := s.GetContactByID(ctx, r.ContactID.Int64)
			if err != nil && err != ErrNotFound {
				return nil, err
			}
			summary.Contact = contact
		}
		orders = append(orders, summary)
	}
	return orders, nil
}
