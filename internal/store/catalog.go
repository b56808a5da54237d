package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"procurement-service/internal/models"
	"procurement-service/internal/pricelist"

	"github.com/jmoiron/sqlx"
)

// ErrShopNotOwned is returned when a price list names a shop that belongs
// to a different user.
var ErrShopNotOwned = errors.New("shop belongs to another user")

// ReplaceShopCatalog applies a parsed price list in a single transaction:
// the shop is resolved or created for the importing user, categories are
// merged into the shop's set, and the shop's listings are replaced wholesale.
// Readers never observe an empty intermediate catalog.
func (s *Store) ReplaceShopCatalog(ctx context.Context, userID int64, doc *pricelist.Document) (*models.Shop, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	shop, err := getOrCreateShop(ctx, tx, doc.Shop, userID)
	if err != nil {
		return nil, err
	}

	for _, c := range doc.Categories {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO categories (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, c.ID, c.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert category %d: %w", c.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO shop_categories (shop_id, category_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, shop.ID, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to attach category %d: %w", c.ID, err)
		}
	}

	// Full replace, not merge. Parameter values cascade with their listing.
	if _, err = tx.ExecContext(ctx, "DELETE FROM product_infos WHERE shop_id = $1", shop.ID); err != nil {
		return nil, fmt.Errorf("failed to clear listings: %w", err)
	}

	for _, g := range doc.Goods {
		var productID int64
		err = tx.GetContext(ctx, &productID, `
			INSERT INTO products (name, category_id) VALUES ($1, $2)
			ON CONFLICT (name, category_id) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, g.Name, g.Category)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert product %q: %w", g.Name, err)
		}

		var infoID int64
		err = tx.GetContext(ctx, &infoID, `
			INSERT INTO product_infos (product_id, shop_id, external_id, model, price, price_rrc, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`, productID, shop.ID, g.ID, g.Model, g.Price, g.PriceRRC, g.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to insert listing %d: %w", g.ID, err)
		}

		for name, value := range g.Parameters {
			var paramID int64
			err = tx.GetContext(ctx, &paramID, `
				INSERT INTO parameters (name) VALUES ($1)
				ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
				RETURNING id`, name)
			if err != nil {
				return nil, fmt.Errorf("failed to upsert parameter %q: %w", name, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO product_parameters (product_info_id, parameter_id, value)
				VALUES ($1, $2, $3)`, infoID, paramID, value)
			if err != nil {
				return nil, fmt.Errorf("failed to attach parameter %q: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return shop, nil
}

func getOrCreateShop(ctx context.Context, tx *sqlx.Tx, name string, userID int64) (*models.Shop, error) {
	var shop models.Shop
	err := tx.GetContext(ctx, &shop, "SELECT * FROM shops WHERE name = $1", name)
	if err == sql.ErrNoRows {
		err = tx.GetContext(ctx, &shop, `
			INSERT INTO shops (name, user_id) VALUES ($1, $2)
			RETURNING id, name, user_id, state`, name, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to create shop %q: %w", name, err)
		}
		return &shop, nil
	}
	if err != nil {
		return nil, err
	}
	if shop.UserID != userID {
		return nil, ErrShopNotOwned
	}
	return &shop, nil
}

// ListCategories retrieves all categories
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.SelectContext(ctx, &categories, "SELECT * FROM categories ORDER BY id")
	return categories, err
}

// ListActiveShops retrieves shops currently accepting orders
func (s *Store) ListActiveShops(ctx context.Context) ([]models.Shop, error) {
	shops := []models.Shop{}
	err := s.db.SelectContext(ctx, &shops,
		"SELECT * FROM shops WHERE state = TRUE ORDER BY id")
	return shops, err
}

// GetShopByID retrieves a shop by ID
func (s *Store) GetShopByID(ctx context.Context, id int64) (*models.Shop, error) {
	var shop models.Shop
	err := s.db.GetContext(ctx, &shop, "SELECT * FROM shops WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// UpdateShopState toggles a shop's active flag
func (s *Store) UpdateShopState(ctx context.Context, shopID int64, state bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE shops SET state = $1 WHERE id = $2", state, shopID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProductInfosByIDs retrieves multiple listings by ID
func (s *Store) GetProductInfosByIDs(ctx context.Context, ids []int64) ([]models.ProductInfo, error) {
	if len(ids) == 0 {
		return []models.ProductInfo{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM product_infos WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var infos []models.ProductInfo
	err = s.db.SelectContext(ctx, &infos, query, args...)
	return infos, err
}

// SearchListings retrieves listings with nested product, shop and parameter
// detail, optionally filtered by shop and/or category.
func (s *Store) SearchListings(ctx context.Context, shopID, categoryID *int64) ([]models.Listing, error) {
	listings := []models.Listing{}
	err := s.db.SelectContext(ctx, &listings, `
		SELECT pi.id, pi.model, pi.external_id, pi.price, pi.price_rrc, pi.quantity,
		       pi.shop_id, sh.name AS shop_name,
		       p.name AS product_name, p.category_id, c.name AS category_name
		FROM product_infos pi
		JOIN products p ON p.id = pi.product_id
		JOIN categories c ON c.id = p.category_id
		JOIN shops sh ON sh.id = pi.shop_id
		WHERE ($1::bigint IS NULL OR pi.shop_id = $1)
		  AND ($2::bigint IS NULL OR p.category_id = $2)
		ORDER BY pi.id`, shopID, categoryID)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return listings, nil
	}

	ids := make([]int64, len(listings))
	index := make(map[int64]*models.Listing, len(listings))
	for i := range listings {
		ids[i] = listings[i].ID
		index[listings[i].ID] = &listings[i]
	}

	query, args, err := sqlx.In(`
		SELECT pp.product_info_id, par.name, pp.value
		FROM product_parameters pp
		JOIN parameters par ON par.id = pp.parameter_id
		WHERE pp.product_info_id IN (?)
		ORDER BY par.name`, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var rows []struct {
		ProductInfoID int64  `db:"product_info_id"`
		Name          string `db:"name"`
		Value         string `db:"value"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, r := range rows {
		l := index[r.ProductInfoID]
		l.Parameters = append(l.Parameters, models.ParameterValue{Name: r.Name, Value: r.Value})
	}
	return listings, nil
}
