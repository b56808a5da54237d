package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"procurement-service/internal/models"
	"procurement-service/internal/pricelist"
	"procurement-service/internal/store"
	"procurement-service/internal/util"
)

var (
	ErrShopNotOwned = errors.New("shop belongs to another user")
	ErrBadFileName  = errors.New("invalid price list file name")
)

const maxPriceListBytes = 8 << 20

// PartnerStore is the persistence surface the partner service needs.
type PartnerStore interface {
	ReplaceShopCatalog(ctx context.Context, userID int64, doc *pricelist.Document) (*models.Shop, error)
	GetShopByID(ctx context.Context, id int64) (*models.Shop, error)
	UpdateShopState(ctx context.Context, shopID int64, state bool) error
	ListOrdersByPartner(ctx context.Context, userID int64) ([]models.OrderSummary, error)
}

type PartnerService struct {
	store    PartnerStore
	client   *http.Client
	fileRoot string
	logger   *zap.Logger
}

// NewPartnerService creates a new partner service. fileRoot is the directory
// file-based imports are read from.
func NewPartnerService(s PartnerStore, fileRoot string) *PartnerService {
	return &PartnerService{
		store:    s,
		client:   &http.Client{Timeout: 30 * time.Second},
		fileRoot: fileRoot,
		logger:   util.GetLogger(),
	}
}

// ImportResult reports what a successful import wrote.
type ImportResult struct {
	Shop       *models.Shop `json:"shop"`
	Categories int          `json:"categories"`
	Goods      int          `json:"goods"`
}

// ImportFromURL fetches a YAML price list over HTTP and applies it.
func (s *PartnerService) ImportFromURL(ctx context.Context, userID int64, url string) (*ImportResult, error) {
	ctx, span := util.StartSpan(ctx, "PartnerService.ImportFromURL")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		util.CatalogImportFailuresTotal.WithLabelValues("fetch").Inc()
		return nil, fmt.Errorf("invalid price list url: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		util.CatalogImportFailuresTotal.WithLabelValues("fetch").Inc()
		return nil, fmt.Errorf("failed to fetch price list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		util.CatalogImportFailuresTotal.WithLabelValues("fetch").Inc()
		return nil, fmt.Errorf("price list fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPriceListBytes))
	if err != nil {
		util.CatalogImportFailuresTotal.WithLabelValues("fetch").Inc()
		return nil, fmt.Errorf("failed to read price list body: %w", err)
	}

	return s.importData(ctx, userID, data)
}

// ImportFromFile applies a YAML price list from the configured import
// directory. name must be a bare file name.
func (s *PartnerService) ImportFromFile(ctx context.Context, userID int64, name string) (*ImportResult, error) {
	ctx, span := util.StartSpan(ctx, "PartnerService.ImportFromFile")
	defer span.End()

	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		util.CatalogImportFailuresTotal.WithLabelValues("fetch").Inc()
		return nil, ErrBadFileName
	}

	data, err := os.ReadFile(filepath.Join(s.fileRoot, name))
	if err != nil {
		util.CatalogImportFailuresTotal.WithLabelValues("fetch").Inc()
		return nil, fmt.Errorf("failed to read price list file: %w", err)
	}

	return s.importData(ctx, userID, data)
}

// importData parses the whole document before touching the store, so a
// malformed price list leaves the catalog untouched.
func (s *PartnerService) importData(ctx context.Context, userID int64, data []byte) (*ImportResult, error) {
	start := time.Now()

	doc, err := pricelist.Parse(data)
	if err != nil {
		util.CatalogImportFailuresTotal.WithLabelValues("parse").Inc()
		return nil, err
	}

	shop, err := s.store.ReplaceShopCatalog(ctx, userID, doc)
	if err != nil {
		if errors.Is(err, store.ErrShopNotOwned) {
			util.CatalogImportFailuresTotal.WithLabelValues("ownership").Inc()
			return nil, ErrShopNotOwned
		}
		util.CatalogImportFailuresTotal.WithLabelValues("store").Inc()
		return nil, fmt.Errorf("failed to apply price list: %w", err)
	}

	util.CatalogImportsTotal.Inc()
	util.CatalogImportDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("price list imported",
		zap.Int64("user_id", userID),
		zap.Int64("shop_id", shop.ID),
		zap.String("shop", shop.Name),
		zap.Int("categories", len(doc.Categories)),
		zap.Int("goods", len(doc.Goods)))

	return &ImportResult{
		Shop:       shop,
		Categories: len(doc.Categories),
		Goods:      len(doc.Goods),
	}, nil
}

// GetState returns a shop's order-acceptance state after an ownership check.
func (s *PartnerService) GetState(ctx context.Context, userID, shopID int64) (*models.Shop, error) {
	shop, err := s.store.GetShopByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if shop.UserID != userID {
		return nil, ErrShopNotOwned
	}
	return shop, nil
}

// SetState toggles whether an owned shop accepts orders.
func (s *PartnerService) SetState(ctx context.Context, userID, shopID int64, state bool) (*models.Shop, error) {
	shop, err := s.GetState(ctx, userID, shopID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateShopState(ctx, shopID, state); err != nil {
		return nil, fmt.Errorf("failed to update shop state: %w", err)
	}
	shop.State = state

	s.logger.Info("shop state changed",
		zap.Int64("shop_id", shopID),
		zap.Bool("state", state))
	return shop, nil
}

// Orders returns placed orders containing the partner's listings.
func (s *PartnerService) Orders(ctx context.Context, userID int64) ([]models.OrderSummary, error) {
	return s.store.ListOrdersByPartner(ctx, userID)
}
