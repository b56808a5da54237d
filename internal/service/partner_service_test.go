package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-service/internal/models"
	"procurement-service/internal/pricelist"
)

const validPriceList = `
shop: TestShop
categories:
  - id: 1
    name: Phones
goods:
  - id: 10
    category: 1
    name: Phone
    model: test/phone
    price: 100
    price_rrc: 120
    quantity: 5
    parameters:
      color: red
`

func TestImportFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(validPriceList))
	}))
	defer srv.Close()

	fs := newFakeStore()
	svc := NewPartnerService(fs, t.TempDir())

	result, err := svc.ImportFromURL(context.Background(), 1, srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "TestShop", result.Shop.Name)
	assert.Equal(t, 1, result.Categories)
	assert.Equal(t, 1, result.Goods)
	require.Len(t, fs.replacedDocs, 1)
	assert.Equal(t, "red", fs.replacedDocs[0].Goods[0].Parameters["color"])
}

func TestImportFromURLRejectsMalformedList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("shop: ''\ngoods: []\n"))
	}))
	defer srv.Close()

	fs := newFakeStore()
	svc := NewPartnerService(fs, t.TempDir())

	_, err := svc.ImportFromURL(context.Background(), 1, srv.URL)
	assert.ErrorIs(t, err, pricelist.ErrMalformed)

	// Nothing reached the store.
	assert.Empty(t, fs.replacedDocs)
}

func TestImportFromURLSurfacesFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	fs := newFakeStore()
	svc := NewPartnerService(fs, t.TempDir())

	_, err := svc.ImportFromURL(context.Background(), 1, srv.URL)
	assert.Error(t, err)
	assert.Empty(t, fs.replacedDocs)
}

func TestImportFromURLRejectsForeignShop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(validPriceList))
	}))
	defer srv.Close()

	fs := newFakeStore()
	fs.shops[1] = &models.Shop{ID: 1, Name: "TestShop", UserID: 42, State: true}
	svc := NewPartnerService(fs, t.TempDir())

	_, err := svc.ImportFromURL(context.Background(), 1, srv.URL)
	assert.ErrorIs(t, err, ErrShopNotOwned)
}

func TestImportFromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop1.yaml"), []byte(validPriceList), 0o644))

	fs := newFakeStore()
	svc := NewPartnerService(fs, dir)

	result, err := svc.ImportFromFile(context.Background(), 1, "shop1.yaml")
	require.NoError(t, err)
	assert.Equal(t, "TestShop", result.Shop.Name)
}

func TestImportFromFileRejectsPathEscape(t *testing.T) {
	svc := NewPartnerService(newFakeStore(), t.TempDir())

	for _, name := range []string{"", "../etc/passwd", "a/b.yaml", ".hidden"} {
		_, err := svc.ImportFromFile(context.Background(), 1, name)
		assert.ErrorIs(t, err, ErrBadFileName, name)
	}
}

func TestShopState(t *testing.T) {
	fs := newFakeStore()
	fs.shops[1] = &models.Shop{ID: 1, Name: "TestShop", UserID: 1, State: true}
	svc := NewPartnerService(fs, t.TempDir())

	shop, err := svc.GetState(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.True(t, shop.State)

	shop, err = svc.SetState(context.Background(), 1, 1, false)
	require.NoError(t, err)
	assert.False(t, shop.State)
	assert.False(t, fs.shops[1].State)
}

func TestShopStateRejectsForeignShop(t *testing.T) {
	fs := newFakeStore()
	fs.shops[1] = &models.Shop{ID: 1, Name: "TestShop", UserID: 42, State: true}
	svc := NewPartnerService(fs, t.TempDir())

	_, err := svc.GetState(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrShopNotOwned)

	_, err = svc.SetState(context.Background(), 1, 1, false)
	assert.ErrorIs(t, err, ErrShopNotOwned)
	assert.True(t, fs.shops[1].State)
}
