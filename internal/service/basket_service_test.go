package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-service/internal/models"
)

func basketFixture() *fakeStore {
	fs := newFakeStore()
	fs.infos[101] = models.ProductInfo{ID: 101, ShopID: 1, Price: 100, Quantity: 5}
	fs.infos[102] = models.ProductInfo{ID: 102, ShopID: 1, Price: 250, Quantity: 2}
	return fs
}

func TestGetBasketEmpty(t *testing.T) {
	svc := NewBasketService(basketFixture())

	basket, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusBasket, basket.Status)
	assert.Empty(t, basket.Items)
	assert.Zero(t, basket.TotalSum)
}

func TestAddItems(t *testing.T) {
	fs := basketFixture()
	svc := NewBasketService(fs)

	basket, err := svc.AddItems(context.Background(), 1, []BasketItemRequest{
		{ProductInfoID: 101, Quantity: 2},
		{ProductInfoID: 102, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Len(t, basket.Items, 2)
	assert.Equal(t, int64(2*100+1*250), basket.TotalSum)
}

func TestAddItemsOverwritesQuantity(t *testing.T) {
	fs := basketFixture()
	svc := NewBasketService(fs)

	_, err := svc.AddItems(context.Background(), 1, []BasketItemRequest{
		{ProductInfoID: 101, Quantity: 2},
	})
	require.NoError(t, err)

	// A second batch for the same listing replaces the quantity, it does
	// not add to it.
	basket, err := svc.AddItems(context.Background(), 1, []BasketItemRequest{
		{ProductInfoID: 101, Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, basket.Items, 1)
	assert.Equal(t, 3, basket.Items[0].Quantity)
	assert.Equal(t, int64(300), basket.TotalSum)
}

func TestAddItemsRejectsOverStock(t *testing.T) {
	fs := basketFixture()
	svc := NewBasketService(fs)

	// One bad line rejects the whole batch, including the valid line.
	_, err := svc.AddItems(context.Background(), 1, []BasketItemRequest{
		{ProductInfoID: 102, Quantity: 1},
		{ProductInfoID: 101, Quantity: 6},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	basket, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, basket.Items)
}

func TestAddItemsRejectsUnknownListing(t *testing.T) {
	svc := NewBasketService(basketFixture())

	_, err := svc.AddItems(context.Background(), 1, []BasketItemRequest{
		{ProductInfoID: 999, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrUnknownListing)
}

func TestAddItemsRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewBasketService(basketFixture())

	for _, qty := range []int{0, -1} {
		_, err := svc.AddItems(context.Background(), 1, []BasketItemRequest{
			{ProductInfoID: 101, Quantity: qty},
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestAddItemsRejectsEmptyBatch(t *testing.T) {
	svc := NewBasketService(basketFixture())

	_, err := svc.AddItems(context.Background(), 1, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestClearBasket(t *testing.T) {
	fs := basketFixture()
	svc := NewBasketService(fs)

	_, err := svc.AddItems(context.Background(), 1, []BasketItemRequest{
		{ProductInfoID: 101, Quantity: 1},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), 1))

	basket, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, basket.Items)
}
