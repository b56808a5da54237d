package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-service/internal/models"
	"procurement-service/internal/store"
)

// orderFixture sets up a buyer with a contact and a basket holding two
// lines worth 300 in total.
func orderFixture(t *testing.T) (*fakeStore, *models.User, *models.Order, *models.Contact) {
	t.Helper()
	fs := newFakeStore()

	user := &models.User{Email: "buyer@example.com", Type: models.UserTypeBuyer, Active: true}
	require.NoError(t, fs.CreateUser(context.Background(), user))

	contact := &models.Contact{UserID: user.ID, City: "Moscow", Street: "Arbat", Phone: "+7900"}
	require.NoError(t, fs.CreateContact(context.Background(), contact))

	fs.infos[101] = models.ProductInfo{ID: 101, ShopID: 1, Price: 100, Quantity: 5}
	fs.infos[102] = models.ProductInfo{ID: 102, ShopID: 1, Price: 50, Quantity: 5}

	order, err := fs.GetOrCreateBasket(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, fs.UpsertOrderItem(context.Background(), order.ID, 101, 2))
	require.NoError(t, fs.UpsertOrderItem(context.Background(), order.ID, 102, 2))

	return fs, user, order, contact
}

func TestConfirm(t *testing.T) {
	fs, user, order, contact := orderFixture(t)
	svc := NewOrderService(fs)

	result, err := svc.Confirm(context.Background(), user, order.ID, contact.ID)
	require.NoError(t, err)

	assert.Equal(t, order.ID, result.OrderID)
	assert.Equal(t, int64(300), result.Total)
	assert.Equal(t, models.OrderStatusNew, fs.orders[order.ID].Status)
	require.NotNil(t, fs.orders[order.ID].ContactID)
	assert.Equal(t, contact.ID, *fs.orders[order.ID].ContactID)

	assert.Equal(t, user.Email, result.BuyerEvent.Email)
	assert.Equal(t, int64(300), result.BuyerEvent.Total)
	require.NotNil(t, result.OperatorEvent.Contact)
	assert.Equal(t, "Moscow", result.OperatorEvent.Contact.City)
}

func TestConfirmRejectsForeignOrder(t *testing.T) {
	fs, _, order, contact := orderFixture(t)
	svc := NewOrderService(fs)

	other := &models.User{Email: "other@example.com", Type: models.UserTypeBuyer, Active: true}
	require.NoError(t, fs.CreateUser(context.Background(), other))

	_, err := svc.Confirm(context.Background(), other, order.ID, contact.ID)
	assert.ErrorIs(t, err, ErrOrderNotOwned)
	assert.Equal(t, models.OrderStatusBasket, fs.orders[order.ID].Status)
}

func TestConfirmRejectsForeignContact(t *testing.T) {
	fs, user, order, _ := orderFixture(t)
	svc := NewOrderService(fs)

	other := &models.User{Email: "other@example.com", Type: models.UserTypeBuyer, Active: true}
	require.NoError(t, fs.CreateUser(context.Background(), other))
	foreign := &models.Contact{UserID: other.ID, City: "Kazan", Street: "Bauman", Phone: "+7901"}
	require.NoError(t, fs.CreateContact(context.Background(), foreign))

	_, err := svc.Confirm(context.Background(), user, order.ID, foreign.ID)
	assert.ErrorIs(t, err, ErrContactNotOwned)
	assert.Equal(t, models.OrderStatusBasket, fs.orders[order.ID].Status)
}

func TestConfirmRejectsUnknownContact(t *testing.T) {
	fs, user, order, _ := orderFixture(t)
	svc := NewOrderService(fs)

	_, err := svc.Confirm(context.Background(), user, order.ID, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, models.OrderStatusBasket, fs.orders[order.ID].Status)
}

func TestConfirmRejectsNonBasketOrder(t *testing.T) {
	fs, user, order, contact := orderFixture(t)
	svc := NewOrderService(fs)

	_, err := svc.Confirm(context.Background(), user, order.ID, contact.ID)
	require.NoError(t, err)

	// A second confirmation finds the order already placed.
	_, err = svc.Confirm(context.Background(), user, order.ID, contact.ID)
	assert.ErrorIs(t, err, ErrWrongOrderState)
}

func TestConfirmRejectsEmptyBasket(t *testing.T) {
	fs := newFakeStore()
	svc := NewOrderService(fs)

	user := &models.User{Email: "empty@example.com", Type: models.UserTypeBuyer, Active: true}
	require.NoError(t, fs.CreateUser(context.Background(), user))
	contact := &models.Contact{UserID: user.ID, City: "Tver", Street: "Lenina", Phone: "+7902"}
	require.NoError(t, fs.CreateContact(context.Background(), contact))
	order, err := fs.GetOrCreateBasket(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), user, order.ID, contact.ID)
	assert.ErrorIs(t, err, ErrBasketEmpty)
}

func TestListOrdersSkipsBasket(t *testing.T) {
	fs, user, order, contact := orderFixture(t)
	svc := NewOrderService(fs)

	orders, err := svc.ListOrders(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = svc.Confirm(context.Background(), user, order.ID, contact.ID)
	require.NoError(t, err)

	orders, err = svc.ListOrders(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(300), orders[0].TotalSum)
}
