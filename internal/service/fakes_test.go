package service

import (
	"context"
	"time"

	"procurement-service/internal/models"
	"procurement-service/internal/pricelist"
	"procurement-service/internal/store"
)

// fakeStore is an in-memory stand-in for the Postgres store, implementing
// the per-service store interfaces the tests need.
type fakeStore struct {
	users         map[int64]*models.User
	nextUserID    int64
	confirmTokens map[string]*models.ConfirmToken
	contacts      map[int64]*models.Contact
	nextContactID int64
	shops         map[int64]*models.Shop
	infos         map[int64]models.ProductInfo
	orders        map[int64]*models.Order
	nextOrderID   int64
	items         map[int64]map[int64]int

	replacedDocs []*pricelist.Document
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         map[int64]*models.User{},
		confirmTokens: map[string]*models.ConfirmToken{},
		contacts:      map[int64]*models.Contact{},
		shops:         map[int64]*models.Shop{},
		infos:         map[int64]models.ProductInfo{},
		orders:        map[int64]*models.Order{},
		items:         map[int64]map[int64]int{},
	}
}

func (f *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return store.ErrEmailTaken
		}
	}
	f.nextUserID++
	user.ID = f.nextUserID
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeStore) ActivateUser(_ context.Context, userID int64) error {
	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.Active = true
	return nil
}

func (f *fakeStore) CreateConfirmToken(_ context.Context, token *models.ConfirmToken) error {
	token.CreatedAt = time.Now()
	cp := *token
	f.confirmTokens[token.Token] = &cp
	return nil
}

func (f *fakeStore) GetConfirmToken(_ context.Context, email, token string) (*models.ConfirmToken, error) {
	ct, ok := f.confirmTokens[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	u, uok := f.users[ct.UserID]
	if !uok || u.Email != email {
		return nil, store.ErrNotFound
	}
	cp := *ct
	return &cp, nil
}

func (f *fakeStore) DeleteConfirmToken(_ context.Context, token string) error {
	delete(f.confirmTokens, token)
	return nil
}

func (f *fakeStore) CreateContact(_ context.Context, contact *models.Contact) error {
	f.nextContactID++
	contact.ID = f.nextContactID
	cp := *contact
	f.contacts[contact.ID] = &cp
	return nil
}

func (f *fakeStore) GetContactByID(_ context.Context, id int64) (*models.Contact, error) {
	c, ok := f.contacts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) GetContactsByUserID(_ context.Context, userID int64) ([]models.Contact, error) {
	out := []models.Contact{}
	for _, c := range f.contacts {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateContact(_ context.Context, contact *models.Contact) error {
	existing, ok := f.contacts[contact.ID]
	if !ok {
		return store.ErrNotFound
	}
	cp := *contact
	cp.UserID = existing.UserID
	f.contacts[contact.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteContact(_ context.Context, id int64) error {
	if _, ok := f.contacts[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.contacts, id)
	return nil
}

func (f *fakeStore) ReplaceShopCatalog(_ context.Context, userID int64, doc *pricelist.Document) (*models.Shop, error) {
	for _, sh := range f.shops {
		if sh.Name == doc.Shop {
			if sh.UserID != userID {
				return nil, store.ErrShopNotOwned
			}
			f.replacedDocs = append(f.replacedDocs, doc)
			cp := *sh
			return &cp, nil
		}
	}
	shop := &models.Shop{ID: int64(len(f.shops) + 1), Name: doc.Shop, UserID: userID, State: true}
	f.shops[shop.ID] = shop
	f.replacedDocs = append(f.replacedDocs, doc)
	cp := *shop
	return &cp, nil
}

func (f *fakeStore) GetShopByID(_ context.Context, id int64) (*models.Shop, error) {
	sh, ok := f.shops[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sh
	return &cp, nil
}

func (f *fakeStore) UpdateShopState(_ context.Context, shopID int64, state bool) error {
	sh, ok := f.shops[shopID]
	if !ok {
		return store.ErrNotFound
	}
	sh.State = state
	return nil
}

func (f *fakeStore) ListOrdersByPartner(_ context.Context, _ int64) ([]models.OrderSummary, error) {
	return []models.OrderSummary{}, nil
}

func (f *fakeStore) GetProductInfosByIDs(_ context.Context, ids []int64) ([]models.ProductInfo, error) {
	out := []models.ProductInfo{}
	for _, id := range ids {
		if info, ok := f.infos[id]; ok {
			out = append(out, info)
		}
	}
	return out, nil
}

func (f *fakeStore) GetOrCreateBasket(_ context.Context, userID int64) (*models.Order, error) {
	for _, o := range f.orders {
		if o.UserID == userID && o.Status == models.OrderStatusBasket {
			cp := *o
			return &cp, nil
		}
	}
	f.nextOrderID++
	order := &models.Order{
		ID:        f.nextOrderID,
		UserID:    userID,
		Status:    models.OrderStatusBasket,
		CreatedAt: time.Now(),
	}
	f.orders[order.ID] = order
	cp := *order
	return &cp, nil
}

func (f *fakeStore) GetBasket(_ context.Context, userID int64) (*models.Order, error) {
	for _, o := range f.orders {
		if o.UserID == userID && o.Status == models.OrderStatusBasket {
			cp := *o
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) UpsertOrderItem(_ context.Context, orderID, productInfoID int64, quantity int) error {
	lines, ok := f.items[orderID]
	if !ok {
		lines = map[int64]int{}
		f.items[orderID] = lines
	}
	lines[productInfoID] = quantity
	return nil
}

func (f *fakeStore) DeleteBasket(_ context.Context, userID int64) error {
	for id, o := range f.orders {
		if o.UserID == userID && o.Status == models.OrderStatusBasket {
			delete(f.orders, id)
			delete(f.items, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ConfirmOrder(_ context.Context, orderID, contactID int64) error {
	o, ok := f.orders[orderID]
	if !ok || o.Status != models.OrderStatusBasket {
		return store.ErrWrongOrderState
	}
	o.Status = models.OrderStatusNew
	o.ContactID = &contactID
	return nil
}

func (f *fakeStore) OrderTotal(_ context.Context, orderID int64) (int64, error) {
	var total int64
	for infoID, qty := range f.items[orderID] {
		total += int64(qty) * f.infos[infoID].Price
	}
	return total, nil
}

func (f *fakeStore) GetOrderItems(_ context.Context, orderID int64) ([]models.OrderItemDetail, error) {
	out := []models.OrderItemDetail{}
	for infoID, qty := range f.items[orderID] {
		info := f.infos[infoID]
		out = append(out, models.OrderItemDetail{
			OrderID:       orderID,
			ProductInfoID: infoID,
			ShopID:        info.ShopID,
			Quantity:      qty,
			Price:         info.Price,
		})
	}
	return out, nil
}

func (f *fakeStore) ListOrdersByUser(_ context.Context, userID int64) ([]models.OrderSummary, error) {
	out := []models.OrderSummary{}
	for _, o := range f.orders {
		if o.UserID != userID || o.Status == models.OrderStatusBasket {
			continue
		}
		total, _ := f.OrderTotal(context.Background(), o.ID)
		items, _ := f.GetOrderItems(context.Background(), o.ID)
		out = append(out, models.OrderSummary{
			ID:       o.ID,
			Status:   o.Status,
			TotalSum: total,
			Items:    items,
		})
	}
	return out, nil
}

// fakeTokens is an in-memory auth token store.
type fakeTokens struct {
	tokens map[string]int64
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]int64{}}
}

func (f *fakeTokens) SetAuthToken(_ context.Context, token string, userID int64, _ time.Duration) error {
	f.tokens[token] = userID
	return nil
}

func (f *fakeTokens) GetAuthToken(_ context.Context, token string) (int64, error) {
	userID, ok := f.tokens[token]
	if !ok {
		return 0, store.ErrNotFound
	}
	return userID, nil
}

func (f *fakeTokens) DeleteAuthToken(_ context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}
