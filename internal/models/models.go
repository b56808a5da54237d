package models

import "time"

// User is an account on the platform. Type decides which endpoints the
// account may call: shops import price lists, buyers place orders.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Company      string    `db:"company" json:"company"`
	Position     string    `db:"position" json:"position"`
	Type         string    `db:"type" json:"type"`
	Active       bool      `db:"active" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// User types (capabilities)
const (
	UserTypeShop  = "shop"
	UserTypeBuyer = "buyer"
)

// ConfirmToken is a single-use email confirmation token.
type ConfirmToken struct {
	Token     string    `db:"token"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Contact holds a user's delivery address and phone.
type Contact struct {
	ID        int64  `db:"id" json:"id"`
	UserID    int64  `db:"user_id" json:"-"`
	City      string `db:"city" json:"city"`
	Street    string `db:"street" json:"street"`
	House     string `db:"house" json:"house"`
	Structure string `db:"structure" json:"structure"`
	Building  string `db:"building" json:"building"`
	Floor     string `db:"floor" json:"floor"`
	Apartment string `db:"apartment" json:"apartment"`
	Phone     string `db:"phone" json:"phone"`
}

// Shop is a partner owning product listings.
type Shop struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	UserID int64  `db:"user_id" json:"-"`
	State  bool   `db:"state" json:"state"`
}

// Category groups products; ids come from partner price lists.
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Product is a catalog item identified by (name, category).
type Product struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	CategoryID int64  `db:"category_id" json:"category"`
}

// ProductInfo is a shop-specific listing of a product. Listings are
// replaced wholesale on every price-list import.
type ProductInfo struct {
	ID         int64  `db:"id" json:"id"`
	ProductID  int64  `db:"product_id" json:"product"`
	ShopID     int64  `db:"shop_id" json:"shop"`
	ExternalID int64  `db:"external_id" json:"external_id"`
	Model      string `db:"model" json:"model"`
	Price      int64  `db:"price" json:"price"`
	PriceRRC   int64  `db:"price_rrc" json:"price_rrc"`
	Quantity   int    `db:"quantity" json:"quantity"`
}

// Parameter is a named product attribute.
type Parameter struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ParameterValue is a parameter attached to a listing with its value.
type ParameterValue struct {
	Name  string `db:"name" json:"parameter"`
	Value string `db:"value" json:"value"`
}

// Listing is a product listing with its nested detail, as returned by
// catalog search.
type Listing struct {
	ID           int64            `db:"id" json:"id"`
	Model        string           `db:"model" json:"model"`
	ExternalID   int64            `db:"external_id" json:"external_id"`
	Price        int64            `db:"price" json:"price"`
	PriceRRC     int64            `db:"price_rrc" json:"price_rrc"`
	Quantity     int              `db:"quantity" json:"quantity"`
	ShopID       int64            `db:"shop_id" json:"shop"`
	ShopName     string           `db:"shop_name" json:"shop_name"`
	ProductName  string           `db:"product_name" json:"product"`
	CategoryID   int64            `db:"category_id" json:"category"`
	CategoryName string           `db:"category_name" json:"category_name"`
	Parameters   []ParameterValue `json:"product_parameters"`
}

// Order is a user's order. An order in state "basket" is the mutable cart;
// confirmation freezes it into state "new".
type Order struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	Status    string    `db:"status" json:"state"`
	ContactID *int64    `db:"contact_id" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"dt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Order states. Only basket and new are exercised by the confirmation flow;
// the rest describe downstream fulfillment.
const (
	OrderStatusBasket    = "basket"
	OrderStatusNew       = "new"
	OrderStatusConfirmed = "confirmed"
	OrderStatusAssembled = "assembled"
	OrderStatusSent      = "sent"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
)

// OrderItem links an order to a listing with a quantity.
type OrderItem struct {
	ID            int64 `db:"id" json:"id"`
	OrderID       int64 `db:"order_id" json:"-"`
	ProductInfoID int64 `db:"product_info_id" json:"product_info"`
	Quantity      int   `db:"quantity" json:"quantity"`
}

// OrderItemDetail is an order line with listing detail for order views.
type OrderItemDetail struct {
	ID            int64  `db:"id" json:"id"`
	OrderID       int64  `db:"order_id" json:"-"`
	ProductInfoID int64  `db:"product_info_id" json:"product_info"`
	ProductName   string `db:"product_name" json:"product"`
	ShopID        int64  `db:"shop_id" json:"shop"`
	Quantity      int    `db:"quantity" json:"quantity"`
	Price         int64  `db:"price" json:"price"`
}

// OrderSummary is an order with its items, contact and computed total.
type OrderSummary struct {
	ID        int64             `db:"id" json:"id"`
	Status    string            `db:"status" json:"state"`
	CreatedAt time.Time         `db:"created_at" json:"dt"`
	TotalSum  int64             `db:"total_sum" json:"total_sum"`
	Contact   *Contact          `json:"contact,omitempty"`
	Items     []OrderItemDetail `json:"ordered_items"`
}
