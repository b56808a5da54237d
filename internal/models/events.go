package models

import "time"

// Event types
const (
	EventTypeUserRegistered = "USER_REGISTERED"
	EventTypeOrderConfirmed = "ORDER_CONFIRMED"
	EventTypeOperatorNotice = "OPERATOR_NOTICE"
)

// BaseEvent contains common fields for all notification events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// UserRegisteredEvent is published after account creation; the notifier
// mails the confirmation token to the new user.
type UserRegisteredEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// OrderConfirmedEvent is published when a basket becomes a placed order;
// the notifier mails a receipt to the buyer.
type OrderConfirmedEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Total   int64  `json:"total"`
}

// OperatorNoticeEvent is published alongside OrderConfirmedEvent; the
// notifier mails the operator channel with order and delivery detail.
type OperatorNoticeEvent struct {
	BaseEvent
	OrderID int64    `json:"order_id"`
	UserID  int64    `json:"user_id"`
	Email   string   `json:"email"`
	Total   int64    `json:"total"`
	Contact *Contact `json:"contact"`
}
