package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderPaid, OrderCancelled},
	OrderPaid:      {OrderCancelled, OrderRefunded},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPaid, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether the server accepts a change from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Deletable reports whether an order in this status may be deleted outright.
func (s OrderStatus) Deletable() bool {
	return s == OrderPending
}

// Cancellable reports whether a client may still withdraw the order.
func (s OrderStatus) Cancellable() bool {
	return s != OrderCancelled && s != OrderRefunded && s.Valid()
}

type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	AddressID   string          `json:"addressId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	FinalAmount decimal.Decimal `json:"finalAmount"`
	Status      OrderStatus     `json:"status"`
	Items       []OrderItem     `json:"orderItems"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type OrderItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	ProductID string          `json:"productId"`
	ColorID   string          `json:"colorId,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
