package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventOrderCreated = "order.created"

type OrderCreated struct {
	EventID     string          `json:"event_id"`
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func NewOrderCreated(eventID string, o Order, at time.Time) OrderCreated {
	return OrderCreated{
		EventID:     eventID,
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		OccurredAt:  at.UTC(),
	}
}
