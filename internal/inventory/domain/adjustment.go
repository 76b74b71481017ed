package domain

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindAbsolute carries the stock the product must end up with.
	KindAbsolute Kind = "absolute"
	// KindDelta carries a quantity to take out of stock.
	KindDelta Kind = "delta"
)

var ErrInvalidAdjustment = errors.New("inventory: invalid adjustment")

// Adjustment is one stock-adjustment notification.
type Adjustment struct {
	EventID   string `json:"event_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Kind      Kind   `json:"kind"`
}

// Normalize defaults an empty kind to absolute and checks the payload.
func (a Adjustment) Normalize() (Adjustment, error) {
	if a.Kind == "" {
		a.Kind = KindAbsolute
	}
	switch {
	case a.ProductID == "":
		return a, fmt.Errorf("%w: product id is required", ErrInvalidAdjustment)
	case a.Kind == KindAbsolute && a.Quantity < 0:
		return a, fmt.Errorf("%w: absolute quantity must not be negative", ErrInvalidAdjustment)
	case a.Kind == KindDelta && a.Quantity <= 0:
		return a, fmt.Errorf("%w: delta quantity must be positive", ErrInvalidAdjustment)
	case a.Kind != KindAbsolute && a.Kind != KindDelta:
		return a, fmt.Errorf("%w: unknown kind %q", ErrInvalidAdjustment, a.Kind)
	}
	return a, nil
}
