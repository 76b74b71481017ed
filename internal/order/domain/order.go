package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is the caller's order request. Prices never come from the caller.
type Draft struct {
	UserID         string
	ClientDocument string
	Items          []DraftItem
}

type DraftItem struct {
	ProductID string
	Quantity  int
}

func (d Draft) Validate() error {
	var problems []string
	if strings.TrimSpace(d.UserID) == "" {
		problems = append(problems, "user id is required")
	}
	if strings.TrimSpace(d.ClientDocument) == "" {
		problems = append(problems, "client document is required")
	}
	if len(d.Items) == 0 {
		problems = append(problems, "at least one item is required")
	}
	for i, it := range d.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			problems = append(problems, fmt.Sprintf("items[%d]: product id is required", i))
		}
		if it.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("items[%d]: quantity must be greater than zero", i))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

type Order struct {
	ID             string
	UserID         string
	ClientDocument string
	Items          []OrderItem
	TotalAmount    decimal.Decimal
	CreatedAt      time.Time
}

type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrder assembles a priced order and derives its total.
func NewOrder(id string, d Draft, items []OrderItem, createdAt time.Time) (Order, error) {
	if len(items) == 0 {
		return Order{}, &ValidationError{Problems: []string{"order has no items"}}
	}
	o := Order{
		ID:             id,
		UserID:         d.UserID,
		ClientDocument: d.ClientDocument,
		Items:          make([]OrderItem, len(items)),
		CreatedAt:      createdAt.UTC(),
	}
	copy(o.Items, items)
	for i := range o.Items {
		o.Items[i].OrderID = id
	}
	o.TotalAmount = Total(o.Items)
	return o, nil
}

func Total(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ProductSnapshot is what the product authority reports at one instant.
type ProductSnapshot struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}
