package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnrichedOrder is the read-side view of an Order with display names attached.
// Names are empty when the lookup failed.
type EnrichedOrder struct {
	ID             string
	UserID         string
	SellerName     string
	ClientDocument string
	Items          []EnrichedItem
	TotalAmount    decimal.Decimal
	CreatedAt      time.Time
}

type EnrichedItem struct {
	ID        string
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// View copies o into an EnrichedOrder without any names.
func View(o Order) EnrichedOrder {
	v := EnrichedOrder{
		ID:             o.ID,
		UserID:         o.UserID,
		ClientDocument: o.ClientDocument,
		TotalAmount:    o.TotalAmount,
		CreatedAt:      o.CreatedAt,
		Items:          make([]EnrichedItem, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, EnrichedItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return v
}
