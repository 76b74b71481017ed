package domain

import "time"

const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventStockUpdated   = "product.stock_updated"
)

// Event is the integration event the catalog publishes after operator changes.
type Event struct {
	ID         string    `json:"event_id"`
	Type       string    `json:"type"`
	ProductID  string    `json:"product_id"`
	Name       string    `json:"name,omitempty"`
	Stock      int       `json:"stock"`
	Invoice    string    `json:"invoice,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
