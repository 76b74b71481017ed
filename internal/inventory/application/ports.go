package application

import "context"

// StockAuthority is the same decrement capability the order flow reserves
// with, plus a single-step overwrite for absolute targets.
type StockAuthority interface {
	DecreaseStock(ctx context.Context, productID string, quantity int) (int, error)
	// SetStock stores stock and returns the value it replaced, without a
	// window for concurrent decrements between the read and the write.
	SetStock(ctx context.Context, productID string, stock int) (int, error)
}

// Deduper remembers which delta adjustments were already applied.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
	EventKey(eventID string) string
}
