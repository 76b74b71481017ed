package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/orderflow/internal/order/domain"
)

// ProductCatalog answers price, availability and name for a product.
// A missing product yields domain.ErrProductNotFound.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error)
}

// StockReserver changes stock at the authority. DecreaseStock either reserves
// the full quantity or fails with no reservation; a rejected decrement yields
// domain.ErrInsufficientStock.
type StockReserver interface {
	DecreaseStock(ctx context.Context, productID string, quantity int) error
	IncreaseStock(ctx context.Context, productID string, quantity int) error
}

type ProductAuthority interface {
	ProductCatalog
	StockReserver
}

// AtomicReserver is implemented by authorities able to decrement stock and
// report the price in effect in one call.
type AtomicReserver interface {
	Reserve(ctx context.Context, productID string, quantity int) (decimal.Decimal, error)
}

// IdentityLookup resolves display names. An unknown user yields domain.ErrUserNotFound.
type IdentityLookup interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

type OrderStore interface {
	BeginUnitOfWork(ctx context.Context) (UnitOfWork, error)
	GetByID(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
}

// UnitOfWork is owned by one request. Rollback after Commit is a no-op.
type UnitOfWork interface {
	Add(ctx context.Context, o domain.Order) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderCreated) error
}

type IDGenerator interface {
	NewID() string
}
