package application

import (
	"context"

	"github.com/dmehra2102/orderflow/internal/product/domain"
)

// Repository owns the catalog. Stock changes must be atomic per product and
// never drive stock below zero.
type Repository interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, p domain.Product) error
	// Update leaves stock untouched and returns the stored product.
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error

	DecreaseStock(ctx context.Context, id string, quantity int) (int, error)
	IncreaseStock(ctx context.Context, id string, quantity int) (int, error)
	// Reserve decrements stock and returns the product as it stood right
	// after the decrement, price included.
	Reserve(ctx context.Context, id string, quantity int) (domain.Product, error)
	// SetStock overwrites stock and returns the previous value.
	SetStock(ctx context.Context, id string, stock int) (int, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.Event) error { return nil }
