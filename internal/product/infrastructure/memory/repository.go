package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dmehra2102/orderflow/internal/product/domain"
)


// Repository keeps the catalog in process. Used by tests and local runs.
type Repository struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

func NewRepository(products ...domain.Product) *Repository {
	r := &Repository{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

// live returns a product that has not been deleted. Callers hold mu.
func (r *Repository) live(id string) (domain.Product, bool) {
	p, ok := r.products[id]
	if !ok || p.Deleted {
		return domain.Product{}, false
	}
	return p, true
}

func (r *Repository) Get(_ context.Context, id string) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.live(id)
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *Repository) List(_ context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if !p.Deleted {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repository) Create(_ context.Context, p domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; ok {
		return domain.ErrDuplicateProduct
	}
	r.products[p.ID] = p
	return nil
}

func (r *Repository) Update(_ context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.live(p.ID)
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	cur.Name, cur.Description, cur.Price, cur.UpdatedAt = p.Name, p.Description, p.Price, p.UpdatedAt
	r.products[p.ID] = cur
	return cur, nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.live(id)
	if !ok {
		return domain.ErrNotFound
	}
	p.Deleted = true
	r.products[id] = p
	return nil
}

func (r *Repository) DecreaseStock(ctx context.Context, id string, quantity int) (int, error) {
	p, err := r.Reserve(ctx, id, quantity)
	return p.Stock, err
}

// IncreaseStock also restores stock of deleted products so compensations
// never fail on a concurrent delete.
func (r *Repository) IncreaseStock(_ context.Context, id string, quantity int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	p.Stock += quantity
	r.products[id] = p
	return p.Stock, nil
}

func (r *Repository) Reserve(_ context.Context, id string, quantity int) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.live(id)
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	if p.Stock < quantity {
		return domain.Product{}, domain.ErrInsufficientStock
	}
	p.Stock -= quantity
	r.products[id] = p
	return p, nil
}

func (r *Repository) SetStock(_ context.Context, id string, stock int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.live(id)
	if !ok {
		return 0, domain.ErrNotFound
	}
	prev := p.Stock
	p.Stock = stock
	r.products[id] = p
	return prev, nil
}
