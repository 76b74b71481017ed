package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/orderflow/internal/order/application"
	"github.com/dmehra2102/orderflow/internal/order/domain"
	"github.com/dmehra2102/orderflow/internal/order/infrastructure/memory"
	"github.com/dmehra2102/orderflow/pkg/metrics"
)

var errUnreachable = errors.New("authority unreachable")

type product struct {
	name  string
	price decimal.Decimal
	stock int
}

type fakeAuthority struct {
	mu         sync.Mutex
	products   map[string]*product
	calls      []string
	getErr     map[string]error
	decErr     map[string]error
	incErr     map[string]error
	onDecrease func(productID string)
}

func newAuthority() *fakeAuthority {
	return &fakeAuthority{
		products: map[string]*product{},
		getErr:   map[string]error{},
		decErr:   map[string]error{},
		incErr:   map[string]error{},
	}
}

func (a *fakeAuthority) with(id, name string, price int64, stock int) *fakeAuthority {
	a.products[id] = &product{name: name, price: decimal.NewFromInt(price), stock: stock}
	return a
}

func (a *fakeAuthority) GetProduct(_ context.Context, id string) (domain.ProductSnapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, "get:"+id)
	if err := a.getErr[id]; err != nil {
		return domain.ProductSnapshot{}, err
	}
	p, ok := a.products[id]
	if !ok {
		return domain.ProductSnapshot{}, domain.ErrProductNotFound
	}
	return domain.ProductSnapshot{ID: id, Name: p.name, Price: p.price, Stock: p.stock}, nil
}

// DecreaseStock behaves like a remote call: the decrement is applied first,
// and a context cancelled meanwhile still turns the reply into an error.
func (a *fakeAuthority) DecreaseStock(ctx context.Context, id string, qty int) error {
	a.mu.Lock()
	a.calls = append(a.calls, fmt.Sprintf("dec:%s:%d", id, qty))
	err := a.decrease(id, qty)
	hook := a.onDecrease
	a.mu.Unlock()

	if err == nil && hook != nil {
		hook(id)
	}
	if err == nil {
		err = ctx.Err()
	}
	return err
}

func (a *fakeAuthority) decrease(id string, qty int) error {
	if err := a.decErr[id]; err != nil {
		return err
	}
	p, ok := a.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.stock < qty {
		return domain.ErrInsufficientStock
	}
	p.stock -= qty
	return nil
}

func (a *fakeAuthority) IncreaseStock(_ context.Context, id string, qty int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, fmt.Sprintf("inc:%s:%d", id, qty))
	if err := a.incErr[id]; err != nil {
		return err
	}
	p, ok := a.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.stock += qty
	return nil
}

func (a *fakeAuthority) stock(id string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.products[id].stock
}

func (a *fakeAuthority) callLog() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

// atomicAuthority also offers the single-call reservation.
type atomicAuthority struct {
	*fakeAuthority
}

func (a atomicAuthority) Reserve(ctx context.Context, id string, qty int) (decimal.Decimal, error) {
	a.mu.Lock()
	a.calls = append(a.calls, fmt.Sprintf("reserve:%s:%d", id, qty))
	err := a.decrease(id, qty)
	var price decimal.Decimal
	if err == nil {
		price = a.products[id].price
	}
	hook := a.onDecrease
	a.mu.Unlock()

	if err != nil {
		return decimal.Zero, err
	}
	if hook != nil {
		hook(id)
	}
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.OrderCreated
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e domain.OrderCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

// faultyStore wraps the memory store with injectable unit-of-work failures.
type faultyStore struct {
	*memory.Store
	beginErr  error
	commitErr error
	rollbacks int
}

func (s *faultyStore) BeginUnitOfWork(ctx context.Context) (application.UnitOfWork, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	uow, err := s.Store.BeginUnitOfWork(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyUnitOfWork{UnitOfWork: uow, store: s}, nil
}

type faultyUnitOfWork struct {
	application.UnitOfWork
	store *faultyStore
}

func (u *faultyUnitOfWork) Commit(ctx context.Context) error {
	if u.store.commitErr != nil {
		return u.store.commitErr
	}
	return u.UnitOfWork.Commit(ctx)
}

func (u *faultyUnitOfWork) Rollback(ctx context.Context) error {
	u.store.rollbacks++
	return u.UnitOfWork.Rollback(ctx)
}

type fakeIdentity struct {
	names map[string]string
	err   error
}

func (f fakeIdentity) DisplayName(_ context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	name, ok := f.names[userID]
	if !ok {
		return "", domain.ErrUserNotFound
	}
	return name, nil
}

type sequentialIDs struct {
	mu sync.Mutex
	n  int
}

func (s *sequentialIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

func newMetrics() *metrics.Orders {
	return metrics.NewOrders(prometheus.NewRegistry())
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}
