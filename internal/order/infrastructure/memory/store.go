package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dmehra2102/orderflow/internal/order/application"
	"github.com/dmehra2102/orderflow/internal/order/domain"
)

var ErrUnitOfWorkClosed = errors.New("memory: unit of work already finished")

// Store is an in-process OrderStore. Reads return copies so callers cannot
// mutate stored orders.
type Store struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	seq    map[string]int
	next   int
}

func NewStore() *Store {
	return &Store{orders: map[string]domain.Order{}, seq: map[string]int{}}
}

func (s *Store) BeginUnitOfWork(ctx context.Context) (application.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &unitOfWork{store: s}, nil
}

func (s *Store) GetByID(_ context.Context, id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return clone(o), nil
}

func (s *Store) List(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, clone(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] < s.seq[out[j].ID]
	})
	return out, nil
}

// Len reports how many orders are committed.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

type unitOfWork struct {
	store   *Store
	pending []domain.Order
	done    bool
}

func (u *unitOfWork) Add(ctx context.Context, o domain.Order) error {
	if u.done {
		return ErrUnitOfWorkClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("memory: order %s has no items", o.ID)
	}
	u.pending = append(u.pending, clone(o))
	return nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitOfWorkClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range u.pending {
		if _, exists := s.orders[o.ID]; exists {
			return fmt.Errorf("memory: order %s already exists", o.ID)
		}
	}
	for _, o := range u.pending {
		s.orders[o.ID] = o
		s.next++
		s.seq[o.ID] = s.next
	}
	u.done = true
	u.pending = nil
	return nil
}

func (u *unitOfWork) Rollback(context.Context) error {
	u.done = true
	u.pending = nil
	return nil
}

func clone(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}
