package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/inventory/application"
	"github.com/dmehra2102/orderflow/internal/inventory/domain"
	productapp "github.com/dmehra2102/orderflow/internal/product/application"
	productdomain "github.com/dmehra2102/orderflow/internal/product/domain"
	"github.com/dmehra2102/orderflow/internal/product/infrastructure/memory"
)

type memDeduper struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newDeduper() *memDeduper { return &memDeduper{keys: map[string]bool{}} }

func (d *memDeduper) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keys[key] {
		return false, nil
	}
	d.keys[key] = true
	return true, nil
}

func (d *memDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.keys, key)
	return nil
}

func (d *memDeduper) EventKey(id string) string { return "event:" + id }

func newService(stock int) (*application.Service, *productapp.Service, *memDeduper) {
	products := productapp.NewService(zap.NewNop(), memory.NewRepository(productdomain.Product{ID: "P1", Name: "Pen", Stock: stock}))
	dedupe := newDeduper()
	return application.NewService(zap.NewNop(), products, dedupe), products, dedupe
}

func TestAbsoluteAdjustmentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, products, _ := newService(10)
	adj := domain.Adjustment{ProductID: "P1", Quantity: 7}

	first, err := svc.Apply(ctx, adj, "")
	if err != nil || first != application.ResultApplied {
		t.Fatalf("first apply = %s, %v", first, err)
	}
	second, err := svc.Apply(ctx, adj, "")
	if err != nil || second != application.ResultNoop {
		t.Fatalf("replay = %s, %v", second, err)
	}
	if got, _ := products.Stock(ctx, "P1"); got != 7 {
		t.Fatalf("stock = %d, want 7", got)
	}

	if _, err := svc.Apply(ctx, domain.Adjustment{ProductID: "P1", Quantity: 12, Kind: domain.KindAbsolute}, ""); err != nil {
		t.Fatalf("raise: %v", err)
	}
	if got, _ := products.Stock(ctx, "P1"); got != 12 {
		t.Fatalf("stock = %d, want 12", got)
	}
}

func TestDeltaAdjustmentDedupesByEventID(t *testing.T) {
	ctx := context.Background()
	svc, products, _ := newService(10)
	adj := domain.Adjustment{EventID: "e-1", ProductID: "P1", Quantity: 3, Kind: domain.KindDelta}

	for i, want := range []application.Result{application.ResultApplied, application.ResultDuplicate} {
		got, err := svc.Apply(ctx, adj, "stock:0:1")
		if err != nil || got != want {
			t.Fatalf("apply #%d = %s, %v; want %s", i+1, got, err, want)
		}
	}
	if got, _ := products.Stock(ctx, "P1"); got != 7 {
		t.Fatalf("stock = %d, want 7", got)
	}
}

func TestDeltaAdjustmentFallsBackToMessageKey(t *testing.T) {
	ctx := context.Background()
	svc, products, dedupe := newService(10)
	adj := domain.Adjustment{ProductID: "P1", Quantity: 2, Kind: domain.KindDelta}

	_, _ = svc.Apply(ctx, adj, "stock:0:42")
	_, _ = svc.Apply(ctx, adj, "stock:0:42")
	if got, _ := products.Stock(ctx, "P1"); got != 8 {
		t.Fatalf("stock = %d, want 8", got)
	}
	if !dedupe.keys["stock:0:42"] {
		t.Fatal("fallback key not claimed")
	}

	if _, err := svc.Apply(ctx, adj, ""); !errors.Is(err, application.ErrMissingDedupeKey) {
		t.Fatalf("err = %v", err)
	}
}

func TestFailedDeltaReleasesKeyForRetry(t *testing.T) {
	ctx := context.Background()
	svc, products, dedupe := newService(1)
	adj := domain.Adjustment{EventID: "e-2", ProductID: "P1", Quantity: 3, Kind: domain.KindDelta}

	if _, err := svc.Apply(ctx, adj, ""); !errors.Is(err, productdomain.ErrInsufficientStock) {
		t.Fatalf("err = %v", err)
	}
	if dedupe.keys["event:e-2"] {
		t.Fatal("key kept after failure")
	}

	_, _ = products.IncreaseStock(ctx, "P1", 5)
	if got, err := svc.Apply(ctx, adj, ""); err != nil || got != application.ResultApplied {
		t.Fatalf("retry = %s, %v", got, err)
	}
	if got, _ := products.Stock(ctx, "P1"); got != 3 {
		t.Fatalf("stock = %d, want 3", got)
	}
}

func TestInvalidAdjustments(t *testing.T) {
	svc, _, _ := newService(1)
	for _, adj := range []domain.Adjustment{
		{Quantity: 1},
		{ProductID: "P1", Quantity: -1},
		{ProductID: "P1", Quantity: 0, Kind: domain.KindDelta},
		{ProductID: "P1", Quantity: 1, Kind: "relative"},
	} {
		if _, err := svc.Apply(context.Background(), adj, "k"); !errors.Is(err, domain.ErrInvalidAdjustment) {
			t.Fatalf("Apply(%+v) = %v", adj, err)
		}
	}
}

func TestUnknownProductFails(t *testing.T) {
	svc, _, _ := newService(1)
	_, err := svc.Apply(context.Background(), domain.Adjustment{ProductID: "P9", Quantity: 1}, "")
	if !errors.Is(err, productdomain.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

// busyCatalog lets an order take stock while an absolute adjustment is in
// progress, at whichever point the adjustment touches the catalog first.
type busyCatalog struct {
	*productapp.Service
	once sync.Once
	take func()
}

func (c *busyCatalog) Stock(ctx context.Context, id string) (int, error) {
	n, err := c.Service.Stock(ctx, id)
	c.once.Do(c.take)
	return n, err
}

func (c *busyCatalog) SetStock(ctx context.Context, id string, stock int) (int, error) {
	c.once.Do(c.take)
	return c.Service.SetStock(ctx, id, stock)
}

func TestAbsoluteAdjustmentWinsOverConcurrentOrder(t *testing.T) {
	ctx := context.Background()
	products := productapp.NewService(zap.NewNop(), memory.NewRepository(productdomain.Product{ID: "P1", Name: "Pen", Stock: 10}))
	catalog := &busyCatalog{Service: products}
	catalog.take = func() {
		if _, err := products.DecreaseStock(ctx, "P1", 3); err != nil {
			t.Errorf("concurrent order: %v", err)
		}
	}
	svc := application.NewService(zap.NewNop(), catalog, newDeduper())

	got, err := svc.Apply(ctx, domain.Adjustment{ProductID: "P1", Quantity: 5, Kind: domain.KindAbsolute}, "")
	if err != nil || got != application.ResultApplied {
		t.Fatalf("apply = %s, %v", got, err)
	}
	if n, _ := products.Stock(ctx, "P1"); n != 5 {
		t.Fatalf("stock = %d, want the absolute target 5", n)
	}
}

func TestAbsoluteAdjustmentReportsNoopFromReplacedValue(t *testing.T) {
	ctx := context.Background()
	svc, products, _ := newService(4)

	got, err := svc.Apply(ctx, domain.Adjustment{ProductID: "P1", Quantity: 4, Kind: domain.KindAbsolute}, "")
	if err != nil || got != application.ResultNoop {
		t.Fatalf("apply = %s, %v", got, err)
	}
	if n, _ := products.Stock(ctx, "P1"); n != 4 {
		t.Fatalf("stock = %d", n)
	}
}
