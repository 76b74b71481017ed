package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/order/application"
	"github.com/dmehra2102/orderflow/internal/order/domain"
	"github.com/dmehra2102/orderflow/internal/order/infrastructure/memory"
)

func seed(t *testing.T, store *memory.Store, orders ...domain.Order) {
	t.Helper()
	ctx := context.Background()
	for _, o := range orders {
		uow, err := store.BeginUnitOfWork(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if err := uow.Add(ctx, o); err != nil {
			t.Fatal(err)
		}
		if err := uow.Commit(ctx); err != nil {
			t.Fatal(err)
		}
	}
}

func committed(id, user string, at time.Time, productIDs ...string) domain.Order {
	items := make([]domain.OrderItem, 0, len(productIDs))
	for i, pid := range productIDs {
		items = append(items, domain.OrderItem{
			ID: id + "-" + pid + "-" + string(rune('a'+i)), ProductID: pid, Quantity: 1, UnitPrice: decimal.NewFromInt(10),
		})
	}
	o, _ := domain.NewOrder(id, domain.Draft{UserID: user, ClientDocument: "DOC"}, items, at)
	return o
}

type countingCatalog struct {
	*fakeAuthority
}

func (c countingCatalog) gets() int {
	n := 0
	for _, call := range c.callLog() {
		if strings.HasPrefix(call, "get:") {
			n++
		}
	}
	return n
}

func TestGetByIDWithFailingIdentityLookup(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, committed("o1", "U1", fixedClock(), "P1", "P2"))
	fa := newAuthority().with("P1", "Pen", 10, 5).with("P2", "Ink", 20, 5)
	m := newMetrics()
	e := application.NewEnricher(zap.NewNop(), store, fa, fakeIdentity{err: errUnreachable}, m)

	v, err := e.GetByID(context.Background(), "o1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if v.SellerName != "" {
		t.Fatalf("seller name = %q, want empty", v.SellerName)
	}
	if v.Items[0].Name != "Pen" || v.Items[1].Name != "Ink" {
		t.Fatalf("item names = %q, %q", v.Items[0].Name, v.Items[1].Name)
	}
	if !v.TotalAmount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("total = %s", v.TotalAmount)
	}
	if got := testutil.ToFloat64(m.Enrichment.WithLabelValues("identity", "error")); got != 1 {
		t.Fatalf("identity error lookups = %v", got)
	}
	if fa.stock("P1") != 5 {
		t.Fatal("read path changed stock")
	}
}

func TestGetByIDLeavesMissingProductNameEmpty(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, committed("o1", "U1", fixedClock(), "P1", "GONE", "P1"))
	fa := newAuthority().with("P1", "Pen", 10, 5)
	e := application.NewEnricher(zap.NewNop(), store, fa, fakeIdentity{names: map[string]string{"U1": "Ana"}}, newMetrics())

	v, err := e.GetByID(context.Background(), "o1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if v.SellerName != "Ana" {
		t.Fatalf("seller name = %q", v.SellerName)
	}
	if v.Items[0].Name != "Pen" || v.Items[1].Name != "" || v.Items[2].Name != "Pen" {
		t.Fatalf("names = %q %q %q", v.Items[0].Name, v.Items[1].Name, v.Items[2].Name)
	}
	if got := (countingCatalog{fa}).gets(); got != 2 {
		t.Fatalf("product lookups = %d, want 2", got)
	}

	stored, _ := store.GetByID(context.Background(), "o1")
	if len(stored.Items) != 3 {
		t.Fatal("stored order changed")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	e := application.NewEnricher(zap.NewNop(), memory.NewStore(), newAuthority(), fakeIdentity{}, newMetrics())
	for _, id := range []string{"missing", ""} {
		if _, err := e.GetByID(context.Background(), id); !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("GetByID(%q) err = %v", id, err)
		}
	}
}

func TestListIsolatesEnrichmentPerOrder(t *testing.T) {
	store := memory.NewStore()
	base := fixedClock()
	seed(t, store,
		committed("o1", "U1", base, "P1"),
		committed("o2", "GHOST", base.Add(time.Second), "P2"),
		committed("o3", "U2", base.Add(2*time.Second), "P1", "P2"),
	)
	fa := newAuthority().with("P1", "Pen", 10, 5)
	fa.getErr["P2"] = errUnreachable
	ids := fakeIdentity{names: map[string]string{"U1": "Ana", "U2": "Bo"}}
	e := application.NewEnricher(zap.NewNop(), store, fa, ids, newMetrics(), application.WithConcurrency(2))

	list, err := e.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d", len(list))
	}

	want := []struct {
		id, seller string
		names      []string
	}{
		{"o1", "Ana", []string{"Pen"}},
		{"o2", "", []string{""}},
		{"o3", "Bo", []string{"Pen", ""}},
	}
	for i, w := range want {
		got := list[i]
		if got.ID != w.id || got.SellerName != w.seller {
			t.Fatalf("list[%d] = %s/%q, want %s/%q", i, got.ID, got.SellerName, w.id, w.seller)
		}
		for j, name := range w.names {
			if got.Items[j].Name != name {
				t.Fatalf("list[%d].items[%d].name = %q, want %q", i, j, got.Items[j].Name, name)
			}
		}
	}
}

type brokenStore struct {
	*memory.Store
}

func (brokenStore) List(context.Context) ([]domain.Order, error) {
	return nil, errors.New("db down")
}

func TestListPropagatesStoreFailure(t *testing.T) {
	e := application.NewEnricher(zap.NewNop(), brokenStore{memory.NewStore()}, newAuthority(), fakeIdentity{}, newMetrics())
	if _, err := e.List(context.Background()); err == nil {
		t.Fatal("expected store error")
	}
}

type panickyIdentity struct{}

func (panickyIdentity) DisplayName(context.Context, string) (string, error) {
	panic("identity client bug")
}

func TestListSurvivesPanickingLookup(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, committed("o1", "U1", fixedClock(), "P1"))
	e := application.NewEnricher(zap.NewNop(), store, newAuthority(), panickyIdentity{}, newMetrics())

	list, err := e.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != "o1" || list[0].SellerName != "" {
		t.Fatalf("list = %+v", list)
	}
}
