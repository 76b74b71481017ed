package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name     string
		draft    Draft
		problems int
	}{
		{name: "valid", draft: Draft{UserID: "U1", ClientDocument: "DOC1", Items: []DraftItem{{ProductID: "P1", Quantity: 1}}}},
		{name: "empty", draft: Draft{}, problems: 3},
		{name: "blank owner", draft: Draft{UserID: "  ", ClientDocument: "D", Items: []DraftItem{{ProductID: "P1", Quantity: 1}}}, problems: 1},
		{name: "bad items", draft: Draft{UserID: "U1", ClientDocument: "D", Items: []DraftItem{{Quantity: 0}, {ProductID: "P2", Quantity: -3}}}, problems: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.problems == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidOrder) {
				t.Fatalf("err = %v, want ErrInvalidOrder", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || len(verr.Problems) != tt.problems {
				t.Fatalf("problems = %v, want %d", verr, tt.problems)
			}
		})
	}
}

func TestNewOrderComputesTotal(t *testing.T) {
	draft := Draft{UserID: "U1", ClientDocument: "DOC1"}
	items := []OrderItem{
		{ID: "i1", ProductID: "P1", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		{ID: "i2", ProductID: "P2", Quantity: 1, UnitPrice: decimal.RequireFromString("20.50")},
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	o, err := NewOrder("o1", draft, items, at)
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if !o.TotalAmount.Equal(decimal.RequireFromString("40.50")) {
		t.Fatalf("total = %s", o.TotalAmount)
	}
	for _, it := range o.Items {
		if it.OrderID != "o1" {
			t.Fatalf("item %s not linked to order", it.ID)
		}
	}
	if items[0].OrderID != "" {
		t.Fatal("NewOrder mutated caller items")
	}
	if o.CreatedAt.Location() != time.UTC {
		t.Fatal("created_at not normalised to UTC")
	}

	if _, err := NewOrder("o2", draft, nil, at); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("err = %v", err)
	}
}

func TestViewDoesNotShareItems(t *testing.T) {
	o := Order{ID: "o1", Items: []OrderItem{{ID: "i1", ProductID: "P1", Quantity: 1}}}
	v := View(o)
	v.Items[0].Name = "Pen"
	v.SellerName = "Ana"
	if len(o.Items) != 1 || o.Items[0].ProductID != "P1" {
		t.Fatal("stored order changed")
	}
}
