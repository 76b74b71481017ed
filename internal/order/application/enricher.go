package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/order/domain"
	"github.com/dmehra2102/orderflow/pkg/logging"
	"github.com/dmehra2102/orderflow/pkg/metrics"
)

// Enricher serves the read side. Name lookups that fail leave the name empty;
// only store errors reach the caller.
type Enricher struct {
	log           *zap.Logger
	store         OrderStore
	products      ProductCatalog
	identity      IdentityLookup
	metrics       *metrics.Orders
	tracer        trace.Tracer
	concurrency   int
	lookupTimeout time.Duration
}

type EnricherOption func(*Enricher)

func WithConcurrency(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func WithLookupTimeout(d time.Duration) EnricherOption {
	return func(e *Enricher) {
		if d > 0 {
			e.lookupTimeout = d
		}
	}
}

func NewEnricher(log *zap.Logger, store OrderStore, products ProductCatalog, identity IdentityLookup, m *metrics.Orders, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		log:           log,
		store:         store,
		products:      products,
		identity:      identity,
		metrics:       m,
		tracer:        otel.Tracer("order-enricher"),
		concurrency:   8,
		lookupTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Enricher) GetByID(ctx context.Context, id string) (domain.EnrichedOrder, error) {
	ctx, span := e.tracer.Start(ctx, "Enricher.GetByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return domain.EnrichedOrder{}, domain.ErrOrderNotFound
	}
	o, err := e.store.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return domain.EnrichedOrder{}, err
	}
	return e.enrich(ctx, o), nil
}

func (e *Enricher) List(ctx context.Context) ([]domain.EnrichedOrder, error) {
	ctx, span := e.tracer.Start(ctx, "Enricher.List")
	defer span.End()

	orders, err := e.store.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("orders", len(orders)))

	out := make([]domain.EnrichedOrder, len(orders))
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for i, o := range orders {
		i, o := i, o
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = e.enrichIsolated(ctx, o)
		}()
	}
	wg.Wait()
	return out, nil
}

// enrichIsolated keeps a panic in one order's lookups from failing the list.
func (e *Enricher) enrichIsolated(ctx context.Context, o domain.Order) (v domain.EnrichedOrder) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx, e.log).Error("order enrichment panicked",
				zap.String("order_id", o.ID), zap.Any("panic", r))
			v = domain.View(o)
		}
	}()
	return e.enrich(ctx, o)
}

func (e *Enricher) enrich(ctx context.Context, o domain.Order) domain.EnrichedOrder {
	log := logging.FromContext(ctx, e.log).With(zap.String("order_id", o.ID))
	v := domain.View(o)
	v.SellerName = e.sellerName(ctx, log, o.UserID)

	names := make(map[string]string, len(v.Items))
	for i := range v.Items {
		pid := v.Items[i].ProductID
		name, ok := names[pid]
		if !ok {
			name = e.productName(ctx, log, pid)
			names[pid] = name
		}
		v.Items[i].Name = name
	}
	return v
}

func (e *Enricher) sellerName(ctx context.Context, log *zap.Logger, userID string) string {
	ctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	name, err := e.identity.DisplayName(ctx, userID)
	e.metrics.Enrichment.WithLabelValues("identity", lookupResult(err)).Inc()
	if err != nil {
		log.Warn("seller name lookup failed", zap.String("user_id", userID), zap.Error(err))
		return ""
	}
	return name
}

func (e *Enricher) productName(ctx context.Context, log *zap.Logger, productID string) string {
	ctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	p, err := e.products.GetProduct(ctx, productID)
	e.metrics.Enrichment.WithLabelValues("product", lookupResult(err)).Inc()
	if err != nil {
		log.Warn("product name lookup failed", zap.String("product_id", productID), zap.Error(err))
		return ""
	}
	return p.Name
}

func lookupResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrProductNotFound):
		return "absent"
	default:
		return "error"
	}
}
