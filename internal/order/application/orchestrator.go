package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/order/domain"
	"github.com/dmehra2102/orderflow/pkg/logging"
	"github.com/dmehra2102/orderflow/pkg/metrics"
)

// Orchestrator creates orders: it reserves stock item by item at the product
// authority, persists the priced order in one unit of work and announces it.
// Any failure after a reservation re-increments every reserved item.
type Orchestrator struct {
	log                 *zap.Logger
	store               OrderStore
	products            ProductAuthority
	publisher           EventPublisher
	metrics             *metrics.Orders
	ids                 IDGenerator
	now                 func() time.Time
	tracer              trace.Tracer
	compensationTimeout time.Duration
	publishTimeout      time.Duration
	reserveTimeout      time.Duration
}

type OrchestratorOption func(*Orchestrator)

func WithIDGenerator(ids IDGenerator) OrchestratorOption {
	return func(o *Orchestrator) { o.ids = ids }
}

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

func WithCompensationTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.compensationTimeout = d
		}
	}
}

func WithPublishTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.publishTimeout = d
		}
	}
}

// WithReserveTimeout bounds one stock decrement. Decrements are detached from
// request cancellation, so this is what stops a hung authority call.
func WithReserveTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.reserveTimeout = d
		}
	}
}

func NewOrchestrator(log *zap.Logger, store OrderStore, products ProductAuthority, publisher EventPublisher, m *metrics.Orders, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		log:                 log,
		store:               store,
		products:            products,
		publisher:           publisher,
		metrics:             m,
		ids:                 UUIDGenerator{},
		now:                 time.Now,
		tracer:              otel.Tracer("order-orchestrator"),
		compensationTimeout: 10 * time.Second,
		publishTimeout:      2 * time.Second,
		reserveTimeout:      5 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Create(ctx context.Context, draft domain.Draft) (order domain.Order, err error) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "Orchestrator.Create", trace.WithAttributes(
		attribute.Int("order.items", len(draft.Items)),
	))
	log := logging.FromContext(ctx, o.log)

	defer func() {
		outcome := Outcome(err)
		elapsed := time.Since(start)
		o.metrics.Created.WithLabelValues(outcome).Inc()
		o.metrics.CreateDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

		fields := []zap.Field{zap.String("outcome", outcome), zap.Float64("latency_seconds", elapsed.Seconds())}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			log.Warn("create order done", append(fields, zap.Error(err))...)
		} else {
			span.SetStatus(codes.Ok, "")
			log.Info("create order done", append(fields, zap.String("order_id", order.ID))...)
		}
		span.End()
	}()

	if err := draft.Validate(); err != nil {
		return domain.Order{}, err
	}

	orderID := o.ids.NewID()
	span.SetAttributes(attribute.String("order.id", orderID))
	log = log.With(zap.String("order_id", orderID))

	undo := &compensations{}
	items := make([]domain.OrderItem, 0, len(draft.Items))
	for _, line := range draft.Items {
		line := line
		if err := ctx.Err(); err != nil {
			o.compensate(ctx, log, undo)
			return domain.Order{}, fmt.Errorf("order %s: stopped before reserving %s: %w", orderID, line.ProductID, err)
		}

		price, err := o.reserve(ctx, line)
		if err != nil {
			o.compensate(ctx, log, undo)
			return domain.Order{}, err
		}
		undo.add(line.ProductID, func(ctx context.Context) error {
			return o.products.IncreaseStock(ctx, line.ProductID, line.Quantity)
		})

		items = append(items, domain.OrderItem{
			ID:        o.ids.NewID(),
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: price,
		})
	}

	if err := ctx.Err(); err != nil {
		o.compensate(ctx, log, undo)
		return domain.Order{}, fmt.Errorf("order %s: stopped after reserving stock: %w", orderID, err)
	}

	created, err := domain.NewOrder(orderID, draft, items, o.now())
	if err != nil {
		o.compensate(ctx, log, undo)
		return domain.Order{}, err
	}

	if err := o.persist(ctx, log, created); err != nil {
		o.compensate(ctx, log, undo)
		return domain.Order{}, fmt.Errorf("%w: order %s: %w", domain.ErrPersistence, orderID, err)
	}

	o.publish(ctx, log, created)

	stored, err := o.store.GetByID(context.WithoutCancel(ctx), orderID)
	if err != nil {
		log.Warn("read back of committed order failed", zap.Error(err))
		return created, nil
	}
	return stored, nil
}

// reserve decrements stock for one line and returns the authoritative unit price.
// The decrement itself runs detached from ctx: once it is sent the authority
// may apply it, and only a reported success lets the caller undo it.
func (o *Orchestrator) reserve(ctx context.Context, line domain.DraftItem) (decimal.Decimal, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.reserve", trace.WithAttributes(
		attribute.String("product.id", line.ProductID),
		attribute.Int("quantity", line.Quantity),
	))
	defer span.End()

	if r, ok := o.products.(AtomicReserver); ok {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.reserveTimeout)
		defer cancel()
		price, err := r.Reserve(dctx, line.ProductID, line.Quantity)
		if err != nil {
			span.RecordError(err)
			return decimal.Zero, reservationError(line.ProductID, err)
		}
		return price, nil
	}

	p, err := o.products.GetProduct(ctx, line.ProductID)
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, fmt.Errorf("%w: %s: %w", domain.ErrProductUnavailable, line.ProductID, err)
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.reserveTimeout)
	defer cancel()
	if err := o.products.DecreaseStock(dctx, line.ProductID, line.Quantity); err != nil {
		span.RecordError(err)
		return decimal.Zero, reservationError(line.ProductID, err)
	}
	return p.Price, nil
}

func reservationError(productID string, err error) error {
	if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrProductUnavailable) {
		return fmt.Errorf("reserve %s: %w", productID, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrProductUnavailable, productID, err)
}

// compensate runs the undo list detached from request cancellation.
func (o *Orchestrator) compensate(ctx context.Context, log *zap.Logger, undo *compensations) {
	steps := undo.len()
	if steps == 0 {
		return
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.compensationTimeout)
	defer cancel()
	cctx, span := o.tracer.Start(cctx, "Orchestrator.compensate", trace.WithAttributes(
		attribute.Int("compensation.steps", steps),
	))
	defer span.End()

	err := undo.run(cctx, func(productID string, err error) {
		if err != nil {
			o.metrics.CompensationOps.WithLabelValues("failed").Inc()
			log.Error("stock re-increment failed", zap.String("product_id", productID), zap.Error(err))
			return
		}
		o.metrics.CompensationOps.WithLabelValues("ok").Inc()
	})
	if err != nil {
		o.metrics.Compensations.WithLabelValues("partial").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "partial compensation")
		log.Error("partial compensation failure", zap.Int("steps", steps), zap.Error(err))
		return
	}
	o.metrics.Compensations.WithLabelValues("complete").Inc()
	log.Info("stock reservations compensated", zap.Int("steps", steps))
}

func (o *Orchestrator) persist(ctx context.Context, log *zap.Logger, order domain.Order) (err error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.persist")
	defer span.End()

	uow, err := o.store.BeginUnitOfWork(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("begin unit of work: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		span.RecordError(err)
		if rbErr := uow.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			log.Warn("unit of work rollback failed", zap.Error(rbErr))
		}
	}()

	if err = uow.Add(ctx, order); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if err = uow.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// publish never fails the request; the committed order is the source of truth.
func (o *Orchestrator) publish(ctx context.Context, log *zap.Logger, order domain.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.publishTimeout)
	defer cancel()

	event := domain.NewOrderCreated(o.ids.NewID(), order, o.now())
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.metrics.PublishFailures.Inc()
		log.Warn("order created event not published", zap.String("event_id", event.EventID), zap.Error(err))
		return
	}
	log.Debug("order created event published", zap.String("event_id", event.EventID))
}

// Outcome names the result of a create call for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidOrder):
		return "invalid_order"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrProductUnavailable):
		return "product_unavailable"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence_failure"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
