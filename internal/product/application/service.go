package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/product/domain"
	"github.com/dmehra2102/orderflow/pkg/logging"
)

type Service struct {
	log    *zap.Logger
	repo   Repository
	events EventPublisher
	now    func() time.Time
	tracer trace.Tracer
}

type Option func(*Service)

// WithPublisher sends catalog integration events. Without it events are dropped.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(log *zap.Logger, repo Repository, opts ...Option) *Service {
	s := &Service{
		log:    log,
		repo:   repo,
		events: nopPublisher{},
		now:    time.Now,
		tracer: otel.Tracer("product-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	if id == "" {
		return domain.Product{}, domain.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Stock(ctx context.Context, id string) (int, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.Stock, nil
}

// Create assigns an id when the caller did not supply one.
func (s *Service) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "Product.Create")
	defer span.End()

	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Deleted = false
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Create(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	logging.FromContext(ctx, s.log).Info("product created", zap.String("product_id", p.ID))
	s.publish(ctx, domain.Event{Type: domain.EventProductCreated, ProductID: p.ID, Name: p.Name, Stock: p.Stock})
	return p, nil
}

func (s *Service) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "Product.Update", trace.WithAttributes(attribute.String("product.id", p.ID)))
	defer span.End()

	if p.ID == "" {
		return domain.Product{}, domain.ErrNotFound
	}
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	p.UpdatedAt = s.now().UTC()
	stored, err := s.repo.Update(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product %s: %w", p.ID, err)
	}
	logging.FromContext(ctx, s.log).Info("product updated", zap.String("product_id", p.ID))
	s.publish(ctx, domain.Event{Type: domain.EventProductUpdated, ProductID: stored.ID, Name: stored.Name, Stock: stored.Stock})
	return stored, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	logging.FromContext(ctx, s.log).Info("product deleted", zap.String("product_id", id))
	return nil
}

func (s *Service) DecreaseStock(ctx context.Context, id string, quantity int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "Product.DecreaseStock", trace.WithAttributes(
		attribute.String("product.id", id), attribute.Int("quantity", quantity)))
	defer span.End()

	if err := domain.ValidateQuantity(quantity); err != nil {
		return 0, err
	}
	left, err := s.repo.DecreaseStock(ctx, id, quantity)
	if err != nil {
		return 0, fmt.Errorf("decrease stock %s by %d: %w", id, quantity, err)
	}
	logging.FromContext(ctx, s.log).Info("stock decreased",
		zap.String("product_id", id), zap.Int("quantity", quantity), zap.Int("stock", left))
	return left, nil
}

func (s *Service) IncreaseStock(ctx context.Context, id string, quantity int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "Product.IncreaseStock", trace.WithAttributes(
		attribute.String("product.id", id), attribute.Int("quantity", quantity)))
	defer span.End()

	if err := domain.ValidateQuantity(quantity); err != nil {
		return 0, err
	}
	left, err := s.repo.IncreaseStock(ctx, id, quantity)
	if err != nil {
		return 0, fmt.Errorf("increase stock %s by %d: %w", id, quantity, err)
	}
	logging.FromContext(ctx, s.log).Info("stock increased",
		zap.String("product_id", id), zap.Int("quantity", quantity), zap.Int("stock", left))
	return left, nil
}

// Reserve decrements stock and reports the price in effect at the decrement.
func (s *Service) Reserve(ctx context.Context, id string, quantity int) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "Product.Reserve", trace.WithAttributes(
		attribute.String("product.id", id), attribute.Int("quantity", quantity)))
	defer span.End()

	if err := domain.ValidateQuantity(quantity); err != nil {
		return domain.Product{}, err
	}
	p, err := s.repo.Reserve(ctx, id, quantity)
	if err != nil {
		return domain.Product{}, fmt.Errorf("reserve %d of %s: %w", quantity, id, err)
	}
	logging.FromContext(ctx, s.log).Info("stock reserved",
		zap.String("product_id", id), zap.Int("quantity", quantity),
		zap.Int("stock", p.Stock), zap.String("price", p.Price.String()))
	return p, nil
}

// SetStock overwrites stock in one step and returns the value it replaced.
func (s *Service) SetStock(ctx context.Context, id string, stock int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "Product.SetStock", trace.WithAttributes(
		attribute.String("product.id", id), attribute.Int("stock", stock)))
	defer span.End()

	if stock < 0 {
		return 0, domain.ErrInvalidQuantity
	}
	prev, err := s.repo.SetStock(ctx, id, stock)
	if err != nil {
		return 0, fmt.Errorf("set stock %s to %d: %w", id, stock, err)
	}
	return prev, nil
}

// Restock records goods received against an invoice.
func (s *Service) Restock(ctx context.Context, id string, quantity int, invoice string) (int, error) {
	if strings.TrimSpace(invoice) == "" {
		return 0, fmt.Errorf("%w: invoice is required", domain.ErrInvalidProduct)
	}
	left, err := s.IncreaseStock(ctx, id, quantity)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, domain.Event{Type: domain.EventStockUpdated, ProductID: id, Stock: left, Invoice: invoice})
	return left, nil
}

// Withdraw takes stock out of the catalog outside the order flow.
func (s *Service) Withdraw(ctx context.Context, id string, quantity int) (int, error) {
	left, err := s.DecreaseStock(ctx, id, quantity)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, domain.Event{Type: domain.EventStockUpdated, ProductID: id, Stock: left})
	return left, nil
}

// publish is best effort: the catalog change has already been stored.
func (s *Service) publish(ctx context.Context, e domain.Event) {
	e.ID = uuid.NewString()
	e.OccurredAt = s.now().UTC()
	if err := s.events.Publish(context.WithoutCancel(ctx), e); err != nil {
		logging.FromContext(ctx, s.log).Warn("catalog event publish failed",
			zap.String("type", e.Type), zap.String("product_id", e.ProductID), zap.Error(err))
	}
}
