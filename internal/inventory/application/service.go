package application

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/inventory/domain"
	"github.com/dmehra2102/orderflow/pkg/logging"
)

// Result tells the consumer what an Apply call did.
type Result string

const (
	ResultApplied   Result = "applied"
	ResultNoop      Result = "noop"
	ResultDuplicate Result = "duplicate"
)

var ErrMissingDedupeKey = errors.New("inventory: delta adjustment without dedupe key")

// Service applies stock adjustments so that redelivery never double-decrements.
type Service struct {
	log    *zap.Logger
	stock  StockAuthority
	dedupe Deduper
	tracer trace.Tracer
}

func NewService(log *zap.Logger, stock StockAuthority, dedupe Deduper) *Service {
	return &Service{log: log, stock: stock, dedupe: dedupe, tracer: otel.Tracer("inventory-adjustments")}
}

// Apply executes adj. fallbackKey dedupes delta adjustments that carry no event id.
func (s *Service) Apply(ctx context.Context, adj domain.Adjustment, fallbackKey string) (Result, error) {
	adj, err := adj.Normalize()
	if err != nil {
		return "", err
	}
	ctx, span := s.tracer.Start(ctx, "Inventory.Apply", trace.WithAttributes(
		attribute.String("product.id", adj.ProductID),
		attribute.String("adjustment.kind", string(adj.Kind)),
		attribute.Int("adjustment.quantity", adj.Quantity),
	))
	defer span.End()

	if adj.Kind == domain.KindAbsolute {
		return s.setAbsolute(ctx, adj)
	}
	return s.applyDelta(ctx, adj, fallbackKey)
}

// setAbsolute converges stock to the target, so replays are no-ops.
func (s *Service) setAbsolute(ctx context.Context, adj domain.Adjustment) (Result, error) {
	prev, err := s.stock.SetStock(ctx, adj.ProductID, adj.Quantity)
	if err != nil {
		return "", fmt.Errorf("set stock %s to %d: %w", adj.ProductID, adj.Quantity, err)
	}
	if prev == adj.Quantity {
		return ResultNoop, nil
	}
	logging.FromContext(ctx, s.log).Info("stock set",
		zap.String("product_id", adj.ProductID), zap.Int("from", prev), zap.Int("to", adj.Quantity))
	return ResultApplied, nil
}

func (s *Service) applyDelta(ctx context.Context, adj domain.Adjustment, fallbackKey string) (Result, error) {
	key := fallbackKey
	if adj.EventID != "" {
		key = s.dedupe.EventKey(adj.EventID)
	}
	if key == "" {
		return "", ErrMissingDedupeKey
	}

	first, err := s.dedupe.Claim(ctx, key)
	if err != nil {
		return "", err
	}
	if !first {
		return ResultDuplicate, nil
	}

	if _, err := s.stock.DecreaseStock(ctx, adj.ProductID, adj.Quantity); err != nil {
		if relErr := s.dedupe.Release(context.WithoutCancel(ctx), key); relErr != nil {
			logging.FromContext(ctx, s.log).Error("dedupe key release failed", zap.String("key", key), zap.Error(relErr))
		}
		return "", fmt.Errorf("decrease stock %s by %d: %w", adj.ProductID, adj.Quantity, err)
	}
	logging.FromContext(ctx, s.log).Info("stock decreased by adjustment",
		zap.String("product_id", adj.ProductID), zap.Int("quantity", adj.Quantity), zap.String("key", key))
	return ResultApplied, nil
}
