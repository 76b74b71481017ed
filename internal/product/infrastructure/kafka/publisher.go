package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/product/domain"
	"github.com/dmehra2102/orderflow/pkg/outbox"
	"github.com/dmehra2102/orderflow/pkg/tracing"
)

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher sends catalog integration events keyed by product id, so every
// change to one product lands on one partition in order.
type Publisher struct {
	log    *zap.Logger
	writer Writer
	topic  string
	tracer trace.Tracer
}

func NewPublisher(log *zap.Logger, writer Writer, topic string) *Publisher {
	return &Publisher{log: log, writer: writer, topic: topic, tracer: otel.Tracer("product-events")}
}

func (p *Publisher) Publish(ctx context.Context, e domain.Event) error {
	ctx, span := p.tracer.Start(ctx, "product.publish", trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", p.topic),
			attribute.String("product.event_type", e.Type),
			attribute.String("product.id", e.ProductID),
		))
	defer span.End()

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Type, err)
	}
	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(e.ProductID),
		Value: payload,
		Headers: tracing.InjectKafkaHeaders(ctx, []kafka.Header{
			{Key: outbox.EventTypeHeader, Value: []byte(e.Type)},
		}),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("publish %s for %s: %w", e.Type, e.ProductID, err)
	}
	p.log.Debug("catalog event published", zap.String("type", e.Type), zap.String("product_id", e.ProductID))
	return nil
}
