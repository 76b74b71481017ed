package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/inventory/application"
	"github.com/dmehra2102/orderflow/internal/inventory/domain"
	"github.com/dmehra2102/orderflow/pkg/logging"
	"github.com/dmehra2102/orderflow/pkg/metrics"
	"github.com/dmehra2102/orderflow/pkg/tracing"
)

const (
	HeaderError          = "x-error"
	HeaderAttempts       = "x-attempts"
	HeaderOriginalTopic  = "x-original-topic"
	HeaderOriginalOffset = "x-original-offset"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Applier interface {
	Apply(ctx context.Context, adj domain.Adjustment, fallbackKey string) (application.Result, error)
}

// Consumer applies stock adjustments with bounded retries. Messages that still
// fail are written to the dead-letter topic before their offset is committed.
type Consumer struct {
	log         *zap.Logger
	reader      Reader
	dlq         Writer
	dlqTopic    string
	svc         Applier
	metrics     *metrics.Consumer
	tracer      trace.Tracer
	maxAttempts int
	newBackOff  func() backoff.BackOff
	messageKey  func(topic string, partition int, offset int64) string
}

type Option func(*Consumer)

func WithMaxAttempts(n int) Option {
	return func(c *Consumer) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Consumer) { c.newBackOff = f }
}

func WithMessageKey(f func(topic string, partition int, offset int64) string) Option {
	return func(c *Consumer) { c.messageKey = f }
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

func NewConsumer(log *zap.Logger, reader Reader, dlq Writer, dlqTopic string, svc Applier, m *metrics.Consumer, opts ...Option) *Consumer {
	c := &Consumer{
		log:         log,
		reader:      reader,
		dlq:         dlq,
		dlqTopic:    dlqTopic,
		svc:         svc,
		metrics:     m,
		tracer:      otel.Tracer("inventory-consumer"),
		maxAttempts: 5,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
		messageKey: func(topic string, partition int, offset int64) string {
			return fmt.Sprintf("%s:%d:%d", topic, partition, offset)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("stock adjustment consumer stopping")
				return nil
			}
			return err
		}
		if err := c.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	log := c.log.With(zap.String("topic", msg.Topic), zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))
	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeStockAdjustment", trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		))
	defer span.End()
	msgCtx = logging.WithContext(msgCtx, log)

	var adj domain.Adjustment
	if err := json.Unmarshal(msg.Value, &adj); err != nil {
		span.RecordError(err)
		return c.deadLetter(msgCtx, log, msg, fmt.Errorf("decode: %w", err), 0)
	}

	var (
		attempts int
		result   application.Result
	)
	fallback := c.messageKey(msg.Topic, msg.Partition, msg.Offset)
	op := func() error {
		attempts++
		r, err := c.svc.Apply(msgCtx, adj, fallback)
		if err == nil {
			result = r
			return nil
		}
		if errors.Is(err, domain.ErrInvalidAdjustment) {
			return backoff.Permanent(err)
		}
		if attempts < c.maxAttempts {
			c.metrics.Retries.Inc()
			log.Warn("stock adjustment attempt failed", zap.Int("attempt", attempts), zap.Error(err))
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxAttempts-1)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "dead-lettered")
		return c.deadLetter(msgCtx, log, msg, err, attempts)
	}

	c.metrics.Messages.WithLabelValues(string(result)).Inc()
	log.Debug("stock adjustment processed", zap.String("result", string(result)), zap.String("product_id", adj.ProductID))
	return c.reader.CommitMessages(ctx, msg)
}

func (c *Consumer) deadLetter(ctx context.Context, log *zap.Logger, msg kafka.Message, cause error, attempts int) error {
	headers := make([]kafka.Header, 0, len(msg.Headers)+4)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
		kafka.Header{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: HeaderAttempts, Value: []byte(strconv.Itoa(attempts))},
		kafka.Header{Key: HeaderError, Value: []byte(cause.Error())},
	)

	dead := kafka.Message{Topic: c.dlqTopic, Key: msg.Key, Value: msg.Value, Headers: headers}
	if err := c.dlq.WriteMessages(ctx, dead); err != nil {
		log.Error("dead-letter write failed, leaving offset uncommitted", zap.Error(err))
		return fmt.Errorf("dead-letter offset %d: %w", msg.Offset, err)
	}

	c.metrics.Messages.WithLabelValues("dead_lettered").Inc()
	log.Error("stock adjustment dead-lettered", zap.Int("attempts", attempts), zap.Error(cause))
	return c.reader.CommitMessages(ctx, msg)
}
