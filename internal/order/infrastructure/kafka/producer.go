package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer carries order events from the outbox relay to the broker.
type Writer struct {
	*kafka.Writer
	log *zap.Logger
}

func NewWriter(log *zap.Logger, brokers []string) *Writer {
	return &Writer{
		log: log,
		Writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           20 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func (w *Writer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if err := w.Writer.WriteMessages(ctx, msgs...); err != nil {
		w.log.Warn("kafka write failed", zap.Int("messages", len(msgs)), zap.Error(err))
		return err
	}
	return nil
}

func (w *Writer) Shutdown(context.Context) error {
	return w.Writer.Close()
}
