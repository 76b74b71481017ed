package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/order/domain"
	"github.com/dmehra2102/orderflow/pkg/outbox"
	"github.com/dmehra2102/orderflow/pkg/tracing"
)

const aggregateOrder = "order"

// EventPublisher hands order-created events to the outbox relay.
type EventPublisher struct {
	log     *zap.Logger
	pool    *pgxpool.Pool
	headers map[string]string
}

func NewEventPublisher(log *zap.Logger, pool *pgxpool.Pool, source string) *EventPublisher {
	return &EventPublisher{log: log, pool: pool, headers: map[string]string{"source": source}}
}

func (p *EventPublisher) Publish(ctx context.Context, event domain.OrderCreated) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", domain.EventOrderCreated, err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		aggregateOrder, event.OrderID, domain.EventOrderCreated, payload, p.headers, tracing.Traceparent(ctx),
		outbox.StatusPending)
	if err != nil {
		return fmt.Errorf("enqueue %s for order %s: %w", domain.EventOrderCreated, event.OrderID, err)
	}
	return nil
}

type OutboxStore struct {
	log         *zap.Logger
	pool        *pgxpool.Pool
	maxAttempts int
}

func NewOutboxStore(log *zap.Logger, pool *pgxpool.Pool, maxAttempts int) *OutboxStore {
	return &OutboxStore{log: log, pool: pool, maxAttempts: maxAttempts}
}

// LockBatch leases pending rows, failed rows with attempts left, and rows
// whose previous lease expired.
func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, type, payload, headers, traceparent, created_at,
		       retry_count, COALESCE(last_error, '')
		FROM outbox
		WHERE status = $3
		   OR (status = $4 AND retry_count < $2)
		   OR (status = $5 AND lease_until < now())
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, batchSize, s.maxAttempts, outbox.StatusPending, outbox.StatusFailed, outbox.StatusInProgress)
	if err != nil {
		return nil, err
	}

	var events []outbox.Event
	for rows.Next() {
		var event outbox.Event
		if err := rows.Scan(&event.ID, &event.AggregateType, &event.AggregateID, &event.Type, &event.Payload,
			&event.Headers, &event.Traceparent, &event.CreatedAt, &event.Attempts, &event.LastError); err != nil {
			rows.Close()
			return nil, err
		}
		events = append(events, event)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}

	_, err = tx.Exec(ctx, `
		UPDATE outbox SET status=$4, relay_id=$1, lease_until=now() + make_interval(secs => $2)
		WHERE id = ANY($3)`, relayID, lease.Seconds(), ids, outbox.StatusInProgress)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	ct, err := s.pool.Exec(ctx, `UPDATE outbox SET status=$2, lease_until=NULL WHERE id = ANY($1)`, ids, outbox.StatusSent)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != int64(len(ids)) {
		s.log.Warn("outbox mark sent updated fewer rows", zap.Int("want", len(ids)), zap.Int64("got", ct.RowsAffected()))
	}
	return nil
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox SET status=$3, last_error=$2, retry_count=retry_count+1, lease_until=NULL
		WHERE id=$1`, id, errMsg, outbox.StatusFailed)
	return err
}

func (s *OutboxStore) ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox SET lease_until=now() + make_interval(secs => $1)
		WHERE id = ANY($2) AND relay_id=$3`, lease.Seconds(), ids, relayID)
	return err
}
