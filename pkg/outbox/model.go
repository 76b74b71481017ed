package outbox

import "time"

// Status is the delivery state of an outbox row. Stores write these values
// verbatim, so they double as the column's allowed values.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Event is a leased outbox row on its way to the broker.
type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Headers       map[string]string
	Traceparent   string
	CreatedAt     time.Time

	// Attempts counts earlier failed dispatches; LastError is the most recent cause.
	Attempts  int
	LastError string
}

// Retry reports whether an earlier dispatch of this event already failed.
func (e Event) Retry() bool { return e.Attempts > 0 }
