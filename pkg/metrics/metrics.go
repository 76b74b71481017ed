package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orderflow"

// Registry owns the collectors of one process.
type Registry struct {
	reg *prometheus.Registry
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{reg: reg}
}

func (r *Registry) Registerer() prometheus.Registerer { return r.reg }

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Orders groups the order-service collectors.
type Orders struct {
	Created         *prometheus.CounterVec
	CreateDuration  *prometheus.HistogramVec
	Compensations   *prometheus.CounterVec
	CompensationOps *prometheus.CounterVec
	PublishFailures prometheus.Counter
	Enrichment      *prometheus.CounterVec
}

func NewOrders(reg prometheus.Registerer) *Orders {
	m := &Orders{
		Created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "create_total",
			Help:      "Order creation attempts by outcome.",
		}, []string{"outcome"}),
		CreateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "create_duration_seconds",
			Help:      "Order creation latency by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		Compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "compensations_total",
			Help:      "Stock reservation rollbacks by result (complete, partial).",
		}, []string{"result"}),
		CompensationOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "compensation_steps_total",
			Help:      "Individual stock re-increment calls by result.",
		}, []string{"result"}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "publish_failures_total",
			Help:      "Order-created events that could not be handed to the publisher.",
		}),
		Enrichment: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "enrichment_lookups_total",
			Help:      "Read-side name lookups by source and result.",
		}, []string{"source", "result"}),
	}
	reg.MustRegister(m.Created, m.CreateDuration, m.Compensations, m.CompensationOps, m.PublishFailures, m.Enrichment)
	return m
}

// Consumer groups the stock-adjustment consumer collectors.
type Consumer struct {
	Messages *prometheus.CounterVec
	Retries  prometheus.Counter
}

func NewConsumer(reg prometheus.Registerer) *Consumer {
	m := &Consumer{
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock_adjustments",
			Name:      "messages_total",
			Help:      "Consumed stock-adjustment messages by outcome.",
		}, []string{"outcome"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock_adjustments",
			Name:      "retries_total",
			Help:      "Retried stock-adjustment attempts.",
		}),
	}
	reg.MustRegister(m.Messages, m.Retries)
	return m
}

// Outbox groups the relay collectors.
type Outbox struct {
	Dispatched prometheus.Counter
	Failed     prometheus.Counter
}

func NewOutbox(reg prometheus.Registerer) *Outbox {
	m := &Outbox{
		Dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "dispatched_total",
			Help:      "Outbox events written to the broker.",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "dispatch_failures_total",
			Help:      "Outbox events the broker rejected.",
		}),
	}
	reg.MustRegister(m.Dispatched, m.Failed)
	return m
}
