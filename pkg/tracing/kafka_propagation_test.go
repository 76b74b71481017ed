package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const sampleTraceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestTraceparentRoundTrip(t *testing.T) {
	ctx := ContextWithTraceparent(context.Background(), sampleTraceparent)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		t.Fatal("expected valid span context")
	}
	if got := Traceparent(ctx); got != sampleTraceparent {
		t.Fatalf("Traceparent = %q", got)
	}
	if got := Traceparent(context.Background()); got != "" {
		t.Fatalf("expected empty traceparent, got %q", got)
	}
}

func TestKafkaHeadersRoundTrip(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	ctx := ContextWithTraceparent(context.Background(), sampleTraceparent)
	headers := InjectKafkaHeaders(ctx, []kafka.Header{{Key: "event_type", Value: []byte("order.created")}})

	if got := HeaderValue(headers, TraceparentHeader); got != sampleTraceparent {
		t.Fatalf("traceparent header = %q", got)
	}
	if got := HeaderValue(headers, "event_type"); got != "order.created" {
		t.Fatalf("event_type header = %q", got)
	}

	out := ExtractKafkaHeaders(context.Background(), headers)
	if trace.SpanContextFromContext(out).TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatal("trace id not propagated")
	}
}

func TestInjectKeepsExistingTraceparent(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	other := "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"
	ctx := ContextWithTraceparent(context.Background(), sampleTraceparent)
	headers := InjectKafkaHeaders(ctx, []kafka.Header{{Key: TraceparentHeader, Value: []byte(other)}})

	if len(headers) != 1 || HeaderValue(headers, TraceparentHeader) != other {
		t.Fatalf("headers = %v", headers)
	}
}
