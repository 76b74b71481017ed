package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOrdersExposedOnHandler(t *testing.T) {
	reg := NewRegistry()
	m := NewOrders(reg.Registerer())
	m.Compensations.WithLabelValues("partial").Inc()
	m.PublishFailures.Inc()

	if got := testutil.ToFloat64(m.Compensations.WithLabelValues("partial")); got != 1 {
		t.Fatalf("partial compensations = %v", got)
	}

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`orderflow_orders_compensations_total{result="partial"} 1`,
		"orderflow_orders_publish_failures_total 1",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
