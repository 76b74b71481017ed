package idempotency

import (
	"testing"
	"time"
)

func TestKeys(t *testing.T) {
	s := NewStore(nil, "idem:stock", time.Minute)

	if got := s.Key("stock.adjustments", 3, 42); got != "idem:stock:stock.adjustments:3:42" {
		t.Fatalf("Key = %q", got)
	}
	if got := s.EventKey("evt-1"); got != "idem:stock:event:evt-1" {
		t.Fatalf("EventKey = %q", got)
	}
}
