package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadOrderServiceDefaults(t *testing.T) {
	cfg, err := LoadOrderService()
	if err != nil {
		t.Fatalf("LoadOrderService: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.OutboxTopic != "order.events" || cfg.RemoteTimeout != 3*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:9092" {
		t.Fatalf("brokers = %v", cfg.KafkaBrokers)
	}
}

func TestLoadOrderServiceOverrides(t *testing.T) {
	t.Setenv("KAFKA_ADDR", "k1:9092, k2:9092,")
	t.Setenv("COMPENSATION_TIMEOUT", "30s")
	t.Setenv("ENRICH_CONCURRENCY", "16")

	cfg, err := LoadOrderService()
	if err != nil {
		t.Fatalf("LoadOrderService: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.KafkaBrokers)
	}
	if cfg.CompensationTimeout != 30*time.Second || cfg.EnrichConcurrency != 16 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadProductServiceReportsEveryProblem(t *testing.T) {
	t.Setenv("DEDUPE_TTL", "forever")
	t.Setenv("STOCK_MAX_ATTEMPTS", "-2")
	t.Setenv("REDIS_ADDR", "")

	_, err := LoadProductService()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"DEDUPE_TTL", "STOCK_MAX_ATTEMPTS", "REDIS_ADDR"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadProductServiceDefaults(t *testing.T) {
	cfg, err := LoadProductService()
	if err != nil {
		t.Fatalf("LoadProductService: %v", err)
	}
	if cfg.HTTPAddr != ":8082" || cfg.EventsTopic != "product.events" || cfg.StockTopic != "stock.adjustments" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.EventsTopic == cfg.StockTopic {
		t.Fatal("catalog events must not feed back into the adjustment topic")
	}
}
