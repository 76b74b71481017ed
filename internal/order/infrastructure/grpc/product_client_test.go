package grpc_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmehra2102/orderflow/internal/order/application"
	"github.com/dmehra2102/orderflow/internal/order/domain"
	ordergrpc "github.com/dmehra2102/orderflow/internal/order/infrastructure/grpc"
	productapp "github.com/dmehra2102/orderflow/internal/product/application"
	productdomain "github.com/dmehra2102/orderflow/internal/product/domain"
	productgrpc "github.com/dmehra2102/orderflow/internal/product/infrastructure/grpc"
	"github.com/dmehra2102/orderflow/internal/product/infrastructure/memory"
	pb "github.com/dmehra2102/orderflow/pkg/catalogrpc"
)

var _ application.AtomicReserver = (*ordergrpc.ProductClient)(nil)

func startAuthority(t *testing.T, products ...productdomain.Product) *ordergrpc.ProductClient {
	t.Helper()
	return serveAuthority(t, productapp.NewService(zap.NewNop(), memory.NewRepository(products...)))
}

func serveAuthority(t *testing.T, svc *productapp.Service) *ordergrpc.ProductClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	pb.RegisterProductAuthorityServer(srv, productgrpc.NewServer(zap.NewNop(), svc))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := ordergrpc.NewProductClient(zap.NewNop(), "passthrough:///bufnet", time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("NewProductClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestProductClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := startAuthority(t, productdomain.Product{ID: "P1", Name: "Pen", Price: decimal.RequireFromString("10.50"), Stock: 5})

	p, err := client.GetProduct(ctx, "P1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if p.Name != "Pen" || !p.Price.Equal(decimal.RequireFromString("10.50")) || p.Stock != 5 {
		t.Fatalf("product = %+v", p)
	}

	if err := client.DecreaseStock(ctx, "P1", 2); err != nil {
		t.Fatalf("DecreaseStock: %v", err)
	}
	if err := client.IncreaseStock(ctx, "P1", 1); err != nil {
		t.Fatalf("IncreaseStock: %v", err)
	}
	if p, _ := client.GetProduct(ctx, "P1"); p.Stock != 4 {
		t.Fatalf("stock = %d, want 4", p.Stock)
	}
}

func TestProductClientMapsStatusCodes(t *testing.T) {
	ctx := context.Background()
	client := startAuthority(t, productdomain.Product{ID: "P1", Name: "Pen", Price: decimal.NewFromInt(1), Stock: 1})

	if _, err := client.GetProduct(ctx, "nope"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("GetProduct(nope) = %v", err)
	}
	if err := client.DecreaseStock(ctx, "P1", 2); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("DecreaseStock over stock = %v", err)
	}
	if err := client.DecreaseStock(ctx, "nope", 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("DecreaseStock(nope) = %v", err)
	}
	err := client.DecreaseStock(ctx, "P1", 0)
	if err == nil || errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("DecreaseStock(0) = %v", err)
	}
}

func TestProductClientReserve(t *testing.T) {
	ctx := context.Background()
	client := startAuthority(t, productdomain.Product{ID: "P1", Name: "Pen", Price: decimal.RequireFromString("2.25"), Stock: 3})

	price, err := client.Reserve(ctx, "P1", 2)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("2.25")) {
		t.Fatalf("price = %s, want 2.25", price)
	}
	if p, _ := client.GetProduct(ctx, "P1"); p.Stock != 1 {
		t.Fatalf("stock = %d, want 1", p.Stock)
	}

	if _, err := client.Reserve(ctx, "P1", 2); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("Reserve over stock = %v", err)
	}
	if _, err := client.Reserve(ctx, "nope", 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("Reserve(nope) = %v", err)
	}
	if p, _ := client.GetProduct(ctx, "P1"); p.Stock != 1 {
		t.Fatalf("stock after failed reserve = %d, want 1", p.Stock)
	}
}

func TestProductClientReservePricesAtDecrement(t *testing.T) {
	ctx := context.Background()
	svc := productapp.NewService(zap.NewNop(), memory.NewRepository(
		productdomain.Product{ID: "P1", Name: "Pen", Description: "blue", Price: decimal.RequireFromString("10.00"), Stock: 5},
	))
	client := serveAuthority(t, svc)

	before, err := client.GetProduct(ctx, "P1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}

	changed, err := svc.Get(ctx, "P1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	changed.Price = decimal.RequireFromString("12.00")
	if _, err := svc.Update(ctx, changed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	price, err := client.Reserve(ctx, "P1", 1)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if before.Price.Equal(price) {
		t.Fatalf("reserve priced from the earlier read: %s", price)
	}
	if !price.Equal(decimal.RequireFromString("12.00")) {
		t.Fatalf("price = %s, want 12.00", price)
	}
}
