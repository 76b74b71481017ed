package grpc

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmehra2102/orderflow/internal/product/application"
	"github.com/dmehra2102/orderflow/internal/product/domain"
	"github.com/dmehra2102/orderflow/internal/product/infrastructure/memory"
	pb "github.com/dmehra2102/orderflow/pkg/catalogrpc"
)

var _ pb.ProductAuthorityServer = (*Server)(nil)

func newServer() *Server {
	repo := memory.NewRepository(domain.Product{ID: "P1", Name: "Pen", Description: "blue", Price: decimal.RequireFromString("2.40"), Stock: 5})
	return NewServer(zap.NewNop(), application.NewService(zap.NewNop(), repo))
}

func TestStockResponsesCarryRemainingStock(t *testing.T) {
	ctx := context.Background()
	s := newServer()

	dec, err := s.DecreaseStock(ctx, &pb.StockRequest{ProductId: "P1", Quantity: 2})
	if err != nil {
		t.Fatalf("DecreaseStock: %v", err)
	}
	if dec.GetStock() != 3 || dec.GetProductId() != "P1" {
		t.Fatalf("decrease = %v", dec)
	}
	inc, err := s.IncreaseStock(ctx, &pb.StockRequest{ProductId: "P1", Quantity: 4})
	if err != nil {
		t.Fatalf("IncreaseStock: %v", err)
	}
	if inc.GetStock() != 7 {
		t.Fatalf("increase = %v", inc)
	}
}

func TestReserveReturnsPriceAndStock(t *testing.T) {
	s := newServer()
	resp, err := s.Reserve(context.Background(), &pb.ReserveRequest{ProductId: "P1", Quantity: 5})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if resp.GetUnitPrice() != "2.4" || resp.GetStock() != 0 {
		t.Fatalf("reserve = %v", resp)
	}
}

func TestErrorsMapToStatusCodes(t *testing.T) {
	ctx := context.Background()
	s := newServer()

	tests := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{name: "unknown product", want: codes.NotFound, call: func() error {
			_, err := s.GetProduct(ctx, &pb.GetProductRequest{ProductId: "P9"})
			return err
		}},
		{name: "over reserve", want: codes.FailedPrecondition, call: func() error {
			_, err := s.Reserve(ctx, &pb.ReserveRequest{ProductId: "P1", Quantity: 50})
			return err
		}},
		{name: "zero quantity", want: codes.InvalidArgument, call: func() error {
			_, err := s.DecreaseStock(ctx, &pb.StockRequest{ProductId: "P1"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(tt.call()); got != tt.want {
				t.Fatalf("code = %s, want %s", got, tt.want)
			}
		})
	}
}
