package grpc

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmehra2102/orderflow/internal/product/application"
	"github.com/dmehra2102/orderflow/internal/product/domain"
	pb "github.com/dmehra2102/orderflow/pkg/catalogrpc"
)

type Server struct {
	pb.UnimplementedProductAuthorityServer
	log *zap.Logger
	svc *application.Service
}

func NewServer(log *zap.Logger, svc *application.Service) *Server {
	return &Server{log: log, svc: svc}
}

func (s *Server) GetProduct(ctx context.Context, req *pb.GetProductRequest) (*pb.GetProductResponse, error) {
	p, err := s.svc.Get(ctx, req.GetProductId())
	if err != nil {
		return nil, s.toStatus(req.GetProductId(), err)
	}
	return &pb.GetProductResponse{Product: &pb.Product{
		Id:    p.ID,
		Name:  p.Name,
		Price: p.Price.String(),
		Stock: int64(p.Stock),
	}}, nil
}

func (s *Server) DecreaseStock(ctx context.Context, req *pb.StockRequest) (*pb.StockResponse, error) {
	left, err := s.svc.DecreaseStock(ctx, req.GetProductId(), int(req.GetQuantity()))
	if err != nil {
		return nil, s.toStatus(req.GetProductId(), err)
	}
	return &pb.StockResponse{ProductId: req.GetProductId(), Stock: int64(left)}, nil
}

func (s *Server) IncreaseStock(ctx context.Context, req *pb.StockRequest) (*pb.StockResponse, error) {
	left, err := s.svc.IncreaseStock(ctx, req.GetProductId(), int(req.GetQuantity()))
	if err != nil {
		return nil, s.toStatus(req.GetProductId(), err)
	}
	return &pb.StockResponse{ProductId: req.GetProductId(), Stock: int64(left)}, nil
}

func (s *Server) Reserve(ctx context.Context, req *pb.ReserveRequest) (*pb.ReserveResponse, error) {
	p, err := s.svc.Reserve(ctx, req.GetProductId(), int(req.GetQuantity()))
	if err != nil {
		return nil, s.toStatus(req.GetProductId(), err)
	}
	return &pb.ReserveResponse{
		ProductId: p.ID,
		UnitPrice: p.Price.String(),
		Stock:     int64(p.Stock),
	}, nil
}

func (s *Server) toStatus(productID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.log.Error("product authority call failed", zap.String("product_id", productID), zap.Error(err))
		return status.Error(codes.Internal, err.Error())
	}
}

func Run(log *zap.Logger, addr string, srv *Server) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	gs := grpc.NewServer()
	pb.RegisterProductAuthorityServer(gs, srv)
	go func() {
		if err := gs.Serve(lis); err != nil {
			log.Error("grpc server stopped", zap.Error(err))
		}
	}()
	log.Info("grpc listening", zap.String("addr", addr))
	return gs, nil
}
