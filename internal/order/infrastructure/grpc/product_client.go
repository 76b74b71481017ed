package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/dmehra2102/orderflow/internal/order/domain"
	pb "github.com/dmehra2102/orderflow/pkg/catalogrpc"
)

// ProductClient is the order service's view of the product authority. It
// offers the single-call Reserve, so the orchestrator never prices an item
// from a read taken before its decrement.
type ProductClient struct {
	log     *zap.Logger
	conn    *grpc.ClientConn
	client  pb.ProductAuthorityClient
	timeout time.Duration
}

func NewProductClient(log *zap.Logger, addr string, timeout time.Duration, opts ...grpc.DialOption) (*ProductClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("product authority %s: %w", addr, err)
	}
	return &ProductClient{
		log:     log,
		conn:    conn,
		client:  pb.NewProductAuthorityClient(conn),
		timeout: timeout,
	}, nil
}

func (c *ProductClient) Close() error { return c.conn.Close() }

func (c *ProductClient) GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.GetProduct(ctx, &pb.GetProductRequest{ProductId: productID})
	if err != nil {
		return domain.ProductSnapshot{}, c.fromStatus("GetProduct", productID, err)
	}
	p := resp.GetProduct()
	price, err := decimal.NewFromString(p.GetPrice())
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("product %s: bad price %q: %w", productID, p.GetPrice(), err)
	}
	return domain.ProductSnapshot{
		ID:    p.GetId(),
		Name:  p.GetName(),
		Price: price,
		Stock: int(p.GetStock()),
	}, nil
}

func (c *ProductClient) DecreaseStock(ctx context.Context, productID string, quantity int) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.DecreaseStock(ctx, &pb.StockRequest{ProductId: productID, Quantity: int64(quantity)})
	return c.fromStatus("DecreaseStock", productID, err)
}

func (c *ProductClient) IncreaseStock(ctx context.Context, productID string, quantity int) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.IncreaseStock(ctx, &pb.StockRequest{ProductId: productID, Quantity: int64(quantity)})
	return c.fromStatus("IncreaseStock", productID, err)
}

// Reserve decrements stock and returns the unit price in effect at the decrement.
func (c *ProductClient) Reserve(ctx context.Context, productID string, quantity int) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Reserve(ctx, &pb.ReserveRequest{ProductId: productID, Quantity: int64(quantity)})
	if err != nil {
		return decimal.Zero, c.fromStatus("Reserve", productID, err)
	}
	price, err := decimal.NewFromString(resp.GetUnitPrice())
	if err != nil {
		// Stock is already taken; the caller only learns of a failure, so
		// give it back here.
		c.log.Error("reserve returned unparsable price",
			zap.String("product_id", productID), zap.String("price", resp.GetUnitPrice()))
		if undoErr := c.IncreaseStock(context.WithoutCancel(ctx), productID, quantity); undoErr != nil {
			c.log.Error("release after bad reserve failed", zap.String("product_id", productID), zap.Error(undoErr))
		}
		return decimal.Zero, fmt.Errorf("product %s: bad price %q: %w", productID, resp.GetUnitPrice(), err)
	}
	return price, nil
}

// fromStatus maps business outcomes to domain errors. Anything else is logged
// here because it points at the authority or the network, not the order.
func (c *ProductClient) fromStatus(method, productID string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		c.log.Warn("product authority call failed", zap.String("method", method),
			zap.String("product_id", productID), zap.Error(err))
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, st.Message())
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, st.Message())
	case codes.Canceled:
		return fmt.Errorf("product authority: %w", context.Canceled)
	case codes.DeadlineExceeded:
		c.log.Warn("product authority timed out", zap.String("method", method),
			zap.String("product_id", productID), zap.Duration("timeout", c.timeout))
		return fmt.Errorf("product authority: %w", context.DeadlineExceeded)
	default:
		c.log.Warn("product authority call failed", zap.String("method", method),
			zap.String("product_id", productID), zap.String("code", st.Code().String()), zap.String("message", st.Message()))
		return fmt.Errorf("product authority: %s: %s", st.Code(), st.Message())
	}
}
