package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/product/domain"
)

//go:embed schema.sql
var schema string

const columns = `id, name, description, price::text, stock, deleted, updated_at`

type Repository struct {
	log  *zap.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *zap.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("product schema: %w", err)
	}
	r.log.Info("product schema applied")
	return nil
}

func (r *Repository) Create(ctx context.Context, p domain.Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, description, price, stock, updated_at)
		VALUES ($1, $2, $3, $4::text::numeric, $5, $6)`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Stock, p.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrDuplicateProduct
	}
	return err
}

// Update changes the descriptive fields. Stock only moves through the
// increase, decrease and set operations.
func (r *Repository) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET name=$2, description=$3, price=$4::text::numeric, updated_at=$5
		WHERE id=$1 AND NOT deleted
		RETURNING `+columns,
		p.ID, p.Name, p.Description, p.Price.String(), p.UpdatedAt)
	out, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	return out, err
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET deleted=true, updated_at=now() WHERE id=$1 AND NOT deleted`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM products WHERE id=$1 AND NOT deleted`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, err
}

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM products WHERE NOT deleted ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DecreaseStock relies on the row lock taken by UPDATE to serialize concurrent
// callers for the same product.
func (r *Repository) DecreaseStock(ctx context.Context, id string, quantity int) (int, error) {
	p, err := r.Reserve(ctx, id, quantity)
	if err != nil {
		return 0, err
	}
	return p.Stock, nil
}

// Reserve decrements and reads back the row in one statement, so the price
// returned is the one in effect when the stock was taken.
func (r *Repository) Reserve(ctx context.Context, id string, quantity int) (domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND NOT deleted AND stock >= $2
		RETURNING `+columns, id, quantity))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return domain.Product{}, getErr
		}
		return domain.Product{}, domain.ErrInsufficientStock
	}
	return p, err
}

// IncreaseStock ignores the deleted flag so compensations still land.
func (r *Repository) IncreaseStock(ctx context.Context, id string, quantity int) (int, error) {
	var left int
	err := r.pool.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1
		RETURNING stock`, id, quantity).Scan(&left)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return left, nil
}

// SetStock locks the row, so no reservation can slip between reading the
// previous value and writing the new one.
func (r *Repository) SetStock(ctx context.Context, id string, stock int) (int, error) {
	var prev int
	err := r.pool.QueryRow(ctx, `
		WITH old AS (
			SELECT stock FROM products WHERE id = $1 AND NOT deleted FOR UPDATE
		)
		UPDATE products SET stock = $2, updated_at = now()
		FROM old
		WHERE products.id = $1
		RETURNING old.stock`, id, stock).Scan(&prev)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return prev, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.Deleted, &p.UpdatedAt); err != nil {
		return domain.Product{}, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Product{}, fmt.Errorf("product %s: parse price %q: %w", p.ID, price, err)
	}
	return p, nil
}
