package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("product: not found")
	ErrInsufficientStock = errors.New("product: insufficient stock")
	ErrInvalidQuantity   = errors.New("product: quantity must be positive")
	ErrInvalidProduct    = errors.New("product: invalid")
	ErrDuplicateProduct  = errors.New("product: already exists")
)

const MaxNameLength = 200

// Product is a catalog entry. Deleted products stay in storage but are hidden
// from reads and can no longer be reserved.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Deleted     bool
	UpdatedAt   time.Time
}

// Validate checks the fields an operator can set through the catalog API.
func (p Product) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	} else if len(p.Name) > MaxNameLength {
		problems = append(problems, fmt.Sprintf("name longer than %d characters", MaxNameLength))
	}
	if strings.TrimSpace(p.Description) == "" {
		problems = append(problems, "description is required")
	}
	if !p.Price.IsPositive() {
		problems = append(problems, "price must be positive")
	}
	if p.Stock < 0 {
		problems = append(problems, "stock must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProduct, strings.Join(problems, "; "))
	}
	return nil
}

// Normalize trims operator input.
func (p Product) Normalize() Product {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	return p
}

func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}
