package domain

import (
	"errors"
	"strings"
)

var (
	ErrInvalidOrder       = errors.New("order: invalid order")
	ErrProductUnavailable = errors.New("order: product unavailable")
	ErrProductNotFound    = errors.New("order: product not found")
	ErrInsufficientStock  = errors.New("order: insufficient stock")
	ErrPersistence        = errors.New("order: persistence failure")
	ErrOrderNotFound      = errors.New("order: not found")
	ErrUserNotFound       = errors.New("order: user not found")
)

// ValidationError lists every problem found in a draft.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidOrder.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidOrder }
