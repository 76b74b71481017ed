package application

import (
	"context"
	"errors"
	"fmt"
)

type undoAction struct {
	name string
	fn   func(ctx context.Context) error
}

// compensations accumulates undo actions as reservations succeed and runs
// them newest first.
type compensations struct {
	actions []undoAction
}

func (c *compensations) add(name string, fn func(ctx context.Context) error) {
	c.actions = append(c.actions, undoAction{name: name, fn: fn})
}

func (c *compensations) len() int { return len(c.actions) }

// run attempts every action even after failures and returns the joined
// failures, or nil when all succeeded. The list is emptied.
func (c *compensations) run(ctx context.Context, onStep func(name string, err error)) error {
	var errs []error
	for i := len(c.actions) - 1; i >= 0; i-- {
		a := c.actions[i]
		err := a.fn(ctx)
		if onStep != nil {
			onStep(a.name, err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("undo %s: %w", a.name, err))
		}
	}
	c.actions = nil
	return errors.Join(errs...)
}
