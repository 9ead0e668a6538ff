// Package params models the named, typed, leveled configuration values that
// drive contract behavior, and the read interface contracts consume them
// through.
package params

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMissingParameter indicates a required parameter has no value. Products
// treat this as a configuration error aborting the hook.
var ErrMissingParameter = errors.New("missing required parameter")

// Level scopes a parameter to the product or to a single account.
type Level string

const (
	LevelTemplate Level = "TEMPLATE"
	LevelInstance Level = "INSTANCE"
)

// UpdatePermission controls who may change a parameter after creation.
type UpdatePermission string

const (
	UpdateFixed        UpdatePermission = "FIXED"
	UpdateUserEditable UpdatePermission = "USER_EDITABLE"
	UpdateOpsEditable  UpdatePermission = "OPS_EDITABLE"
)

// Definition declares a parameter a product understands.
type Definition struct {
	Name             string
	Level            Level
	Description      string
	DisplayName      string
	UpdatePermission UpdatePermission
	Default          string
	// Derived parameters are computed on demand from balances and other
	// parameters; they are never stored.
	Derived bool
}

// Store reads parameter values. Values are kept as strings, matching how the
// platform transports them; typed accessors below parse on demand.
type Store interface {
	// Latest returns the current value of the parameter.
	Latest(ctx context.Context, name string) (string, error)

	// Before returns the value that was effective strictly before t.
	Before(ctx context.Context, name string, t time.Time) (string, error)

	// Has reports whether the parameter has any value set. Optional
	// parameters use this instead of treating absence as an error.
	Has(ctx context.Context, name string) (bool, error)
}

// String reads a required string parameter.
func String(ctx context.Context, s Store, name string) (string, error) {
	v, err := s.Latest(ctx, name)
	if err != nil {
		return "", err
	}
	return v, nil
}

// Decimal reads and parses a required decimal parameter.
func Decimal(ctx context.Context, s Store, name string) (decimal.Decimal, error) {
	v, err := s.Latest(ctx, name)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parameter %s: %w", name, err)
	}
	return d, nil
}

// DecimalBefore reads the decimal value effective strictly before t.
func DecimalBefore(ctx context.Context, s Store, name string, t time.Time) (decimal.Decimal, error) {
	v, err := s.Before(ctx, name, t)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parameter %s: %w", name, err)
	}
	return d, nil
}

// Int reads and parses a required integer parameter.
func Int(ctx context.Context, s Store, name string) (int, error) {
	v, err := s.Latest(ctx, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", name, err)
	}
	return n, nil
}
