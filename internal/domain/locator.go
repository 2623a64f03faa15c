package domain

import (
	"context"
	"errors"
)

var ErrPermissionDenied = errors.New("location permission denied")

// Locator yields the current device position
type Locator interface {
	Position(ctx context.Context) (Position, error)
}

// StaticLocator reports a fixed position, or ErrPermissionDenied when
// permission was not granted.
type StaticLocator struct {
	Granted bool
	At      Position
}

func (l StaticLocator) Position(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if !l.Granted {
		return Position{}, ErrPermissionDenied
	}
	return l.At, nil
}
