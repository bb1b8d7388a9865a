// internal/common/database/backend.go
package database

import (
	"context"
	"time"

	"go.uber.org/multierr"
)

const pingTimeout = 5 * time.Second

// Backend is a connection the ranking engine needs at startup and for readiness.
type Backend interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error
}

// Connect pings b and closes it again when the ping fails, so a retry loop
// never leaks pools.
func Connect(ctx context.Context, b Backend) error {
	if err := b.Ping(ctx); err != nil {
		return multierr.Append(err, b.Close())
	}
	return nil
}

// PingAll pings every non-nil backend and joins the failures.
func PingAll(ctx context.Context, backends ...Backend) error {
	var err error
	for _, b := range backends {
		if b == nil {
			continue
		}
		err = multierr.Append(err, b.Ping(ctx))
	}
	return err
}

func withPingTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, pingTimeout)
}
