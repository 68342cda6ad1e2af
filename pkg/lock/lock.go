// Package lock serializes writers of the same content-addressed document.
package lock

import (
	"context"
	"errors"
	"fmt"

	"github.com/opencontainers/go-digest"
)

// Locker hands out one Lock per digest at a time. AcquireLock blocks until
// the lock is free or ctx is done.
type Locker interface {
	AcquireLock(ctx context.Context, digest digest.Digest) (Lock, error)
}

// Lock is held until Release is called.
type Lock interface {
	Release() error
}

// WithLock runs fn while holding the lock for dgst. A release failure is
// reported alongside fn's error.
func WithLock(ctx context.Context, l Locker, dgst digest.Digest, fn func() error) (err error) {
	held, err := l.AcquireLock(ctx, dgst)
	if err != nil {
		return fmt.Errorf("acquire lock for %s: %w", dgst, err)
	}
	defer func() {
		if relErr := held.Release(); relErr != nil {
			err = errors.Join(err, fmt.Errorf("release lock for %s: %w", dgst, relErr))
		}
	}()

	return fn()
}
