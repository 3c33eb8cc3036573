package localhandle

import (
	"context"

	"github.com/aesdsocketd/aesdsocketd/internal/apperror"
)

// lockable is a mutex whose acquisition can be cancelled by a context,
// modeling the "interruptible mutex" spec.md calls for on the local-handle
// path: a blocked acquirer returns Interrupted instead of eventually
// succeeding once shutdown has been signaled. Go has no native
// interruptible-lock primitive, so acquisition races a buffered channel
// acting as a 1-slot semaphore against ctx.Done().
type lockable struct {
	sem chan struct{}
}

func (l *lockable) withLockCtx(ctx context.Context, fn func() error) error {
	sem := l.sem
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return apperror.New(apperror.Interrupted, "lock acquisition cancelled", ctx.Err())
	}
	defer func() { <-sem }()
	return fn()
}

// withLock is withLockCtx for call sites that don't already have a result
// error to propagate (Release has nothing to fail).
func (l *lockable) withLock(ctx context.Context, fn func()) {
	l.withLockCtx(ctx, func() error {
		fn()
		return nil
	})
}
