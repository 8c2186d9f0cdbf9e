package auth

import (
	"context"
	"time"

	"github.com/chambadev/chamba/internal/domain/repository"
)

// storageBackoff es la espera antes del único reintento permitido cuando el
// storage reporta Unavailable. Los servicios lo bajan a 0 en tests.
const storageBackoff = 100 * time.Millisecond

// retryOnce ejecuta fn y, sólo ante repository.ErrUnavailable, espera backoff
// y reintenta una única vez. Cualquier otro error es terminal. El fallo
// repetido sale como repository.ErrUnavailable, jamás como éxito.
func retryOnce[T any](ctx context.Context, backoff time.Duration, fn func(context.Context) (T, error)) (T, error) {
	out, err := fn(ctx)
	if err == nil || !repository.IsUnavailable(err) {
		return out, err
	}
	select {
	case <-ctx.Done():
		return out, ctx.Err()
	case <-time.After(backoff):
	}
	return fn(ctx)
}
