package memory

import (
	"context"
	"sync"

	"github.com/oksasatya/user-management-api/internal/domain/repository"
)

type txKey struct{}

// Transactor serializes units of work. It gives isolation between concurrent
// check-then-write sequences but no rollback: writes made before fn fails stay.
type Transactor struct {
	mu sync.Mutex
}

func NewTransactor() *Transactor {
	return &Transactor{}
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

var _ repository.Transactor = (*Transactor)(nil)
