package mutex

import (
	"context"

	"github.com/pkg/errors"
)

// ErrLocked is returned, wrapped into MutexErr, when another holder owns the lock
var ErrLocked = errors.New("lock is held by another owner")

type MutexErr struct {
	error
}

func (e MutexErr) Unwrap() error {
	return e.error
}

func WithMutexErr(err error) error {
	return MutexErr{err}
}

type Lock interface {
	Release(ctx context.Context) error
}

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/saga/mutex/mutex.go -package mutex . Mutex,Lock

// Mutex doesn't wait for a lock. If the saga is locked it returns ErrLocked right away.
type Mutex interface {
	Lock(ctx context.Context, sagaId string) (Lock, error)
}
