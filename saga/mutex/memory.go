package mutex

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// NewMemoryMutex locks sagas within one process
func NewMemoryMutex() Mutex {
	return &memoryMutex{locked: make(map[string]struct{})}
}

type memoryMutex struct {
	mutex  sync.Mutex
	locked map[string]struct{}
}

func (m *memoryMutex) Lock(_ context.Context, sagaId string) (Lock, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, locked := m.locked[sagaId]; locked {
		return nil, WithMutexErr(errors.Wrapf(ErrLocked, "saga %s", sagaId))
	}

	m.locked[sagaId] = struct{}{}

	return &memoryLock{mutex: m, sagaId: sagaId}, nil
}

type memoryLock struct {
	mutex  *memoryMutex
	sagaId string
	once   sync.Once
}

func (l *memoryLock) Release(_ context.Context) error {
	released := false

	l.once.Do(func() {
		l.mutex.mutex.Lock()
		defer l.mutex.mutex.Unlock()

		delete(l.mutex.locked, l.sagaId)
		released = true
	})

	if !released {
		return WithMutexErr(errors.Errorf("lock for saga %s was already released", l.sagaId))
	}

	return nil
}
