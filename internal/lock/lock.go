// Package lock serializes work on a key, either within one process or across
// processes sharing a Redis instance.
package lock

import (
	"context"
	"sync"
)

// Locker acquires an exclusive lock on key. The returned function releases
// it and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedMutex is an in-process Locker holding one mutex per key. Entries are
// dropped once no goroutine holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	if m.locks == nil {
		m.locks = make(map[string]*keyLock)
	}
	kl, ok := m.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		m.locks[key] = kl
	}
	kl.refs++
	m.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		m.release(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.sem
			m.release(key, kl)
		})
	}, nil
}

func (m *KeyedMutex) release(key string, kl *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(m.locks, key)
	}
}

// size reports the number of live keys.
func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
