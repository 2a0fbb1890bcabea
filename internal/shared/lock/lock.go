// Package lock provides named mutual exclusion with scoped acquisition.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAcquired is returned when a lock could not be obtained before the
// context ended or the backend gave up.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker acquires a named lock. The returned release func must be called
// exactly once; it is safe to call after the context is done.
type Locker interface {
	Lock(ctx context.Context, name string) (release func(), err error)
}

// With runs fn while holding the named lock and releases it on every exit
// path. A nil Locker runs fn without locking.
func With(ctx context.Context, l Locker, name string, fn func(ctx context.Context) error) error {
	if l == nil {
		return fn(ctx)
	}
	release, err := l.Lock(ctx, name)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// Keyed is an in-process Locker. Locks on different names never contend,
// and idle names are dropped so the table does not grow without bound.
type Keyed struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewKeyed constructs a Keyed locker.
func NewKeyed() *Keyed {
	return &Keyed{slots: make(map[string]*slot)}
}

// Lock blocks until name is free or ctx is done.
func (k *Keyed) Lock(ctx context.Context, name string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[name]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[name] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		k.unref(name, s)
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			k.unref(name, s)
		})
	}, nil
}

func (k *Keyed) unref(name string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, name)
	}
}

// Len reports how many names are currently held or awaited.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
