package lock

import (
	"context"
	"errors"
	"sync"

	"github.com/opencontainers/go-digest"
)

var ErrAlreadyReleased = errors.New("lock already released")

// KeyedLocker is an in-process Locker with one lock per digest.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[digest.Digest]*entry
}

type entry struct {
	ch   chan struct{} // holds one token while the lock is taken
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[digest.Digest]*entry)}
}

func (l *KeyedLocker) AcquireLock(ctx context.Context, dgst digest.Digest) (Lock, error) {
	l.mu.Lock()
	e, ok := l.locks[dgst]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[dgst] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return &keyedLock{locker: l, digest: dgst, entry: e}, nil
	case <-ctx.Done():
		l.unref(dgst, e)
		return nil, ctx.Err()
	}
}

func (l *KeyedLocker) unref(dgst digest.Digest, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, dgst)
	}
}

type keyedLock struct {
	locker *KeyedLocker
	digest digest.Digest
	entry  *entry
	once   sync.Once
}

func (k *keyedLock) Release() error {
	err := ErrAlreadyReleased
	k.once.Do(func() {
		<-k.entry.ch
		k.locker.unref(k.digest, k.entry)
		err = nil
	})
	return err
}
