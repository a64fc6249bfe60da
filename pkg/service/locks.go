package service

import (
	"context"
	"sync"
)

// pathLocks serializes mutations on the same path.
//
// Entries are reference counted and removed when no caller holds or awaits them.
type pathLocks struct {
	mx    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	sem  chan struct{}
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*pathLock)}
}

// acquire the lock for a path, or give up when the context is done
func (p *pathLocks) acquire(ctx context.Context, key string) (func(), error) {
	p.mx.Lock()
	lock, ok := p.locks[key]
	if !ok {
		lock = &pathLock{sem: make(chan struct{}, 1)}
		p.locks[key] = lock
	}
	lock.refs++
	p.mx.Unlock()

	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		p.unref(key, lock)
		return nil, ctx.Err()
	}

	if err := ctx.Err(); err != nil {
		<-lock.sem
		p.unref(key, lock)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.sem
			p.unref(key, lock)
		})
	}, nil
}

func (p *pathLocks) unref(key string, lock *pathLock) {
	p.mx.Lock()
	defer p.mx.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(p.locks, key)
	}
}

func (p *pathLocks) len() int {
	p.mx.Lock()
	defer p.mx.Unlock()
	return len(p.locks)
}
