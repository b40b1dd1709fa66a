package keylock

import (
	"context"
	"sync"
)

// Locker serializes work per key. The returned unlock func must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// VideoKey is the mutex key used for per-video mutations.
func VideoKey(videoID string) string {
	return "video:" + videoID
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Local is an in-process Locker. Entries are dropped once nobody holds or
// waits on them.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewLocal() *Local {
	return &Local{locks: map[string]*entry{}}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
