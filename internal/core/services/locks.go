package services

import (
	"context"
	"sync"
)

// sessionLocks hands out per-session reader/writer locks that are granted
// strictly in arrival order: a reader that arrives after a queued writer
// waits for that writer. Sessions never contend with each other.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*fifoLock
}

type fifoLock struct {
	refs    int
	readers int
	writer  bool
	queue   []*lockWaiter
}

type lockWaiter struct {
	write bool
	ready chan struct{}
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*fifoLock)}
}

// acquire blocks until the lock for id is granted or ctx is done.
// The returned function releases the lock exactly once.
func (t *sessionLocks) acquire(ctx context.Context, id string, write bool) (func(), error) {
	t.mu.Lock()
	l := t.locks[id]
	if l == nil {
		l = &fifoLock{}
		t.locks[id] = l
	}
	l.refs++

	if len(l.queue) == 0 && l.available(write) {
		l.grant(write)
		t.mu.Unlock()
		return t.releaser(id, write), nil
	}

	w := &lockWaiter{write: write, ready: make(chan struct{})}
	l.queue = append(l.queue, w)
	t.mu.Unlock()

	select {
	case <-w.ready:
		return t.releaser(id, write), nil
	case <-ctx.Done():
	}

	t.mu.Lock()
	select {
	case <-w.ready:
		// Granted while we were giving up; hand it straight back.
		t.mu.Unlock()
		t.release(id, write)
		return nil, ctx.Err()
	default:
	}
	for i, q := range l.queue {
		if q == w {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			break
		}
	}
	l.refs--
	l.promote()
	if l.refs == 0 {
		delete(t.locks, id)
	}
	t.mu.Unlock()
	return nil, ctx.Err()
}

func (t *sessionLocks) releaser(id string, write bool) func() {
	var once sync.Once
	return func() {
		once.Do(func() { t.release(id, write) })
	}
}

func (t *sessionLocks) release(id string, write bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l := t.locks[id]
	if l == nil {
		return
	}
	if write {
		l.writer = false
	} else {
		l.readers--
	}
	l.refs--
	l.promote()
	if l.refs == 0 {
		delete(t.locks, id)
	}
}

// size reports how many sessions have live lock state.
func (t *sessionLocks) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}

func (l *fifoLock) available(write bool) bool {
	if write {
		return !l.writer && l.readers == 0
	}
	return !l.writer
}

func (l *fifoLock) grant(write bool) {
	if write {
		l.writer = true
	} else {
		l.readers++
	}
}

// promote grants queued waiters from the head while they are compatible.
func (l *fifoLock) promote() {
	for len(l.queue) > 0 {
		w := l.queue[0]
		if !l.available(w.write) {
			return
		}
		l.grant(w.write)
		l.queue = l.queue[1:]
		close(w.ready)
		if w.write {
			return
		}
	}
}
