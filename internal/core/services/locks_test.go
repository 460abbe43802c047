package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queued reports how many waiters sit in id's queue.
func queued(l *sessionLocks, id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fl := l.locks[id]; fl != nil {
		return len(fl.queue)
	}
	return 0
}

func waitQueued(t *testing.T, l *sessionLocks, id string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return queued(l, id) == n }, time.Second, time.Millisecond)
}

// enqueue starts a goroutine that acquires the lock and reports on granted.
func enqueue(l *sessionLocks, id string, write bool, name string, granted chan<- string) <-chan func() {
	releases := make(chan func(), 1)
	go func() {
		release, err := l.acquire(context.Background(), id, write)
		if err != nil {
			close(releases)
			return
		}
		granted <- name
		releases <- release
	}()
	return releases
}

func assertNothingGranted(t *testing.T, granted <-chan string) {
	t.Helper()
	select {
	case name := <-granted:
		t.Fatalf("%s was granted out of turn", name)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSessionLocks_ReadersShare(t *testing.T) {
	l := newSessionLocks()
	ctx := context.Background()

	r1, err := l.acquire(ctx, "s", false)
	require.NoError(t, err)
	r2, err := l.acquire(ctx, "s", false)
	require.NoError(t, err)

	r1()
	r2()
	assert.Equal(t, 0, l.size())
}

func TestSessionLocks_FIFOOrder(t *testing.T) {
	l := newSessionLocks()
	granted := make(chan string, 4)

	w1, err := l.acquire(context.Background(), "s", true)
	require.NoError(t, err)

	r1 := enqueue(l, "s", false, "r1", granted)
	waitQueued(t, l, "s", 1)
	w2 := enqueue(l, "s", true, "w2", granted)
	waitQueued(t, l, "s", 2)
	r2 := enqueue(l, "s", false, "r2", granted)
	waitQueued(t, l, "s", 3)

	assertNothingGranted(t, granted)

	w1()
	assert.Equal(t, "r1", <-granted)
	// r2 arrived after w2 and must not overtake it.
	assertNothingGranted(t, granted)

	(<-r1)()
	assert.Equal(t, "w2", <-granted)
	assertNothingGranted(t, granted)

	(<-w2)()
	assert.Equal(t, "r2", <-granted)
	(<-r2)()

	assert.Equal(t, 0, l.size())
}

func TestSessionLocks_ConsecutiveReadersGrantedTogether(t *testing.T) {
	l := newSessionLocks()
	granted := make(chan string, 2)

	w, err := l.acquire(context.Background(), "s", true)
	require.NoError(t, err)

	r1 := enqueue(l, "s", false, "r1", granted)
	waitQueued(t, l, "s", 1)
	r2 := enqueue(l, "s", false, "r2", granted)
	waitQueued(t, l, "s", 2)

	w()
	got := []string{<-granted, <-granted}
	assert.ElementsMatch(t, []string{"r1", "r2"}, got)

	(<-r1)()
	(<-r2)()
	assert.Equal(t, 0, l.size())
}

func TestSessionLocks_CancelledWaiter(t *testing.T) {
	l := newSessionLocks()
	granted := make(chan string, 1)

	w1, err := l.acquire(context.Background(), "s", true)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := l.acquire(ctx, "s", true)
		errc <- err
	}()
	waitQueued(t, l, "s", 1)

	r := enqueue(l, "s", false, "r", granted)
	waitQueued(t, l, "s", 2)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	waitQueued(t, l, "s", 1)

	// The reader still waits for the holder, not for the cancelled writer.
	assertNothingGranted(t, granted)

	w1()
	assert.Equal(t, "r", <-granted)
	(<-r)()
	assert.Equal(t, 0, l.size())
}

func TestSessionLocks_ReleaseIsIdempotent(t *testing.T) {
	l := newSessionLocks()
	ctx := context.Background()

	release, err := l.acquire(ctx, "s", true)
	require.NoError(t, err)
	release()
	release()

	r1, err := l.acquire(ctx, "s", false)
	require.NoError(t, err)
	r2, err := l.acquire(ctx, "s", false)
	require.NoError(t, err)
	r1()
	r2()
	assert.Equal(t, 0, l.size())
}

func TestSessionLocks_SessionsDoNotContend(t *testing.T) {
	l := newSessionLocks()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	a, err := l.acquire(ctx, "a", true)
	require.NoError(t, err)
	defer a()

	b, err := l.acquire(ctx, "b", true)
	require.NoError(t, err)
	b()
}

func TestSessionLocks_WritersAreExclusive(t *testing.T) {
	l := newSessionLocks()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.acquire(ctx, "s", true)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.size())
}
