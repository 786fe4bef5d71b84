package resultwaiter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaiter_CompleteBeforeWait(t *testing.T) {
	w := New[string]("test", nil)
	id, wait := w.Make(time.Second)

	require.True(t, w.Complete(id, "hello"))
	v, ok := wait()
	require.True(t, ok)
	assert.Equal(t, "hello", v)
	assert.Zero(t, w.Len())
}

func TestWaiter_CompleteWhileWaiting(t *testing.T) {
	w := New[int]("test", nil)
	id, wait := w.Make(5 * time.Second)

	go func() {
		time.Sleep(20 * time.Millisecond)
		w.Complete(id, 42)
	}()

	start := time.Now()
	v, ok := wait()
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaiter_Timeout(t *testing.T) {
	w := New[[]byte]("test", nil)
	id, wait := w.Make(30 * time.Millisecond)

	start := time.Now()
	v, ok := wait()
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Zero(t, w.Len(), "timed out entry is removed")

	// late completion is a harmless no-op
	assert.False(t, w.Complete(id, []byte("late")))
}

func TestWaiter_FirstCompletionWins(t *testing.T) {
	w := New[string]("test", nil)
	id, wait := w.Make(time.Second)

	require.True(t, w.Complete(id, "first"))
	require.False(t, w.Complete(id, "second"))

	v, ok := wait()
	require.True(t, ok)
	assert.Equal(t, "first", v)
}

func TestWaiter_UnknownID(t *testing.T) {
	w := New[string]("test", nil)
	assert.False(t, w.Complete(999, "x"))
	assert.Zero(t, w.Len())
}

func TestWaiter_WaitIsIdempotent(t *testing.T) {
	w := New[string]("test", nil)
	id, wait := w.Make(time.Second)
	w.Complete(id, "v")

	v1, ok1 := wait()
	v2, ok2 := wait()
	assert.Equal(t, v1, v2)
	assert.Equal(t, ok1, ok2)
}

func TestWaiter_UniqueIDs(t *testing.T) {
	w := New[int]("test", nil)
	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				id, _ := w.Make(time.Millisecond)
				mu.Lock()
				assert.False(t, seen[id], "duplicate id %d", id)
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1600)
}

func TestWaiter_OutOfOrderCompletions(t *testing.T) {
	w := New[string]("test", nil)
	id1, wait1 := w.Make(time.Second)
	id2, wait2 := w.Make(time.Second)
	require.NotEqual(t, id1, id2)

	var wg sync.WaitGroup
	results := make([]string, 2)
	wg.Add(2)
	go func() { defer wg.Done(); results[0], _ = wait1() }()
	go func() { defer wg.Done(); results[1], _ = wait2() }()

	w.Complete(id2, "second")
	w.Complete(id1, "first")
	wg.Wait()

	assert.Equal(t, []string{"first", "second"}, results)
}

func TestWaiter_Close(t *testing.T) {
	w := New[int]("test", nil)
	_, wait := w.Make(time.Minute)

	done := make(chan bool)
	go func() {
		_, ok := wait()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	w.Close()
	w.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("wait was not released by Close")
	}

	id, wait := w.Make(time.Minute)
	assert.False(t, w.Complete(id, 1))
	_, ok := wait()
	assert.False(t, ok)
}

func TestWaiter_ConcurrentCompleteAndTimeout(t *testing.T) {
	w := New[int]("test", nil)
	for i := range 200 {
		id, wait := w.Make(time.Duration(i%3) * time.Millisecond)
		go w.Complete(id, i)
		v, ok := wait()
		if ok {
			assert.Equal(t, i, v)
		} else {
			assert.Zero(t, v)
		}
	}
	assert.Zero(t, w.Len())
}

func TestWaiter_Cancel(t *testing.T) {
	w := New[int]("test", nil)
	id, _ := w.Make(time.Minute)
	require.Equal(t, 1, w.Len())
	w.Cancel(id)
	assert.Zero(t, w.Len())
	assert.False(t, w.Complete(id, 1))
}
