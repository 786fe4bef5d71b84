package mainthread

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestQueue_OrderAndConfinement(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := New(nil)
	defer q.Close()

	assert.False(t, q.IsCurrent())

	var got []int
	for i := range 10 {
		require.True(t, q.Post(func() {
			assert.True(t, q.IsCurrent())
			got = append(got, i)
		}))
	}
	require.NoError(t, q.Run(context.Background(), func() error { return nil }))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestQueue_RunInlineWhenCurrent(t *testing.T) {
	q := New(nil)
	defer q.Close()

	sentinel := errors.New("inner")
	err := q.Run(context.Background(), func() error {
		// would deadlock if it were posted
		return q.Run(context.Background(), func() error { return sentinel })
	})
	require.ErrorIs(t, err, sentinel)
}

func TestQueue_PanicIsolation(t *testing.T) {
	q := New(nil)
	defer q.Close()

	q.Post(func() { panic("boom") })
	var ran atomic.Bool
	require.NoError(t, q.Run(context.Background(), func() error {
		ran.Store(true)
		return nil
	}))
	assert.True(t, ran.Load())
}

func TestQueue_RunContext(t *testing.T) {
	q := New(nil)
	defer q.Close()

	release := make(chan struct{})
	q.Post(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Run(ctx, func() error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestQueue_Close(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := New(nil)
	var ran atomic.Int32
	for range 5 {
		q.Post(func() { ran.Add(1) })
	}
	q.Close()
	q.Close()

	assert.Equal(t, int32(5), ran.Load(), "queued blocks drain before exit")
	assert.False(t, q.Post(func() {}))
	require.ErrorIs(t, q.Run(context.Background(), func() error { return nil }), ErrClosed)

	select {
	case <-q.Done():
	default:
		t.Fatal("Done not closed")
	}
}
