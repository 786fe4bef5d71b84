package registry

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNativeID(t *testing.T) {
	a, b := NewNativeID(), NewNativeID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestRegistry_FirstRegisterWins(t *testing.T) {
	r := New[string]()
	require.True(t, r.Register("a", "first"))
	require.False(t, r.Register("a", "second"))

	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "first", v)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Remove(t *testing.T) {
	r := New[int]()
	r.Register("a", 1)
	r.Register("b", 2)

	v, ok := r.Remove("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = r.Remove("a")
	assert.False(t, ok)
	_, ok = r.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []NativeID{"b"}, r.IDs())

	// removing frees the id for a new instance
	require.True(t, r.Register("a", 3))

	all := r.Clear()
	assert.Len(t, all, 2)
	assert.Zero(t, r.Len())
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	r := New[int]()
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Register("shared", i) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, r.Len())
}
