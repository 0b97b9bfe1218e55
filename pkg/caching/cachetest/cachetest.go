// Package cachetest holds the behaviour every caching.Store must share.
package cachetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RCarmona53/amazon-word-cloud/pkg/caching"
)

// Harness is a fresh store plus a way to move its clock forward.
type Harness struct {
	Store   caching.Store
	Advance func(time.Duration)
}

// RunStoreTests exercises get/set/exists/setnx/delete and TTL expiry.
func RunStoreTests(t *testing.T, newHarness func(t *testing.T) Harness) {
	ctx := context.Background()

	t.Run("absent key is a miss", func(t *testing.T) {
		h := newHarness(t)
		_, found, err := h.Store.Get(ctx, "http://x/none")
		require.NoError(t, err)
		assert.False(t, found)

		exists, err := h.Store.Exists(ctx, "http://x/none")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("set then get", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.Store.Set(ctx, "http://x/p", []byte(`[["a",1]]`), time.Hour))

		value, found, err := h.Store.Get(ctx, "http://x/p")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `[["a",1]]`, string(value))

		exists, err := h.Store.Exists(ctx, "http://x/p")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("set overwrites", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.Store.Set(ctx, "k", []byte("one"), time.Hour))
		require.NoError(t, h.Store.Set(ctx, "k", []byte("two"), time.Hour))

		value, _, err := h.Store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "two", string(value))
	})

	t.Run("expired key is a miss", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.Store.Set(ctx, "k", []byte("v"), time.Minute))
		h.Advance(2 * time.Minute)

		_, found, err := h.Store.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)

		exists, err := h.Store.Exists(ctx, "k")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("setnx writes once", func(t *testing.T) {
		h := newHarness(t)
		ok, err := h.Store.SetNX(ctx, "k", []byte("first"), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = h.Store.SetNX(ctx, "k", []byte("second"), time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		value, _, err := h.Store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "first", string(value))
	})

	t.Run("setnx succeeds after expiry", func(t *testing.T) {
		h := newHarness(t)
		ok, err := h.Store.SetNX(ctx, "k", []byte("first"), time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		h.Advance(2 * time.Minute)

		ok, err = h.Store.SetNX(ctx, "k", []byte("second"), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		value, _, err := h.Store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "second", string(value))
	})

	t.Run("delete frees the key", func(t *testing.T) {
		h := newHarness(t)
		ok, err := h.Store.SetNX(ctx, "k", []byte("first"), time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, h.Store.Delete(ctx, "k"))

		exists, err := h.Store.Exists(ctx, "k")
		require.NoError(t, err)
		assert.False(t, exists)

		ok, err = h.Store.SetNX(ctx, "k", []byte("second"), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		assert.NoError(t, h.Store.Delete(ctx, "absent"))
	})

	t.Run("concurrent setnx has one winner", func(t *testing.T) {
		h := newHarness(t)
		const workers = 16

		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := 0
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := h.Store.SetNX(ctx, "race", []byte("1"), time.Minute)
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, winners)
	})
}
