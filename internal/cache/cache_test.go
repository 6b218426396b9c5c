package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCache_ExpiresEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[string](time.Minute, 0)
	c.now = func() time.Time { return now }

	c.Set("tpl:ev-1:badge", "v1")
	v, ok := c.Get("tpl:ev-1:badge")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	now = now.Add(time.Minute)
	_, ok = c.Get("tpl:ev-1:badge")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_Delete(t *testing.T) {
	c := New[int](0, 0)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCache_EvictsClosestToExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[int](time.Minute, 2)
	c.now = func() time.Time { return now }

	c.Set("first", 1)
	now = now.Add(time.Second)
	c.Set("second", 2)
	now = now.Add(time.Second)
	c.Set("third", 3)

	_, ok := c.Get("first")
	assert.False(t, ok)
	_, ok = c.Get("second")
	assert.True(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)

	// overwriting an existing key never evicts
	c.Set("third", 33)
	assert.Equal(t, 2, c.Len())
}

func TestCache_NeverExceedsSize(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(1, 8).Draw(rt, "size")
		keys := rapid.SliceOf(rapid.IntRange(0, 20)).Draw(rt, "keys")

		c := New[int](time.Hour, size)
		for _, k := range keys {
			c.Set(fmt.Sprint(k), k)
			if c.Len() > size {
				rt.Fatalf("len %d above size %d", c.Len(), size)
			}
		}
	})
}
