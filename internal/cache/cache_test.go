package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache()

	c.Set(TagPosts, "feed", []string{"a", "b"}, DurationShort)

	got, ok := c.Get(TagPosts, "feed")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	_, ok = c.Get(TagPosts, "missing")
	assert.False(t, ok)
}

func TestCache_InvalidateTagIsScoped(t *testing.T) {
	c := NewCache()

	c.Set(TagPosts, "feed", 1, DurationMedium)
	c.Set(TagPosts, "post-7", 2, DurationMedium)
	c.Set(TagUsers, "directory", 3, DurationMedium)

	c.InvalidateTag(TagPosts)

	_, ok := c.Get(TagPosts, "feed")
	assert.False(t, ok)
	_, ok = c.Get(TagPosts, "post-7")
	assert.False(t, ok)

	got, ok := c.Get(TagUsers, "directory")
	assert.True(t, ok)
	assert.Equal(t, 3, got)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := NewCache()

	c.Set(TagUsers, "directory", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get(TagUsers, "directory")
	assert.False(t, ok)
}
