// Package cache is a tagged TTL cache for hot database reads (member
// directory, post feed, announcements). Writes to the underlying tables
// invalidate the whole tag.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	TagUsers         = "users"
	TagPosts         = "posts"
	TagAnnouncements = "announcements"
)

const (
	DurationShort  = 30 * time.Second
	DurationMedium = 5 * time.Minute
	DurationLong   = time.Hour
)

type Cache struct {
	store *gocache.Cache
}

func NewCache() *Cache {
	return &Cache{
		store: gocache.New(DurationMedium, 10*time.Minute),
	}
}

func cacheKey(tag, key string) string {
	return tag + ":" + key
}

func (c *Cache) Get(tag, key string) (interface{}, bool) {
	return c.store.Get(cacheKey(tag, key))
}

func (c *Cache) Set(tag, key string, value interface{}, ttl time.Duration) {
	c.store.Set(cacheKey(tag, key), value, ttl)
}

// InvalidateTag drops every entry under the tag.
func (c *Cache) InvalidateTag(tag string) {
	prefix := tag + ":"
	for k := range c.store.Items() {
		if strings.HasPrefix(k, prefix) {
			c.store.Delete(k)
		}
	}
}
