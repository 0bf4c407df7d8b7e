package common

import (
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

// DeletePrefix removes every key starting with prefix.
func (c *Cache) DeletePrefix(prefix string) {
	for key := range c.Cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.Cache.Delete(key)
		}
	}
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

const (
	cacheKeyPostPrefix    = "post:"
	cacheKeyPostsPrefix   = "posts:"
	cacheKeySessionPrefix = "session:"
)

func CacheKeyPost(id string) string {
	return cacheKeyPostPrefix + id
}

// CacheKeyPosts identifies one page of a listing. The search query is quoted
// so it cannot run into the other parts.
func CacheKeyPosts(status, userID, query string, limit, offset int) string {
	return cacheKeyPostsPrefix + status + ":" + userID + ":" + strconv.Itoa(limit) + ":" + strconv.Itoa(offset) + ":" + strconv.Quote(query)
}

func CacheKeyPostsPrefix() string {
	return cacheKeyPostsPrefix
}

func CacheKeySession(secretHash string) string {
	return cacheKeySessionPrefix + secretHash
}
