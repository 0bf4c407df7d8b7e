package common

import "testing"

func setupTestEnvironment(t *testing.T) (*Cache, func()) {
	t.Helper()

	cache := NewCache(0, 0)

	cleanup := func() {
		cache.Flush()
	}

	return cache, cleanup
}

func TestCache_Set(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set(CacheKeyPost("hello-world"), "value")

	if _, ok := cache.Get(CacheKeyPost("hello-world")); !ok {
		t.Error("expected key to be set")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set(CacheKeyPosts("active", "", "", 25, 0), "page one")
	cache.Set(CacheKeyPosts("active", "", "", 25, 25), "page two")
	cache.Set(CacheKeyPost("hello-world"), "post")

	cache.DeletePrefix(CacheKeyPostsPrefix())

	if _, ok := cache.Get(CacheKeyPosts("active", "", "", 25, 0)); ok {
		t.Error("expected first page to be removed")
	}
	if _, ok := cache.Get(CacheKeyPosts("active", "", "", 25, 25)); ok {
		t.Error("expected second page to be removed")
	}
	if _, ok := cache.Get(CacheKeyPost("hello-world")); !ok {
		t.Error("expected post key to survive")
	}
}

func TestCache_Flush(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set(CacheKeySession("abc"), "value")
	cache.Flush()

	if _, ok := cache.Get(CacheKeySession("abc")); ok {
		t.Error("expected cache to be flushed")
	}
}
