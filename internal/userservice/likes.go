package userservice

import (
	"context"
	"sort"
	"sync"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/sushihentaime/blogify/internal/common"
)

const likesKeyPrefix = "likes:"

func likesKey(client string) string {
	return likesKeyPrefix + client
}

var (
	_ LikeStore = (*MemoryLikeStore)(nil)
	_ LikeStore = (*RedisLikeStore)(nil)
)

// MemoryLikeStore keeps liked post ids in a process local cache.
type MemoryLikeStore struct {
	mu sync.Mutex
	c  *common.Cache
}

func NewMemoryLikeStore(c *common.Cache) *MemoryLikeStore {
	return &MemoryLikeStore{c: c}
}

// set returns the stored set for client. Callers hold mu.
func (s *MemoryLikeStore) set(client string) map[string]struct{} {
	if v, found := s.c.Get(likesKey(client)); found {
		if ids, ok := v.(map[string]struct{}); ok {
			return ids
		}
	}

	return nil
}

func (s *MemoryLikeStore) Add(_ context.Context, client, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.set(client)
	if ids == nil {
		ids = make(map[string]struct{})
	}
	ids[postID] = struct{}{}
	s.c.Set(likesKey(client), ids, cache.NoExpiration)

	return nil
}

func (s *MemoryLikeStore) Remove(_ context.Context, client, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.set(client)
	if ids == nil {
		return nil
	}
	delete(ids, postID)

	return nil
}

func (s *MemoryLikeStore) Has(_ context.Context, client, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.set(client)[postID]
	return ok, nil
}

func (s *MemoryLikeStore) List(_ context.Context, client string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.set(client)))
	for id := range s.set(client) {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

func (s *MemoryLikeStore) Clear(_ context.Context, client string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.c.Delete(likesKey(client))
	return nil
}

// RedisLikeStore keeps one redis set per client.
type RedisLikeStore struct {
	rdb *redis.Client
}

func NewRedisLikeStore(rdb *redis.Client) *RedisLikeStore {
	return &RedisLikeStore{rdb: rdb}
}

func (s *RedisLikeStore) Add(ctx context.Context, client, postID string) error {
	defer common.TrackCall("redis", "like_add")()
	return s.rdb.SAdd(ctx, likesKey(client), postID).Err()
}

func (s *RedisLikeStore) Remove(ctx context.Context, client, postID string) error {
	defer common.TrackCall("redis", "like_remove")()
	return s.rdb.SRem(ctx, likesKey(client), postID).Err()
}

func (s *RedisLikeStore) Has(ctx context.Context, client, postID string) (bool, error) {
	defer common.TrackCall("redis", "like_has")()
	return s.rdb.SIsMember(ctx, likesKey(client), postID).Result()
}

func (s *RedisLikeStore) List(ctx context.Context, client string) ([]string, error) {
	defer common.TrackCall("redis", "like_list")()

	ids, err := s.rdb.SMembers(ctx, likesKey(client)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)

	return ids, nil
}

func (s *RedisLikeStore) Clear(ctx context.Context, client string) error {
	defer common.TrackCall("redis", "like_clear")()
	return s.rdb.Del(ctx, likesKey(client)).Err()
}
