package snippets

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	p := strings.TrimSpace(prefix)
	if p == "" {
		p = "sniply:cache:"
	}
	return &RedisCache{client: client, prefix: p}
}

func (c *RedisCache) keyByID(id string) string {
	return c.prefix + "snippet:" + id
}

func (c *RedisCache) keyListGeneration() string {
	return c.prefix + "snippet:list:gen"
}

// keyList namespaces list pages by the current generation. Bumping the
// generation orphans older pages until their ttl runs out.
func (c *RedisCache) keyList(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, c.keyListGeneration()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return c.prefix + "snippet:list:" + strconv.FormatInt(gen, 10) + ":" + key, nil
}

func (c *RedisCache) GetByID(ctx context.Context, id string) (*Snippet, bool, error) {
	return load[*Snippet](ctx, c.client, c.keyByID(id))
}

func (c *RedisCache) SetByID(ctx context.Context, s *Snippet, ttl time.Duration) error {
	return store(ctx, c.client, c.keyByID(s.ID), s, ttl)
}

func (c *RedisCache) DeleteByID(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.keyByID(id)).Err()
}

func (c *RedisCache) InvalidateLists(ctx context.Context) error {
	return c.client.Incr(ctx, c.keyListGeneration()).Err()
}

func (c *RedisCache) GetList(ctx context.Context, key string) ([]*Snippet, bool, error) {
	k, err := c.keyList(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return load[[]*Snippet](ctx, c.client, k)
}

func (c *RedisCache) SetList(ctx context.Context, key string, page []*Snippet, ttl time.Duration) error {
	k, err := c.keyList(ctx, key)
	if err != nil {
		return err
	}
	return store(ctx, c.client, k, page, ttl)
}

// load decodes the JSON value at key. A missing key is a miss, not an error.
func load[T any](ctx context.Context, client *redis.Client, key string) (T, bool, error) {
	var v T
	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return v, false, nil
	case err != nil:
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, err
	}
	return v, true, nil
}

func store(ctx context.Context, client *redis.Client, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}
