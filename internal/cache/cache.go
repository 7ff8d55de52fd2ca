package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/recipe-api/backend/internal/model"
)

// ErrMiss is returned by Get when no entry exists for the id.
var ErrMiss = errors.New("cache miss")

// DefaultKeyPrefix namespaces recipe keys when no prefix is configured.
const DefaultKeyPrefix = "recipe"

// RecipeCache stores rendered recipes by id.
//
// Every id carries a version that Invalidate bumps. A reader takes the
// version before loading from the database and hands it to Set, which drops
// the write if an invalidation happened in between.
type RecipeCache interface {
	Get(ctx context.Context, id uint) (*model.Recipe, error)
	Version(ctx context.Context, id uint) (int64, error)
	Set(ctx context.Context, recipe *model.Recipe, version int64) error
	Invalidate(ctx context.Context, id uint) error
}

// RedisCache is a RecipeCache backed by Redis string keys with a TTL.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a cache using client. A zero ttl keeps entries until
// they are invalidated.
func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisCache) key(id uint) string {
	return fmt.Sprintf("%s:%d", c.prefix, id)
}

func (c *RedisCache) versionKey(id uint) string {
	return fmt.Sprintf("%s:%d:version", c.prefix, id)
}

// Get returns the cached recipe or ErrMiss.
func (c *RedisCache) Get(ctx context.Context, id uint) (*model.Recipe, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached recipe %d: %w", id, err)
	}

	var recipe model.Recipe
	if err := json.Unmarshal(data, &recipe); err != nil {
		return nil, fmt.Errorf("failed to decode cached recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// Version returns the current version of id. Ids never invalidated are at
// version zero.
func (c *RedisCache) Version(ctx context.Context, id uint) (int64, error) {
	return c.readVersion(ctx, c.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *RedisCache) readVersion(ctx context.Context, cmd getter, id uint) (int64, error) {
	v, err := cmd.Get(ctx, c.versionKey(id)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache version of recipe %d: %w", id, err)
	}
	return v, nil
}

// Set stores recipe if its id is still at version. A stale write is dropped
// without error.
func (c *RedisCache) Set(ctx context.Context, recipe *model.Recipe, version int64) error {
	data, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("failed to encode recipe %d: %w", recipe.ID, err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.readVersion(ctx, tx, recipe.ID)
		if err != nil {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(recipe.ID), data, c.ttl)
			return nil
		})
		return err
	}, c.versionKey(recipe.ID))
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate drops the cached recipe and bumps its version.
func (c *RedisCache) Invalidate(ctx context.Context, id uint) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.versionKey(id))
		pipe.Del(ctx, c.key(id))
		return nil
	})
	return err
}

// Nop never stores anything. It is used when no Redis is configured.
type Nop struct{}

func (Nop) Get(context.Context, uint) (*model.Recipe, error) { return nil, ErrMiss }
func (Nop) Version(context.Context, uint) (int64, error)     { return 0, nil }
func (Nop) Set(context.Context, *model.Recipe, int64) error  { return nil }
func (Nop) Invalidate(context.Context, uint) error           { return nil }
