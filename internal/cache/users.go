package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/roster/roster/internal/model"
)

// Redis keys for the user list snapshot.
const (
	UserListKey           = "users:list"
	UserListGenerationKey = "users:list:gen"
)

// Common cache errors.
var (
	ErrCacheMiss     = errors.New("cache miss")
	ErrStaleSnapshot = errors.New("user list changed since snapshot was read")
)

// setIfGeneration writes the snapshot only while the generation is unchanged.
// KEYS[1] generation, KEYS[2] snapshot; ARGV[1] expected generation, ARGV[2] payload, ARGV[3] ttl in ms.
var setIfGeneration = redis.NewScript(`
local gen = redis.call("GET", KEYS[1]) or "0"
if gen ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// GetUserList returns the cached user list.
// Returns ErrCacheMiss if no snapshot is stored.
func (c *Cache) GetUserList(ctx context.Context) ([]model.User, error) {
	data, err := c.client.Get(ctx, UserListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	users, err := decodeUserList(data)
	if err != nil {
		// A corrupt snapshot is treated as absent.
		c.client.Del(ctx, UserListKey)
		return nil, ErrCacheMiss
	}

	return users, nil
}

// UserListGeneration returns the current list generation. Read it before
// loading the list from storage and pass it to SetUserList.
func (c *Cache) UserListGeneration(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, UserListGenerationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

// SetUserList stores a snapshot of the full user list read at generation gen.
// Returns ErrStaleSnapshot without writing if the list was invalidated since.
func (c *Cache) SetUserList(ctx context.Context, gen int64, users []model.User) error {
	data, err := encodeUserList(users)
	if err != nil {
		return err
	}

	keys := []string{UserListGenerationKey, UserListKey}
	written, err := setIfGeneration.Run(ctx, c.client, keys,
		strconv.FormatInt(gen, 10), data, c.listTTL.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to cache user list: %w", err)
	}
	if written == 0 {
		return ErrStaleSnapshot
	}

	return nil
}

// InvalidateUserList drops the cached snapshot and advances the generation,
// so snapshots read before the invalidation are never written back.
func (c *Cache) InvalidateUserList(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, UserListGenerationKey)
		pipe.Del(ctx, UserListKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate user list: %w", err)
	}
	return nil
}

func encodeUserList(users []model.User) ([]byte, error) {
	if users == nil {
		users = []model.User{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return nil, fmt.Errorf("marshal user list: %w", err)
	}
	return data, nil
}

func decodeUserList(data []byte) ([]model.User, error) {
	var users []model.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("unmarshal user list: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}
