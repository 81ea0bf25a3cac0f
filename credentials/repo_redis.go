package credentials

import (
	"context"
	"errors"
	"fmt"

	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
	"github.com/redis/go-redis/v9"
)

var _ Repo = (*RedisRepo)(nil)

// RedisRepo stores each scope as one Redis hash named "<prefix>:<scope>".
type RedisRepo struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisRepo(rdb redis.UniversalClient, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = "sekai"
	}
	return &RedisRepo{rdb: rdb, prefix: prefix}
}

func (r *RedisRepo) hashKey(scope string) string {
	return r.prefix + ":" + scope
}

func (r *RedisRepo) Get(ctx context.Context, scope, key string) (string, error) {
	if scope == "" {
		return "", fmt.Errorf("scope is required")
	}
	v, err := r.rdb.HGet(ctx, r.hashKey(scope), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", hubErrors.ErrNotFound
	}
	if err != nil {
		return "", hubErrors.Wrapf(err, "[credentials RedisRepo] hget")
	}
	return v, nil
}

func (r *RedisRepo) Set(ctx context.Context, scope, key, value string) error {
	if scope == "" {
		return fmt.Errorf("scope is required")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if err := r.rdb.HSet(ctx, r.hashKey(scope), key, value).Err(); err != nil {
		return hubErrors.Wrapf(err, "[credentials RedisRepo] hset")
	}
	return nil
}

func (r *RedisRepo) Delete(ctx context.Context, scope string, keys ...string) error {
	if scope == "" {
		return fmt.Errorf("scope is required")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.rdb.HDel(ctx, r.hashKey(scope), keys...).Err(); err != nil {
		return hubErrors.Wrapf(err, "[credentials RedisRepo] hdel")
	}
	return nil
}
