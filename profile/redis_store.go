package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore keeps each scope in a Redis hash named "<prefix>:<scope>".
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	if opts.Prefix == "" {
		opts.Prefix = "newsletter:props"
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb, prefix: opts.Prefix}, nil
}

func (r *RedisStore) hash(scope Scope) string {
	return r.prefix + ":" + string(scope)
}

func (r *RedisStore) Get(ctx context.Context, scope Scope, key string) (string, error) {
	v, err := r.rdb.HGet(ctx, r.hash(scope), key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis hget: %w", err)
	}
	return v, nil
}

func (r *RedisStore) Set(ctx context.Context, scope Scope, key, value string) error {
	if err := r.rdb.HSet(ctx, r.hash(scope), key, value).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, scope Scope, key string) error {
	if err := r.rdb.HDel(ctx, r.hash(scope), key).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
