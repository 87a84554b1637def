package cache

import (
	"context"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-redis/redis/v8"
	"github.com/pquerna/ffjson/ffjson"
)

type redisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD,unset"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// RemoteCache is the shared key-value cache behind the in-process one, so
// that horizontally scaled replicas can reuse each other's results. All
// writes go through SETEX; a missing REDIS_ADDR disables it.
type RemoteCache struct {
	rdb *redis.Client
}

func NewRemoteCache() (*RemoteCache, error) {
	cfg := &redisConfig{}
	if err := env.Parse(cfg, env.Options{}); err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RemoteCache{rdb: rdb}, nil
}

func (c *RemoteCache) SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	buf, err := ffjson.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.SetEX(ctx, key, buf, ttl).Err()
}

func (c *RemoteCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	buf, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := ffjson.Unmarshal(buf, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RemoteCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
