package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/ImGucci/smart-wardrobe-ai/config"
	"github.com/ImGucci/smart-wardrobe-ai/internal/database"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logrus.WithField("addr", cfg.Addr()).Info("Successfully connected to Redis")
	return client, nil
}

// Backend stores every collection as one redis hash: field = record id.
type Backend struct {
	client redis.UniversalClient
	prefix string
}

func NewBackend(client redis.UniversalClient, prefix string) *Backend {
	return &Backend{client: client, prefix: prefix}
}

func (b *Backend) Collection(name string) database.Collection {
	return &collection{client: b.client, key: fmt.Sprintf("%s:%s", b.prefix, name)}
}

func (b *Backend) Close() error {
	return b.client.Close()
}

type collection struct {
	client redis.UniversalClient
	key    string
}

func (c *collection) ReplaceAll(ctx context.Context, records map[string][]byte) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key)
		if len(records) == 0 {
			return nil
		}
		values := make(map[string]any, len(records))
		for id, data := range records {
			values[id] = data
		}
		pipe.HSet(ctx, c.key, values)
		return nil
	})
	return err
}

func (c *collection) GetAll(ctx context.Context) (map[string][]byte, error) {
	raw, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(raw))
	for id, data := range raw {
		out[id] = []byte(data)
	}
	return out, nil
}

func (c *collection) Get(ctx context.Context, id string) ([]byte, bool, error) {
	data, err := c.client.HGet(ctx, c.key, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *collection) Put(ctx context.Context, id string, data []byte) error {
	return c.client.HSet(ctx, c.key, id, data).Err()
}

func (c *collection) Delete(ctx context.Context, id string) (bool, error) {
	n, err := c.client.HDel(ctx, c.key, id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
