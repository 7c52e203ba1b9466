package telemetry

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// redisSink pushes JSON-encoded records onto a list, optionally trimming it
// to a bounded length.
type redisSink struct {
	client     *redis.Client
	key        string
	maxEntries int
}

// NewRedisSink connects to redis and verifies the connection.
func NewRedisSink(cfg Config) (Sink, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	key := cfg.Redis.Key
	if key == "" {
		key = "telewatch:records"
	}
	return &redisSink{
		client:     client,
		key:        key,
		maxEntries: cfg.Redis.MaxEntries,
	}, nil
}

func (s *redisSink) Deliver(ctx context.Context, record Record) error {
	data, err := sonic.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.client.LPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("push record: %w", err)
	}
	if s.maxEntries > 0 {
		if err := s.client.LTrim(ctx, s.key, 0, int64(s.maxEntries-1)).Err(); err != nil {
			return fmt.Errorf("trim record list: %w", err)
		}
	}
	return nil
}

func (s *redisSink) Close(context.Context) error {
	return s.client.Close()
}
