package repository

import (
	"area-picker/internal/config"
	"area-picker/internal/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrQueueEmpty = errors.New("webhook queue is empty")

type RedisCache struct {
	cache *redis.Client
}

// Storage keeps selections waiting for delivery to the host platform.
type Storage struct {
	cache    *RedisCache
	queueKey string
}

func NewRedisCache(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		Username:     cfg.User,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Addr, err)
	}

	return &RedisCache{cache: client}, nil
}

func NewStorage(ctx context.Context, redisCfg config.RedisConfig) (*Storage, error) {
	rc, err := NewRedisCache(ctx, redisCfg)
	if err != nil {
		return nil, err
	}
	return &Storage{
		cache:    rc,
		queueKey: redisCfg.QueueKey,
	}, nil
}

func (s *Storage) PushWebhookTask(ctx context.Context, task model.WebhookPayload) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal webhook task: %w", err)
	}
	if err := s.cache.cache.RPush(ctx, s.queueKey, body).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", s.queueKey, err)
	}
	return nil
}

// BLPopWebhookTask blocks up to timeout for the next task. ErrQueueEmpty on timeout.
func (s *Storage) BLPopWebhookTask(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := s.cache.cache.BLPop(ctx, timeout, s.queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrQueueEmpty
	}
	if err != nil {
		return "", fmt.Errorf("blpop %s: %w", s.queueKey, err)
	}
	// [key, value]
	if len(res) != 2 {
		return "", fmt.Errorf("blpop %s: unexpected reply length %d", s.queueKey, len(res))
	}
	return res[1], nil
}

func (s *Storage) QueueLen(ctx context.Context) (int64, error) {
	return s.cache.cache.LLen(ctx, s.queueKey).Result()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.cache.cache.Ping(ctx).Err()
}

func (s *Storage) Close() error {
	if s.cache != nil && s.cache.cache != nil {
		if err := s.cache.cache.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
	}
	return nil
}
