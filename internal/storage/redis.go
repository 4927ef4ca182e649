package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"inklore/server/internal/config"
	"inklore/server/internal/interfaces"
)

const (
	saveKeyPrefix = "save:"
	saveIndexKey  = "save:index"
)

// RedisStore keeps save records as JSON values under save:<key>, with a set
// of known keys for listing.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save stores the record without expiration and indexes its key.
func (s *RedisStore) Save(ctx context.Context, key string, rec *interfaces.SaveRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to encode save record: %w", err)
	}
	if err := s.client.Set(ctx, saveKeyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store save record: %w", err)
	}
	if err := s.client.SAdd(ctx, saveIndexKey, key).Err(); err != nil {
		return fmt.Errorf("failed to index save record: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, key string) (*interfaces.SaveRecord, error) {
	data, err := s.client.Get(ctx, saveKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch save record: %w", err)
	}
	return decodeRecord(data)
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, saveIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list save records: %w", err)
	}
	return keys, nil
}
