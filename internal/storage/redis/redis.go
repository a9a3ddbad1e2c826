package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"student_connect/internal/models"
)

// RedisRepo caches directory listings. The entries are short-lived, so a
// profile update only goes stale for one TTL window.
type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func New(ctx context.Context, addr, pass string, db int, ttl time.Duration) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
		ttl:    ttl,
	}, nil
}

func directoryKey(school, course string) string {
	return fmt.Sprintf("directory:%s:%s", school, course)
}

// GetDirectory returns the cached listing for a filter pair, or ok=false on
// a miss.
func (r *RedisRepo) GetDirectory(ctx context.Context, school, course string) ([]models.PublicAccount, bool, error) {
	const op = "storage.redis.GetDirectory"

	raw, err := r.client.Get(ctx, directoryKey(school, course)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var profiles []models.PublicAccount
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	return profiles, true, nil
}

func (r *RedisRepo) SetDirectory(ctx context.Context, school, course string, profiles []models.PublicAccount) error {
	const op = "storage.redis.SetDirectory"

	raw, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.client.Set(ctx, directoryKey(school, course), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * Close закрывает соединение с базой данных.
func (r *RedisRepo) Close() {
	r.client.Close()
}
