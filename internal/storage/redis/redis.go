package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
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
	}, nil
}

func usedKey(tokenID string) string {
	return fmt.Sprintf("refverify:used:%s", tokenID)
}

func pendingKey(tokenID string) string {
	return fmt.Sprintf("refverify:pending:%s", tokenID)
}

// SetTokenPending records an issued, not yet consumed token.
func (r *RedisRepo) SetTokenPending(ctx context.Context, tokenID string, referenceID int64, ttl time.Duration) error {
	const op = "storage.redis.SetTokenPending"

	key := pendingKey(tokenID)

	data := map[string]interface{}{
		"reference_id": referenceID,
		"created_at":   time.Now().Unix(),
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) DeleteTokenPending(ctx context.Context, tokenID string) error {
	const op = "storage.redis.DeleteTokenPending"

	if err := r.client.Del(ctx, pendingKey(tokenID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MarkTokenUsed atomically claims the token with SETNX.
// It returns false when the token has already been claimed.
func (r *RedisRepo) MarkTokenUsed(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	const op = "storage.redis.MarkTokenUsed"

	success, err := r.client.SetNX(ctx, usedKey(tokenID), "used", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return success, nil
}

func (r *RedisRepo) IsTokenUsed(ctx context.Context, tokenID string) (bool, error) {
	const op = "storage.redis.IsTokenUsed"

	n, err := r.client.Exists(ctx, usedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

// ReleaseToken drops the used marker so a failed submission can be retried.
func (r *RedisRepo) ReleaseToken(ctx context.Context, tokenID string) error {
	const op = "storage.redis.ReleaseToken"

	if err := r.client.Del(ctx, usedKey(tokenID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepo) Close() {
	r.client.Close()
}
