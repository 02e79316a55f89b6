// Package orderstore keeps manual item orders in Redis for deployments that
// share ordering across several daemons.
package orderstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "radar:order:"

// Redis stores each (user, collection) order as a Redis list of item IDs.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func key(userID, collection string) string {
	return keyPrefix + userID + ":" + collection
}

// GetOrder returns the stored order, or nil when none is stored.
func (r *Redis) GetOrder(ctx context.Context, userID, collection string) ([]string, error) {
	ids, err := r.client.LRange(ctx, key(userID, collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read order: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

// SaveOrder atomically replaces the stored order.
func (r *Redis) SaveOrder(ctx context.Context, userID, collection string, ids []string) error {
	k := key(userID, collection)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, k)
	if len(ids) > 0 {
		values := make([]any, len(ids))
		for i, id := range ids {
			values[i] = id
		}
		pipe.RPush(ctx, k, values...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

// DeleteOrder removes the stored order.
func (r *Redis) DeleteOrder(ctx context.Context, userID, collection string) error {
	if err := r.client.Del(ctx, key(userID, collection)).Err(); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
