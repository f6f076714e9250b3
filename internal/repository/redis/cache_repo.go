// Package redis provides the Redis-backed generation cache (Component D)
// and the reaction rate limiter consumed by the session runtime (§4.7).
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/pdtechteam/quiz-generator/internal/pkg/errors"
)

// CacheRepo is a generic JSON/string cache over a redis.UniversalClient.
type CacheRepo struct {
	client redis.UniversalClient
	ctx    context.Context
}

func NewCacheRepo(client redis.UniversalClient) (*CacheRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for CacheRepo")
	}
	return &CacheRepo{client: client, ctx: context.Background()}, nil
}

func (r *CacheRepo) Set(key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(r.ctx, key, value, expiration).Err()
}

func (r *CacheRepo) Get(key string) (string, error) {
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.ErrNotFound
		}
		return "", err
	}
	return val, nil
}

func (r *CacheRepo) Delete(key string) error {
	return r.client.Del(r.ctx, key).Err()
}

func (r *CacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(r.ctx, key, data, expiration).Err()
}

func (r *CacheRepo) GetJSON(key string, dest interface{}) error {
	data, err := r.client.Get(r.ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *CacheRepo) Exists(key string) (bool, error) {
	result, err := r.client.Exists(r.ctx, key).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// ReactionLimiter enforces the 500ms per-player reaction throttle of §4.7
// using a SET-with-TTL-if-absent guard keyed per (session, player).
type ReactionLimiter struct {
	client redis.UniversalClient
	ctx    context.Context
	window time.Duration
}

func NewReactionLimiter(client redis.UniversalClient) *ReactionLimiter {
	return &ReactionLimiter{client: client, ctx: context.Background(), window: 500 * time.Millisecond}
}

// Allow returns true if a reaction from playerID in sessionCode is
// permitted now, and marks the window as consumed if so.
func (l *ReactionLimiter) Allow(sessionCode string, playerID uint) (bool, error) {
	key := fmt.Sprintf("reaction:%s:%d", sessionCode, playerID)
	ok, err := l.client.SetNX(l.ctx, key, 1, l.window).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
