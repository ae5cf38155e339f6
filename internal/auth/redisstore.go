package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hpungsan/murmur/internal/config"
)

const redisKeyPrefix = "murmur:session:"

// RedisStore keeps sessions in Redis. Keys carry the session TTL, so Redis
// drops expired sessions on its own.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a store using client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient builds a client from the redis_* settings. redis_addr is
// either host:port or a redis:// (rediss://) URL; redis_password and
// redis_db fill in what the URL leaves out.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if !strings.Contains(addr, "://") {
		return redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), nil
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.Password == "" {
		opts.Password = cfg.RedisPassword
	}
	if opts.DB == 0 {
		opts.DB = cfg.RedisDB
	}
	return redis.NewClient(opts), nil
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Save implements SessionStore. Already-expired sessions are not written.
func (r *RedisStore) Save(ctx context.Context, s Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Get implements SessionStore.
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Delete implements SessionStore.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// PurgeExpired implements SessionStore. Redis expires keys itself.
func (r *RedisStore) PurgeExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
