package cache

import (
	"context"
	"encoding/json"
	"errors"
	"filescanner/pkg/domain"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultKeyPrefix namespaces cache keys in a shared Redis database.
const DefaultKeyPrefix = "filescanner:result:"

// RedisOptions configure a Redis cache.
type RedisOptions struct {
	// TTL defaults to DefaultTTL. Redis expires the keys itself.
	TTL time.Duration
	// KeyPrefix defaults to DefaultKeyPrefix.
	KeyPrefix string
}

// Redis is a Cache shared by every scanner process pointed at the same Redis.
type Redis struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

// NewRedis wraps an existing client.
func NewRedis(client redis.UniversalClient, opts RedisOptions) *Redis {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}

	return &Redis{client: client, ttl: opts.TTL, keyPrefix: opts.KeyPrefix}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, password string, db int, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("could not ping redis: %w", err)
	}

	return NewRedis(client, opts), nil
}

func (r *Redis) key(digest domain.FileDigest) string {
	return r.keyPrefix + string(digest)
}

func (r *Redis) Lookup(ctx context.Context, digest domain.FileDigest) (*domain.ScanResult, bool, error) {
	b, err := r.client.Get(ctx, r.key(digest)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("could not get cached result: %w", err)
	}

	var res domain.ScanResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, false, fmt.Errorf("could not decode cached result: %w", err)
	}

	return &res, true, nil
}

func (r *Redis) Store(ctx context.Context, digest domain.FileDigest, result domain.ScanResult) error {
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not encode result: %w", err)
	}
	if err := r.client.Set(ctx, r.key(digest), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("could not store result: %w", err)
	}

	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close() //nolint: wrapcheck
}

var _ Cache = (*Redis)(nil)
