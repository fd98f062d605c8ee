// Package database provides the key-value store adapter used by the
// repositories. Every failed round trip is reported as a *StoreError; a
// missing key is never an error.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gytkk/todo/internal/config"
)

// Redis wraps a Redis client.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a new Redis client and verifies the connection.
func NewRedis(cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{client: client}, nil
}

// NewRedisFromClient wraps an already configured client.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Client returns the underlying Redis client.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (r *Redis) Ping(ctx context.Context) error {
	start := time.Now()
	err := r.client.Ping(ctx).Err()
	return observe("ping", start, wrap("ping", "", err))
}

// HGetAll returns every field of the hash at key. A missing hash yields an
// empty map.
func (r *Redis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	start := time.Now()
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err := observe("hgetall", start, wrap("hgetall", key, err)); err != nil {
		return nil, err
	}
	return fields, nil
}

// HSet writes the given fields into the hash at key.
func (r *Redis) HSet(ctx context.Context, key string, fields map[string]string) error {
	start := time.Now()
	err := r.client.HSet(ctx, key, fields).Err()
	return observe("hset", start, wrap("hset", key, err))
}

// Delete removes keys and returns how many existed.
func (r *Redis) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	start := time.Now()
	n, err := r.client.Del(ctx, keys...).Result()
	return n, observe("del", start, wrap("del", keys[0], err))
}

// Exists reports whether key exists.
func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	n, err := r.client.Exists(ctx, key).Result()
	return n > 0, observe("exists", start, wrap("exists", key, err))
}

// LPush pushes values onto the front of the list at key.
func (r *Redis) LPush(ctx context.Context, key string, values ...string) error {
	start := time.Now()
	err := r.client.LPush(ctx, key, toAny(values)...).Err()
	return observe("lpush", start, wrap("lpush", key, err))
}

// LRem removes every occurrence of value from the list at key.
func (r *Redis) LRem(ctx context.Context, key, value string) error {
	start := time.Now()
	err := r.client.LRem(ctx, key, 0, value).Err()
	return observe("lrem", start, wrap("lrem", key, err))
}

// LRange returns the list elements in [start, stop], both inclusive.
// Negative indexes count from the end.
func (r *Redis) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	began := time.Now()
	vals, err := r.client.LRange(ctx, key, start, stop).Result()
	if err := observe("lrange", began, wrap("lrange", key, err)); err != nil {
		return nil, err
	}
	return vals, nil
}

// LLen returns the length of the list at key.
func (r *Redis) LLen(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	n, err := r.client.LLen(ctx, key).Result()
	return n, observe("llen", start, wrap("llen", key, err))
}

// SAdd adds members to the set at key.
func (r *Redis) SAdd(ctx context.Context, key string, members ...string) error {
	start := time.Now()
	err := r.client.SAdd(ctx, key, toAny(members)...).Err()
	return observe("sadd", start, wrap("sadd", key, err))
}

// SRem removes members from the set at key.
func (r *Redis) SRem(ctx context.Context, key string, members ...string) error {
	start := time.Now()
	err := r.client.SRem(ctx, key, toAny(members)...).Err()
	return observe("srem", start, wrap("srem", key, err))
}

// SMembers returns the members of the set at key.
func (r *Redis) SMembers(ctx context.Context, key string) ([]string, error) {
	start := time.Now()
	members, err := r.client.SMembers(ctx, key).Result()
	if err := observe("smembers", start, wrap("smembers", key, err)); err != nil {
		return nil, err
	}
	return members, nil
}

// Get retrieves a scalar value. The boolean is false when the key is absent.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		observe("get", start, nil)
		return "", false, nil
	}
	if err := observe("get", start, wrap("get", key, err)); err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores a scalar value with optional expiration.
func (r *Redis) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	start := time.Now()
	err := r.client.Set(ctx, key, value, expiration).Err()
	return observe("set", start, wrap("set", key, err))
}

// SetNX sets a key only if it doesn't exist.
func (r *Redis) SetNX(ctx context.Context, key, value string, expiration time.Duration) (bool, error) {
	start := time.Now()
	ok, err := r.client.SetNX(ctx, key, value, expiration).Result()
	return ok, observe("setnx", start, wrap("setnx", key, err))
}

var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DeleteIfEquals deletes key only while it still holds value.
func (r *Redis) DeleteIfEquals(ctx context.Context, key, value string) (bool, error) {
	start := time.Now()
	n, err := compareAndDelete.Run(ctx, r.client, []string{key}, value).Int64()
	return n > 0, observe("cad", start, wrap("cad", key, err))
}

// IncrWithExpire increments a counter and, in the same round trip, sets the
// expiration unless the key already has one. The key lives for one fixed
// window even when an earlier expire was lost.
func (r *Redis) IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	start := time.Now()
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.ExpireNX(ctx, key, expiration)
		return nil
	})
	if err := observe("incr", start, wrap("incr", key, err)); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Pipelined queues the commands issued on the batch and sends them in one
// round trip. The batch is not a transaction: commands on distinct keys may
// be partially applied when the round trip fails.
func (r *Redis) Pipelined(ctx context.Context, fn func(b *Batch)) error {
	start := time.Now()
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		fn(&Batch{ctx: ctx, pipe: p})
		return nil
	})
	if errors.Is(err, redis.Nil) {
		err = nil
	}
	return observe("pipeline", start, wrap("pipeline", "", err))
}

// TxPipelined is like Pipelined but wraps the commands in MULTI/EXEC, so
// other clients never observe a partially applied batch.
func (r *Redis) TxPipelined(ctx context.Context, fn func(b *Batch)) error {
	start := time.Now()
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		fn(&Batch{ctx: ctx, pipe: p})
		return nil
	})
	if errors.Is(err, redis.Nil) {
		err = nil
	}
	return observe("tx_pipeline", start, wrap("tx_pipeline", "", err))
}

// Batch collects commands for Pipelined and TxPipelined. Results are available on the
// returned commands once Pipelined returns.
type Batch struct {
	ctx  context.Context
	pipe redis.Pipeliner
}

func (b *Batch) HGetAll(key string) *redis.MapStringStringCmd {
	return b.pipe.HGetAll(b.ctx, key)
}

func (b *Batch) HSet(key string, fields map[string]string) {
	b.pipe.HSet(b.ctx, key, fields)
}

func (b *Batch) Delete(keys ...string) *redis.IntCmd {
	return b.pipe.Del(b.ctx, keys...)
}

func (b *Batch) LPush(key string, values ...string) {
	b.pipe.LPush(b.ctx, key, toAny(values)...)
}

func (b *Batch) LRem(key, value string) {
	b.pipe.LRem(b.ctx, key, 0, value)
}

func (b *Batch) SAdd(key string, members ...string) {
	b.pipe.SAdd(b.ctx, key, toAny(members)...)
}

func (b *Batch) SRem(key string, members ...string) {
	b.pipe.SRem(b.ctx, key, toAny(members)...)
}

func (b *Batch) Set(key, value string, expiration time.Duration) {
	b.pipe.Set(b.ctx, key, value, expiration)
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
