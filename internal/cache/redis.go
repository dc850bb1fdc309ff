package cache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PingTimeout bounds the connection probe made by DialRedis.
const PingTimeout = 5 * time.Second

// RedisOptions configures the networked backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Redis is a networked backend using SETEX-style writes.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// DialRedis connects to Redis and probes it with a bounded ping. On failure
// the client is closed and the error returned, so the caller can fall back
// to a memory backend.
func DialRedis(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            opts.Addr,
		Password:        opts.Password,
		DB:              opts.DB,
		PoolSize:        20,
		MinIdleConns:    2,
		MaxRetries:      3,
		DialTimeout:     PingTimeout,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
	})

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logger.Info("redis connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return &Redis{client: client}, nil
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.client.SetEx(ctx, key, val, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.client.FlushDB(ctx).Err()
}

// Stats reports used memory and connected clients from INFO.
func (r *Redis) Stats(ctx context.Context) (map[string]any, error) {
	raw, err := r.client.Info(ctx, "memory", "clients").Result()
	if err != nil {
		return nil, err
	}
	fields := parseInfo(raw)
	stats := map[string]any{
		"used_memory": fields["used_memory_human"],
	}
	if n, err := strconv.Atoi(fields["connected_clients"]); err == nil {
		stats["connected_clients"] = n
	}
	if n, err := r.client.DBSize(ctx).Result(); err == nil {
		stats["keys"] = n
	}
	return stats, nil
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// parseInfo reads the "field:value" lines of an INFO reply.
func parseInfo(raw string) map[string]string {
	out := map[string]string{}
	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			out[k] = v
		}
	}
	return out
}
