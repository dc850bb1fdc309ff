// Package cache memoizes serialized results under content-derived keys.
//
// Every operation is best-effort: backend faults are logged and reported as a
// miss or a no-op, never returned, so callers degrade to recomputing.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is used when a Cache is built with a non-positive TTL.
const DefaultTTL = time.Hour

// hashLen is the number of hex digits of the parameter digest kept in a key.
const hashLen = 16

// Backend stores opaque values with a TTL.
type Backend interface {
	Name() string
	// Get returns ok == false on a miss; err is reserved for backend faults.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	// Stats returns backend specific descriptive fields.
	Stats(ctx context.Context) (map[string]any, error)
}

// Cache is the best-effort facade every component uses. It is safe for
// concurrent use when its backend is.
type Cache struct {
	backend Backend
	ttl     time.Duration
	logger  *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// New wraps backend. A nil logger is replaced with a no-op logger.
func New(backend Backend, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{backend: backend, ttl: ttl, logger: logger}
}

// TTL returns the expiry applied to every write.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the stored value for key. Backend faults count as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.String("backend", c.backend.Name()), zap.Error(err))
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return val, true
}

// GetJSON decodes the value stored under key into dst. A value that fails to
// decode is treated as a miss and evicted.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	val, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		c.logger.Warn("cache entry undecodable, evicting", zap.String("key", key), zap.Error(err))
		c.Delete(ctx, key)
		return false
	}
	return true
}

// Set stores val under key with the cache TTL and reports success.
func (c *Cache) Set(ctx context.Context, key string, val []byte) bool {
	if err := c.backend.Set(ctx, key, val, c.ttl); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.String("backend", c.backend.Name()), zap.Error(err))
		return false
	}
	return true
}

// SetJSON encodes v and stores it under key.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache value not serializable", zap.String("key", key), zap.Error(err))
		return false
	}
	return c.Set(ctx, key, b)
}

// Delete removes key and reports success.
func (c *Cache) Delete(ctx context.Context, key string) bool {
	if err := c.backend.Delete(ctx, key); err != nil {
		c.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Clear removes every entry and reports success.
func (c *Cache) Clear(ctx context.Context) bool {
	if err := c.backend.Clear(ctx); err != nil {
		c.logger.Warn("cache clear failed", zap.String("backend", c.backend.Name()), zap.Error(err))
		return false
	}
	c.logger.Info("cache cleared", zap.String("backend", c.backend.Name()))
	return true
}

// Info describes the cache for the operations endpoints.
type Info struct {
	Backend    string         `json:"backend"`
	TTLSeconds int64          `json:"ttl_seconds"`
	Hits       int64          `json:"hits"`
	Misses     int64          `json:"misses"`
	HitRate    float64        `json:"hit_rate"`
	Stats      map[string]any `json:"stats,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Info reports counters and backend statistics. Backend faults are reported
// in the Error field.
func (c *Cache) Info(ctx context.Context) Info {
	hits, misses := c.hits.Load(), c.misses.Load()
	info := Info{
		Backend:    c.backend.Name(),
		TTLSeconds: int64(c.ttl / time.Second),
		Hits:       hits,
		Misses:     misses,
	}
	if total := hits + misses; total > 0 {
		info.HitRate = float64(hits) / float64(total)
	}
	stats, err := c.backend.Stats(ctx)
	if err != nil {
		info.Error = err.Error()
	}
	info.Stats = stats
	return info
}

// DeriveKey returns prefix + ":" + a fixed-length digest of params.
//
// Params are serialized with sorted keys at every level, so argument order
// never changes the key. Numbers are compared by value, so 10 and 10.0 give
// the same key.
func DeriveKey(prefix string, params map[string]any) string {
	return prefix + ":" + digest(canonical(params))
}

func canonical(params map[string]any) []byte {
	if params == nil {
		params = map[string]any{}
	}
	b, err := json.Marshal(params)
	if err == nil {
		return b
	}
	// Unserializable values fall back to a sorted textual form.
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%q=%v;", k, params[k])
	}
	return []byte(sb.String())
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:hashLen]
}
