package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/erpkernel/internal/pkg/logger"
)

// ReceiptCache is a best-effort key/value cache in front of the idempotency
// table. A miss or an error always falls through to the database.
type ReceiptCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// ReceiptCacheKey scopes a cache entry to one tenant, namespace and key.
func ReceiptCacheKey(orgID, namespace, idemKey string) string {
	return "erpkernel:idem:" + orgID + ":" + namespace + ":" + idemKey
}

type RedisReceiptCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

var _ ReceiptCache = (*RedisReceiptCache)(nil)

// NewRedisReceiptCache dials addr and verifies the connection with a ping.
func NewRedisReceiptCache(ctx context.Context, log *logger.Logger, addr string, ttl time.Duration) (*RedisReceiptCache, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return NewRedisReceiptCacheFromClient(log, rdb, ttl), nil
}

func NewRedisReceiptCacheFromClient(log *logger.Logger, rdb *goredis.Client, ttl time.Duration) *RedisReceiptCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisReceiptCache{log: log.With("service", "RedisReceiptCache"), rdb: rdb, ttl: ttl}
}

func (c *RedisReceiptCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Set only writes when the key is absent; the first receipt for a key wins.
func (c *RedisReceiptCache) Set(ctx context.Context, key string, value []byte) error {
	return c.rdb.SetNX(ctx, key, value, c.ttl).Err()
}

// Ping reports whether redis is reachable.
func (c *RedisReceiptCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisReceiptCache) Close() error {
	return c.rdb.Close()
}

// MemoryReceiptCache is an in-process ReceiptCache for single-node runs and tests.
type MemoryReceiptCache struct {
	mu      sync.Mutex
	entries map[string][]byte

	Gets int
	Hits int
}

var _ ReceiptCache = (*MemoryReceiptCache)(nil)

func NewMemoryReceiptCache() *MemoryReceiptCache {
	return &MemoryReceiptCache{entries: map[string][]byte{}}
}

func (c *MemoryReceiptCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	v, ok := c.entries[key]
	if ok {
		c.Hits++
	}
	return v, ok, nil
}

func (c *MemoryReceiptCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = append([]byte(nil), value...)
	}
	return nil
}

// Len returns the number of cached receipts.
func (c *MemoryReceiptCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
