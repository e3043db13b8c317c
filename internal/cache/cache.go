package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const productTTL = 5 * time.Minute

// ProductCache keeps serialized product detail responses in Redis. A nil
// *ProductCache is valid and acts as a miss on every call.
type ProductCache struct {
	rdb *redis.Client
}

// New connects to Redis and returns nil when the server is unreachable,
// which disables caching for the whole process.
func New(addr, password string) *ProductCache {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("WARNING: failed to connect to Redis: %v. Caching disabled", err)
		return nil
	}
	return &ProductCache{rdb: rdb}
}

func (c *ProductCache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

func productKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *ProductCache) Get(ctx context.Context, id uint, dst any) bool {
	if c == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *ProductCache) Set(ctx context.Context, id uint, v any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, productKey(id), raw, productTTL)
}

func (c *ProductCache) Invalidate(ctx context.Context, id uint) {
	if c == nil {
		return
	}
	c.rdb.Del(ctx, productKey(id))
}
