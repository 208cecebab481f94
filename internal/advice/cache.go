package advice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const cacheKeyPrefix = "miifit-advice||"

// Response is what advice endpoints return. CachedUntil tells the
// client when a fresh answer becomes available; IsCached says whether
// this very reply came out of the cache.
type Response struct {
	Advice      string    `json:"advice"`
	CachedUntil time.Time `json:"cachedUntil"`
	IsCached    bool      `json:"isCached"`
}

// Cache keeps generated advice in redis for its TTL, so the LLM is not
// asked the same thing about the same customer twice in a row.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration

	// NowFunc is swappable for tests.
	NowFunc func() time.Time
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		rdb:     rdb,
		ttl:     ttl,
		NowFunc: time.Now,
	}
}

func cacheKey(customerID, kind string) string {
	return cacheKeyPrefix + customerID + "||" + kind
}

// Get returns the cached response with IsCached set, or nil on a miss.
func (c *Cache) Get(ctx context.Context, customerID, kind string) (*Response, error) {
	respJson, err := c.rdb.Get(ctx, cacheKey(customerID, kind)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached advice: %w", err)
	}

	var resp Response
	if err := json.Unmarshal([]byte(respJson), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal cached advice: %w", err)
	}

	resp.IsCached = true
	return &resp, nil
}

// Set stores the advice and stamps CachedUntil on the given response.
func (c *Cache) Set(ctx context.Context, customerID, kind string, resp *Response) error {
	resp.CachedUntil = c.NowFunc().Add(c.ttl)

	respJson, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal advice: %w", err)
	}

	if err := c.rdb.Set(ctx, cacheKey(customerID, kind), respJson, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache advice: %w", err)
	}

	return nil
}
