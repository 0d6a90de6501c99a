package rpcclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"
)

// responseCache is a short-TTL cache of raw RPC results keyed by
// (method, params). Identical concurrent requests within the window share
// one in-flight call; a shared call continues for remaining waiters even
// if one caller's context is cancelled.
type responseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	group   singleflight.Group
	now     func() time.Time // injectable for tests
}

type cacheEntry struct {
	value   json.RawMessage
	expires time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// setTTL adjusts the expiry window; existing entries keep the window they
// were inserted under.
func (c *responseCache) setTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// cacheKey derives a fixed-size map key from the method and its marshaled
// params.
func cacheKey(method string, params []interface{}) string {
	h := blake3.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	if raw, err := json.Marshal(params); err == nil {
		h.Write(raw)
	}
	return method + ":" + hex.EncodeToString(h.Sum(nil)[:16])
}

// do returns the cached result for key when fresh, otherwise runs fetch —
// at most once across concurrent callers — and caches its result.
func (c *responseCache) do(ctx context.Context, key string, fetch func() (json.RawMessage, error)) (json.RawMessage, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if c.now().Before(e.expires) {
			c.mu.Unlock()
			return e.value, nil
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	ch := c.group.DoChan(key, func() (interface{}, error) {
		raw, err := fetch()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{value: raw, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return raw, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	case <-ctx.Done():
		// The shared fetch keeps running for other waiters.
		return nil, ctx.Err()
	}
}
