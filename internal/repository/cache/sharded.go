package cache

import (
	"hash/fnv"
	"sync"
	"time"
)

type KV interface {
	Put(key string, v any)
	Get(key string) (any, bool)
	Delete(key string)
	Snapshot() map[string]any
}

type entry struct {
	V any
	E time.Time
}

type shard struct {
	mu   sync.RWMutex
	data map[string]entry
}

// ShardedCache spreads keys over fixed shards to keep lock contention low
// when many orders reconcile concurrently.
type ShardedCache struct {
	shards []shard
	ttl    time.Duration
	now    func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
}

type Option func(*ShardedCache)

// WithShards sets the shard count; kept a power of two for the fast mod.
func WithShards(n int) Option {
	return func(c *ShardedCache) {
		if n <= 0 {
			n = 16
		}
		c.shards = make([]shard, n)
		for i := range c.shards {
			c.shards[i] = shard{data: make(map[string]entry)}
		}
	}
}

func WithTTL(ttl time.Duration) Option { return func(c *ShardedCache) { c.ttl = ttl } }

func NewShardedCache(opts ...Option) *ShardedCache {
	c := &ShardedCache{now: time.Now, stop: make(chan struct{})}
	WithShards(16)(c)
	for _, o := range opts {
		o(c)
	}
	if c.ttl > 0 {
		c.ticker = time.NewTicker(c.ttl / 2)
		go func() {
			for {
				select {
				case <-c.ticker.C:
					c.purge()
				case <-c.stop:
					return
				}
			}
		}()
	}
	return c
}

func (c *ShardedCache) Close() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	close(c.stop)
}

func (c *ShardedCache) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &c.shards[int(h.Sum32())&(len(c.shards)-1)]
}

func (c *ShardedCache) Put(key string, v any) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{V: v}
	if c.ttl > 0 {
		e.E = c.now().Add(c.ttl)
	}
	s.data[key] = e
}

func (c *ShardedCache) Get(key string) (any, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.E.IsZero() && c.now().After(e.E) {
		s.mu.Lock()
		if cur, ok := s.data[key]; ok && cur.E == e.E {
			delete(s.data, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.V, true
}

func (c *ShardedCache) Delete(key string) {
	s := c.shardFor(key)
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

func (c *ShardedCache) Snapshot() map[string]any {
	out := make(map[string]any)
	now := c.now()
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		for k, e := range s.data {
			if e.E.IsZero() || now.Before(e.E) {
				out[k] = e.V
			}
		}
		s.mu.RUnlock()
	}
	return out
}

func (c *ShardedCache) purge() {
	now := c.now()
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for k, e := range s.data {
			if !e.E.IsZero() && now.After(e.E) {
				delete(s.data, k)
			}
		}
		s.mu.Unlock()
	}
}
