package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 500
)

// ClientConfig configures a Client.
type ClientConfig struct {
	TTL        time.Duration
	MaxEntries int
	// Retries is the number of extra attempts after a failed load.
	Retries int
	Logger  *slog.Logger
}

// Client caches query results by key. Concurrent identical fetches share a
// single load, failures are never cached, and a shared load is cancelled
// once no caller is waiting for it any more.
type Client struct {
	entries *LRUCache[any]
	group   singleflight.Group
	retries int
	logger  *slog.Logger

	mu      sync.Mutex
	flights map[string]*flight
	gens    map[string]uint64 // per query name, bumped by Invalidate
	epoch   uint64            // bumped by Purge
	seq     uint64

	loads atomic.Int64
}

// stamp identifies the cache generation a load started in.
type stamp struct {
	epoch, gen uint64
}

type flight struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewClient builds a client; zero values in cfg take the defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		entries: NewLRUCache[any](cfg.MaxEntries, cfg.TTL),
		retries: cfg.Retries,
		logger:  cfg.Logger,
		flights: make(map[string]*flight),
		gens:    make(map[string]uint64),
	}
}

// Fetch returns the cached value for (name, params) or loads it. The load
// runs with a context detached from any single caller. Cached values are
// shared between callers and must be treated as read-only.
func Fetch[T any](ctx context.Context, c *Client, name string, params any, load func(context.Context) (T, error)) (T, error) {
	var zero T
	key := Key(name, params)

	if v, ok := c.entries.Get(key); ok {
		if typed, ok := v.(T); ok {
			c.logger.DebugContext(ctx, "Cache hit", "key", key)
			return typed, nil
		}
		c.entries.Delete(key)
	}
	c.logger.DebugContext(ctx, "Cache miss", "key", key)

	f, st := c.join(ctx, name, key)
	// A flight that finished between the lookup above and join has already
	// stored its value.
	if v, ok := c.entries.Get(key); ok {
		if typed, ok := v.(T); ok {
			c.leave(key, f)
			return typed, nil
		}
	}
	ch := c.group.DoChan(f.id, func() (any, error) {
		v, err := c.load(f.ctx, key, func(ctx context.Context) (any, error) { return load(ctx) })
		if err != nil {
			return nil, err
		}
		c.store(name, key, st, v)
		return v, nil
	})

	select {
	case res := <-ch:
		c.leave(key, f)
		if res.Err != nil {
			return zero, res.Err
		}
		typed, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("cache %s: unexpected value type %T", name, res.Val)
		}
		return typed, nil
	case <-ctx.Done():
		c.leave(key, f)
		return zero, ctx.Err()
	}
}

func (c *Client) load(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		c.loads.Add(1)
		var v any
		v, err = fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if attempt < c.retries {
			c.logger.WarnContext(ctx, "Cache load failed, retrying", "key", key, "error", err)
		}
	}
	return nil, err
}

func (c *Client) join(ctx context.Context, name, key string) (*flight, stamp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.flights[key]
	if !ok {
		c.seq++
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{id: key + "#" + strconv.FormatUint(c.seq, 10), ctx: fctx, cancel: cancel}
		c.flights[key] = f
	}
	f.waiters++
	return f, stamp{epoch: c.epoch, gen: c.gens[name]}
}

func (c *Client) leave(key string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	if c.flights[key] == f {
		delete(c.flights, key)
	}
	f.cancel()
}

// store keeps v unless the query name was invalidated after the load started.
func (c *Client) store(name, key string, st stamp, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != st.epoch || c.gens[name] != st.gen {
		return
	}
	c.entries.Set(key, v)
}

// Invalidate drops every cached entry of the named queries. Loads already in
// flight complete for their callers but are not stored, and later fetches
// start fresh loads.
func (c *Client) Invalidate(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range names {
		c.gens[name]++
		removed := c.entries.DeleteFunc(func(key string) bool { return belongsTo(key, name) })
		for key := range c.flights {
			if belongsTo(key, name) {
				delete(c.flights, key)
			}
		}
		c.logger.Debug("Cache invalidated", "query", name, "entries", removed)
	}
}

// Purge drops everything.
func (c *Client) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries.Clear()
	clear(c.flights)
}

// CleanExpired implements Cleaner.
func (c *Client) CleanExpired() int {
	return c.entries.CleanExpired()
}

// Size returns the number of cached entries.
func (c *Client) Size() int {
	return c.entries.Size()
}

// Loads returns how many load attempts were made, retries included.
func (c *Client) Loads() int64 {
	return c.loads.Load()
}
