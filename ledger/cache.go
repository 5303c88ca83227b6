package ledger

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/robinvdvleuten/ourfinance/telemetry"
)

// LoadFunc loads a snapshot from a path. Load is the default.
type LoadFunc func(ctx context.Context, path string) (*Snapshot, error)

// CacheObserver receives cache events, for example to export metrics.
type CacheObserver interface {
	CacheHit(path string)
	CacheMiss(path string)
	Loaded(path string, d time.Duration, err error)
}

// Cache keeps the most recent snapshot per ledger path and reuses it while
// the root file and every included file are unchanged on disk.
//
// Reads take a read lock; a reload swaps the whole entry under the write
// lock. Concurrent misses for the same path share a single load.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	group   singleflight.Group

	load     LoadFunc
	observer CacheObserver
	logger   zerolog.Logger
}

type cacheEntry struct {
	snapshot *Snapshot
	stamps   []fileStamp
}

// fileStamp identifies a version of a file by modification time and size.
type fileStamp struct {
	path    string
	modTime time.Time
	size    int64
}

func stampFile(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{path: path, modTime: info.ModTime(), size: info.Size()}, nil
}

// fresh reports whether no stamped file changed since the entry was stored.
func (e *cacheEntry) fresh() bool {
	for _, stamp := range e.stamps {
		current, err := stampFile(stamp.path)
		if err != nil || !current.modTime.Equal(stamp.modTime) || current.size != stamp.size {
			return false
		}
	}
	return true
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLoadFunc replaces the function used to load snapshots.
func WithLoadFunc(fn LoadFunc) CacheOption {
	return func(c *Cache) { c.load = fn }
}

// WithObserver registers an observer for cache events.
func WithObserver(o CacheObserver) CacheOption {
	return func(c *Cache) { c.observer = o }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries:  make(map[string]*cacheEntry),
		load:     Load,
		observer: nopObserver{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the snapshot for path, loading it when it is not cached or
// any of its files changed. Load errors are returned unchanged and are not
// cached.
func (c *Cache) Get(ctx context.Context, path string) (*Snapshot, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	if snapshot, ok := c.lookup(key); ok {
		c.observer.CacheHit(key)
		c.logger.Debug().Str("path", key).Msg("ledger cache hit")
		return snapshot, nil
	}

	// The shared load must outlive any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if snapshot, ok := c.lookup(key); ok {
			return snapshot, nil
		}
		return c.reload(loadCtx, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (c *Cache) lookup(key string) (*Snapshot, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !entry.fresh() {
		return nil, false
	}
	return entry.snapshot, true
}

func (c *Cache) reload(ctx context.Context, key string) (*Snapshot, error) {
	c.observer.CacheMiss(key)

	// Stamp the root before reading so that a write racing the load
	// invalidates the entry on the next Get.
	root, rootErr := stampFile(key)

	var spans *telemetry.TimingCollector
	if c.logger.GetLevel() <= zerolog.DebugLevel {
		spans = telemetry.NewTimingCollector()
		ctx = telemetry.WithCollector(ctx, spans)
	}

	start := time.Now()
	snapshot, err := c.load(ctx, key)
	elapsed := time.Since(start)
	c.observer.Loaded(key, elapsed, err)

	if spans != nil {
		for _, span := range spans.Spans() {
			c.logger.Debug().
				Str("path", key).
				Str("span", span.Name).
				Int("depth", span.Depth).
				Dur("duration", span.Duration).
				Msg("ledger load span")
		}
	}

	if err != nil {
		c.logger.Error().Err(err).Str("path", key).Dur("duration", elapsed).Msg("ledger load failed")
		return nil, err
	}

	entry := &cacheEntry{snapshot: snapshot}
	if rootErr == nil {
		entry.stamps = append(entry.stamps, root)
	}
	for _, file := range snapshot.Files() {
		if file == key {
			continue
		}
		if stamp, err := stampFile(file); err == nil {
			entry.stamps = append(entry.stamps, stamp)
		}
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	c.logger.Info().
		Str("path", key).
		Int("transactions", snapshot.Len()).
		Int("warnings", len(snapshot.Warnings())).
		Dur("duration", elapsed).
		Msg("ledger loaded")

	return snapshot, nil
}

// Invalidate drops the entry for path so the next Get reloads it.
func (c *Cache) Invalidate(path string) {
	key, err := filepath.Abs(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of cached ledgers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)                     {}
func (nopObserver) CacheMiss(string)                    {}
func (nopObserver) Loaded(string, time.Duration, error) {}
