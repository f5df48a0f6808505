// Package cache provides an advisory, best-effort key/value cache backed
// by BadgerDB and wrapped in a circuit breaker. Every lookup failure —
// cache miss, open circuit, corrupt entry — is treated as "not cached"
// rather than an error; nothing in this package may ever change a
// detection result, only how fast it is produced.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/rs/zerolog"

	"github.com/rawblock/pbn-detector/internal/metrics"
)

// Cache is the advisory store used by internal/similarity to avoid
// recomputing MinHash signatures for content seen in a previous request.
type Cache struct {
	db  *badger.DB
	cb  *gobreaker.CircuitBreaker[[]byte]
	log zerolog.Logger
}

// Open opens (or creates) a BadgerDB store at dir. dir == "" opens a
// purely in-memory instance, which is the default — this cache is always
// optional, never a hard dependency for correctness.
func Open(dir string, log zerolog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "content-cache",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// A plain miss is not a store error and must not trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, badger.ErrKeyNotFound)
		},
	})

	return &Cache{db: db, cb: cb, log: log.With().Str("component", "cache").Logger()}, nil
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns (value, true) on a hit, or (nil, false) for a miss, an open
// circuit, or any storage error — all three are indistinguishable to the
// caller by design.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	val, err := c.cb.Execute(func() ([]byte, error) {
		var out []byte
		err := c.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(key))
			if err != nil {
				return err
			}
			return item.Value(func(v []byte) error {
				out = append([]byte(nil), v...)
				return nil
			})
		})
		return out, err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.log.Debug().Err(err).Str("key", key).Msg("cache get miss")
		}
		metrics.CacheMisses.Inc()
		return nil, false
	}
	metrics.CacheHits.Inc()
	return val, true
}

// Set stores value under key with the given TTL. Failures are logged and
// swallowed — a cache write never fails the caller's request.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	_, err := c.cb.Execute(func() ([]byte, error) {
		return nil, c.db.Update(func(txn *badger.Txn) error {
			e := badger.NewEntry([]byte(key), value)
			if ttl > 0 {
				e = e.WithTTL(ttl)
			}
			return txn.SetEntry(e)
		})
	})
	if err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// RunGC triggers BadgerDB's value-log garbage collection once. Intended
// to be called periodically by a supervised background service
// (internal/cache.GCLoop).
func (c *Cache) RunGC() error {
	err := c.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// GCLoop is a suture.Service that periodically reclaims BadgerDB value-log
// space. A single GC failure is logged and never stops the loop.
type GCLoop struct {
	Cache    *Cache
	Interval time.Duration
}

// Serve implements suture.Service.
func (g *GCLoop) Serve(ctx context.Context) error {
	interval := g.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.Cache.RunGC(); err != nil {
				g.Cache.log.Debug().Err(err).Msg("badger value-log gc skipped")
			}
		}
	}
}
