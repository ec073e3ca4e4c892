package admission

import (
	"sync"
	"time"
)

// Cache tracks recently explained statements by fingerprint.
//
// Contract:
//   - Concurrency: safe for concurrent use. Each method is atomic, but a
//     ShouldAdmit followed by Record is not: two callers may both be admitted
//     for the same statement and both run the explain plan. That duplicate
//     run is tolerated; explain.Gate collapses it for concurrent callers.
//   - Errors: no method fails.
type Cache struct {
	mu      sync.Mutex
	entries map[Fingerprint]time.Time

	opts          Options
	now           func() time.Time
	fingerprinter Fingerprinter
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock replaces time.Now. Tests use it to advance time.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithFingerprinter replaces the default XXHashFingerprinter.
func WithFingerprinter(f Fingerprinter) CacheOption {
	return func(c *Cache) {
		if f != nil {
			c.fingerprinter = f
		}
	}
}

// New creates an empty cache with the given options.
func New(opts Options, cacheOpts ...CacheOption) *Cache {
	c := &Cache{
		entries:       make(map[Fingerprint]time.Time),
		opts:          opts,
		now:           time.Now,
		fingerprinter: XXHashFingerprinter{},
	}
	for _, opt := range cacheOpts {
		opt(c)
	}
	return c
}

// Options returns the options the cache was built with.
func (c *Cache) Options() Options {
	return c.opts
}

// Fingerprint returns the cache key for a statement.
func (c *Cache) Fingerprint(statement string) Fingerprint {
	return c.fingerprinter.Fingerprint(statement)
}

// Record marks the statement as explained until now + Options.Timeout.
// Recording a statement again refreshes its expiry.
func (c *Cache) Record(statement string) {
	c.RecordFor(statement, c.opts.Timeout)
}

// RecordFor marks the statement as explained until now + ttl. The last write
// for a fingerprint wins, even when it shortens the expiry.
func (c *Cache) RecordFor(statement string, ttl time.Duration) {
	fp := c.fingerprinter.Fingerprint(statement)
	expiresAt := c.now().UTC().Add(ttl)

	c.mu.Lock()
	c.entries[fp] = expiresAt
	c.mu.Unlock()
}

// PurgeExpired removes every entry whose expiry is strictly before now and
// returns how many were removed.
func (c *Cache) PurgeExpired() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeLocked(now)
}

func (c *Cache) purgeLocked(now time.Time) int {
	removed := 0
	// Deleting the current key during range is safe and visits every entry.
	for fp, expiresAt := range c.entries {
		if expiresAt.Before(now) {
			delete(c.entries, fp)
			removed++
		}
	}
	return removed
}

// ShouldAdmit reports whether the explain plan should run for the statement.
// It sweeps expired entries first.
func (c *Cache) ShouldAdmit(statement string) bool {
	return c.Decide(statement).Admitted()
}

// Decide is ShouldAdmit with the reason attached. A recorded statement is
// always DecisionPresent, never DecisionFull.
func (c *Cache) Decide(statement string) Decision {
	now := c.now()
	fp := c.fingerprinter.Fingerprint(statement)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeLocked(now)

	if _, ok := c.entries[fp]; ok {
		return DecisionPresent
	}
	if len(c.entries) >= c.opts.CacheSize {
		return DecisionFull
	}
	return DecisionAdmit
}

// Len returns the number of entries physically held, including expired
// entries not yet swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats is a point-in-time view of a cache.
type Stats struct {
	Entries  int
	Capacity int
	Timeout  time.Duration
}

// Stats sweeps expired entries and reports the live entry count.
func (c *Cache) Stats() Stats {
	now := c.now()

	c.mu.Lock()
	c.purgeLocked(now)
	n := len(c.entries)
	c.mu.Unlock()

	return Stats{
		Entries:  n,
		Capacity: c.opts.CacheSize,
		Timeout:  c.opts.Timeout,
	}
}
