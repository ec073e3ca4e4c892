// Package admission decides whether an explain plan should be captured for a
// SQL statement.
//
// A Cache remembers the fingerprints of statements that were explained
// recently. Each entry expires after a TTL; expired entries are swept on every
// admission check, so the cache maintains itself without a background
// goroutine. When the cache holds Options.CacheSize live entries, new
// statements are refused until older entries expire. Existing entries are
// never evicted early.
//
// Fingerprints are 64-bit hashes of the raw statement text. Two statements
// that collide are throttled together; this is a throttling heuristic, not an
// identity guarantee.
package admission
