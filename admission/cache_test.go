package admission

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(opts Options) (*Cache, *fakeClock) {
	clock := newFakeClock()
	return New(opts, WithClock(clock.Now)), clock
}

func TestCache_RecordSuppressesDuplicate(t *testing.T) {
	c, _ := newTestCache(DefaultOptions())

	stmt := "SELECT * FROM users WHERE id = $1"
	if !c.ShouldAdmit(stmt) {
		t.Fatal("novel statement should be admitted")
	}

	c.Record(stmt)

	if c.ShouldAdmit(stmt) {
		t.Error("recorded statement should not be admitted within TTL")
	}
	if got := c.Decide(stmt); got != DecisionPresent {
		t.Errorf("Decide() = %v, want %v", got, DecisionPresent)
	}
}

func TestCache_ExpiryReinstatesAdmission(t *testing.T) {
	c, clock := newTestCache(Options{CacheSize: 10, Timeout: time.Minute})

	stmt := "SELECT 1"
	c.Record(stmt)

	clock.Advance(59 * time.Second)
	if c.ShouldAdmit(stmt) {
		t.Error("statement should still be suppressed before TTL")
	}

	clock.Advance(2 * time.Second)
	if !c.ShouldAdmit(stmt) {
		t.Error("statement should be admitted after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after sweep", c.Len())
	}
}

func TestCache_ExpiryBoundaryIsStrict(t *testing.T) {
	c, clock := newTestCache(Options{CacheSize: 10, Timeout: time.Minute})

	c.Record("SELECT 1")
	clock.Advance(time.Minute)

	// expiry == now is not strictly in the past
	if n := c.PurgeExpired(); n != 0 {
		t.Errorf("PurgeExpired() at expiry instant removed %d, want 0", n)
	}

	clock.Advance(time.Nanosecond)
	if n := c.PurgeExpired(); n != 1 {
		t.Errorf("PurgeExpired() after expiry removed %d, want 1", n)
	}
}

func TestCache_FullRefusesNovelStatements(t *testing.T) {
	const size = 5
	c, _ := newTestCache(Options{CacheSize: size, Timeout: time.Hour})

	recorded := make([]string, 0, size)
	for i := 0; i < size; i++ {
		stmt := fmt.Sprintf("SELECT %d", i)
		c.Record(stmt)
		recorded = append(recorded, stmt)
	}

	if got := c.Decide("SELECT novel"); got != DecisionFull {
		t.Errorf("Decide(novel) = %v, want %v", got, DecisionFull)
	}

	for _, stmt := range recorded {
		if got := c.Decide(stmt); got != DecisionPresent {
			t.Errorf("Decide(%q) = %v, want %v", stmt, got, DecisionPresent)
		}
	}

	// Refusal never evicts existing entries.
	if c.Len() != size {
		t.Errorf("Len() = %d, want %d", c.Len(), size)
	}
}

func TestCache_PurgeExpired(t *testing.T) {
	tests := []struct {
		name        string
		expired     int
		live        int
		wantRemoved int
	}{
		{"empty", 0, 0, 0},
		{"single expired", 1, 0, 1},
		{"single live", 0, 1, 0},
		{"many mixed", 40, 60, 40},
		{"all expired", 100, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, clock := newTestCache(Options{CacheSize: 1000, Timeout: time.Hour})

			for i := 0; i < tt.expired; i++ {
				c.RecordFor(fmt.Sprintf("expired %d", i), time.Second)
			}
			for i := 0; i < tt.live; i++ {
				c.RecordFor(fmt.Sprintf("live %d", i), time.Hour)
			}

			clock.Advance(time.Minute)

			if got := c.PurgeExpired(); got != tt.wantRemoved {
				t.Errorf("PurgeExpired() = %d, want %d", got, tt.wantRemoved)
			}
			if got := c.Len(); got != tt.live {
				t.Errorf("Len() = %d, want %d", got, tt.live)
			}
			for i := 0; i < tt.live; i++ {
				if c.ShouldAdmit(fmt.Sprintf("live %d", i)) {
					t.Errorf("live entry %d was removed", i)
				}
			}
		})
	}
}

func TestCache_RecordLastWriteWins(t *testing.T) {
	c, clock := newTestCache(Options{CacheSize: 10, Timeout: time.Hour})

	stmt := "UPDATE users SET name = $1"
	c.RecordFor(stmt, time.Hour)
	c.RecordFor(stmt, 10*time.Second)

	clock.Advance(11 * time.Second)
	if !c.ShouldAdmit(stmt) {
		t.Error("second, shorter TTL should have overwritten the first")
	}

	c.RecordFor(stmt, 10*time.Second)
	c.RecordFor(stmt, time.Hour)

	clock.Advance(11 * time.Second)
	if c.ShouldAdmit(stmt) {
		t.Error("second, longer TTL should have overwritten the first")
	}
}

func TestCache_RecordRefreshesExpiry(t *testing.T) {
	c, clock := newTestCache(Options{CacheSize: 10, Timeout: 10 * time.Second})

	stmt := "SELECT 1"
	c.Record(stmt)
	clock.Advance(8 * time.Second)
	c.Record(stmt)
	clock.Advance(8 * time.Second)

	if c.ShouldAdmit(stmt) {
		t.Error("refreshed entry should still be live")
	}
}

func TestCache_EndToEnd(t *testing.T) {
	c, clock := newTestCache(Options{CacheSize: 2, Timeout: 10 * time.Second})

	c.Record("A")
	c.Record("B")

	if c.ShouldAdmit("C") {
		t.Fatal("C should be refused while cache is full")
	}

	clock.Advance(11 * time.Second)

	if !c.ShouldAdmit("C") {
		t.Fatal("C should be admitted after A and B expire")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCache_NonPositiveOptionsPassThrough(t *testing.T) {
	t.Run("zero size refuses everything", func(t *testing.T) {
		c, _ := newTestCache(Options{CacheSize: 0, Timeout: time.Hour})
		if got := c.Decide("SELECT 1"); got != DecisionFull {
			t.Errorf("Decide() = %v, want %v", got, DecisionFull)
		}
	})

	t.Run("negative ttl records an expired entry", func(t *testing.T) {
		c, clock := newTestCache(Options{CacheSize: 10, Timeout: -time.Second})
		c.Record("SELECT 1")
		if c.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", c.Len())
		}
		clock.Advance(time.Nanosecond)
		if !c.ShouldAdmit("SELECT 1") {
			t.Error("entry with negative TTL should be swept")
		}
	})
}

func TestCache_FingerprintCollisionsShareEntry(t *testing.T) {
	constant := FingerprinterFunc(func(string) Fingerprint { return 42 })
	c := New(DefaultOptions(), WithFingerprinter(constant))

	c.Record("SELECT a")
	if c.ShouldAdmit("SELECT b") {
		t.Error("colliding statements should be throttled together")
	}
}

func TestCache_Stats(t *testing.T) {
	c, clock := newTestCache(Options{CacheSize: 3, Timeout: time.Minute})

	c.Record("A")
	c.RecordFor("B", time.Second)
	clock.Advance(2 * time.Second)

	stats := c.Stats()
	if stats.Entries != 1 {
		t.Errorf("Entries = %d, want 1", stats.Entries)
	}
	if stats.Capacity != 3 {
		t.Errorf("Capacity = %d, want 3", stats.Capacity)
	}
	if stats.Timeout != time.Minute {
		t.Errorf("Timeout = %v, want %v", stats.Timeout, time.Minute)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(Options{CacheSize: 20, Timeout: time.Minute})

	const numGoroutines = 50
	const opsPerGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				stmt := fmt.Sprintf("SELECT %d", (id+j)%40)
				switch j % 3 {
				case 0:
					c.Record(stmt)
				case 1:
					_ = c.ShouldAdmit(stmt)
				case 2:
					_ = c.PurgeExpired()
				}
			}
		}(i)
	}

	wg.Wait()

	if c.Len() > 40 {
		t.Errorf("Len() = %d, want at most 40 distinct fingerprints", c.Len())
	}
}

func TestDecision_String(t *testing.T) {
	tests := []struct {
		d    Decision
		want string
	}{
		{DecisionAdmit, "admit"},
		{DecisionPresent, "present"},
		{DecisionFull, "full"},
		{Decision(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("Decision(%d).String() = %q, want %q", tt.d, got, tt.want)
		}
	}
	if !DecisionAdmit.Admitted() || DecisionPresent.Admitted() || DecisionFull.Admitted() {
		t.Error("only DecisionAdmit should be admitted")
	}
}
