package admission

import (
	"fmt"
	"testing"
	"time"
)

// BenchmarkCache_ShouldAdmit_Present measures a suppressed duplicate.
func BenchmarkCache_ShouldAdmit_Present(b *testing.B) {
	c := New(DefaultOptions())
	c.Record("SELECT 1")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.ShouldAdmit("SELECT 1")
	}
}

// BenchmarkCache_ShouldAdmit_FullCache measures the sweep cost over a full cache.
func BenchmarkCache_ShouldAdmit_FullCache(b *testing.B) {
	opts := DefaultOptions()
	c := New(opts)
	for i := 0; i < opts.CacheSize; i++ {
		c.Record(fmt.Sprintf("SELECT %d", i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.ShouldAdmit("SELECT novel")
	}
}

// BenchmarkCache_Record measures inserts.
func BenchmarkCache_Record(b *testing.B) {
	c := New(Options{CacheSize: 50, Timeout: time.Hour})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Record("SELECT * FROM t WHERE id = ?")
	}
}

// BenchmarkCache_Concurrent measures mixed concurrent admission checks.
func BenchmarkCache_Concurrent(b *testing.B) {
	c := New(DefaultOptions())

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			stmt := fmt.Sprintf("SELECT %d", i%100)
			if c.ShouldAdmit(stmt) {
				c.Record(stmt)
			}
			i++
		}
	})
}

func BenchmarkXXHashFingerprinter(b *testing.B) {
	f := XXHashFingerprinter{}
	stmt := "SELECT u.id, u.name FROM users u JOIN orders o ON o.user_id = u.id WHERE o.total > $1"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Fingerprint(stmt)
	}
}

func BenchmarkSHA256Fingerprinter(b *testing.B) {
	f := SHA256Fingerprinter{}
	stmt := "SELECT u.id, u.name FROM users u JOIN orders o ON o.user_id = u.id WHERE o.total > $1"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Fingerprint(stmt)
	}
}
