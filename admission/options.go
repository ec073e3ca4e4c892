package admission

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Named option keys recognized by OptionsFromMap.
const (
	KeyCacheSize           = "explain_cache_size"
	KeyCacheTimeoutSeconds = "explain_cache_timeout_seconds"
)

// Defaults applied when a named option is absent.
const (
	DefaultCacheSize = 50
	DefaultTimeout   = 24 * time.Hour
)

// Options configures a Cache. Options are frozen when the cache is built.
type Options struct {
	// CacheSize is the number of live entries at which new statements are
	// refused admission. Zero or negative values refuse every new statement.
	CacheSize int

	// Timeout is the TTL applied by Record. A zero or negative TTL records an
	// entry that is already expired.
	Timeout time.Duration
}

// DefaultOptions returns the default options.
// CacheSize: 50, Timeout: 24 hours
func DefaultOptions() Options {
	return Options{
		CacheSize: DefaultCacheSize,
		Timeout:   DefaultTimeout,
	}
}

// OptionsFromMap builds Options from named options. Defaults apply only to
// absent keys; present values are passed through unchanged, including
// negative ones, except that values beyond what Options can hold saturate at
// its limits. NaN and infinities are rejected. Unknown keys are ignored.
func OptionsFromMap(m map[string]any) (Options, error) {
	opts := DefaultOptions()

	if v, ok := m[KeyCacheSize]; ok {
		n, err := toInt64(v)
		if err != nil {
			return Options{}, fmt.Errorf("%s: %w", KeyCacheSize, err)
		}
		opts.CacheSize = clampInt(n)
	}

	if v, ok := m[KeyCacheTimeoutSeconds]; ok {
		n, err := toInt64(v)
		if err != nil {
			return Options{}, fmt.Errorf("%s: %w", KeyCacheTimeoutSeconds, err)
		}
		opts.Timeout = secondsToDuration(n)
	}

	return opts, nil
}

// secondsToDuration saturates at the time.Duration limits instead of wrapping.
func secondsToDuration(n int64) time.Duration {
	const maxSeconds = math.MaxInt64 / int64(time.Second)
	switch {
	case n > maxSeconds:
		return time.Duration(math.MaxInt64)
	case n < -maxSeconds:
		return time.Duration(math.MinInt64)
	default:
		return time.Duration(n) * time.Second
	}
}

// clampInt saturates n at the int limits of the platform.
func clampInt(n int64) int {
	switch {
	case n > math.MaxInt:
		return math.MaxInt
	case n < math.MinInt:
		return math.MinInt
	default:
		return int(n)
	}
}

// floatToInt64 truncates f toward zero, saturating at the int64 limits.
// NaN and infinities are rejected.
func floatToInt64(f float64) (int64, error) {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, fmt.Errorf("%w: %v is not finite", ErrInvalidOption, f)
	case f >= math.MaxInt64:
		return math.MaxInt64, nil
	case f <= math.MinInt64:
		return math.MinInt64, nil
	default:
		return int64(f), nil
	}
}

// toInt64 reads integer-like option values. Floats are truncated toward zero
// and values beyond int64 saturate.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return math.MaxInt64, nil
		}
		return int64(n), nil
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		return parseNumber(string(n))
	case string:
		return parseNumber(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidOption, v)
	}
}

func parseNumber(s string) (int64, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidOption, s)
	}
	return floatToInt64(f)
}
