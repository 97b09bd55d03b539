package cache

import (
	"errors"
	"strings"
	"time"

	"quantfeed/internal/config"
)

// Namespace is the Redis key prefix for the quantfeed application.
const Namespace = "qfeed"

// ErrNotFound is the sentinel handed to the go-zero cache layer for misses.
var ErrNotFound = errors.New("qfeed cache: key not found")

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 10*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// BarsKey caches a ranged bar query for one instrument path.
func BarsKey(path string, start, end time.Time) string {
	return formatKey("bars", path, start.Format("20060102"), end.Format("20060102"))
}

// MapFileKey caches the symbol-change history of an instrument.
func MapFileKey(market, ticker string) string {
	return formatKey("mapfile", market, ticker)
}

// FactorFileKey caches the price-adjustment history of an instrument.
func FactorFileKey(market, ticker string) string {
	return formatKey("factorfile", market, ticker)
}

// BarsTTL returns the TTL for ranged bar payloads.
func BarsTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// CorporateTTL returns the TTL for map/factor file payloads, which change
// at most daily.
func CorporateTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}
