package securities

import (
	"fmt"
	"strings"
	"time"
)

// Resolution is the sampling granularity of a data subscription.
type Resolution string

const (
	Tick   Resolution = "tick"
	Second Resolution = "second"
	Minute Resolution = "minute"
	Hour   Resolution = "hour"
	Daily  Resolution = "daily"
)

// Period returns the bar span for the resolution. Tick data has no period.
func (r Resolution) Period() time.Duration {
	switch r {
	case Second:
		return time.Second
	case Minute:
		return time.Minute
	case Hour:
		return time.Hour
	case Daily:
		return 24 * time.Hour
	default:
		return 0
	}
}

// ParseResolution maps a config string to a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(strings.ToLower(strings.TrimSpace(s))) {
	case Tick:
		return Tick, nil
	case Second:
		return Second, nil
	case Minute:
		return Minute, nil
	case Hour:
		return Hour, nil
	case Daily, "day":
		return Daily, nil
	default:
		return "", fmt.Errorf("securities: unknown resolution %q", s)
	}
}
