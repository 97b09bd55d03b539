package securities

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
	"github.com/zeromicro/go-zero/core/logx"
)

// ExchangeHours answers trading-day and session-minute questions for one
// market, backed by an ISO 10383 exchange calendar. When no calendar is
// available it degrades to a Mon-Fri 09:30-16:00 New York session.
type ExchangeHours struct {
	cal      *calendar.Calendar
	loc      *time.Location
	fallback bool
}

// micByMarket maps quantfeed market identifiers to MIC codes understood by
// the calendar library.
var micByMarket = map[string]string{
	"usa":    "xnys",
	"nyse":   "xnys",
	"london": "xlon",
	"paris":  "xpar",
	"tokyo":  "xtks",
	"hkex":   "xhkg",
	"asx":    "xasx",
	"tsx":    "xtse",
}

// HoursForMarket resolves exchange hours for a market identifier.
func HoursForMarket(market string) *ExchangeHours {
	mic, ok := micByMarket[strings.ToLower(strings.TrimSpace(market))]
	if !ok {
		mic = "xnys"
	}
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}
	if cal == nil {
		logx.Errorf("securities: no calendar for market %q, using weekday fallback", market)
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.UTC
		}
		return &ExchangeHours{fallback: true, loc: loc}
	}
	return &ExchangeHours{cal: cal, loc: cal.Loc}
}

// Location returns the exchange time zone.
func (h *ExchangeHours) Location() *time.Location { return h.loc }

// IsTradingDay reports whether the exchange is open at all on the civil date
// carried by t. The date is taken as-is, not converted between zones, so a
// midnight-UTC tradable date is judged by its own calendar day.
func (h *ExchangeHours) IsTradingDay(t time.Time) bool {
	// Noon avoids DST transition edges around midnight.
	day := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, h.loc)
	if h.fallback {
		wd := day.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return h.cal.IsBusinessDay(day)
}

// IsOpen reports whether the regular session is open at the given instant.
// With extended=true any minute of a trading day qualifies, which matches
// pre/post-market data availability.
func (h *ExchangeHours) IsOpen(t time.Time, extended bool) bool {
	t = t.In(h.loc)
	if !h.IsTradingDay(t) {
		return false
	}
	if extended {
		return true
	}
	if h.fallback {
		hour, minute := t.Hour(), t.Minute()
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16
	}
	return h.cal.IsOpen(t)
}

// NextTradingDay returns midnight of the first trading day after t.
func (h *ExchangeHours) NextTradingDay(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, h.loc)
	for i := 0; i < 366; i++ {
		day = day.AddDate(0, 0, 1)
		if h.IsTradingDay(day) {
			return day
		}
	}
	return day
}
