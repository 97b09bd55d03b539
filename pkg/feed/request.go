package feed

import (
	"sort"
	"time"

	"quantfeed/pkg/securities"
)

// DataKind selects the concrete bar type a subscription decodes into.
type DataKind string

const (
	KindTrade  DataKind = "trade"
	KindQuote  DataKind = "quote"
	KindCoarse DataKind = "coarse"
)

// UniverseKind tags the construction variant a universe request dispatches
// to. Each kind carries exactly the source-selection semantics of its tag;
// no runtime type inspection is involved.
type UniverseKind string

const (
	// UniverseStandard is a generic data-driven universe served by the
	// standard record cursor.
	UniverseStandard UniverseKind = "standard"
	// UniverseTimeTriggered needs no market data; selection fires off the
	// time provider alone.
	UniverseTimeTriggered UniverseKind = "time_triggered"
	// UniverseUserDefined is a manually-curated, time-triggered universe.
	// Its enumerator is never scheduled onto a worker.
	UniverseUserDefined UniverseKind = "user_defined"
	// UniverseCoarse streams daily aggregate selection data as collections.
	UniverseCoarse      UniverseKind = "coarse"
	UniverseOptionChain UniverseKind = "option_chain"
	UniverseFutureChain UniverseKind = "future_chain"
)

// Universe describes a dynamically-selected instrument set.
type Universe struct {
	Symbol securities.Symbol
	Kind   UniverseKind
	// Members lists the current constituents consumed by coarse and chain
	// sources. Membership algorithms themselves live outside this package.
	Members []securities.Symbol
}

// TradableDates is an ordered, de-duplicated, forward-only sequence of
// calendar dates. It is consumed strictly once.
type TradableDates struct {
	dates []time.Time
	idx   int
}

// NewTradableDates normalises the input to midnight-truncated, sorted,
// de-duplicated dates.
func NewTradableDates(dates []time.Time) *TradableDates {
	normalized := make([]time.Time, 0, len(dates))
	seen := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		normalized = append(normalized, day)
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i].Before(normalized[j]) })
	return &TradableDates{dates: normalized}
}

// IsEmpty reports whether the sequence was created without any dates.
func (t *TradableDates) IsEmpty() bool {
	return t == nil || len(t.dates) == 0
}

// Peek returns the next date without consuming it.
func (t *TradableDates) Peek() (time.Time, bool) {
	if t == nil || t.idx >= len(t.dates) {
		return time.Time{}, false
	}
	return t.dates[t.idx], true
}

// Clone returns a fresh, unconsumed sequence over the same dates.
func (t *TradableDates) Clone() *TradableDates {
	if t == nil {
		return nil
	}
	dates := make([]time.Time, len(t.dates))
	copy(dates, t.dates)
	return &TradableDates{dates: dates}
}

// Next consumes and returns the next date.
func (t *TradableDates) Next() (time.Time, bool) {
	if t == nil || t.idx >= len(t.dates) {
		return time.Time{}, false
	}
	d := t.dates[t.idx]
	t.idx++
	return d, true
}

// SubscriptionRequest is the immutable descriptor of what to stream. It is
// created by the scheduling caller per active subscription and read-only
// thereafter.
type SubscriptionRequest struct {
	Symbol     securities.Symbol
	Resolution securities.Resolution
	DataKind   DataKind

	// Start and End bound the stream, expressed in the data time zone.
	Start time.Time
	End   time.Time

	DataTimeZone     *time.Location
	ExchangeTimeZone *time.Location

	// IsUniverse marks a universe-selection request; Universe is then set.
	IsUniverse bool
	Universe   *Universe

	FillForward   bool
	ExtendedHours bool
	Filtered      bool
	// Filter is the user-defined record filter consulted by the filter
	// stage when Filtered is set.
	Filter SecurityFilter
	// AggregateCollections asks for collection-style emission on universe
	// sources.
	AggregateCollections bool

	// IsLive gates the cursor's date walk at the wall clock.
	IsLive bool

	// Dates is the tradable-date sequence supplied with the request.
	// DatesProvider, when set, overrides it.
	Dates         *TradableDates
	DatesProvider func(req *SubscriptionRequest) *TradableDates
}

// TradableDates returns the effective date sequence for the request.
func (r *SubscriptionRequest) TradableDates() *TradableDates {
	if r.DatesProvider != nil {
		return r.DatesProvider(r)
	}
	return r.Dates
}

// HasTradableDates reports whether any tradable date was supplied, checked
// before the sequence is consumed.
func (r *SubscriptionRequest) HasTradableDates() bool {
	if r.DatesProvider != nil {
		return !r.DatesProvider(r).IsEmpty()
	}
	return !r.Dates.IsEmpty()
}

// StartUTC returns the period start in absolute time.
func (r *SubscriptionRequest) StartUTC() time.Time { return r.Start.UTC() }

// EndUTC returns the period end in absolute time.
func (r *SubscriptionRequest) EndUTC() time.Time { return r.End.UTC() }

// exchangeLocation defaults to the data time zone, then UTC.
func (r *SubscriptionRequest) exchangeLocation() *time.Location {
	if r.ExchangeTimeZone != nil {
		return r.ExchangeTimeZone
	}
	if r.DataTimeZone != nil {
		return r.DataTimeZone
	}
	return time.UTC
}
