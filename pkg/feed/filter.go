package feed

import (
	"context"
	"time"

	"quantfeed/pkg/securities"
)

// SecurityFilter decides whether a record may pass downstream, given the
// request's end-time bound.
type SecurityFilter interface {
	Accept(record securities.Record, end time.Time) bool
}

// SecurityFilterFunc adapts a function to the SecurityFilter interface.
type SecurityFilterFunc func(record securities.Record, end time.Time) bool

func (f SecurityFilterFunc) Accept(record securities.Record, end time.Time) bool {
	return f(record, end)
}

// SessionFilter suppresses records that fall outside the exchange session.
// Daily-period bars are judged by trading day, intraday bars by the session
// minute of their open.
func SessionFilter(hours *securities.ExchangeHours, extended bool) SecurityFilter {
	return SecurityFilterFunc(func(record securities.Record, end time.Time) bool {
		if record.EndTime().After(end) {
			return false
		}
		var open time.Time
		var period time.Duration
		switch b := record.(type) {
		case *securities.TradeBar:
			open, period = b.Time, b.Period
		case *securities.QuoteBar:
			open, period = b.Time, b.Period
		default:
			return true
		}
		if period >= 24*time.Hour {
			return hours.IsTradingDay(open)
		}
		return hours.IsOpen(open, extended)
	})
}

// FilterStage suppresses records rejected by the configured filters.
// It never reorders, duplicates or synthesizes records.
type FilterStage struct {
	inner   Enumerator
	filters []SecurityFilter
	end     time.Time
}

// NewFilterStage wraps an enumerator with one or more filters. Nil filters
// are ignored.
func NewFilterStage(inner Enumerator, end time.Time, filters ...SecurityFilter) *FilterStage {
	kept := make([]SecurityFilter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			kept = append(kept, f)
		}
	}
	return &FilterStage{inner: inner, filters: kept, end: end}
}

func (s *FilterStage) Next(ctx context.Context) (securities.Record, bool, error) {
	for {
		record, ok, err := s.inner.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}
		if s.accepted(record) {
			return record, true, nil
		}
	}
}

func (s *FilterStage) accepted(record securities.Record) bool {
	for _, f := range s.filters {
		if !f.Accept(record, s.end) {
			return false
		}
	}
	return true
}
