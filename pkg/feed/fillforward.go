package feed

import (
	"context"
	"time"

	"quantfeed/pkg/securities"
)

// fillForwardScanLimit bounds the closed-session scan so a misconfigured
// calendar cannot spin the stage forever.
const fillForwardScanLimit = 1 << 20

// cloneAt re-stamps a record at a new open time for fill-forward emission.
// Records that cannot be filled forward return nil.
func cloneAt(record securities.Record, t time.Time) securities.Record {
	switch b := record.(type) {
	case *securities.TradeBar:
		return b.CloneAt(t)
	case *securities.QuoteBar:
		return b.CloneAt(t)
	}
	return nil
}

// FillForwardStage fills gaps in the inner sequence at the configured
// resolution's period, honoring the exchange trading calendar, optional
// extended hours and the request's end-time bound. It never fabricates
// records beyond the end bound and never reorders real data.
type FillForwardStage struct {
	inner    Enumerator
	res      securities.Resolution
	hours    *securities.ExchangeHours
	extended bool
	end      time.Time

	last      securities.Record
	buffered  securities.Record
	innerDone bool
}

// NewFillForwardStage wraps an enumerator with time-grid fill-forward.
// Tick-resolution requests must not be wrapped; the stage degrades to a
// pass-through when the resolution has no period.
func NewFillForwardStage(inner Enumerator, res securities.Resolution, hours *securities.ExchangeHours, extended bool, end time.Time) *FillForwardStage {
	return &FillForwardStage{inner: inner, res: res, hours: hours, extended: extended, end: end}
}

func (s *FillForwardStage) Next(ctx context.Context) (securities.Record, bool, error) {
	period := s.res.Period()
	if period <= 0 {
		return s.inner.Next(ctx)
	}

	if s.last == nil {
		record, ok, err := s.inner.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}
		s.last = record
		return record, true, nil
	}

	if s.buffered == nil && !s.innerDone {
		record, ok, err := s.inner.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			s.innerDone = true
		} else {
			s.buffered = record
		}
	}

	nextOpen := s.nextBarOpen(s.last.EndTime().Add(-period), period)
	fillEnd := nextOpen.Add(period)

	if s.buffered != nil {
		if !s.buffered.EndTime().After(fillEnd) || fillEnd.After(s.end) {
			record := s.buffered
			s.buffered = nil
			s.last = record
			return record, true, nil
		}
		if syn := cloneAt(s.last, nextOpen); syn != nil {
			s.last = syn
			return syn, true, nil
		}
		record := s.buffered
		s.buffered = nil
		s.last = record
		return record, true, nil
	}

	// Inner exhausted: keep filling the grid up to the end bound.
	if fillEnd.After(s.end) {
		return nil, false, nil
	}
	syn := cloneAt(s.last, nextOpen)
	if syn == nil {
		return nil, false, nil
	}
	s.last = syn
	return syn, true, nil
}

// nextBarOpen returns the open time of the first tradable slot after the
// slot opening at `open`.
func (s *FillForwardStage) nextBarOpen(open time.Time, period time.Duration) time.Time {
	if s.res == securities.Daily {
		if s.hours == nil {
			return open.AddDate(0, 0, 1)
		}
		return s.hours.NextTradingDay(open)
	}
	t := open.Add(period)
	if s.hours == nil {
		return t
	}
	for i := 0; i < fillForwardScanLimit; i++ {
		if s.hours.IsOpen(t, s.extended) {
			return t
		}
		t = t.Add(period)
	}
	return t
}

// quoteFillStage fills the bid and ask sides of quote bars independently,
// so a one-sided update still carries the last known opposite side. It runs
// before the general time-grid stage.
type quoteFillStage struct {
	inner   Enumerator
	lastBid *securities.Bar
	lastAsk *securities.Bar
}

// NewQuoteFillStage wraps an enumerator with per-side quote fill-forward.
func NewQuoteFillStage(inner Enumerator) Enumerator {
	return &quoteFillStage{inner: inner}
}

func (s *quoteFillStage) Next(ctx context.Context) (securities.Record, bool, error) {
	record, ok, err := s.inner.Next(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	quote, isQuote := record.(*securities.QuoteBar)
	if !isQuote {
		return record, true, nil
	}
	if quote.Bid == nil && s.lastBid != nil {
		bid := *s.lastBid
		quote.Bid = &bid
	}
	if quote.Ask == nil && s.lastAsk != nil {
		ask := *s.lastAsk
		quote.Ask = &ask
	}
	if quote.Bid != nil {
		bid := *quote.Bid
		s.lastBid = &bid
	}
	if quote.Ask != nil {
		ask := *quote.Ask
		s.lastAsk = &ask
	}
	return quote, true, nil
}
