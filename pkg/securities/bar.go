package securities

import (
	"sort"
	"time"
)

// Record is the unit emitted by every enumerator in the pipeline: a typed,
// time-stamped market datum for one instrument, or a collection of them.
type Record interface {
	// RecordSymbol identifies the instrument (or universe) the record belongs to.
	RecordSymbol() Symbol
	// EndTime is the instant the record becomes known to a consumer.
	// Enumerators emit records in non-decreasing EndTime order.
	EndTime() time.Time
}

// TradeBar is an OHLCV aggregate over one resolution period.
type TradeBar struct {
	Symbol Symbol
	// Time is the bar open in exchange time; EndTime = Time + Period.
	Time   time.Time
	Period time.Duration
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

func (b *TradeBar) RecordSymbol() Symbol { return b.Symbol }

func (b *TradeBar) EndTime() time.Time { return b.Time.Add(b.Period) }

// Scale multiplies prices by factor and divides volume by the split factor,
// producing split/dividend adjusted values.
func (b *TradeBar) Scale(priceFactor, splitFactor float64) {
	if priceFactor > 0 && priceFactor != 1 {
		b.Open *= priceFactor
		b.High *= priceFactor
		b.Low *= priceFactor
		b.Close *= priceFactor
	}
	if splitFactor > 0 && splitFactor != 1 {
		b.Volume /= splitFactor
	}
}

// CloneAt returns a copy of the bar re-stamped at the given open time, used
// by fill-forward to repeat the last known value into an empty slot.
func (b *TradeBar) CloneAt(t time.Time) *TradeBar {
	clone := *b
	clone.Time = t
	clone.Volume = 0
	return &clone
}

// Bar holds one side (bid or ask) of a quote bar.
type Bar struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// QuoteBar carries independently-sampled bid and ask bars for one period.
// Either side may be nil when the feed had no updates for it.
type QuoteBar struct {
	Symbol  Symbol
	Time    time.Time
	Period  time.Duration
	Bid     *Bar
	Ask     *Bar
	BidSize float64
	AskSize float64
}

func (q *QuoteBar) RecordSymbol() Symbol { return q.Symbol }

func (q *QuoteBar) EndTime() time.Time { return q.Time.Add(q.Period) }

// CloneAt returns a copy of the quote bar re-stamped at the given open time.
func (q *QuoteBar) CloneAt(t time.Time) *QuoteBar {
	clone := *q
	clone.Time = t
	clone.BidSize = 0
	clone.AskSize = 0
	if q.Bid != nil {
		bid := *q.Bid
		clone.Bid = &bid
	}
	if q.Ask != nil {
		ask := *q.Ask
		clone.Ask = &ask
	}
	return &clone
}

// BarCollection groups point records that share an emission time, keyed by
// the owning universe symbol. Universe sources emit collections so the
// engine receives one selection payload per time step.
type BarCollection struct {
	Symbol Symbol
	Time   time.Time
	Data   []Record
}

func (c *BarCollection) RecordSymbol() Symbol { return c.Symbol }

func (c *BarCollection) EndTime() time.Time { return c.Time }

// Add appends a record keeping Data sorted by symbol value for stable output.
func (c *BarCollection) Add(r Record) {
	c.Data = append(c.Data, r)
	sort.SliceStable(c.Data, func(i, j int) bool {
		return c.Data[i].RecordSymbol().Value < c.Data[j].RecordSymbol().Value
	})
}
