package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"quantfeed/pkg/corporate"
	"quantfeed/pkg/securities"
)

type cursorState int

const (
	stateUninitialized cursorState = iota
	stateInitialized
	stateStreaming
	stateExhausted
	// stateInvalid is entered only from stateUninitialized when the bar
	// type cannot be resolved; it behaves as exhausted.
	stateInvalid
)

// barConverter turns a raw store document into a typed record for a request.
type barConverter func(doc *Document, req *SubscriptionRequest) securities.Record

// converterFor resolves the concrete bar type for a data kind.
func converterFor(kind DataKind) (barConverter, bool) {
	switch kind {
	case KindTrade, KindCoarse:
		return convertTradeBar, true
	case KindQuote:
		return convertQuoteBar, true
	default:
		return nil, false
	}
}

func convertTradeBar(doc *Document, req *SubscriptionRequest) securities.Record {
	return &securities.TradeBar{
		Symbol: req.Symbol,
		Time:   doc.Date.In(req.exchangeLocation()),
		Period: req.Resolution.Period(),
		Open:   doc.Open,
		High:   doc.High,
		Low:    doc.Low,
		Close:  doc.Close,
		Volume: doc.Volume,
	}
}

func convertQuoteBar(doc *Document, req *SubscriptionRequest) securities.Record {
	side := securities.Bar{Open: doc.Open, High: doc.High, Low: doc.Low, Close: doc.Close}
	bid, ask := side, side
	return &securities.QuoteBar{
		Symbol: req.Symbol,
		Time:   doc.Date.In(req.exchangeLocation()),
		Period: req.Resolution.Period(),
		Bid:    &bid,
		Ask:    &ask,
	}
}

// RecordCursor streams one instrument's records for a bounded date range.
// It owns querying the remote store, corporate-action bookkeeping and the
// tradable-date gate. A cursor is single-pass: it initialises on the first
// pull (one blocking store round trip) and can never be reset.
type RecordCursor struct {
	req     *SubscriptionRequest
	store   DocumentStore
	maps    corporate.MapFileProvider
	factors corporate.FactorFileProvider
	bus     *EventBus
	clock   func() time.Time

	state          cursorState
	convert        barConverter
	mapFile        *corporate.MapFile
	factorFile     *corporate.FactorFile
	effectiveStart time.Time
	// delistedAfter is the delisting date bumped by one day so the terminal
	// day still emits.
	delistedAfter time.Time
	dates         *TradableDates
	pastDelisting bool
	docs          DocumentCursor
	previous      securities.Record
}

// CursorDeps bundles the collaborators a record cursor needs.
type CursorDeps struct {
	Store   DocumentStore
	Maps    corporate.MapFileProvider
	Factors corporate.FactorFileProvider
	Bus     *EventBus
	Clock   func() time.Time
}

// NewRecordCursor constructs a cursor in the uninitialized state. No remote
// I/O happens until the first Next call.
func NewRecordCursor(req *SubscriptionRequest, deps CursorDeps) *RecordCursor {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &RecordCursor{
		req:     req,
		store:   deps.Store,
		maps:    deps.Maps,
		factors: deps.Factors,
		bus:     deps.Bus,
		clock:   clock,
	}
}

// Next advances the cursor. The first call performs the blocking remote
// fetch; the caller is expected to run off the primary simulation thread.
func (c *RecordCursor) Next(ctx context.Context) (securities.Record, bool, error) {
	switch c.state {
	case stateUninitialized:
		c.initialize(ctx)
		if c.state != stateInitialized {
			return nil, false, nil
		}
		c.state = stateStreaming
	case stateExhausted, stateInvalid:
		return nil, false, nil
	}

	// Two logically separate drivers advance together: the date gate fires
	// freshness notifications while the document cursor drives emission.
	c.advanceDateGate()

	doc, ok, err := c.docs.Next(ctx)
	if err != nil {
		c.bus.Publish(ReaderErrorEvent{
			Message: fmt.Sprintf("error reading documents for %s", c.req.Symbol),
			Detail:  err.Error(),
		})
		c.state = stateExhausted
		return nil, false, nil
	}
	if !ok {
		c.state = stateExhausted
		return nil, false, nil
	}
	if doc.Date.After(c.delistedAfter) {
		// Past the delisting cutoff the cursor never resumes.
		c.state = stateExhausted
		return nil, false, nil
	}
	record := c.convert(doc, c.req)
	c.scale(record, doc.Date)
	c.previous = record
	return record, true, nil
}

// Reset is unsupported: cursors are single-pass by contract.
func (c *RecordCursor) Reset() {
	panic("feed: RecordCursor cannot be reset, create a new subscription instead")
}

// initialize resolves the bar type, mapping and adjustment data, computes
// the effective start and delisting cutoff, and issues the blocking ranged
// query against the remote store.
func (c *RecordCursor) initialize(ctx context.Context) {
	req := c.req

	convert, ok := converterFor(req.DataKind)
	if !ok {
		c.bus.Publish(InvalidConfigurationEvent{
			Message: fmt.Sprintf("no bar type registered for data kind %q on %s", req.DataKind, req.Symbol),
		})
		c.state = stateInvalid
		return
	}
	c.convert = convert

	c.mapFile = c.resolveMapFile(ctx)
	c.effectiveStart = dateOf(req.Start)

	if req.Symbol.Type.RequiresPriceScaling() {
		c.factorFile = c.resolveFactorFile(ctx)
		if min := c.factorFile.MinDate; !min.IsZero() && min.After(c.effectiveStart) {
			c.effectiveStart = min
			c.bus.Publish(NumericalPrecisionEvent{
				Message: fmt.Sprintf("%s: history before %s is numerically precision-limited by price adjustment factors, starting there instead",
					req.Symbol, min.Format("2006-01-02")),
			})
		}
	} else {
		c.factorFile = corporate.EmptyFactorFile(req.Symbol)
	}

	// Mapping first-date is checked against the already-possibly-clamped
	// start; reversing this order changes which notification fires.
	if first := c.mapFile.FirstDate(); !first.IsZero() && first.After(c.effectiveStart) {
		requested := c.effectiveStart
		c.effectiveStart = first
		c.bus.Publish(StartDateLimitedEvent{
			Message: fmt.Sprintf("%s: no mapping data before %s, moving start from %s",
				req.Symbol, first.Format("2006-01-02"), requested.Format("2006-01-02")),
			Requested: requested,
			Adjusted:  first,
		})
	}

	c.delistedAfter = c.delistingDate().AddDate(0, 0, 1)
	c.dates = req.TradableDates()

	docs, err := c.store.Query(ctx, PathFor(req.Symbol), c.effectiveStart.UTC(), req.EndUTC())
	if err != nil {
		// No retry policy here: the subscription is failed via a
		// reader-error notification and exhausts with zero records.
		c.bus.Publish(ReaderErrorEvent{
			Message: fmt.Sprintf("remote query failed for %s", PathFor(req.Symbol)),
			Detail:  err.Error(),
		})
		c.state = stateExhausted
		return
	}
	c.docs = docs
	c.state = stateInitialized
}

func (c *RecordCursor) resolveMapFile(ctx context.Context) *corporate.MapFile {
	if c.maps == nil {
		return corporate.EmptyMapFile(c.req.Symbol)
	}
	mf, err := c.maps.ResolveMapFile(ctx, c.req.Symbol)
	if err != nil {
		logx.Errorf("feed: resolve map file for %s: %v", c.req.Symbol, err)
		return corporate.EmptyMapFile(c.req.Symbol)
	}
	if mf == nil {
		return corporate.EmptyMapFile(c.req.Symbol)
	}
	return mf
}

func (c *RecordCursor) resolveFactorFile(ctx context.Context) *corporate.FactorFile {
	if c.factors == nil {
		return corporate.EmptyFactorFile(c.req.Symbol)
	}
	ff, err := c.factors.ResolveFactorFile(ctx, c.req.Symbol)
	if err != nil {
		logx.Errorf("feed: resolve factor file for %s: %v", c.req.Symbol, err)
		return corporate.EmptyFactorFile(c.req.Symbol)
	}
	if ff == nil {
		return corporate.EmptyFactorFile(c.req.Symbol)
	}
	return ff
}

// delistingDate derives the last tradable date from security-kind rules:
// contract expiry for derivatives, mapping history otherwise.
func (c *RecordCursor) delistingDate() time.Time {
	if c.req.Symbol.Type.IsDerivative() && !c.req.Symbol.Expiry.IsZero() {
		return dateOf(c.req.Symbol.Expiry)
	}
	return c.mapFile.DelistingDate()
}

// advanceDateGate walks the tradable-date sequence one eligible step,
// firing a new-tradable-date notification for each date before any
// eligibility check. Dates without mapping activity are skipped; past the
// delisting cutoff the gate permanently reports no more dates, and live
// cursors refuse to advance beyond the current wall-clock date.
func (c *RecordCursor) advanceDateGate() (time.Time, bool) {
	if c.pastDelisting {
		return time.Time{}, false
	}
	for {
		next, ok := c.dates.Peek()
		if !ok {
			return time.Time{}, false
		}
		if c.req.IsLive && next.After(dateOf(c.clock())) {
			// Do not consume dates in the future of "today".
			return time.Time{}, false
		}
		c.dates.Next()
		c.bus.Publish(NewTradableDateEvent{Date: next, Previous: c.previous})
		if next.After(c.delistedAfter) {
			c.pastDelisting = true
			return time.Time{}, false
		}
		if !c.mapFile.HasActivity(next) {
			// Not listed on this date: skip, not a stop.
			continue
		}
		return next, true
	}
}

// scale applies split/dividend adjustment to trade bars for eligible kinds.
func (c *RecordCursor) scale(record securities.Record, date time.Time) {
	if !c.req.Symbol.Type.RequiresPriceScaling() {
		return
	}
	bar, ok := record.(*securities.TradeBar)
	if !ok {
		return
	}
	price, split := c.factorFile.FactorsOn(date)
	bar.Scale(price*split, split)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
