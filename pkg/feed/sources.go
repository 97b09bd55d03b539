package feed

import (
	"context"
	"sync"
	"time"

	"quantfeed/pkg/securities"
)

// timeTriggeredSource emits one empty selection collection per tradable
// date, keyed off the time provider instead of the remote store. It backs
// universes that need no underlying market data.
type timeTriggeredSource struct {
	req   *SubscriptionRequest
	dates *TradableDates
	clock func() time.Time
}

func newTimeTriggeredSource(req *SubscriptionRequest, clock func() time.Time) *timeTriggeredSource {
	return &timeTriggeredSource{req: req, dates: req.TradableDates(), clock: clock}
}

func (s *timeTriggeredSource) Next(ctx context.Context) (securities.Record, bool, error) {
	next, ok := s.dates.Peek()
	if !ok {
		return nil, false, nil
	}
	if s.req.IsLive && next.After(dateOf(s.clock())) {
		return nil, false, nil
	}
	s.dates.Next()
	return &securities.BarCollection{
		Symbol: s.req.Universe.Symbol,
		Time:   next.In(s.req.exchangeLocation()),
	}, true, nil
}

// UserDefinedSource streams a manually-curated universe. Membership can be
// changed at any time by the calling thread via Add/Remove, which is why
// this source is handed out undecorated and never scheduled onto a worker:
// buffering it would race with those synchronous injections.
type UserDefinedSource struct {
	mu      sync.Mutex
	req     *SubscriptionRequest
	dates   *TradableDates
	clock   func() time.Time
	members []securities.Symbol
}

// NewUserDefinedSource builds a user-defined universe source seeded with
// the universe's current members.
func NewUserDefinedSource(req *SubscriptionRequest, clock func() time.Time) *UserDefinedSource {
	members := make([]securities.Symbol, len(req.Universe.Members))
	copy(members, req.Universe.Members)
	return &UserDefinedSource{req: req, dates: req.TradableDates(), clock: clock, members: members}
}

// Add inserts symbols into the universe effective from the next emission.
func (s *UserDefinedSource) Add(symbols ...securities.Symbol) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append(s.members, symbols...)
}

// Remove drops a symbol from the universe.
func (s *UserDefinedSource) Remove(symbol securities.Symbol) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.members[:0]
	for _, m := range s.members {
		if m != symbol {
			kept = append(kept, m)
		}
	}
	s.members = kept
}

func (s *UserDefinedSource) Next(ctx context.Context) (securities.Record, bool, error) {
	next, ok := s.dates.Peek()
	if !ok {
		return nil, false, nil
	}
	if s.req.IsLive && next.After(dateOf(s.clock())) {
		return nil, false, nil
	}
	s.dates.Next()

	s.mu.Lock()
	members := make([]securities.Symbol, len(s.members))
	copy(members, s.members)
	s.mu.Unlock()

	collection := &securities.BarCollection{
		Symbol: s.req.Universe.Symbol,
		Time:   next.In(s.req.exchangeLocation()),
	}
	for _, member := range members {
		collection.Add(&securities.TradeBar{
			Symbol: member,
			Time:   collection.Time,
		})
	}
	return collection, true, nil
}

// mergeEnumerator interleaves multiple ordered enumerators into one ordered
// sequence, picking the earliest buffered record on each pull. Input order
// breaks ties so merging is stable.
type mergeEnumerator struct {
	inners   []Enumerator
	buffered []securities.Record
	done     []bool
}

func newMergeEnumerator(inners ...Enumerator) *mergeEnumerator {
	return &mergeEnumerator{
		inners:   inners,
		buffered: make([]securities.Record, len(inners)),
		done:     make([]bool, len(inners)),
	}
}

func (m *mergeEnumerator) Next(ctx context.Context) (securities.Record, bool, error) {
	best := -1
	for i := range m.inners {
		if m.buffered[i] == nil && !m.done[i] {
			record, ok, err := m.inners[i].Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				m.done[i] = true
				continue
			}
			m.buffered[i] = record
		}
		if m.buffered[i] == nil {
			continue
		}
		if best < 0 || m.buffered[i].EndTime().Before(m.buffered[best].EndTime()) {
			best = i
		}
	}
	if best < 0 {
		return nil, false, nil
	}
	record := m.buffered[best]
	m.buffered[best] = nil
	return record, true, nil
}

// memberRequest derives a plain-instrument request for one universe member.
func memberRequest(req *SubscriptionRequest, member securities.Symbol, kind DataKind) *SubscriptionRequest {
	derived := *req
	derived.Symbol = member
	derived.IsUniverse = false
	derived.Universe = nil
	derived.DataKind = kind
	derived.Dates = req.TradableDates().Clone()
	derived.DatesProvider = nil
	return &derived
}
