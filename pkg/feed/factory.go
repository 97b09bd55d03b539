package feed

import (
	"errors"
	"fmt"
	"time"

	"quantfeed/pkg/corporate"
	"quantfeed/pkg/securities"
)

// ErrNoTradableDates marks a plain-instrument request whose tradable-date
// sequence is empty. This is a configuration error, not retryable; no
// subscription is created for it.
var ErrNoTradableDates = errors.New("feed: subscription request has no tradable dates")

// EnumeratorFactory selects, per subscription request, which source and
// cursor combination to construct.
type EnumeratorFactory struct {
	store   DocumentStore
	maps    corporate.MapFileProvider
	factors corporate.FactorFileProvider
	bus     *EventBus
	clock   func() time.Time
}

// NewEnumeratorFactory binds the factory to its collaborators.
func NewEnumeratorFactory(store DocumentStore, maps corporate.MapFileProvider, factors corporate.FactorFileProvider, bus *EventBus, clock func() time.Time) *EnumeratorFactory {
	if clock == nil {
		clock = time.Now
	}
	return &EnumeratorFactory{store: store, maps: maps, factors: factors, bus: bus, clock: clock}
}

// Create builds the raw enumerator for a request. workerScheduled reports
// whether the result should be pumped by the external scheduler; manually
// curated universes return false because their data is injected
// synchronously by the calling thread.
func (f *EnumeratorFactory) Create(req *SubscriptionRequest) (enumerator Enumerator, workerScheduled bool, err error) {
	if req.IsUniverse && req.Universe != nil {
		switch req.Universe.Kind {
		case UniverseUserDefined:
			return NewUserDefinedSource(req, f.clock), false, nil
		case UniverseTimeTriggered:
			return newTimeTriggeredSource(req, f.clock), true, nil
		case UniverseCoarse:
			return f.newCoarseSource(req), true, nil
		case UniverseOptionChain, UniverseFutureChain:
			return f.newChainSource(req), true, nil
		default:
			return NewRecordCursor(req, f.deps()), true, nil
		}
	}

	if !req.HasTradableDates() {
		f.bus.Publish(InvalidConfigurationEvent{
			Message: fmt.Sprintf("no tradable dates for %s between %s and %s, the subscription was not created",
				req.Symbol, req.Start.Format("2006-01-02"), req.End.Format("2006-01-02")),
		})
		return nil, false, ErrNoTradableDates
	}
	return NewRecordCursor(req, f.deps()), true, nil
}

// newCoarseSource aggregates daily summary cursors across universe members
// into per-date collections instead of using the standard cursor directly.
func (f *EnumeratorFactory) newCoarseSource(req *SubscriptionRequest) Enumerator {
	cursors := make([]Enumerator, 0, len(req.Universe.Members))
	for _, member := range req.Universe.Members {
		cursors = append(cursors, NewRecordCursor(memberRequest(req, member, KindCoarse), f.deps()))
	}
	return NewAggregationStage(newMergeEnumerator(cursors...), req.Universe.Symbol)
}

// newChainSource streams option/futures chain members through cursors that
// carry the full map-file/price-adjustment context, applies session
// filtering at the instrument level and aggregates into chain collections.
func (f *EnumeratorFactory) newChainSource(req *SubscriptionRequest) Enumerator {
	hours := securities.HoursForMarket(req.Symbol.Market)
	cursors := make([]Enumerator, 0, len(req.Universe.Members))
	for _, member := range req.Universe.Members {
		inner := NewRecordCursor(memberRequest(req, member, req.DataKind), f.deps())
		cursors = append(cursors, NewFilterStage(inner, req.EndUTC(), SessionFilter(hours, req.ExtendedHours)))
	}
	return NewAggregationStage(newMergeEnumerator(cursors...), req.Universe.Symbol)
}

func (f *EnumeratorFactory) deps() CursorDeps {
	return CursorDeps{Store: f.store, Maps: f.maps, Factors: f.factors, Bus: f.bus, Clock: f.clock}
}
