package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"quantfeed/pkg/corporate"
	"quantfeed/pkg/securities"
)

// ErrNotStarted is returned when subscriptions are requested before Start.
var ErrNotStarted = errors.New("feed: coordinator is not started")

// Subscription is a ready-to-pump stream handed to the external scheduler.
type Subscription struct {
	Request    *SubscriptionRequest
	Enumerator Enumerator
	// WorkerScheduled reports whether the external scheduler should drain
	// this subscription on a worker. User-defined universes are pumped by
	// the calling thread instead.
	WorkerScheduled bool
	// UserDefined exposes the injection surface for manually-curated
	// universes; nil otherwise.
	UserDefined *UserDefinedSource
}

// Collaborators bundles the external dependencies the coordinator binds at
// start time.
type Collaborators struct {
	Store       DocumentStore
	MapFiles    corporate.MapFileProvider
	FactorFiles corporate.FactorFileProvider
	// Bus is the notification channel to the host's result sink.
	Bus   *EventBus
	Clock func() time.Time
}

// SubscriptionCoordinator orchestrates factory invocation, applies the
// decorator chain and owns the lifecycle of all active subscriptions. One
// cancellation signal is shared by every subscription created under one
// coordinator lifetime; consumers stop pulling cooperatively once it fires.
type SubscriptionCoordinator struct {
	mu      sync.Mutex
	active  bool
	ctx     context.Context
	cancel  context.CancelFunc
	factory *EnumeratorFactory
	bus     *EventBus
	subs    []*Subscription
}

// NewSubscriptionCoordinator constructs an inactive coordinator.
func NewSubscriptionCoordinator() *SubscriptionCoordinator {
	return &SubscriptionCoordinator{}
}

// Start (re)initializes the coordinator against the given collaborators and
// creates a fresh cancellation signal. Reconfiguration is whole-sale: call
// Stop and Start again, there is no partial update.
func (c *SubscriptionCoordinator) Start(deps Collaborators) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.bus = deps.Bus
	c.factory = NewEnumeratorFactory(deps.Store, deps.MapFiles, deps.FactorFiles, deps.Bus, deps.Clock)
	c.subs = nil
	c.active = true
}

// Context exposes the shared cancellation signal for this coordinator
// lifetime. The external scheduler checks it cooperatively; cursors do not
// poll it during a blocking fetch.
func (c *SubscriptionCoordinator) Context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Active reports whether the coordinator is between Start and Stop.
func (c *SubscriptionCoordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// CreateSubscription dispatches the request to universe or instrument
// handling, applies the decorator chain, and returns a ready subscription.
// It returns (nil, nil) on the no-tradable-dates fast-fail path: the error
// was already reported to the result sink and no subscription exists.
func (c *SubscriptionCoordinator) CreateSubscription(req *SubscriptionRequest) (*Subscription, error) {
	c.mu.Lock()
	factory, active := c.factory, c.active
	c.mu.Unlock()
	if !active || factory == nil {
		return nil, ErrNotStarted
	}

	enumerator, scheduled, err := factory.Create(req)
	if err != nil {
		if errors.Is(err, ErrNoTradableDates) {
			return nil, nil
		}
		return nil, err
	}

	sub := &Subscription{Request: req, WorkerScheduled: scheduled}
	if source, ok := enumerator.(*UserDefinedSource); ok {
		// Undecorated by design: manual insertions happen at arbitrary
		// times on the calling thread.
		sub.UserDefined = source
		sub.Enumerator = source
	} else {
		sub.Enumerator = c.decorate(enumerator, req)
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub, nil
}

// decorate applies the transform stages in fixed order: aggregation, then
// fill-forward, then filtering.
func (c *SubscriptionCoordinator) decorate(enumerator Enumerator, req *SubscriptionRequest) Enumerator {
	if req.IsUniverse && req.Universe != nil && req.AggregateCollections && req.Universe.Kind == UniverseStandard {
		// Coarse and chain sources aggregate internally.
		enumerator = NewAggregationStage(enumerator, req.Universe.Symbol)
	}
	if req.FillForward && req.Resolution != securities.Tick {
		hours := securities.HoursForMarket(req.Symbol.Market)
		if req.DataKind == KindQuote {
			enumerator = NewQuoteFillStage(enumerator)
		}
		enumerator = NewFillForwardStage(enumerator, req.Resolution, hours, req.ExtendedHours, req.End)
	}
	if req.Filtered {
		hours := securities.HoursForMarket(req.Symbol.Market)
		enumerator = NewFilterStage(enumerator, req.End, SessionFilter(hours, req.ExtendedHours), req.Filter)
	}
	return enumerator
}

// Subscriptions returns the subscriptions created in this lifetime.
func (c *SubscriptionCoordinator) Subscriptions() []*Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Subscription, len(c.subs))
	copy(out, c.subs)
	return out
}

// RemoveSubscription is deliberately a no-op: per-subscription teardown is
// the external scheduler's responsibility, the coordinator only owns the
// shared cancellation signal.
func (c *SubscriptionCoordinator) RemoveSubscription(*Subscription) {}

// Stop signals cancellation exactly once and marks the coordinator
// inactive. Calling it again is a no-op.
func (c *SubscriptionCoordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.active = false
	if c.cancel != nil {
		c.cancel()
	}
}
