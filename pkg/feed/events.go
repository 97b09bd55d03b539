package feed

import (
	"sync"
	"time"

	"quantfeed/pkg/securities"
)

// EventKind discriminates pipeline notifications.
type EventKind string

const (
	EventInvalidConfiguration EventKind = "invalid_configuration"
	EventNumericalPrecision   EventKind = "numerical_precision_limited"
	EventStartDateLimited     EventKind = "start_date_limited"
	EventReaderError          EventKind = "reader_error"
	EventNewTradableDate      EventKind = "new_tradable_date"
)

// Event is a typed notification pushed by the pipeline to registered
// observers. None of these abort the owning process.
type Event interface {
	Kind() EventKind
}

// InvalidConfigurationEvent reports a subscription-fatal configuration error.
type InvalidConfigurationEvent struct {
	Message string
}

func (InvalidConfigurationEvent) Kind() EventKind { return EventInvalidConfiguration }

// NumericalPrecisionEvent reports that history was truncated because the
// adjustment factors lose precision before the cited date.
type NumericalPrecisionEvent struct {
	Message string
}

func (NumericalPrecisionEvent) Kind() EventKind { return EventNumericalPrecision }

// StartDateLimitedEvent reports a start date clamped forward by mapping data.
type StartDateLimitedEvent struct {
	Message   string
	Requested time.Time
	Adjusted  time.Time
}

func (StartDateLimitedEvent) Kind() EventKind { return EventStartDateLimited }

// ReaderErrorEvent reports a non-fatal read failure with optional detail.
type ReaderErrorEvent struct {
	Message string
	Detail  string
}

func (ReaderErrorEvent) Kind() EventKind { return EventReaderError }

// NewTradableDateEvent fires when the cursor's date gate advances to a new
// tradable date. Previous carries the last emitted record, if any.
type NewTradableDateEvent struct {
	Date     time.Time
	Previous securities.Record
}

func (NewTradableDateEvent) Kind() EventKind { return EventNewTradableDate }

// EventBus delivers events synchronously and in subscription order at the
// point of occurrence. A nil bus drops events.
type EventBus struct {
	mu   sync.Mutex
	subs []func(Event)
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus { return &EventBus{} }

// Subscribe registers an observer for all subsequent events.
func (b *EventBus) Subscribe(fn func(Event)) {
	if b == nil || fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers the event to every observer before returning.
func (b *EventBus) Publish(e Event) {
	if b == nil || e == nil {
		return
	}
	b.mu.Lock()
	subs := make([]func(Event), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(e)
	}
}
