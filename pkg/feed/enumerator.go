package feed

import (
	"context"

	"quantfeed/pkg/securities"
)

// Enumerator yields a finite, forward-only sequence of records in
// non-decreasing EndTime order. Next returns ok=false once the sequence is
// exhausted; enumerators are not restartable.
type Enumerator interface {
	Next(ctx context.Context) (securities.Record, bool, error)
}

// EnumeratorFunc adapts a function to the Enumerator interface.
type EnumeratorFunc func(ctx context.Context) (securities.Record, bool, error)

func (f EnumeratorFunc) Next(ctx context.Context) (securities.Record, bool, error) {
	return f(ctx)
}

// SliceEnumerator yields the supplied records in order.
func SliceEnumerator(records ...securities.Record) Enumerator {
	idx := 0
	return EnumeratorFunc(func(ctx context.Context) (securities.Record, bool, error) {
		if idx >= len(records) {
			return nil, false, nil
		}
		r := records[idx]
		idx++
		return r, true, nil
	})
}

// Collect drains an enumerator into a slice. Intended for tests and tooling;
// production consumers pump records one at a time.
func Collect(ctx context.Context, e Enumerator) ([]securities.Record, error) {
	var out []securities.Record
	for {
		r, ok, err := e.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, r)
	}
}

// lazyEnumerator defers construction of the inner enumerator to the first
// pull, so the blocking work of building it runs on the consumer's worker
// rather than on the coordinator's dispatch path.
type lazyEnumerator struct {
	build func(ctx context.Context) (Enumerator, error)
	inner Enumerator
	done  bool
}

// NewLazyEnumerator wraps a constructor so it executes on first Next.
func NewLazyEnumerator(build func(ctx context.Context) (Enumerator, error)) Enumerator {
	return &lazyEnumerator{build: build}
}

func (l *lazyEnumerator) Next(ctx context.Context) (securities.Record, bool, error) {
	if l.done {
		return nil, false, nil
	}
	if l.inner == nil {
		inner, err := l.build(ctx)
		if err != nil {
			l.done = true
			return nil, false, err
		}
		l.inner = inner
	}
	return l.inner.Next(ctx)
}
