package feed

import (
	"context"

	"quantfeed/pkg/securities"
)

// AggregationStage groups consecutive point records that share an emission
// time into a single BarCollection keyed by the owning universe symbol.
// Ordering is preserved; no record is duplicated or dropped.
type AggregationStage struct {
	inner    Enumerator
	universe securities.Symbol
	pending  securities.Record
	done     bool
}

// NewAggregationStage wraps an enumerator with collection aggregation.
func NewAggregationStage(inner Enumerator, universe securities.Symbol) *AggregationStage {
	return &AggregationStage{inner: inner, universe: universe}
}

func (s *AggregationStage) Next(ctx context.Context) (securities.Record, bool, error) {
	if s.done && s.pending == nil {
		return nil, false, nil
	}

	var group *securities.BarCollection
	for {
		record := s.pending
		s.pending = nil
		if record == nil {
			if s.done {
				break
			}
			r, ok, err := s.inner.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				s.done = true
				break
			}
			record = r
		}
		if group == nil {
			group = &securities.BarCollection{Symbol: s.universe, Time: record.EndTime()}
		} else if !record.EndTime().Equal(group.Time) {
			// First record of the next time step; hold it for the next pull.
			s.pending = record
			return group, true, nil
		}
		group.Add(record)
	}
	if group == nil {
		return nil, false, nil
	}
	return group, true, nil
}
