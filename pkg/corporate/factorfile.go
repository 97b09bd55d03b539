package corporate

import (
	"sort"
	"time"

	"quantfeed/pkg/securities"
)

// FactorRow holds the cumulative scale factors in force up to and including
// Date: bars dated on or before Date are multiplied by PriceFactor*SplitFactor
// to express them in today's terms.
type FactorRow struct {
	Date        time.Time
	PriceFactor float64
	SplitFactor float64
}

// FactorFile is the split/dividend adjustment history of one instrument.
// MinDate, when set, marks the earliest date for which the cumulative
// factors retain numerical precision.
type FactorFile struct {
	Symbol  securities.Symbol
	Rows    []FactorRow
	MinDate time.Time
	empty   bool
}

// NewFactorFile builds a factor file from rows, sorting them by date.
func NewFactorFile(symbol securities.Symbol, rows []FactorRow, minDate time.Time) *FactorFile {
	sorted := make([]FactorRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return &FactorFile{Symbol: symbol, Rows: sorted, MinDate: minDate}
}

// EmptyFactorFile is the no-op fallback: unit factors, no minimum date.
func EmptyFactorFile(symbol securities.Symbol) *FactorFile {
	return &FactorFile{Symbol: symbol, empty: true}
}

// IsEmpty reports whether this is the fallback sentinel.
func (f *FactorFile) IsEmpty() bool { return f.empty }

// FactorsOn returns the price and split factors applicable to bars dated on
// the given date. Dates past the last row are already in current terms.
func (f *FactorFile) FactorsOn(date time.Time) (priceFactor, splitFactor float64) {
	if f.empty || len(f.Rows) == 0 {
		return 1, 1
	}
	for _, row := range f.Rows {
		if !date.After(row.Date) {
			return row.PriceFactor, row.SplitFactor
		}
	}
	return 1, 1
}
