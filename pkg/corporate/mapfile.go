package corporate

import (
	"sort"
	"time"

	"quantfeed/pkg/securities"
)

// maxDate is the open-ended sentinel used when a table imposes no bound.
var maxDate = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// MapRow records the ticker an instrument traded under starting at Date.
type MapRow struct {
	Date   time.Time
	Ticker string
}

// MapFile is the symbol-change history of one instrument: an ordered list of
// (date, ticker) rows. The first row is the listing date, the last row the
// delisting date.
type MapFile struct {
	Symbol securities.Symbol
	Rows   []MapRow
	empty  bool
}

// NewMapFile builds a map file from rows, sorting them by date.
func NewMapFile(symbol securities.Symbol, rows []MapRow) *MapFile {
	sorted := make([]MapRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return &MapFile{Symbol: symbol, Rows: sorted}
}

// EmptyMapFile is the no-op fallback used when mapping resolution yields
// nothing: every date is in range and the ticker never changes.
func EmptyMapFile(symbol securities.Symbol) *MapFile {
	return &MapFile{Symbol: symbol, empty: true}
}

// IsEmpty reports whether this is the fallback sentinel.
func (m *MapFile) IsEmpty() bool { return m.empty }

// FirstDate returns the listing date, or the zero time for the empty sentinel.
func (m *MapFile) FirstDate() time.Time {
	if m.empty || len(m.Rows) == 0 {
		return time.Time{}
	}
	return m.Rows[0].Date
}

// DelistingDate returns the last mapped date, or the open-ended sentinel.
func (m *MapFile) DelistingDate() time.Time {
	if m.empty || len(m.Rows) == 0 {
		return maxDate
	}
	return m.Rows[len(m.Rows)-1].Date
}

// HasActivity reports whether the instrument was listed on the given date.
func (m *MapFile) HasActivity(date time.Time) bool {
	if m.empty || len(m.Rows) == 0 {
		return true
	}
	return !date.Before(m.FirstDate()) && !date.After(m.DelistingDate())
}

// TickerOn resolves the ticker the instrument traded under on the given
// date. Dates before the first row map to the first ticker.
func (m *MapFile) TickerOn(date time.Time) string {
	if m.empty || len(m.Rows) == 0 {
		return m.Symbol.Value
	}
	ticker := m.Rows[0].Ticker
	for _, row := range m.Rows {
		if row.Date.After(date) {
			break
		}
		ticker = row.Ticker
	}
	return ticker
}
