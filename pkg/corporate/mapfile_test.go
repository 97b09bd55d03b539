package corporate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"quantfeed/pkg/securities"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMapFileDates(t *testing.T) {
	sym := securities.NewSymbol("goog", "usa", securities.Equity)
	mf := NewMapFile(sym, []MapRow{
		{Date: day(2014, 4, 2), Ticker: "GOOGL"},
		{Date: day(2004, 8, 19), Ticker: "GOOG"},
	})

	assert.False(t, mf.IsEmpty(), "populated map file is not the empty sentinel")
	assert.Equal(t, day(2004, 8, 19), mf.FirstDate(), "first date should be the earliest row after sorting")
	assert.Equal(t, day(2014, 4, 2), mf.DelistingDate(), "delisting date should be the last row")
}

func TestMapFileHasActivity(t *testing.T) {
	sym := securities.NewSymbol("abc", "usa", securities.Equity)
	mf := NewMapFile(sym, []MapRow{
		{Date: day(2020, 1, 2), Ticker: "ABC"},
		{Date: day(2020, 6, 30), Ticker: "ABC"},
	})

	assert.False(t, mf.HasActivity(day(2020, 1, 1)), "before listing there is no activity")
	assert.True(t, mf.HasActivity(day(2020, 1, 2)), "listing date has activity")
	assert.True(t, mf.HasActivity(day(2020, 3, 15)), "mid-range date has activity")
	assert.True(t, mf.HasActivity(day(2020, 6, 30)), "delisting date has activity")
	assert.False(t, mf.HasActivity(day(2020, 7, 1)), "after delisting there is no activity")
}

func TestMapFileTickerOn(t *testing.T) {
	sym := securities.NewSymbol("meta", "usa", securities.Equity)
	mf := NewMapFile(sym, []MapRow{
		{Date: day(2012, 5, 18), Ticker: "FB"},
		{Date: day(2022, 6, 9), Ticker: "META"},
	})

	assert.Equal(t, "FB", mf.TickerOn(day(2010, 1, 1)), "dates before the first row map to the first ticker")
	assert.Equal(t, "FB", mf.TickerOn(day(2015, 1, 1)), "mid-history date uses the row in force")
	assert.Equal(t, "META", mf.TickerOn(day(2022, 6, 9)), "rename date uses the new ticker")
	assert.Equal(t, "META", mf.TickerOn(day(2023, 1, 1)), "dates after the last row keep the final ticker")
}

func TestEmptyMapFile(t *testing.T) {
	sym := securities.NewSymbol("xyz", "usa", securities.Equity)
	mf := EmptyMapFile(sym)

	assert.True(t, mf.IsEmpty(), "sentinel should report empty")
	assert.True(t, mf.FirstDate().IsZero(), "sentinel has no first date")
	assert.Equal(t, 9999, mf.DelistingDate().Year(), "sentinel delisting date is open-ended")
	assert.True(t, mf.HasActivity(day(1980, 1, 1)), "sentinel has activity on every date")
	assert.Equal(t, "XYZ", mf.TickerOn(day(2020, 1, 1)), "sentinel resolves to the symbol's own ticker")
}
