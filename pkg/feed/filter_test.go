package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"quantfeed/pkg/securities"
)

func TestSessionFilterDailyBars(t *testing.T) {
	hours := securities.HoursForMarket("usa")
	filter := SessionFilter(hours, false)
	end := utcDay(2021, 7, 1)

	wednesday := tradeBarAt("spy", utcDay(2021, 6, 9))
	assert.True(t, filter.Accept(wednesday, end), "a weekday daily bar passes")

	saturday := tradeBarAt("spy", utcDay(2021, 6, 12))
	assert.False(t, filter.Accept(saturday, end), "a weekend daily bar is suppressed")
}

func TestSessionFilterEndBound(t *testing.T) {
	hours := securities.HoursForMarket("usa")
	filter := SessionFilter(hours, false)
	end := utcDay(2021, 6, 10)

	bar := tradeBarAt("spy", utcDay(2021, 6, 10))
	assert.False(t, filter.Accept(bar, end), "bars ending after the request end are suppressed")
}

func TestSessionFilterIntradayBars(t *testing.T) {
	hours := securities.HoursForMarket("usa")
	loc := hours.Location()
	filter := SessionFilter(hours, false)
	end := utcDay(2021, 7, 1)

	inSession := &securities.TradeBar{
		Symbol: securities.NewSymbol("spy", "usa", securities.Equity),
		Time:   time.Date(2021, 6, 9, 10, 0, 0, 0, loc),
		Period: time.Minute,
	}
	assert.True(t, filter.Accept(inSession, end), "an in-session minute bar passes")

	preMarket := &securities.TradeBar{
		Symbol: securities.NewSymbol("spy", "usa", securities.Equity),
		Time:   time.Date(2021, 6, 9, 7, 0, 0, 0, loc),
		Period: time.Minute,
	}
	assert.False(t, filter.Accept(preMarket, end), "a pre-market minute bar is suppressed")

	extended := SessionFilter(hours, true)
	assert.True(t, extended.Accept(preMarket, end), "extended hours admit pre-market bars")
}

func TestFilterStageAppliesAllFilters(t *testing.T) {
	day1 := utcDay(2021, 6, 9)
	day2 := utcDay(2021, 6, 10)
	inner := SliceEnumerator(tradeBarAt("spy", day1), tradeBarAt("spy", day2))

	rejectDay2 := SecurityFilterFunc(func(record securities.Record, end time.Time) bool {
		return !record.(*securities.TradeBar).Time.Equal(day2)
	})
	stage := NewFilterStage(inner, utcDay(2021, 7, 1), rejectDay2, nil)

	records, err := Collect(context.Background(), stage)
	assert.NoError(t, err, "Collect should not error")
	assert.Len(t, records, 1, "the rejected record is dropped, nil filters are ignored")
	assert.Equal(t, day1, records[0].(*securities.TradeBar).Time, "the surviving record is unchanged")
}
