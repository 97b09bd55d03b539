package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"quantfeed/pkg/securities"
)

func tradeBarAt(ticker string, open time.Time) *securities.TradeBar {
	return &securities.TradeBar{
		Symbol: securities.NewSymbol(ticker, "usa", securities.Equity),
		Time:   open,
		Period: 24 * time.Hour,
		Close:  100,
	}
}

func TestAggregationStageGroupsByEndTime(t *testing.T) {
	day1 := utcDay(2021, 1, 1)
	day2 := utcDay(2021, 1, 2)
	inner := SliceEnumerator(
		tradeBarAt("msft", day1),
		tradeBarAt("aapl", day1),
		tradeBarAt("aapl", day2),
	)
	universe := securities.NewSymbol("universe", "usa", securities.Base)
	stage := NewAggregationStage(inner, universe)

	ctx := context.Background()
	records, err := Collect(ctx, stage)
	assert.NoError(t, err, "Collect should not error")
	assert.Len(t, records, 2, "two distinct end times yield two collections")

	first := records[0].(*securities.BarCollection)
	assert.Equal(t, universe, first.RecordSymbol(), "collections are keyed by the universe symbol")
	assert.Len(t, first.Data, 2, "first collection groups the simultaneous records")
	assert.Equal(t, "AAPL", first.Data[0].RecordSymbol().Value, "members are sorted by symbol")

	second := records[1].(*securities.BarCollection)
	assert.Len(t, second.Data, 1, "second collection holds the remaining record")
	assert.Equal(t, day2.AddDate(0, 0, 1), second.EndTime(), "collection time is the shared end time")
}

func TestAggregationStageEmpty(t *testing.T) {
	stage := NewAggregationStage(SliceEnumerator(), securities.NewSymbol("u", "usa", securities.Base))
	_, ok, err := stage.Next(context.Background())
	assert.NoError(t, err, "Next should not error")
	assert.False(t, ok, "an empty inner sequence yields no collections")
}
