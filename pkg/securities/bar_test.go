package securities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTradeBarEndTime(t *testing.T) {
	open := time.Date(2021, 6, 9, 0, 0, 0, 0, time.UTC)
	bar := &TradeBar{Time: open, Period: 24 * time.Hour}
	assert.Equal(t, open.Add(24*time.Hour), bar.EndTime(), "end time should be open plus period")
}

func TestTradeBarScale(t *testing.T) {
	bar := &TradeBar{Open: 100, High: 110, Low: 90, Close: 105, Volume: 1000}
	bar.Scale(0.5, 0.5)
	assert.Equal(t, 50.0, bar.Open, "open should be halved")
	assert.Equal(t, 55.0, bar.High, "high should be halved")
	assert.Equal(t, 45.0, bar.Low, "low should be halved")
	assert.Equal(t, 52.5, bar.Close, "close should be halved")
	assert.Equal(t, 2000.0, bar.Volume, "volume should be doubled by a 2:1 split")
}

func TestTradeBarScaleUnitFactors(t *testing.T) {
	bar := &TradeBar{Open: 100, High: 110, Low: 90, Close: 105, Volume: 1000}
	bar.Scale(1, 1)
	assert.Equal(t, 100.0, bar.Open, "unit factors should leave prices unchanged")
	assert.Equal(t, 1000.0, bar.Volume, "unit factors should leave volume unchanged")
}

func TestTradeBarCloneAt(t *testing.T) {
	open := time.Date(2021, 6, 9, 0, 0, 0, 0, time.UTC)
	bar := &TradeBar{Time: open, Period: 24 * time.Hour, Close: 105, Volume: 1000}
	clone := bar.CloneAt(open.AddDate(0, 0, 1))
	assert.Equal(t, open.AddDate(0, 0, 1), clone.Time, "clone should be re-stamped")
	assert.Equal(t, 105.0, clone.Close, "clone should keep prices")
	assert.Equal(t, 0.0, clone.Volume, "clone should carry no volume")
	assert.Equal(t, 1000.0, bar.Volume, "original should be untouched")
}

func TestQuoteBarCloneAt(t *testing.T) {
	open := time.Date(2021, 6, 9, 9, 30, 0, 0, time.UTC)
	quote := &QuoteBar{
		Time:    open,
		Period:  time.Minute,
		Bid:     &Bar{Close: 99},
		BidSize: 5,
	}
	clone := quote.CloneAt(open.Add(time.Minute))
	assert.Equal(t, 99.0, clone.Bid.Close, "clone should keep the bid side")
	assert.Nil(t, clone.Ask, "absent ask side stays absent")
	assert.Equal(t, 0.0, clone.BidSize, "clone should carry no size")
	clone.Bid.Close = 42
	assert.Equal(t, 99.0, quote.Bid.Close, "clone must not alias the original bid")
}

func TestBarCollection(t *testing.T) {
	at := time.Date(2021, 6, 9, 0, 0, 0, 0, time.UTC)
	coll := &BarCollection{Symbol: NewSymbol("universe", "usa", Base), Time: at}
	coll.Add(&TradeBar{Symbol: NewSymbol("msft", "usa", Equity), Time: at})
	coll.Add(&TradeBar{Symbol: NewSymbol("aapl", "usa", Equity), Time: at})
	assert.Equal(t, at, coll.EndTime(), "collection end time is its emission time")
	assert.Len(t, coll.Data, 2, "collection should hold both records")
	assert.Equal(t, "AAPL", coll.Data[0].RecordSymbol().Value, "members should be sorted by symbol")
	assert.Equal(t, "MSFT", coll.Data[1].RecordSymbol().Value, "members should be sorted by symbol")
}
