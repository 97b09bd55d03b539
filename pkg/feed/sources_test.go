package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"quantfeed/pkg/securities"
)

func universeRequest(kind UniverseKind, members ...securities.Symbol) *SubscriptionRequest {
	universe := securities.NewSymbol("universe", "usa", securities.Base)
	return &SubscriptionRequest{
		Symbol:     universe,
		Resolution: securities.Daily,
		DataKind:   KindTrade,
		Start:      utcDay(2021, 1, 1),
		End:        utcDay(2021, 1, 3),
		IsUniverse: true,
		Universe:   &Universe{Symbol: universe, Kind: kind, Members: members},
		Dates:      NewTradableDates([]time.Time{utcDay(2021, 1, 1), utcDay(2021, 1, 2)}),
	}
}

func TestTimeTriggeredSourceEmitsPerDate(t *testing.T) {
	req := universeRequest(UniverseTimeTriggered)
	source := newTimeTriggeredSource(req, time.Now)

	records, err := Collect(context.Background(), source)
	assert.NoError(t, err, "Collect should not error")
	assert.Len(t, records, 2, "one collection per tradable date")

	first := records[0].(*securities.BarCollection)
	assert.Empty(t, first.Data, "time-triggered collections carry no market data")
	assert.Equal(t, utcDay(2021, 1, 1), first.Time.UTC(), "collections are stamped at the tradable date")
}

func TestTimeTriggeredSourceLiveGate(t *testing.T) {
	req := universeRequest(UniverseTimeTriggered)
	req.IsLive = true
	clock := func() time.Time { return utcDay(2021, 1, 1).Add(9 * time.Hour) }
	source := newTimeTriggeredSource(req, clock)

	ctx := context.Background()
	_, ok, _ := source.Next(ctx)
	assert.True(t, ok, "today's date emits")
	_, ok, _ = source.Next(ctx)
	assert.False(t, ok, "tomorrow's date is held back in live mode")
}

func TestUserDefinedSourceMembership(t *testing.T) {
	aapl := securities.NewSymbol("aapl", "usa", securities.Equity)
	msft := securities.NewSymbol("msft", "usa", securities.Equity)
	req := universeRequest(UniverseUserDefined, aapl)
	source := NewUserDefinedSource(req, time.Now)

	ctx := context.Background()
	r1, ok, _ := source.Next(ctx)
	assert.True(t, ok, "first date emits")
	c1 := r1.(*securities.BarCollection)
	assert.Len(t, c1.Data, 1, "initial membership is the universe's seed")
	assert.Equal(t, "AAPL", c1.Data[0].RecordSymbol().Value, "seed member present")

	source.Add(msft)
	source.Remove(aapl)

	r2, ok, _ := source.Next(ctx)
	assert.True(t, ok, "second date emits")
	c2 := r2.(*securities.BarCollection)
	assert.Len(t, c2.Data, 1, "membership changes apply from the next emission")
	assert.Equal(t, "MSFT", c2.Data[0].RecordSymbol().Value, "added member replaces the removed one")

	_, ok, _ = source.Next(ctx)
	assert.False(t, ok, "the date sequence bounds the stream")
}

func TestMergeEnumeratorOrdersAcrossInputs(t *testing.T) {
	day1 := utcDay(2021, 1, 1)
	day2 := utcDay(2021, 1, 2)
	day3 := utcDay(2021, 1, 3)

	left := SliceEnumerator(tradeBarAt("aaa", day1), tradeBarAt("aaa", day3))
	right := SliceEnumerator(tradeBarAt("bbb", day2))
	merged := newMergeEnumerator(left, right)

	records, err := Collect(context.Background(), merged)
	assert.NoError(t, err, "Collect should not error")
	assert.Len(t, records, 3, "all inputs drain")
	assert.Equal(t, "AAA", records[0].RecordSymbol().Value, "day1 from the left input")
	assert.Equal(t, "BBB", records[1].RecordSymbol().Value, "day2 from the right input")
	assert.Equal(t, "AAA", records[2].RecordSymbol().Value, "day3 from the left input")
}

func TestMergeEnumeratorStableTies(t *testing.T) {
	day1 := utcDay(2021, 1, 1)
	left := SliceEnumerator(tradeBarAt("zzz", day1))
	right := SliceEnumerator(tradeBarAt("aaa", day1))
	merged := newMergeEnumerator(left, right)

	records, err := Collect(context.Background(), merged)
	assert.NoError(t, err, "Collect should not error")
	assert.Len(t, records, 2, "both inputs drain")
	assert.Equal(t, "ZZZ", records[0].RecordSymbol().Value, "input order breaks end-time ties")
}
