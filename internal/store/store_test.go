package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	cacheutil "quantfeed/internal/cache"
	"quantfeed/pkg/feed"
	"quantfeed/pkg/localdata"
	"quantfeed/pkg/securities"
)

// stubDownloader serves one fixed bar per requested day.
type stubDownloader struct{ calls int }

func (d *stubDownloader) Download(ctx context.Context, symbol securities.Symbol, date time.Time, res securities.Resolution) ([]localdata.BarRow, error) {
	d.calls++
	return []localdata.BarRow{
		{Time: date, Open: 100, High: 110, Low: 90, Close: 105, Volume: 1000},
	}, nil
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestQueryFallsBackToLocalFiles(t *testing.T) {
	downloader := &stubDownloader{}
	local := localdata.NewProvider(t.TempDir(), downloader)
	s := NewStore(nil, nil, local, cacheutil.TTLSet{})

	sym := securities.NewSymbol("spy", "usa", securities.Equity)
	cursor, err := s.Query(context.Background(), feed.PathFor(sym), utcDay(2021, 6, 7), utcDay(2021, 6, 8))
	assert.NoError(t, err, "Query should not error without a database")

	var docs []*feed.Document
	for {
		doc, ok, err := cursor.Next(context.Background())
		assert.NoError(t, err, "cursor.Next should not error")
		if !ok {
			break
		}
		docs = append(docs, doc)
	}
	assert.Len(t, docs, 2, "one document per day in the closed interval")
	assert.Equal(t, utcDay(2021, 6, 7), docs[0].Date, "documents come back date-ordered")
	assert.Equal(t, 105.0, docs[0].Close, "bar values flow through")
	assert.Equal(t, 2, downloader.calls, "one download per missing day")
}

func TestQueryWithoutLocalProvider(t *testing.T) {
	s := NewStore(nil, nil, nil, cacheutil.TTLSet{})
	sym := securities.NewSymbol("spy", "usa", securities.Equity)

	cursor, err := s.Query(context.Background(), feed.PathFor(sym), utcDay(2021, 6, 7), utcDay(2021, 6, 8))
	assert.NoError(t, err, "a storeless query yields an empty cursor, not an error")
	_, ok, _ := cursor.Next(context.Background())
	assert.False(t, ok, "no documents without any backend")
}

func TestResolveMapFileWithoutDatabase(t *testing.T) {
	s := NewStore(nil, nil, nil, cacheutil.TTLSet{})
	sym := securities.NewSymbol("spy", "usa", securities.Equity)

	mf, err := s.ResolveMapFile(context.Background(), sym)
	assert.NoError(t, err, "ResolveMapFile should not error without a database")
	assert.True(t, mf.IsEmpty(), "the empty sentinel stands in for missing mapping data")
}

func TestResolveFactorFileWithoutDatabase(t *testing.T) {
	s := NewStore(nil, nil, nil, cacheutil.TTLSet{})
	sym := securities.NewSymbol("spy", "usa", securities.Equity)

	ff, err := s.ResolveFactorFile(context.Background(), sym)
	assert.NoError(t, err, "ResolveFactorFile should not error without a database")
	assert.True(t, ff.IsEmpty(), "the empty sentinel stands in for missing factor data")
}
