package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cacheutil "quantfeed/internal/cache"
	"quantfeed/pkg/corporate"
	"quantfeed/pkg/feed"
	"quantfeed/pkg/localdata"
	"quantfeed/pkg/securities"
)

// Store loads market data from Postgres and caches responses via the go-zero
// cache layer. When the database is unreachable it falls back to the local
// bar-file provider.
type Store struct {
	conn  sqlx.SqlConn
	cache cache.Cache
	local *localdata.Provider
	ttl   cacheutil.TTLSet
}

// NewStore wires the Postgres connection, Redis cache and local fallback.
func NewStore(conn sqlx.SqlConn, cache cache.Cache, local *localdata.Provider, ttl cacheutil.TTLSet) *Store {
	return &Store{conn: conn, cache: cache, local: local, ttl: ttl}
}

func (s *Store) getCache(ctx context.Context, key string, v interface{}) bool {
	if s.cache == nil {
		return false
	}
	if err := s.cache.GetCtx(ctx, key, v); err != nil {
		if !s.cache.IsNotFound(err) {
			logx.WithContext(ctx).Errorf("get cache %s: %v", key, err)
		}
		return false
	}
	return true
}

func (s *Store) setCache(ctx context.Context, key string, ttl time.Duration, v interface{}) {
	if s.cache == nil || ttl <= 0 {
		return
	}
	if err := s.cache.SetWithExpireCtx(ctx, key, v, ttl); err != nil {
		logx.WithContext(ctx).Errorf("set cache %s: %v", key, err)
	}
}

// ================= Price bars =================

type barRow struct {
	Symbol string    `db:"symbol"`
	Date   time.Time `db:"date"`
	Open   float64   `db:"open"`
	High   float64   `db:"high"`
	Low    float64   `db:"low"`
	Close  float64   `db:"close"`
	Volume float64   `db:"volume"`
}

// Query returns documents for one instrument path over the closed interval
// [start, end], most recent source first: cache, then Postgres, then local
// bar files.
func (s *Store) Query(ctx context.Context, path feed.DataPath, start, end time.Time) (feed.DocumentCursor, error) {
	key := cacheutil.BarsKey(path.String(), start, end)
	var cached []feed.Document
	if s.getCache(ctx, key, &cached) {
		return feed.NewSliceDocumentCursor(cached), nil
	}

	if s.conn == nil {
		return s.localQuery(ctx, path, start, end)
	}

	const q = `SELECT symbol, date, open, high, low, close, volume
FROM price_bars
WHERE security_type = $1 AND market = $2 AND symbol = $3 AND date BETWEEN $4 AND $5
ORDER BY date ASC`

	var rows []barRow
	if err := s.conn.QueryRowsCtx(ctx, &rows, q, string(path.SecurityType), path.Market, path.Ticker, start, end); err != nil {
		logx.WithContext(ctx).Errorf("db price_bars %s failed, falling back: %v", path, err)
		return s.localQuery(ctx, path, start, end)
	}

	docs := make([]feed.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, feed.Document{
			Ticker: row.Symbol,
			Date:   row.Date.UTC(),
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	s.setCache(ctx, key, cacheutil.BarsTTL(s.ttl), docs)
	return feed.NewSliceDocumentCursor(docs), nil
}

// localQuery reassembles the range from per-day local bar files.
func (s *Store) localQuery(ctx context.Context, path feed.DataPath, start, end time.Time) (feed.DocumentCursor, error) {
	if s.local == nil {
		return feed.NewSliceDocumentCursor(nil), nil
	}
	symbol := securities.NewSymbol(path.Ticker, path.Market, path.SecurityType)
	var docs []feed.Document
	for day := start.UTC().Truncate(24 * time.Hour); !day.After(end); day = day.AddDate(0, 0, 1) {
		file, ok := s.local.Fetch(ctx, localdata.FilePath(symbol, day, securities.Daily))
		if !ok {
			continue
		}
		for _, bar := range file.Bars {
			if bar.Time.Before(start) || bar.Time.After(end) {
				continue
			}
			docs = append(docs, feed.Document{
				Ticker: file.Ticker,
				Date:   bar.Time.UTC(),
				Open:   bar.Open,
				High:   bar.High,
				Low:    bar.Low,
				Close:  bar.Close,
				Volume: bar.Volume,
			})
		}
	}
	return feed.NewSliceDocumentCursor(docs), nil
}

// ================= Corporate actions =================

type mapRow struct {
	EffectiveDate time.Time `db:"effective_date"`
	Ticker        string    `db:"ticker"`
}

type cachedMapFile struct {
	Rows []corporate.MapRow `json:"rows"`
}

// ResolveMapFile loads the symbol-change history for an instrument. Unknown
// instruments resolve to the empty sentinel, not an error.
func (s *Store) ResolveMapFile(ctx context.Context, symbol securities.Symbol) (*corporate.MapFile, error) {
	key := cacheutil.MapFileKey(symbol.Market, symbol.Value)
	var cached cachedMapFile
	if s.getCache(ctx, key, &cached) {
		return mapFileFrom(symbol, cached.Rows), nil
	}

	if s.conn == nil {
		return corporate.EmptyMapFile(symbol), nil
	}

	const q = `SELECT effective_date, ticker
FROM symbol_maps
WHERE market = $1 AND symbol = $2
ORDER BY effective_date ASC`

	var rows []mapRow
	if err := s.conn.QueryRowsCtx(ctx, &rows, q, symbol.Market, symbol.Value); err != nil {
		return nil, err
	}

	mapped := make([]corporate.MapRow, 0, len(rows))
	for _, row := range rows {
		mapped = append(mapped, corporate.MapRow{Date: row.EffectiveDate.UTC(), Ticker: row.Ticker})
	}
	s.setCache(ctx, key, cacheutil.CorporateTTL(s.ttl), cachedMapFile{Rows: mapped})
	return mapFileFrom(symbol, mapped), nil
}

func mapFileFrom(symbol securities.Symbol, rows []corporate.MapRow) *corporate.MapFile {
	if len(rows) == 0 {
		return corporate.EmptyMapFile(symbol)
	}
	return corporate.NewMapFile(symbol, rows)
}

type factorRow struct {
	EffectiveDate time.Time    `db:"effective_date"`
	PriceFactor   float64      `db:"price_factor"`
	SplitFactor   float64      `db:"split_factor"`
	MinDate       sql.NullTime `db:"min_date"`
}

type cachedFactorFile struct {
	Rows    []corporate.FactorRow `json:"rows"`
	MinDate time.Time             `json:"minDate"`
}

// ResolveFactorFile loads the split/dividend adjustment history for an
// instrument. Unknown instruments resolve to the empty sentinel.
func (s *Store) ResolveFactorFile(ctx context.Context, symbol securities.Symbol) (*corporate.FactorFile, error) {
	key := cacheutil.FactorFileKey(symbol.Market, symbol.Value)
	var cached cachedFactorFile
	if s.getCache(ctx, key, &cached) {
		return factorFileFrom(symbol, cached.Rows, cached.MinDate), nil
	}

	if s.conn == nil {
		return corporate.EmptyFactorFile(symbol), nil
	}

	const q = `SELECT effective_date, price_factor, split_factor, min_date
FROM price_factors
WHERE market = $1 AND symbol = $2
ORDER BY effective_date ASC`

	var rows []factorRow
	if err := s.conn.QueryRowsCtx(ctx, &rows, q, symbol.Market, symbol.Value); err != nil {
		return nil, err
	}

	factors := make([]corporate.FactorRow, 0, len(rows))
	var minDate time.Time
	for _, row := range rows {
		factors = append(factors, corporate.FactorRow{
			Date:        row.EffectiveDate.UTC(),
			PriceFactor: row.PriceFactor,
			SplitFactor: row.SplitFactor,
		})
		if row.MinDate.Valid && (minDate.IsZero() || row.MinDate.Time.After(minDate)) {
			minDate = row.MinDate.Time.UTC()
		}
	}
	s.setCache(ctx, key, cacheutil.CorporateTTL(s.ttl), cachedFactorFile{Rows: factors, MinDate: minDate})
	return factorFileFrom(symbol, factors, minDate), nil
}

func factorFileFrom(symbol securities.Symbol, rows []corporate.FactorRow, minDate time.Time) *corporate.FactorFile {
	if len(rows) == 0 && minDate.IsZero() {
		return corporate.EmptyFactorFile(symbol)
	}
	return corporate.NewFactorFile(symbol, rows, minDate)
}
