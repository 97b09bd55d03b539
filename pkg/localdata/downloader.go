package localdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"quantfeed/pkg/securities"
)

const (
	defaultBaseURL     = "https://data.quantfeed.dev/v1/history"
	defaultHTTPTimeout = 15 * time.Second
)

// HTTPDownloader fetches daily bar files from the auxiliary history service.
type HTTPDownloader struct {
	baseURL    string
	httpClient *http.Client
}

// DownloaderOption configures a new HTTPDownloader.
type DownloaderOption func(*HTTPDownloader)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) DownloaderOption {
	return func(d *HTTPDownloader) {
		if hc != nil {
			d.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default history endpoint URL.
func WithBaseURL(base string) DownloaderOption {
	return func(d *HTTPDownloader) {
		if base != "" {
			d.baseURL = base
		}
	}
}

// NewHTTPDownloader constructs a downloader for the history endpoint.
func NewHTTPDownloader(opts ...DownloaderOption) *HTTPDownloader {
	d := &HTTPDownloader{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// historyRow is the JSON wire shape of one bar.
type historyRow struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Download fetches one instrument-day of bars at the given resolution.
func (d *HTTPDownloader) Download(ctx context.Context, symbol securities.Symbol, date time.Time, res securities.Resolution) ([]BarRow, error) {
	query := url.Values{}
	query.Set("symbol", symbol.Value)
	query.Set("market", symbol.Market)
	query.Set("type", string(symbol.Type))
	query.Set("date", date.Format("2006-01-02"))
	query.Set("resolution", string(res))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("localdata: build request: %w", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("localdata: history request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("localdata: history status %d: %s", resp.StatusCode, string(body))
	}

	var rows []historyRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("localdata: decode history: %w", err)
	}
	bars := make([]BarRow, 0, len(rows))
	for _, row := range rows {
		bars = append(bars, BarRow{
			Time:   time.UnixMilli(row.Time).UTC(),
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	return bars, nil
}
