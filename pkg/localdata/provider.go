package localdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"

	"quantfeed/pkg/securities"
)

// BarRow is one persisted bar.
type BarRow struct {
	Time   time.Time `msgpack:"t"`
	Open   float64   `msgpack:"o"`
	High   float64   `msgpack:"h"`
	Low    float64   `msgpack:"l"`
	Close  float64   `msgpack:"c"`
	Volume float64   `msgpack:"v"`
}

// BarFile is the msgpack payload stored per (instrument, date, resolution).
type BarFile struct {
	Ticker     string    `msgpack:"ticker"`
	Market     string    `msgpack:"market"`
	Type       string    `msgpack:"type"`
	Date       time.Time `msgpack:"date"`
	Resolution string    `msgpack:"resolution"`
	Bars       []BarRow  `msgpack:"bars"`
}

// PathInfo is the instrument/date/resolution triple encoded in a local data
// path of the form {kind}/{market}/{ticker}/{yyyymmdd}_{resolution}.bin.
type PathInfo struct {
	Symbol     securities.Symbol
	Date       time.Time
	Resolution securities.Resolution
}

// ParsePath extracts the triple from a relative data path. Paths that do
// not follow the expected layout return an error.
func ParsePath(rel string) (*PathInfo, error) {
	parts := strings.Split(filepath.ToSlash(strings.TrimSpace(rel)), "/")
	if len(parts) != 4 {
		return nil, fmt.Errorf("localdata: path %q is not kind/market/ticker/file", rel)
	}
	name := parts[3]
	base := strings.TrimSuffix(name, filepath.Ext(name))
	dateStr, resStr, found := strings.Cut(base, "_")
	if !found {
		return nil, fmt.Errorf("localdata: file %q is not yyyymmdd_resolution", name)
	}
	date, err := time.ParseInLocation("20060102", dateStr, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("localdata: bad date in %q: %w", name, err)
	}
	res, err := securities.ParseResolution(resStr)
	if err != nil {
		return nil, fmt.Errorf("localdata: bad resolution in %q: %w", name, err)
	}
	return &PathInfo{
		Symbol:     securities.NewSymbol(parts[2], parts[1], securities.SecurityType(parts[0])),
		Date:       date,
		Resolution: res,
	}, nil
}

// FilePath renders the canonical relative path for a triple.
func FilePath(symbol securities.Symbol, date time.Time, res securities.Resolution) string {
	return filepath.Join(
		string(symbol.Type),
		symbol.Market,
		strings.ToLower(symbol.Value),
		fmt.Sprintf("%s_%s.bin", date.Format("20060102"), res),
	)
}

// Downloader fetches one instrument-day of bars from an auxiliary service.
type Downloader interface {
	Download(ctx context.Context, symbol securities.Symbol, date time.Time, res securities.Resolution) ([]BarRow, error)
}

// Provider serves bar files from a local data root. On a cache miss it
// parses the requested path, downloads the matching range, persists it in
// the expected layout and retries the local read.
type Provider struct {
	root       string
	downloader Downloader
}

// NewProvider constructs a provider rooted at the given directory.
func NewProvider(root string, downloader Downloader) *Provider {
	return &Provider{root: root, downloader: downloader}
}

// Fetch returns the bar file for a relative path, downloading it when
// missing. It returns ok=false when the path cannot be parsed or the
// download fails; both are logged, neither is fatal.
func (p *Provider) Fetch(ctx context.Context, rel string) (*BarFile, bool) {
	if file, err := p.read(rel); err == nil {
		return file, true
	} else if !errors.Is(err, os.ErrNotExist) {
		logx.Errorf("localdata: read %s: %v", rel, err)
		return nil, false
	}

	info, err := ParsePath(rel)
	if err != nil {
		logx.Errorf("localdata: %v", err)
		return nil, false
	}
	if p.downloader == nil {
		return nil, false
	}
	rows, err := p.downloader.Download(ctx, info.Symbol, info.Date, info.Resolution)
	if err != nil {
		logx.Errorf("localdata: download %s: %v", rel, err)
		return nil, false
	}
	file := &BarFile{
		Ticker:     info.Symbol.Value,
		Market:     info.Symbol.Market,
		Type:       string(info.Symbol.Type),
		Date:       info.Date,
		Resolution: string(info.Resolution),
		Bars:       rows,
	}
	if err := p.write(rel, file); err != nil {
		logx.Errorf("localdata: persist %s: %v", rel, err)
		return nil, false
	}

	stored, err := p.read(rel)
	if err != nil {
		logx.Errorf("localdata: reread %s: %v", rel, err)
		return nil, false
	}
	return stored, true
}

func (p *Provider) read(rel string) (*BarFile, error) {
	data, err := os.ReadFile(filepath.Join(p.root, rel))
	if err != nil {
		return nil, err
	}
	var file BarFile
	if err := msgpack.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &file, nil
}

func (p *Provider) write(rel string, file *BarFile) error {
	abs := filepath.Join(p.root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	data, err := msgpack.Marshal(file)
	if err != nil {
		return err
	}
	return os.WriteFile(abs, data, 0o644)
}
