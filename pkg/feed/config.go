package feed

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"quantfeed/pkg/confkit"
	"quantfeed/pkg/securities"
)

// Config describes the subscriptions a feed process should open.
type Config struct {
	Resolution    string `yaml:"resolution"`
	FillForward   bool   `yaml:"fill_forward"`
	ExtendedHours bool   `yaml:"extended_hours"`
	Filtered      bool   `yaml:"filtered"`
	Live          bool   `yaml:"live"`
	DataTimeZone  string `yaml:"data_time_zone"`

	Symbols []SymbolConfig `yaml:"symbols"`

	resolution securities.Resolution
	location   *time.Location
}

// SymbolConfig identifies one instrument to subscribe.
type SymbolConfig struct {
	Ticker string `yaml:"ticker"`
	Market string `yaml:"market"`
	Type   string `yaml:"type"`
}

// LoadConfig reads feed configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads feed configuration from the default project location and
// panics on error.
func MustLoad() *Config {
	path := confkit.MustProjectPath("etc/feed.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read feed config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal feed config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if strings.TrimSpace(c.Resolution) == "" {
		c.Resolution = string(securities.Daily)
	}
	res, err := securities.ParseResolution(c.Resolution)
	if err != nil {
		return fmt.Errorf("feed config: %w", err)
	}
	c.resolution = res

	tz := strings.TrimSpace(c.DataTimeZone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("feed config: invalid data_time_zone %q: %w", c.DataTimeZone, err)
	}
	c.location = loc

	for i, sym := range c.Symbols {
		if strings.TrimSpace(sym.Ticker) == "" {
			return fmt.Errorf("feed config: symbols[%d] has no ticker", i)
		}
		if strings.TrimSpace(sym.Market) == "" {
			c.Symbols[i].Market = "usa"
		}
		if strings.TrimSpace(sym.Type) == "" {
			c.Symbols[i].Type = string(securities.Equity)
		}
	}
	return nil
}

// ParsedResolution returns the normalised resolution.
func (c *Config) ParsedResolution() securities.Resolution { return c.resolution }

// Location returns the configured data time zone.
func (c *Config) Location() *time.Location { return c.location }

// BuildRequests expands the config into subscription requests over the
// given window, deriving each instrument's tradable dates from its exchange
// calendar.
func (c *Config) BuildRequests(start, end time.Time) []*SubscriptionRequest {
	reqs := make([]*SubscriptionRequest, 0, len(c.Symbols))
	for _, sc := range c.Symbols {
		symbol := securities.NewSymbol(sc.Ticker, sc.Market, securities.SecurityType(sc.Type))
		hours := securities.HoursForMarket(symbol.Market)
		reqs = append(reqs, &SubscriptionRequest{
			Symbol:           symbol,
			Resolution:       c.resolution,
			DataKind:         KindTrade,
			Start:            start.In(c.location),
			End:              end.In(c.location),
			DataTimeZone:     c.location,
			ExchangeTimeZone: hours.Location(),
			FillForward:      c.FillForward,
			ExtendedHours:    c.ExtendedHours,
			Filtered:         c.Filtered,
			IsLive:           c.Live,
			Dates:            TradingDatesBetween(hours, start, end),
		})
	}
	return reqs
}

// TradingDatesBetween lists the exchange's trading days in [start, end].
func TradingDatesBetween(hours *securities.ExchangeHours, start, end time.Time) *TradableDates {
	var dates []time.Time
	for day := dateOf(start); !day.After(end); day = day.AddDate(0, 0, 1) {
		if hours.IsTradingDay(day) {
			dates = append(dates, day)
		}
	}
	return NewTradableDates(dates)
}
