package securities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoursForMarketKnown(t *testing.T) {
	hours := HoursForMarket("usa")
	assert.NotNil(t, hours, "usa hours should resolve")
	assert.NotNil(t, hours.Location(), "usa hours should carry a location")
}

func TestHoursForMarketUnknownFallsBack(t *testing.T) {
	hours := HoursForMarket("atlantis")
	assert.NotNil(t, hours, "unknown market should fall back instead of returning nil")
	// Wednesday is a trading day under any fallback.
	assert.True(t, hours.IsTradingDay(time.Date(2021, 6, 9, 0, 0, 0, 0, time.UTC)), "plain Wednesday should be a trading day")
}

func TestIsTradingDayUsesCivilDate(t *testing.T) {
	hours := HoursForMarket("usa")
	// Midnight UTC on a Wednesday: the civil date is what counts, not the
	// instant shifted into New York.
	assert.True(t, hours.IsTradingDay(time.Date(2021, 6, 9, 0, 0, 0, 0, time.UTC)), "Wed 2021-06-09 should be a trading day")
	assert.False(t, hours.IsTradingDay(time.Date(2021, 6, 12, 0, 0, 0, 0, time.UTC)), "Sat 2021-06-12 should not be a trading day")
	assert.False(t, hours.IsTradingDay(time.Date(2021, 6, 13, 0, 0, 0, 0, time.UTC)), "Sun 2021-06-13 should not be a trading day")
}

func TestIsOpenExtendedHours(t *testing.T) {
	hours := HoursForMarket("usa")
	loc := hours.Location()
	preMarket := time.Date(2021, 6, 9, 7, 0, 0, 0, loc)
	assert.False(t, hours.IsOpen(preMarket, false), "pre-market should be closed for regular session")
	assert.True(t, hours.IsOpen(preMarket, true), "pre-market should pass with extended hours")

	saturday := time.Date(2021, 6, 12, 12, 0, 0, 0, loc)
	assert.False(t, hours.IsOpen(saturday, true), "weekend stays closed even extended")
}

func TestNextTradingDaySkipsWeekend(t *testing.T) {
	hours := HoursForMarket("usa")
	friday := time.Date(2021, 6, 11, 0, 0, 0, 0, time.UTC)
	next := hours.NextTradingDay(friday)
	assert.Equal(t, 2021, next.Year(), "next trading day year")
	assert.Equal(t, time.June, next.Month(), "next trading day month")
	assert.Equal(t, 14, next.Day(), "Friday should advance to Monday")
}
