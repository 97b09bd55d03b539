package corporate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quantfeed/pkg/securities"
)

func TestFactorsOn(t *testing.T) {
	sym := securities.NewSymbol("aapl", "usa", securities.Equity)
	ff := NewFactorFile(sym, []FactorRow{
		{Date: day(2020, 8, 28), PriceFactor: 0.9, SplitFactor: 0.25},
		{Date: day(2014, 6, 6), PriceFactor: 0.8, SplitFactor: 0.0357},
	}, day(2005, 1, 1))

	price, split := ff.FactorsOn(day(2010, 1, 1))
	assert.Equal(t, 0.8, price, "dates before the first row use the earliest factors")
	assert.Equal(t, 0.0357, split, "dates before the first row use the earliest factors")

	price, split = ff.FactorsOn(day(2014, 6, 6))
	assert.Equal(t, 0.8, price, "a row's own date is inclusive")
	assert.Equal(t, 0.0357, split, "a row's own date is inclusive")

	price, split = ff.FactorsOn(day(2018, 1, 1))
	assert.Equal(t, 0.9, price, "dates between rows use the next row's factors")
	assert.Equal(t, 0.25, split, "dates between rows use the next row's factors")

	price, split = ff.FactorsOn(day(2021, 1, 1))
	assert.Equal(t, 1.0, price, "dates past the last row are already in current terms")
	assert.Equal(t, 1.0, split, "dates past the last row are already in current terms")

	assert.Equal(t, day(2005, 1, 1), ff.MinDate, "min date should be preserved")
}

func TestEmptyFactorFile(t *testing.T) {
	sym := securities.NewSymbol("xyz", "usa", securities.Equity)
	ff := EmptyFactorFile(sym)

	assert.True(t, ff.IsEmpty(), "sentinel should report empty")
	assert.True(t, ff.MinDate.IsZero(), "sentinel has no min date")
	price, split := ff.FactorsOn(day(2020, 1, 1))
	assert.Equal(t, 1.0, price, "sentinel always returns unit price factor")
	assert.Equal(t, 1.0, split, "sentinel always returns unit split factor")
}
