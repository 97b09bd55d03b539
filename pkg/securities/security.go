package securities

import (
	"fmt"
	"strings"
	"time"
)

// SecurityType classifies the asset class of an instrument.
type SecurityType string

const (
	Equity SecurityType = "equity"
	Forex  SecurityType = "forex"
	Option SecurityType = "option"
	Future SecurityType = "future"
	// Base marks synthetic/custom data series that carry no exchange semantics.
	Base SecurityType = "base"
)

// IsDerivative reports whether the security type is a derivative contract.
func (s SecurityType) IsDerivative() bool {
	return s == Option || s == Future
}

// RequiresPriceScaling reports whether split/dividend factors apply to this
// security type. Derivatives and synthetic data are never scaled.
func (s SecurityType) RequiresPriceScaling() bool {
	return !s.IsDerivative() && s != Base
}

// Symbol identifies a tradable instrument by ticker, market and security type.
type Symbol struct {
	Value  string
	Market string
	Type   SecurityType
	// Expiry is set for derivative contracts only.
	Expiry time.Time
}

// NewSymbol constructs a non-derivative symbol.
func NewSymbol(value, market string, st SecurityType) Symbol {
	return Symbol{
		Value:  strings.ToUpper(strings.TrimSpace(value)),
		Market: strings.ToLower(strings.TrimSpace(market)),
		Type:   st,
	}
}

// NewContractSymbol constructs a derivative symbol carrying its expiry date.
func NewContractSymbol(value, market string, st SecurityType, expiry time.Time) Symbol {
	sym := NewSymbol(value, market, st)
	sym.Expiry = expiry
	return sym
}

// IsZero reports whether the symbol is unset.
func (s Symbol) IsZero() bool {
	return s.Value == ""
}

func (s Symbol) String() string {
	return fmt.Sprintf("%s (%s/%s)", s.Value, s.Market, s.Type)
}
