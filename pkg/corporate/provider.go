package corporate

import (
	"context"

	"quantfeed/pkg/securities"
)

// MapFileProvider resolves symbol-change history for an instrument.
// Implementations return the empty sentinel, not an error, when no mapping
// data exists.
type MapFileProvider interface {
	ResolveMapFile(ctx context.Context, symbol securities.Symbol) (*MapFile, error)
}

// FactorFileProvider resolves price-adjustment history for an instrument.
type FactorFileProvider interface {
	ResolveFactorFile(ctx context.Context, symbol securities.Symbol) (*FactorFile, error)
}

// MapFileProviderFunc adapts a function to the MapFileProvider interface.
type MapFileProviderFunc func(ctx context.Context, symbol securities.Symbol) (*MapFile, error)

func (f MapFileProviderFunc) ResolveMapFile(ctx context.Context, symbol securities.Symbol) (*MapFile, error) {
	return f(ctx, symbol)
}

// FactorFileProviderFunc adapts a function to the FactorFileProvider interface.
type FactorFileProviderFunc func(ctx context.Context, symbol securities.Symbol) (*FactorFile, error)

func (f FactorFileProviderFunc) ResolveFactorFile(ctx context.Context, symbol securities.Symbol) (*FactorFile, error) {
	return f(ctx, symbol)
}
