package ports

import "context"

// PriceSource supplies the latest tradable price for a symbol.
type PriceSource interface {
	// GetPrice returns the current price for symbol. When the feed has no
	// quote for the symbol it returns an error wrapping
	// ErrPriceUnavailable; callers skip the sample and carry on.
	GetPrice(ctx context.Context, symbol string) (float64, error)
}
