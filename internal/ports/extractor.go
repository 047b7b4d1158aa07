package ports

import (
	"context"

	"signalSentry/internal/domain"
)

// SignalExtractor turns free-form message text into a candidate signal.
type SignalExtractor interface {
	// ExtractSignal analyzes text and returns the structured result. A
	// message that is readable but not an actionable signal yields a
	// Signal with IsSignal=false, not an error; errors indicate the
	// extraction itself failed.
	ExtractSignal(ctx context.Context, text string) (*domain.Signal, error)
}
