package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Market Data Errors
	ErrPriceUnavailable     = errors.New("no tradable price available for symbol")
	ErrFeedUnavailable      = errors.New("price feed is unavailable")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed (check API keys)")

	// Extraction Errors
	ErrExtractionFailed  = errors.New("signal extraction failed")
	ErrMalformedResponse = errors.New("extractor returned a malformed response")

	// Messaging Errors
	ErrSendFailed  = errors.New("failed to send message")
	ErrFetchFailed = errors.New("failed to fetch messages")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")

	// Registry Errors
	ErrSymbolOccupied = errors.New("symbol already has a non-terminal trade")
)
