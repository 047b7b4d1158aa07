package ports

import "context"

// ProcessedIDRepository persists the set of message IDs a unit has already
// handled, so a restart does not reprocess old messages.
type ProcessedIDRepository interface {
	// LoadProcessedIDs returns every message ID recorded under storageID.
	LoadProcessedIDs(ctx context.Context, storageID string) (map[int]struct{}, error)
	// AppendProcessedID records one handled message ID under storageID.
	// The record set is append-only for the life of the process.
	AppendProcessedID(ctx context.Context, storageID string, messageID int) error
}
