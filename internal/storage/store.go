package storage

import "context"

// Attribute names of the persisted item layout. The primary table is keyed by
// AttrID; the secondary index partitions on AttrStream and sorts on
// AttrDateTime with full projection.
const (
	AttrID       = "LogID"
	AttrDateTime = "DateTime"
	AttrSeverity = "Severity"
	AttrMessage  = "Message"
	AttrStream   = "LogType"
)

// Record is one flat item as the store sees it.
type Record map[string]string

// Store is the key-value store boundary. Put must be a single atomic write; a
// put with an existing primary key overwrites the item. QueryStream returns up
// to limit records from one index partition in descending sort-key order.
// Implementations report failures as *StorageError.
type Store interface {
	Put(ctx context.Context, rec Record) error
	QueryStream(ctx context.Context, streamKey string, limit int32) ([]Record, error)
}
