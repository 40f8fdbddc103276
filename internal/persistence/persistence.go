// Package persistence defines the storage contracts for deposit records and
// ranking snapshots.
package persistence

import (
	"context"

	"github.com/arcticwatch/reescan/internal/deposit"
	"github.com/arcticwatch/reescan/internal/score"
)

// DepositRepo stores canonical deposit records. Records are upserted by
// name; absence from a pass marks them stale rather than deleting them.
type DepositRepo interface {
	// Upsert inserts or updates a record keyed by deposit name.
	Upsert(ctx context.Context, rec *deposit.Record) error

	// List returns all stored records.
	List(ctx context.Context) ([]*deposit.Record, error)

	// MarkStaleExcept flags every record not in the active set as stale
	// and clears the flag on those that are.
	MarkStaleExcept(ctx context.Context, activeNames []string) error
}

// SnapshotRepo stores scoring snapshots per ingestion batch.
type SnapshotRepo interface {
	// Save persists a snapshot.
	Save(ctx context.Context, snap score.Snapshot) error

	// Latest returns the most recently generated snapshot, or found=false
	// when none exists.
	Latest(ctx context.Context) (score.Snapshot, bool, error)
}
