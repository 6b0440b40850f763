package storage

import (
	"context"

	"soilkey/internal/taxonomy"
)

// DatasetStore persists compiled dataset snapshots. Selection state is
// never stored: a session starts clean by design.
type DatasetStore interface {
	// SaveDataset replaces the stored snapshot with the given dataset.
	SaveDataset(ctx context.Context, ds *taxonomy.Dataset) error

	// LoadDataset reconstructs the most recently saved dataset.
	LoadDataset(ctx context.Context) (*taxonomy.Dataset, error)

	Close() error
}
