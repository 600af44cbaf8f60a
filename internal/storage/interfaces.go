package storage

import (
	"context"

	"forecast-oversight/internal/domain"
)

// DatasetStore provides access to uploaded datasets and their records.
type DatasetStore interface {
	// Insert adds a new dataset with its records. Returns ErrDuplicateKey if id exists,
	// ErrInvalidInput if the dataset has no id.
	Insert(ctx context.Context, d *domain.Dataset) error

	// GetByID retrieves a dataset with its records in upload order. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Dataset, error)

	// List retrieves summaries of all datasets, ordered by uploaded_at ASC, id ASC.
	List(ctx context.Context) ([]domain.DatasetSummary, error)

	// Delete removes a dataset and its records. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error
}

// SnapshotStore provides access to kpi_snapshots storage.
// Snapshots are append-only.
type SnapshotStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, s *domain.KPISnapshot) error

	// GetByDataset retrieves all snapshots for a dataset, ordered by computed_at ASC, id ASC.
	GetByDataset(ctx context.Context, datasetID string) ([]*domain.KPISnapshot, error)
}
