package memory

import (
	"context"
	"sort"
	"sync"

	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.KPISnapshot // keyed by snapshot id
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.KPISnapshot),
	}
}

// Insert adds a new snapshot. Returns ErrDuplicateKey if id exists.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.KPISnapshot) error {
	if snap == nil || snap.ID == "" || snap.DatasetID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[snap.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[snap.ID] = copySnapshot(snap)
	return nil
}

// GetByDataset retrieves all snapshots for a dataset, ordered by computed_at ASC, id ASC.
func (s *SnapshotStore) GetByDataset(_ context.Context, datasetID string) ([]*domain.KPISnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.KPISnapshot
	for _, snap := range s.data {
		if snap.DatasetID == datasetID {
			result = append(result, copySnapshot(snap))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ComputedAt != result[j].ComputedAt {
			return result[i].ComputedAt < result[j].ComputedAt
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// copySnapshot deep-copies the level slice and optional summary fields.
func copySnapshot(snap *domain.KPISnapshot) *domain.KPISnapshot {
	c := *snap
	c.Levels = append([]domain.RiskLevel(nil), snap.Levels...)
	if snap.Summary.MaxRiskScore != nil {
		v := *snap.Summary.MaxRiskScore
		c.Summary.MaxRiskScore = &v
	}
	if snap.Summary.YearOfMaxRisk != nil {
		v := *snap.Summary.YearOfMaxRisk
		c.Summary.YearOfMaxRisk = &v
	}
	return &c
}

// Verify interface compliance at compile time.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)
