package memory

import (
	"context"
	"sort"
	"sync"

	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/storage"
)

// DatasetStore is an in-memory implementation of storage.DatasetStore.
type DatasetStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Dataset // keyed by dataset id
}

// NewDatasetStore creates a new in-memory dataset store.
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{
		data: make(map[string]*domain.Dataset),
	}
}

// Insert adds a new dataset. Returns ErrDuplicateKey if id exists.
func (s *DatasetStore) Insert(_ context.Context, d *domain.Dataset) error {
	if d == nil || d.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.ID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	s.data[d.ID] = d.Clone()
	return nil
}

// GetByID retrieves a dataset by its ID. Returns ErrNotFound if not exists.
func (s *DatasetStore) GetByID(_ context.Context, id string) (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return d.Clone(), nil
}

// List retrieves summaries of all datasets, ordered by uploaded_at ASC, id ASC.
func (s *DatasetStore) List(_ context.Context) ([]domain.DatasetSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.DatasetSummary, 0, len(s.data))
	for _, d := range s.data {
		result = append(result, d.Summarize())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].UploadedAt != result[j].UploadedAt {
			return result[i].UploadedAt < result[j].UploadedAt
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Delete removes a dataset. Returns ErrNotFound if not exists.
func (s *DatasetStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// Verify interface compliance at compile time.
var _ storage.DatasetStore = (*DatasetStore)(nil)
