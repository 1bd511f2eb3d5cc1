package store

import (
	"context"
	"sort"
	"sync"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/entity"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgerror"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgmetrics"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]*datasetRecord
}

type datasetRecord struct {
	mu      sync.RWMutex
	dataset entity.Dataset
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		datasets: make(map[string]*datasetRecord),
	}
}

func (s *InMemoryStore) Put(ctx context.Context, ds entity.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.datasets[ds.ID]; exists {
		return pkgerror.NewBusiness("dataset already exists", pkgerror.CodeConflict)
	}

	ds.GraphPaths = append([]string(nil), ds.GraphPaths...)
	s.datasets[ds.ID] = &datasetRecord{dataset: ds}
	pkgmetrics.DatasetStored(1)

	return nil
}

// Get returns a copy of the dataset. The table is shared and must not be
// modified.
func (s *InMemoryStore) Get(ctx context.Context, id string) (entity.Dataset, error) {
	rec, err := s.get(id)
	if err != nil {
		return entity.Dataset{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	ds := rec.dataset
	ds.GraphPaths = append([]string(nil), rec.dataset.GraphPaths...)

	return ds, nil
}

// Commit records the rendered graph paths and marks the dataset ready.
func (s *InMemoryStore) Commit(ctx context.Context, id string, paths []string) error {
	rec, err := s.get(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.dataset.GraphPaths = append([]string(nil), paths...)
	rec.dataset.Ready = true

	return nil
}

// Evict removes the dataset and returns its metadata so the caller can clean
// up files.
func (s *InMemoryStore) Evict(ctx context.Context, id string) (entity.DatasetMeta, error) {
	s.mu.Lock()
	rec, ok := s.datasets[id]
	if ok {
		delete(s.datasets, id)
	}
	s.mu.Unlock()
	if !ok {
		return entity.DatasetMeta{}, pkgerror.ErrNotFound
	}

	pkgmetrics.DatasetStored(-1)

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	return rec.dataset.Meta(), nil
}

// List returns every dataset, oldest first.
func (s *InMemoryStore) List(ctx context.Context) ([]entity.DatasetMeta, error) {
	s.mu.RLock()
	records := make([]*datasetRecord, 0, len(s.datasets))
	for _, rec := range s.datasets {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	out := make([]entity.DatasetMeta, 0, len(records))
	for _, rec := range records {
		rec.mu.RLock()
		out = append(out, rec.dataset.Meta())
		rec.mu.RUnlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})

	return out, nil
}

func (s *InMemoryStore) get(id string) (*datasetRecord, error) {
	s.mu.RLock()
	rec, ok := s.datasets[id]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerror.ErrNotFound
	}

	return rec, nil
}
