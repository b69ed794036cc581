package kvstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func init() {
	Register("memory", func(args interface{}) (Store, error) {
		return NewMemory(), nil
	})
}

// NewMemory returns a process-local store, used in tests and as a
// throwaway backend for local development.
func NewMemory() Store {
	return &memoryStore{records: map[string][]byte{}}
}

func (s *memoryStore) Get(ctx context.Context, path string) (Fields, error) {
	s.mu.RLock()
	data, ok := s.records[path]
	s.mu.RUnlock()
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return decodeFields(data)
}

func (s *memoryStore) Put(ctx context.Context, path string, fields Fields) error {
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records[path] = data
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Merge(ctx context.Context, path string, fields Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := Fields{}
	if data, ok := s.records[path]; ok {
		decoded, err := decodeFields(data)
		if err != nil {
			return err
		}
		existing = decoded
	}
	data, err := encodeFields(mergeFields(existing, fields))
	if err != nil {
		return err
	}
	s.records[path] = data
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.records, path)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) List(ctx context.Context, prefix string) ([]Record, error) {
	paths, err := s.ListPaths(ctx, prefix)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(paths))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, path := range paths {
		fields, err := decodeFields(s.records[path])
		if err != nil {
			return nil, err
		}
		records = append(records, Record{Path: path, Fields: fields})
	}
	return records, nil
}

func (s *memoryStore) ListPaths(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	paths := make([]string, 0, len(s.records))
	for path := range s.records {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	s.mu.RUnlock()
	sort.Strings(paths)
	return paths, nil
}

func (s *memoryStore) Close() error {
	return nil
}
