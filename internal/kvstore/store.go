package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
)

// Fields is the decoded body of one record.
type Fields map[string]interface{}

// Record pairs a full path with its decoded fields.
type Record struct {
	Path   string
	Fields Fields
}

// Store is an opaque key-value document database addressed by
// slash-separated paths. Writes of a single record are atomic; Delete is
// idempotent; listings are ordered lexicographically by path.
type Store interface {
	Get(ctx context.Context, path string) (Fields, error)
	Put(ctx context.Context, path string, fields Fields) error
	// Merge overwrites the given top-level fields and preserves any
	// unrelated top-level fields already present in the record.
	Merge(ctx context.Context, path string, fields Fields) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]Record, error)
	ListPaths(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(typ string, args interface{}) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" {
		return nil, fmt.Errorf("%w: store.type is required", appErr.ErrNotConfigured)
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("%w: unsupported store type: %s", appErr.ErrNotConfigured, typ)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode store config: %w", err)
	}
	return nil
}

func encodeFields(fields Fields) ([]byte, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

func decodeFields(data []byte) (Fields, error) {
	var fields Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return fields, nil
}

func mergeFields(existing Fields, updates Fields) Fields {
	merged := make(Fields, len(existing)+len(updates))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}
