package kvstore

import (
	"context"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"

	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
)

var bucketRecords = []byte("records")

type boltConfig struct {
	Path string `json:"path"`
}

type boltStore struct {
	db *bbolt.DB
}

func init() {
	Register("bolt", createBoltStore)
}

func createBoltStore(args interface{}) (Store, error) {
	cfg := &boltConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("bolt store path is required")
	}
	return NewBolt(cfg.Path)
}

func NewBolt(path string) (Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create records bucket: %w", err)
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Get(ctx context.Context, path string) (Fields, error) {
	var fields Fields
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRecords).Get([]byte(path))
		if data == nil {
			return appErr.ErrNotFound
		}
		decoded, err := decodeFields(data)
		if err != nil {
			return err
		}
		fields = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (s *boltStore) Put(ctx context.Context, path string, fields Fields) error {
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).Put([]byte(path), data)
	})
}

func (s *boltStore) Merge(ctx context.Context, path string, fields Fields) error {
	// Read-modify-write inside one update transaction so the merged
	// record is written atomically.
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		existing := Fields{}
		if data := bucket.Get([]byte(path)); data != nil {
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
		return bucket.Put([]byte(path), data)
	})
}

func (s *boltStore) Delete(ctx context.Context, path string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).Delete([]byte(path))
	})
}

func (s *boltStore) List(ctx context.Context, prefix string) ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRecords).Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
			fields, err := decodeFields(v)
			if err != nil {
				return err
			}
			records = append(records, Record{Path: string(k), Fields: fields})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *boltStore) ListPaths(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRecords).Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			paths = append(paths, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (s *boltStore) Close() error {
	return s.db.Close()
}
