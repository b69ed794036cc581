package docstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/draftmark/draftmark/internal/chunkcodec"
	"github.com/draftmark/draftmark/internal/kvstore"
	"github.com/draftmark/draftmark/internal/model"
	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
)

const (
	// MaxInlineImageBytes caps the optional cover image stored inline on
	// the metadata record. Encoded it must stay under the backing store's
	// whole-record ceiling, which the chunked path deliberately avoids.
	MaxInlineImageBytes = 700 * 1024

	annotationSubID = "default"

	downloadWorkers = 8
	deleteWorkers   = 8
)

type Store struct {
	kv            kvstore.Store
	maxChunkChars int
}

type Option func(*Store)

// WithMaxChunkChars overrides the encoded chunk bound, for stores with a
// different per-record ceiling.
func WithMaxChunkChars(n int) Option {
	return func(s *Store) {
		s.maxChunkChars = n
	}
}

func New(kv kvstore.Store, opts ...Option) *Store {
	s := &Store{
		kv:            kv,
		maxChunkChars: chunkcodec.DefaultMaxChunkChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PutOptions carries the optional non-chunked extras written alongside the
// document metadata.
type PutOptions struct {
	CoverImage []byte
}

func docPath(projectID, docID string) string {
	return fmt.Sprintf("projects/%s/documents/%s", projectID, docID)
}

func chunkPrefix(projectID, docID string) string {
	return docPath(projectID, docID) + "/chunks/"
}

func chunkPath(projectID, docID string, index int) string {
	return fmt.Sprintf("%s%06d", chunkPrefix(projectID, docID), index)
}

func annotationPath(projectID, docID string) string {
	return docPath(projectID, docID) + "/annotations/" + annotationSubID
}

// AnnotationPath exposes the annotation record path for a document so the
// annotation layer shares the same key scheme.
func AnnotationPath(projectID, docID string) string {
	return annotationPath(projectID, docID)
}

// Put encodes data into ordered chunks and writes the document. The
// metadata record goes first so a concurrent lister can observe the upload
// in progress; chunks follow sequentially so key order always matches
// index order. A failed chunk write surfaces ErrUploadIncomplete and leaves
// the earlier chunks in place; cleanup is the caller's Delete.
func (s *Store) Put(ctx context.Context, projectID, ownerID, name, mimeType string, data []byte, opts PutOptions) (*model.Document, error) {
	if len(opts.CoverImage) > MaxInlineImageBytes {
		return nil, fmt.Errorf("%w: cover image %d bytes over %d limit", appErr.ErrPayloadTooLarge, len(opts.CoverImage), MaxInlineImageBytes)
	}
	chunks, err := chunkcodec.Encode(data, s.maxChunkChars)
	if err != nil {
		return nil, err
	}
	doc := &model.Document{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		OwnerID:   ownerID,
		Name:      name,
		MimeType:  mimeType,
		Size:      int64(len(data)),
		NumChunks: len(chunks),
		Ctime:     time.Now().Unix(),
	}
	meta := kvstore.Fields{
		"name":       doc.Name,
		"owner_id":   doc.OwnerID,
		"mime_type":  doc.MimeType,
		"size":       doc.Size,
		"num_chunks": doc.NumChunks,
		"ctime":      doc.Ctime,
	}
	if len(opts.CoverImage) > 0 {
		meta["cover_image"] = base64.StdEncoding.EncodeToString(opts.CoverImage)
	}
	if err := s.kv.Put(ctx, docPath(projectID, doc.ID), meta); err != nil {
		return nil, fmt.Errorf("write document metadata: %w", err)
	}
	for i, payload := range chunks {
		fields := kvstore.Fields{
			"index": i,
			"data":  payload,
		}
		if err := s.kv.Put(ctx, chunkPath(projectID, doc.ID, i), fields); err != nil {
			return nil, fmt.Errorf("%w: chunk %d/%d: %v", appErr.ErrUploadIncomplete, i, len(chunks), err)
		}
	}
	logutil.GetLogger(ctx).Info("document stored",
		zap.String("project_id", projectID),
		zap.String("doc_id", doc.ID),
		zap.Int64("size", doc.Size),
		zap.Int("num_chunks", doc.NumChunks))
	return doc, nil
}

// Get reads document metadata, fetches every chunk and decodes the
// reassembled sequence back into the original bytes.
func (s *Store) Get(ctx context.Context, projectID, docID string) ([]byte, error) {
	doc, err := s.GetInfo(ctx, projectID, docID)
	if err != nil {
		return nil, err
	}
	if doc.NumChunks == 0 {
		return []byte{}, nil
	}
	paths, err := s.kv.ListPaths(ctx, chunkPrefix(projectID, docID))
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	payloads, err := s.fetchChunks(ctx, paths, doc.NumChunks)
	if err != nil {
		return nil, err
	}
	return chunkcodec.Decode(payloads)
}

// fetchChunks downloads each listed chunk concurrently and reassembles the
// payloads strictly by index, independent of listing or arrival order.
func (s *Store) fetchChunks(ctx context.Context, paths []string, numChunks int) ([]string, error) {
	payloads := make([]string, numChunks)
	seen := make([]bool, numChunks)

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error
	sem := make(chan struct{}, downloadWorkers)
	for _, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()
			fields, err := s.kv.Get(ctx, path)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("read chunk %s: %w", path, err)
				}
				mu.Unlock()
				return
			}
			index := fieldInt(fields, "index")
			data := fieldString(fields, "data")
			mu.Lock()
			if index >= 0 && index < numChunks {
				payloads[index] = data
				seen[index] = true
			}
			mu.Unlock()
		}(path)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	for i := 0; i < numChunks; i++ {
		if !seen[i] {
			return nil, fmt.Errorf("%w: index %d of %d", appErr.ErrMissingChunk, i, numChunks)
		}
	}
	return payloads, nil
}

func (s *Store) GetInfo(ctx context.Context, projectID, docID string) (*model.Document, error) {
	fields, err := s.kv.Get(ctx, docPath(projectID, docID))
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return nil, appErr.ErrDocumentNotFound
		}
		return nil, err
	}
	return docFromFields(projectID, docID, fields), nil
}

// List returns the owner's documents in one project, newest first.
func (s *Store) List(ctx context.Context, projectID, ownerID string) ([]*model.Document, error) {
	prefix := fmt.Sprintf("projects/%s/documents/", projectID)
	records, err := s.kv.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var docs []*model.Document
	for _, record := range records {
		rest := strings.TrimPrefix(record.Path, prefix)
		// Chunk and annotation records share the prefix; metadata paths
		// have no further segments.
		if strings.Contains(rest, "/") {
			continue
		}
		doc := docFromFields(projectID, rest, record.Fields)
		if ownerID != "" && doc.OwnerID != ownerID {
			continue
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Ctime != docs[j].Ctime {
			return docs[i].Ctime > docs[j].Ctime
		}
		return docs[i].ID > docs[j].ID
	})
	return docs, nil
}

// Delete removes the chunk set and annotation record best effort, then the
// metadata record last so a concurrent reader never finds metadata whose
// chunks are already gone. Only a failed metadata delete fails the call.
func (s *Store) Delete(ctx context.Context, projectID, docID string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("project_id", projectID), zap.String("doc_id", docID))
	paths, err := s.kv.ListPaths(ctx, chunkPrefix(projectID, docID))
	if err != nil {
		logger.Warn("list chunks for delete failed", zap.Error(err))
	}
	var wg sync.WaitGroup
	sem := make(chan struct{}, deleteWorkers)
	for _, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.kv.Delete(ctx, path); err != nil {
				logger.Warn("chunk delete failed", zap.String("path", path), zap.Error(err))
			}
		}(path)
	}
	wg.Wait()
	if err := s.kv.Delete(ctx, annotationPath(projectID, docID)); err != nil {
		logger.Warn("annotation delete failed", zap.Error(err))
	}
	if err := s.kv.Delete(ctx, docPath(projectID, docID)); err != nil {
		return fmt.Errorf("delete document metadata: %w", err)
	}
	logger.Info("document deleted", zap.Int("chunks", len(paths)))
	return nil
}

func docFromFields(projectID, docID string, fields kvstore.Fields) *model.Document {
	return &model.Document{
		ID:        docID,
		ProjectID: projectID,
		OwnerID:   fieldString(fields, "owner_id"),
		Name:      fieldString(fields, "name"),
		MimeType:  fieldString(fields, "mime_type"),
		Size:      int64(fieldInt(fields, "size")),
		NumChunks: fieldInt(fields, "num_chunks"),
		Ctime:     int64(fieldInt(fields, "ctime")),
	}
}

func fieldString(fields kvstore.Fields, key string) string {
	value, _ := fields[key].(string)
	return value
}

func fieldInt(fields kvstore.Fields, key string) int {
	switch v := fields[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}
