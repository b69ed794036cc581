package service

import (
	"context"
	"strings"

	"github.com/draftmark/draftmark/internal/docstore"
	"github.com/draftmark/draftmark/internal/model"
	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
)

type DocumentService struct {
	store *docstore.Store
}

func NewDocumentService(store *docstore.Store) *DocumentService {
	return &DocumentService{store: store}
}

func (s *DocumentService) Upload(ctx context.Context, projectID, ownerID, name, mimeType string, data []byte, cover []byte) (*model.Document, error) {
	if projectID == "" || ownerID == "" {
		return nil, appErr.ErrInvalid
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErr.ErrInvalid
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return s.store.Put(ctx, projectID, ownerID, name, mimeType, data, docstore.PutOptions{CoverImage: cover})
}

func (s *DocumentService) Download(ctx context.Context, projectID, docID string) (*model.Document, []byte, error) {
	doc, err := s.store.GetInfo(ctx, projectID, docID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.store.Get(ctx, projectID, docID)
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

func (s *DocumentService) List(ctx context.Context, projectID, ownerID string) ([]*model.Document, error) {
	if projectID == "" {
		return nil, appErr.ErrInvalid
	}
	return s.store.List(ctx, projectID, ownerID)
}

func (s *DocumentService) Delete(ctx context.Context, projectID, docID string) error {
	if projectID == "" || docID == "" {
		return appErr.ErrInvalid
	}
	return s.store.Delete(ctx, projectID, docID)
}
