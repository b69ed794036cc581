package service

import (
	"context"

	"github.com/draftmark/draftmark/internal/annotation"
	"github.com/draftmark/draftmark/internal/model"
	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
)

// AnnotationService applies structured mutations to a document's
// annotation set and writes the whole set back after every change. There
// is no dirty state held across calls; a failed persist is surfaced and
// the in-memory change is discarded with it.
type AnnotationService struct {
	sync *annotation.Sync
}

func NewAnnotationService(sync *annotation.Sync) *AnnotationService {
	return &AnnotationService{sync: sync}
}

func (s *AnnotationService) Load(ctx context.Context, projectID, docID string) (*annotation.Set, error) {
	if projectID == "" || docID == "" {
		return nil, appErr.ErrInvalid
	}
	return s.sync.Load(ctx, projectID, docID)
}

func (s *AnnotationService) AddHighlight(ctx context.Context, projectID, docID string, position model.Position, content model.HighlightContent, comment model.Comment, severity model.Severity, category model.Category) (*model.Highlight, error) {
	set, err := s.Load(ctx, projectID, docID)
	if err != nil {
		return nil, err
	}
	highlight := set.AddHighlight(position, content, comment, severity, category)
	if err := s.sync.Persist(ctx, projectID, docID, set); err != nil {
		return nil, err
	}
	return highlight, nil
}

func (s *AnnotationService) UpdateGeometry(ctx context.Context, projectID, docID, highlightID string, position model.Position, content model.HighlightContent) error {
	set, err := s.Load(ctx, projectID, docID)
	if err != nil {
		return err
	}
	if err := set.UpdateGeometry(highlightID, position, content); err != nil {
		return err
	}
	return s.sync.Persist(ctx, projectID, docID, set)
}

func (s *AnnotationService) RemoveHighlight(ctx context.Context, projectID, docID, highlightID string) error {
	set, err := s.Load(ctx, projectID, docID)
	if err != nil {
		return err
	}
	if err := set.Remove(highlightID); err != nil {
		return err
	}
	return s.sync.Persist(ctx, projectID, docID, set)
}

func (s *AnnotationService) AppendReply(ctx context.Context, projectID, docID, highlightID, text, authorID string) (*model.Reply, error) {
	set, err := s.Load(ctx, projectID, docID)
	if err != nil {
		return nil, err
	}
	reply, err := set.AppendReply(highlightID, text, authorID)
	if err != nil {
		return nil, err
	}
	if err := s.sync.Persist(ctx, projectID, docID, set); err != nil {
		return nil, err
	}
	return reply, nil
}
