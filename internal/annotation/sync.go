package annotation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/draftmark/draftmark/internal/docstore"
	"github.com/draftmark/draftmark/internal/kvstore"
	"github.com/draftmark/draftmark/internal/model"
	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
)

// Set is the whole annotation state of one document. It is replaced
// wholesale on every persist; there is no structural merge between
// concurrent editors, the last completed write wins.
type Set struct {
	Highlights []model.Highlight `json:"highlights"`
	UpdatedAt  int64             `json:"updated_at"`
}

// AddHighlight appends a highlight with a fresh id and returns it.
func (s *Set) AddHighlight(position model.Position, content model.HighlightContent, comment model.Comment, severity model.Severity, category model.Category) *model.Highlight {
	if !severity.IsValid() {
		severity = model.SeverityMedium
	}
	if !category.IsValid() {
		category = model.CategoryGeneral
	}
	highlight := model.Highlight{
		ID:       uuid.NewString(),
		Position: position,
		Content:  content,
		Comment:  comment,
		Severity: severity,
		Category: category,
	}
	s.Highlights = append(s.Highlights, highlight)
	return &s.Highlights[len(s.Highlights)-1]
}

// UpdateGeometry replaces the position and captured content of a highlight.
func (s *Set) UpdateGeometry(id string, position model.Position, content model.HighlightContent) error {
	highlight := s.find(id)
	if highlight == nil {
		return appErr.ErrNotFound
	}
	highlight.Position = position
	highlight.Content = content
	return nil
}

func (s *Set) Remove(id string) error {
	for i := range s.Highlights {
		if s.Highlights[i].ID == id {
			s.Highlights = append(s.Highlights[:i], s.Highlights[i+1:]...)
			return nil
		}
	}
	return appErr.ErrNotFound
}

// AppendReply prepends a reply so the thread reads newest first.
func (s *Set) AppendReply(highlightID, text, authorID string) (*model.Reply, error) {
	highlight := s.find(highlightID)
	if highlight == nil {
		return nil, appErr.ErrNotFound
	}
	reply := model.Reply{
		ID:       uuid.NewString(),
		Text:     text,
		AuthorID: authorID,
		Ctime:    time.Now().Unix(),
	}
	highlight.Replies = append([]model.Reply{reply}, highlight.Replies...)
	return &highlight.Replies[0], nil
}

func (s *Set) find(id string) *model.Highlight {
	for i := range s.Highlights {
		if s.Highlights[i].ID == id {
			return &s.Highlights[i]
		}
	}
	return nil
}

// Sync loads and persists annotation sets against the backing store.
type Sync struct {
	kv kvstore.Store
}

func NewSync(kv kvstore.Store) *Sync {
	return &Sync{kv: kv}
}

// Load returns the stored set, or an empty set when the document has no
// annotations yet.
func (s *Sync) Load(ctx context.Context, projectID, docID string) (*Set, error) {
	fields, err := s.kv.Get(ctx, docstore.AnnotationPath(projectID, docID))
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return &Set{}, nil
		}
		return nil, err
	}
	return setFromFields(fields)
}

// Persist writes the entire set as one record with a fresh update
// timestamp. Top-level fields not owned by this component are preserved
// through the store's merge; concurrent persists are not serialized here.
func (s *Sync) Persist(ctx context.Context, projectID, docID string, set *Set) error {
	set.UpdatedAt = time.Now().Unix()
	highlights, err := highlightsToValue(set.Highlights)
	if err != nil {
		return err
	}
	fields := kvstore.Fields{
		"highlights": highlights,
		"updated_at": set.UpdatedAt,
	}
	if err := s.kv.Merge(ctx, docstore.AnnotationPath(projectID, docID), fields); err != nil {
		return fmt.Errorf("persist annotations: %w", err)
	}
	logutil.GetLogger(ctx).Debug("annotations persisted",
		zap.String("project_id", projectID),
		zap.String("doc_id", docID),
		zap.Int("highlights", len(set.Highlights)))
	return nil
}

func highlightsToValue(highlights []model.Highlight) (interface{}, error) {
	if highlights == nil {
		highlights = []model.Highlight{}
	}
	data, err := json.Marshal(highlights)
	if err != nil {
		return nil, fmt.Errorf("encode highlights: %w", err)
	}
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decode highlights: %w", err)
	}
	return value, nil
}

func setFromFields(fields kvstore.Fields) (*Set, error) {
	set := &Set{}
	if raw, ok := fields["highlights"]; ok && raw != nil {
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("encode stored highlights: %w", err)
		}
		if err := json.Unmarshal(data, &set.Highlights); err != nil {
			return nil, fmt.Errorf("decode stored highlights: %w", err)
		}
	}
	if updated, ok := fields["updated_at"].(float64); ok {
		set.UpdatedAt = int64(updated)
	}
	return set, nil
}
