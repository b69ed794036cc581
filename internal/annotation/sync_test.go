package annotation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/draftmark/draftmark/internal/docstore"
	"github.com/draftmark/draftmark/internal/kvstore"
	"github.com/draftmark/draftmark/internal/model"
	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
)

func samplePosition(page int) model.Position {
	return model.Position{
		PageNumber:      page,
		BoundingBox:     model.Rect{X: 10, Y: 20, Width: 100, Height: 40},
		Rects:           []model.Rect{{X: 10, Y: 20, Width: 100, Height: 20}},
		CoordinateSpace: "pdf",
	}
}

func TestLoadEmptySet(t *testing.T) {
	sync := NewSync(kvstore.NewMemory())
	set, err := sync.Load(context.Background(), "p1", "d1")
	require.NoError(t, err)
	require.Empty(t, set.Highlights)
}

func TestMutations(t *testing.T) {
	set := &Set{}
	h := set.AddHighlight(samplePosition(1), model.HighlightContent{Text: "beam detail"}, model.Comment{Text: "check load"}, model.SeverityHigh, model.CategoryDesign)
	require.NotEmpty(t, h.ID)
	require.Equal(t, model.SeverityHigh, h.Severity)

	// Invalid enum values fall back to the defaults.
	h2 := set.AddHighlight(samplePosition(2), model.HighlightContent{}, model.Comment{Text: "?"}, model.Severity("weird"), model.Category("nope"))
	require.Equal(t, model.SeverityMedium, h2.Severity)
	require.Equal(t, model.CategoryGeneral, h2.Category)

	require.NoError(t, set.UpdateGeometry(h.ID, samplePosition(3), model.HighlightContent{Text: "moved"}))
	require.Equal(t, 3, set.Highlights[0].Position.PageNumber)
	require.ErrorIs(t, set.UpdateGeometry("missing", samplePosition(1), model.HighlightContent{}), appErr.ErrNotFound)

	first, err := set.AppendReply(h.ID, "first", "alice")
	require.NoError(t, err)
	second, err := set.AppendReply(h.ID, "second", "bob")
	require.NoError(t, err)
	require.Equal(t, second.ID, set.Highlights[0].Replies[0].ID)
	require.Equal(t, first.ID, set.Highlights[0].Replies[1].ID)
	_, err = set.AppendReply("missing", "x", "")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, set.Remove(h2.ID))
	require.Len(t, set.Highlights, 1)
	require.ErrorIs(t, set.Remove(h2.ID), appErr.ErrNotFound)
}

func TestPersistLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	sync := NewSync(kvstore.NewMemory())

	set := &Set{}
	h := set.AddHighlight(samplePosition(4), model.HighlightContent{Text: "pump room"}, model.Comment{Text: "clearance too tight"}, model.SeverityCritical, model.CategorySafety)
	_, err := set.AppendReply(h.ID, "older reply", "alice")
	require.NoError(t, err)
	_, err = set.AppendReply(h.ID, "newer reply", "bob")
	require.NoError(t, err)

	require.NoError(t, sync.Persist(ctx, "p1", "d1", set))

	loaded, err := sync.Load(ctx, "p1", "d1")
	require.NoError(t, err)
	require.Equal(t, set.Highlights, loaded.Highlights)
	require.Equal(t, "newer reply", loaded.Highlights[0].Replies[0].Text)
	require.Equal(t, set.UpdatedAt, loaded.UpdatedAt)
}

func TestPersistReplacesWholeSet(t *testing.T) {
	ctx := context.Background()
	sync := NewSync(kvstore.NewMemory())

	first := &Set{}
	first.AddHighlight(samplePosition(1), model.HighlightContent{}, model.Comment{Text: "a"}, model.SeverityLow, model.CategoryGeneral)
	first.AddHighlight(samplePosition(2), model.HighlightContent{}, model.Comment{Text: "b"}, model.SeverityLow, model.CategoryGeneral)
	require.NoError(t, sync.Persist(ctx, "p1", "d1", first))

	second := &Set{}
	second.AddHighlight(samplePosition(9), model.HighlightContent{}, model.Comment{Text: "only"}, model.SeverityHigh, model.CategoryCost)
	require.NoError(t, sync.Persist(ctx, "p1", "d1", second))

	loaded, err := sync.Load(ctx, "p1", "d1")
	require.NoError(t, err)
	require.Len(t, loaded.Highlights, 1)
	require.Equal(t, "only", loaded.Highlights[0].Comment.Text)
}

func TestPersistPreservesUnrelatedTopLevelFields(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	sync := NewSync(kv)

	path := docstore.AnnotationPath("p1", "d1")
	require.NoError(t, kv.Put(ctx, path, kvstore.Fields{"viewer_state": "zoomed"}))

	set := &Set{}
	set.AddHighlight(samplePosition(1), model.HighlightContent{}, model.Comment{Text: "c"}, model.SeverityLow, model.CategoryOther)
	require.NoError(t, sync.Persist(ctx, "p1", "d1", set))

	fields, err := kv.Get(ctx, path)
	require.NoError(t, err)
	require.Equal(t, "zoomed", fields["viewer_state"])
	require.NotNil(t, fields["highlights"])
}
