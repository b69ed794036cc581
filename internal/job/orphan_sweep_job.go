package job

import (
	"context"
	"errors"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/draftmark/draftmark/internal/kvstore"
	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
)

// OrphanSweepJob removes chunk and annotation records whose document
// metadata no longer exists. Uploads write metadata before any chunk, and
// deletes remove metadata last, so records under a metadata-less document
// path are leftovers of an aborted upload cleanup or a partially failed
// delete.
type OrphanSweepJob struct {
	kv kvstore.Store
}

func NewOrphanSweepJob(kv kvstore.Store) *OrphanSweepJob {
	return &OrphanSweepJob{kv: kv}
}

func (j *OrphanSweepJob) Name() string {
	return "orphan_sweep"
}

func (j *OrphanSweepJob) Run(ctx context.Context) error {
	if j.kv == nil {
		return nil
	}
	paths, err := j.kv.ListPaths(ctx, "projects/")
	if err != nil {
		return err
	}
	checked := map[string]bool{}
	swept := 0
	for _, path := range paths {
		docPath, ok := parentDocPath(path)
		if !ok || checked[docPath] {
			continue
		}
		checked[docPath] = true
		if _, err := j.kv.Get(ctx, docPath); err == nil {
			continue
		} else if !errors.Is(err, appErr.ErrNotFound) {
			return err
		}
		swept += j.sweepDoc(ctx, docPath)
	}
	if swept > 0 {
		logutil.GetLogger(ctx).Info("orphan records swept", zap.Int("count", swept))
	}
	return nil
}

func (j *OrphanSweepJob) sweepDoc(ctx context.Context, docPath string) int {
	logger := logutil.GetLogger(ctx).With(zap.String("doc_path", docPath))
	subPaths, err := j.kv.ListPaths(ctx, docPath+"/")
	if err != nil {
		logger.Warn("list orphan records failed", zap.Error(err))
		return 0
	}
	swept := 0
	for _, subPath := range subPaths {
		if err := j.kv.Delete(ctx, subPath); err != nil {
			logger.Warn("delete orphan record failed", zap.String("path", subPath), zap.Error(err))
			continue
		}
		swept++
	}
	return swept
}

// parentDocPath maps a chunk or annotation path back to its document
// metadata path. Metadata paths themselves are not sub-records.
func parentDocPath(path string) (string, bool) {
	parts := strings.Split(path, "/")
	// projects/{p}/documents/{d}/<sub>/...
	if len(parts) < 5 || parts[0] != "projects" || parts[2] != "documents" {
		return "", false
	}
	return strings.Join(parts[:4], "/"), true
}
