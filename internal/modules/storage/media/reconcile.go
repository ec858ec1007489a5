package media

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"github.com/tablecast/signage/internal/pkg/objectstore"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SweepOptions struct {
	// Apply deletes orphan objects; otherwise the sweep only reports.
	Apply bool
	// MinAge protects objects whose row may still be in flight.
	MinAge time.Duration
	Prefix string
}

type SweepReport struct {
	Objects        int                      `json:"objects"`
	Rows           int                      `json:"rows"`
	OrphanObjects  []objectstore.ObjectInfo `json:"orphan_objects"`
	MissingObjects []string                 `json:"missing_objects"`
	Deleted        int                      `json:"deleted"`
	Failed         []string                 `json:"failed,omitempty"`
	Applied        bool                     `json:"applied"`
}

// Reconciler compares the bucket with media_files. Objects with no row are
// orphans and may be deleted; rows with no object are only reported.
type Reconciler struct {
	db     *gorm.DB
	store  objectstore.Gateway
	logger *zap.Logger
	now    func() time.Time
}

func NewReconciler(db *gorm.DB, store objectstore.Gateway, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{db: db, store: store, logger: logger.Named("reconcile"), now: time.Now}
}

func (r *Reconciler) Sweep(ctx context.Context, opts SweepOptions) (*SweepReport, error) {
	objects, err := r.store.List(ctx, opts.Prefix)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Storage("list bucket", err)
	}

	var paths []string
	q := r.db.WithContext(ctx).Model(&models.MediaFileModel{})
	if opts.Prefix != "" {
		q = q.Where("file_path LIKE ?", opts.Prefix+"%")
	}
	if err := q.Pluck("file_path", &paths).Error; err != nil {
		return nil, apperr.Database("list media paths", err)
	}
	// LIKE treats _ and % in the prefix as wildcards.
	paths = slices.DeleteFunc(paths, func(p string) bool { return !strings.HasPrefix(p, opts.Prefix) })

	known := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		known[p] = struct{}{}
	}
	present := make(map[string]struct{}, len(objects))

	report := &SweepReport{
		Objects:        len(objects),
		Rows:           len(paths),
		OrphanObjects:  []objectstore.ObjectInfo{},
		MissingObjects: []string{},
		Applied:        opts.Apply,
	}
	cutoff := r.now().Add(-opts.MinAge)
	for _, obj := range objects {
		present[obj.Path] = struct{}{}
		if _, ok := known[obj.Path]; ok {
			continue
		}
		if !obj.UpdatedAt.IsZero() && obj.UpdatedAt.After(cutoff) {
			continue
		}
		report.OrphanObjects = append(report.OrphanObjects, obj)
	}
	for _, p := range paths {
		if _, ok := present[p]; !ok {
			report.MissingObjects = append(report.MissingObjects, p)
		}
	}

	if opts.Apply {
		for _, obj := range report.OrphanObjects {
			if err := r.store.Delete(ctx, obj.Path); err != nil {
				report.Failed = append(report.Failed, obj.Path)
				r.logger.Warn("orphan delete failed", zap.String("path", obj.Path), zap.Error(err))
				continue
			}
			report.Deleted++
		}
	}

	r.logger.Info("sweep finished",
		zap.Int("objects", report.Objects),
		zap.Int("rows", report.Rows),
		zap.Int("orphans", len(report.OrphanObjects)),
		zap.Int("missing", len(report.MissingObjects)),
		zap.Int("deleted", report.Deleted),
		zap.Bool("apply", opts.Apply),
	)
	return report, nil
}
