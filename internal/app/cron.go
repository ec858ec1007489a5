package app

import (
	"context"
	"time"

	"github.com/tablecast/signage/internal/modules/storage/media"
	pkgcron "github.com/tablecast/signage/internal/pkg/cron"
	"github.com/tablecast/signage/internal/pkg/session"
	"go.uber.org/zap"
)

const sessionRetention = 7 * 24 * time.Hour

// registerCronJobs registers the scheduled background jobs.
func (a *App) registerCronJobs(reconciler *media.Reconciler) {
	cronLogger := a.logger.Named("cron")

	if a.cfg.Reconcile.Enabled {
		minAge := a.cfg.Reconcile.MinAge
		a.sched.Register(pkgcron.Job{
			Name:        "reconcile_media",
			Description: "delete bucket objects with no media row",
			Interval:    a.cfg.Reconcile.Interval,
			Fn: func(ctx context.Context) error {
				rep, err := reconciler.Sweep(ctx, media.SweepOptions{Apply: true, MinAge: minAge})
				if err != nil {
					return err
				}
				cronLogger.Info("media reconciled",
					zap.Int("objects", rep.Objects),
					zap.Int("rows", rep.Rows),
					zap.Int("orphans", len(rep.OrphanObjects)),
					zap.Int("deleted", rep.Deleted),
					zap.Int("missing_objects", len(rep.MissingObjects)),
				)
				return nil
			},
		})
	}

	a.sched.Register(pkgcron.Job{
		Name:        "purge_sessions",
		Description: "drop sessions expired or revoked over a week ago",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := session.Purge(a.db.WithContext(ctx), time.Now().Add(-sessionRetention))
			if err != nil {
				return err
			}
			cronLogger.Info("sessions purged", zap.Int64("count", n))
			return nil
		},
	})
}
