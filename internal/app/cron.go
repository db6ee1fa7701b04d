package app

import (
	"context"
	"fmt"
	"time"

	"github.com/daily-reflections/core/internal/config"
	"github.com/daily-reflections/core/internal/modules/content/diary"
	"github.com/daily-reflections/core/internal/modules/storage/backup"
	pkgcron "github.com/daily-reflections/core/internal/pkg/cron"
	"github.com/daily-reflections/core/internal/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	jobPurgeSessions = "purge_sessions"
	jobPurgeTasks    = "purge_enrichment_tasks"
	jobBackup        = "auto_backup"

	taskRetention = 7 * 24 * time.Hour
)

// registerCronJobs registers all scheduled background jobs.
func (a *App) registerCronJobs() error {
	cronLogger := a.logger.Named("CronService")

	a.sched.Register(pkgcron.Job{
		Name:        jobPurgeSessions,
		Description: "Delete expired and revoked sessions",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := session.Purge(a.db.WithContext(ctx), time.Now())
			if err != nil {
				return err
			}
			cronLogger.Info("purged sessions", zap.Int64("deleted", n))
			return nil
		},
	})

	a.sched.Register(pkgcron.Job{
		Name:        jobPurgeTasks,
		Description: "Drop finished enrichment task records older than a week",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := a.tasks.DeleteFinished(ctx, time.Now().Add(-taskRetention))
			if err != nil {
				return err
			}
			cronLogger.Info("purged enrichment tasks", zap.Int("deleted", n))
			return nil
		},
	})

	if !a.cfg.Backup.Enable {
		return nil
	}
	svc, err := NewBackupService(a.cfg, a.db, a.entries, a.logger)
	if err != nil {
		return err
	}
	a.sched.Register(pkgcron.Job{
		Name:        jobBackup,
		Description: "Archive users and diary entries",
		Interval:    a.cfg.BackupInterval(),
		Fn: func(ctx context.Context) error {
			art, err := svc.Run(ctx)
			if art != nil {
				cronLogger.Info("backup written",
					zap.String("file", art.Filename),
					zap.Int64("size", art.Size),
					zap.String("remote", art.RemoteURL))
			}
			return err
		},
	})
	return nil
}

// NewBackupService builds the archive service from runtime config, attaching
// the S3 uploader when credentials are present.
func NewBackupService(cfg *config.AppConfig, db *gorm.DB, entries *diary.Service, logger *zap.Logger) (*backup.Service, error) {
	var opts []backup.Option
	if cfg.Backup.S3.Configured() {
		up, err := backup.NewS3Uploader(cfg.Backup.S3)
		if err != nil {
			return nil, fmt.Errorf("backup s3: %w", err)
		}
		opts = append(opts, backup.WithUploader(up, ""))
	}
	return backup.NewService(db, entries, cfg.BackupDir(), logger, opts...), nil
}
