package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/lagunahotels/channelsync-backend/pkg/logger"
)

const (
	defaultPruneInterval   = 24 * time.Hour
	defaultLogRetentionDay = 90
)

type syncLogPruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SyncLogPruneJobParams configure the sync log retention job.
type SyncLogPruneJobParams struct {
	Logger        *logger.Logger
	Logs          syncLogPruner
	RetentionDays int
	Interval      time.Duration
}

// NewSyncLogPruneJob builds the job that trims completed sync log entries
// past the retention window.
func NewSyncLogPruneJob(params SyncLogPruneJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Logs == nil {
		return nil, fmt.Errorf("sync log repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultLogRetentionDay
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultPruneInterval
	}
	return &syncLogPruneJob{
		logg:      params.Logger,
		logs:      params.Logs,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}, nil
}

type syncLogPruneJob struct {
	logg      *logger.Logger
	logs      syncLogPruner
	retention int
	interval  time.Duration
	now       func() time.Time
}

func (j *syncLogPruneJob) Name() string { return "synclog-prune" }

func (j *syncLogPruneJob) Interval() time.Duration { return j.interval }

func (j *syncLogPruneJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.logs.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sync log prune: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "sync log prune complete")
	return nil
}
