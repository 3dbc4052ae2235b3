package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	"github.com/lagunahotels/channelsync-backend/pkg/enums"
	"github.com/lagunahotels/channelsync-backend/pkg/pagination"
)

// LogFilters narrows sync log listings.
type LogFilters struct {
	ChannelName string
	Direction   *enums.SyncDirection
	SyncType    *enums.SyncType
	Status      *enums.SyncStatus
}

// LogPage is one page of sync log entries with the cursor to the next.
type LogPage struct {
	Entries    []models.SyncLog
	NextCursor string
}

// LogRepository persists the append-only sync audit trail.
type LogRepository interface {
	Start(ctx context.Context, channelName string, direction enums.SyncDirection, syncType enums.SyncType) (*models.SyncLog, error)
	Complete(ctx context.Context, id uuid.UUID, status enums.SyncStatus, processed int, itemErrors []string, errMsg *string) error
	List(ctx context.Context, filters LogFilters, params pagination.Params) (*LogPage, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type logRepository struct {
	db *gorm.DB
}

// NewLogRepository builds the sync log repository.
func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

// Start inserts a pending entry so a crashed run still leaves a trace.
func (r *logRepository) Start(ctx context.Context, channelName string, direction enums.SyncDirection, syncType enums.SyncType) (*models.SyncLog, error) {
	entry := &models.SyncLog{
		ID:          uuid.New(),
		ChannelName: channelName,
		Direction:   direction,
		SyncType:    syncType,
		Status:      enums.SyncStatusPending,
		StartedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Complete finalizes an entry exactly once. Entries that already carry a
// completed_at timestamp are immutable and left untouched.
func (r *logRepository) Complete(ctx context.Context, id uuid.UUID, status enums.SyncStatus, processed int, itemErrors []string, errMsg *string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.SyncLog{}).
		Where("id = ? AND completed_at IS NULL", id).
		Updates(map[string]any{
			"status":            status,
			"records_processed": processed,
			"item_errors":       pq.StringArray(itemErrors),
			"error_message":     errMsg,
			"completed_at":      now,
		}).
		Error
}

func (r *logRepository) List(ctx context.Context, filters LogFilters, params pagination.Params) (*LogPage, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.SyncLog{})
	if filters.ChannelName != "" {
		qb = qb.Where("channel_name = ?", filters.ChannelName)
	}
	if filters.Direction != nil {
		qb = qb.Where("direction = ?", *filters.Direction)
	}
	if filters.SyncType != nil {
		qb = qb.Where("sync_type = ?", *filters.SyncType)
	}
	if filters.Status != nil {
		qb = qb.Where("status = ?", *filters.Status)
	}
	if cursor != nil {
		qb = qb.Where("(started_at < ?) OR (started_at = ? AND id < ?)", cursor.StartedAt, cursor.StartedAt, cursor.ID)
	}

	var rows []models.SyncLog
	err = qb.Order("started_at DESC").Order("id DESC").Limit(pageSize + 1).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := &LogPage{Entries: rows}
	if len(rows) > pageSize {
		page.Entries = rows[:pageSize]
		last := page.Entries[len(page.Entries)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{StartedAt: last.StartedAt, ID: last.ID})
	}
	return page, nil
}

// PruneOlderThan deletes completed entries started before the cutoff. Pending
// entries survive regardless of age so an in-flight run is never erased.
func (r *logRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("started_at < ? AND completed_at IS NOT NULL", cutoff).
		Delete(&models.SyncLog{})
	return result.RowsAffected, result.Error
}
