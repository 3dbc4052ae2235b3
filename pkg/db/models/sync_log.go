package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lagunahotels/channelsync-backend/pkg/enums"
)

// SyncLog is one append-only record per synchronization attempt. A row is
// immutable once CompletedAt is set; old rows are pruned by the retention job.
type SyncLog struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChannelName      string              `gorm:"column:channel_name;not null;index:ix_sync_logs_channel"`
	Direction        enums.SyncDirection `gorm:"column:direction;not null"`
	SyncType         enums.SyncType      `gorm:"column:sync_type;not null"`
	Status           enums.SyncStatus    `gorm:"column:status;not null;default:'pending'"`
	RecordsProcessed int                 `gorm:"column:records_processed;not null;default:0"`
	ErrorMessage     *string             `gorm:"column:error_message"`
	ItemErrors       pq.StringArray      `gorm:"column:item_errors;type:text[]"`
	StartedAt        time.Time           `gorm:"column:started_at;not null"`
	CompletedAt      *time.Time          `gorm:"column:completed_at"`
}
