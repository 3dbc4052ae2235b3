package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lagunahotels/channelsync-backend/pkg/enums"
)

// ChannelMapping ties a local (room type, rate plan) pair to the identifiers
// the external channel knows them by. A nil RatePlanID means the base rate.
// FailureCount tracks consecutive failed sync attempts; the orchestrator
// flips Status to error once it crosses the configured threshold and back to
// active on the next success.
type ChannelMapping struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChannelName    string              `gorm:"column:channel_name;not null;uniqueIndex:ux_channel_mappings_triple,priority:1"`
	RoomTypeID     uuid.UUID           `gorm:"column:room_type_id;type:uuid;not null;uniqueIndex:ux_channel_mappings_triple,priority:2"`
	RatePlanID     *uuid.UUID          `gorm:"column:rate_plan_id;type:uuid;uniqueIndex:ux_channel_mappings_triple,priority:3"`
	ExternalRoomID string              `gorm:"column:external_room_id;not null"`
	ExternalRateID string              `gorm:"column:external_rate_id"`
	SyncAvail      bool                `gorm:"column:sync_availability;not null;default:true"`
	SyncRates      bool                `gorm:"column:sync_rates;not null;default:true"`
	SyncResv       bool                `gorm:"column:sync_reservations;not null;default:true"`
	Status         enums.MappingStatus `gorm:"column:status;not null;default:'active'"`
	FailureCount   int                 `gorm:"column:failure_count;not null;default:0"`
	LastSyncAt     *time.Time          `gorm:"column:last_sync_at"`
	LastSyncStatus *string             `gorm:"column:last_sync_status"`
	LastError      *string             `gorm:"column:last_error"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
