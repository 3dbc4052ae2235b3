package models

import (
	"time"

	"github.com/google/uuid"
)

// ChannelConnection is one configured external distribution channel.
// Credentials holds the vault-encrypted blob; it is never stored in plain
// text and never returned by the API.
type ChannelConnection struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChannelName string     `gorm:"column:channel_name;not null;uniqueIndex:ux_channel_connections_name"`
	APIEndpoint string     `gorm:"column:api_endpoint;not null"`
	Credentials string     `gorm:"column:credentials;type:text;not null"`
	IsActive    bool       `gorm:"column:is_active;not null;default:false"`
	LastSyncAt  *time.Time `gorm:"column:last_sync_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
