package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoomType is a sellable room category with its physical capacity and base
// nightly rate. Activation seeds the per-day inventory ledger.
type RoomType struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string          `gorm:"column:name;not null"`
	TotalRooms int             `gorm:"column:total_rooms;not null"`
	BaseRate   decimal.Decimal `gorm:"column:base_rate;type:numeric(12,2);not null"`
	IsActive   bool            `gorm:"column:is_active;not null;default:false"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
