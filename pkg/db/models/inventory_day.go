package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryDay is one night of sellable inventory for a room type. Rows are
// created up to the sales horizon and never deleted, only superseded by later
// writes. available_rooms + booked_rooms never exceeds total_rooms and
// available_rooms never goes negative; both are enforced by conditional
// updates at the storage layer, not by application locks.
type InventoryDay struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RoomTypeID     uuid.UUID        `gorm:"column:room_type_id;type:uuid;not null;uniqueIndex:ux_inventory_days_room_type_date,priority:1"`
	Date           time.Time        `gorm:"column:date;type:date;not null;uniqueIndex:ux_inventory_days_room_type_date,priority:2"`
	TotalRooms     int              `gorm:"column:total_rooms;not null"`
	AvailableRooms int              `gorm:"column:available_rooms;not null"`
	BookedRooms    int              `gorm:"column:booked_rooms;not null;default:0"`
	StopSell       bool             `gorm:"column:stop_sell;not null;default:false"`
	MinStay        int              `gorm:"column:min_stay;not null;default:1"`
	PriceOverride  *decimal.Decimal `gorm:"column:price_override;type:numeric(12,2)"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectiveAvailability is the sellable count for the night: zero when the
// night is closed to sale regardless of remaining rooms.
func (d InventoryDay) EffectiveAvailability() int {
	if d.StopSell {
		return 0
	}
	return d.AvailableRooms
}
