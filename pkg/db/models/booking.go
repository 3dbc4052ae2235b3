package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lagunahotels/channelsync-backend/pkg/enums"
)

// Booking is a reservation holding rooms against the inventory ledger.
// ExternalRef carries the channel's reservation id for pulled bookings and is
// unique, which makes repeated pulls idempotent at the storage layer.
type Booking struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RoomTypeID  uuid.UUID           `gorm:"column:room_type_id;type:uuid;not null;index:ix_bookings_room_type"`
	CheckIn     time.Time           `gorm:"column:check_in;type:date;not null"`
	CheckOut    time.Time           `gorm:"column:check_out;type:date;not null"`
	Rooms       int                 `gorm:"column:rooms;not null;default:1"`
	Status      enums.BookingStatus `gorm:"column:status;not null;default:'pending'"`
	Source      enums.BookingSource `gorm:"column:source;not null;default:'direct'"`
	ChannelName *string             `gorm:"column:channel_name"`
	ExternalRef *string             `gorm:"column:external_ref;uniqueIndex:ux_bookings_external_ref"`
	GuestName   string              `gorm:"column:guest_name;not null"`
	GuestEmail  string              `gorm:"column:guest_email"`
	Adults      int                 `gorm:"column:adults;not null;default:1"`
	Children    int                 `gorm:"column:children;not null;default:0"`
	Total       decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Nights returns the count of occupied nights in [CheckIn, CheckOut).
func (b Booking) Nights() int {
	nights := int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
	if nights < 0 {
		return 0
	}
	return nights
}
