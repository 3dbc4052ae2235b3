package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
)

// Repository defines persistence operations for the per-day inventory ledger.
type Repository interface {
	GetForDate(ctx context.Context, roomTypeID uuid.UUID, date time.Time) (*models.InventoryDay, error)
	GetForRange(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]models.InventoryDay, error)
	DeductRooms(ctx context.Context, tx *gorm.DB, roomTypeID uuid.UUID, checkIn, checkOut time.Time, qty int) error
	RestoreRooms(ctx context.Context, tx *gorm.DB, roomTypeID uuid.UUID, checkIn, checkOut time.Time, qty int) error
	BulkUpdate(ctx context.Context, roomTypeID uuid.UUID, updates []DayUpdate) error
	GetMinAvailability(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) (int, error)
	HasStopSell(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) (bool, error)
	SeedRange(ctx context.Context, roomType *models.RoomType, from, to time.Time) (int, error)
}

// DayUpdate describes an inventory mutation for a single date.
type DayUpdate struct {
	Date           time.Time
	TotalRooms     *int
	AvailableRooms *int
	StopSell       *bool
	MinStay        *int
	PriceOverride  *decimal.Decimal
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// NormalizeDate truncates a timestamp to midnight UTC so ledger lookups
// always compare whole stay-nights.
func NormalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights counts the stay-nights between check-in and check-out.
func Nights(checkIn, checkOut time.Time) int {
	return int(NormalizeDate(checkOut).Sub(NormalizeDate(checkIn)).Hours() / 24)
}

// DateRange lists the nights in [from, to), one entry per day.
func DateRange(from, to time.Time) []time.Time {
	from = NormalizeDate(from)
	to = NormalizeDate(to)
	var dates []time.Time
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

func (r *repository) GetForDate(ctx context.Context, roomTypeID uuid.UUID, date time.Time) (*models.InventoryDay, error) {
	var day models.InventoryDay
	err := r.db.WithContext(ctx).
		First(&day, "room_type_id = ? AND date = ?", roomTypeID, NormalizeDate(date)).
		Error
	if err != nil {
		return nil, err
	}
	return &day, nil
}

func (r *repository) GetForRange(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]models.InventoryDay, error) {
	var days []models.InventoryDay
	err := r.db.WithContext(ctx).
		Where("room_type_id = ? AND date >= ? AND date < ?", roomTypeID, NormalizeDate(from), NormalizeDate(to)).
		Order("date ASC").
		Find(&days).
		Error
	return days, err
}

// DeductRooms atomically takes qty rooms out of every night of the stay.
// The conditional WHERE clause is the concurrency control: a night with
// fewer than qty rooms left, or one flagged stop-sell, is simply not
// matched, and the affected-row count exposes the shortfall. Callers must
// run this inside a transaction so a partial match rolls back cleanly.
func (r *repository) DeductRooms(ctx context.Context, tx *gorm.DB, roomTypeID uuid.UUID, checkIn, checkOut time.Time, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "room quantity must be positive")
	}
	nights := Nights(checkIn, checkOut)
	if nights <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "check-out must be after check-in")
	}

	result := tx.WithContext(ctx).
		Model(&models.InventoryDay{}).
		Where("room_type_id = ? AND date >= ? AND date < ? AND stop_sell = ? AND available_rooms >= ?",
			roomTypeID, NormalizeDate(checkIn), NormalizeDate(checkOut), false, qty).
		Updates(map[string]any{
			"available_rooms": gorm.Expr("available_rooms - ?", qty),
			"booked_rooms":    gorm.Expr("booked_rooms + ?", qty),
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(nights) {
		return pkgerrors.New(pkgerrors.CodeInsufficientInventory,
			fmt.Sprintf("only %d of %d nights had %d rooms available", result.RowsAffected, nights, qty))
	}
	return nil
}

// RestoreRooms returns qty rooms to every night of the stay, clamping so a
// night never exceeds its total capacity or drops booked below zero.
func (r *repository) RestoreRooms(ctx context.Context, tx *gorm.DB, roomTypeID uuid.UUID, checkIn, checkOut time.Time, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "room quantity must be positive")
	}
	return tx.WithContext(ctx).
		Model(&models.InventoryDay{}).
		Where("room_type_id = ? AND date >= ? AND date < ?",
			roomTypeID, NormalizeDate(checkIn), NormalizeDate(checkOut)).
		Updates(map[string]any{
			"available_rooms": gorm.Expr(
				"CASE WHEN available_rooms + ? > total_rooms THEN total_rooms ELSE available_rooms + ? END", qty, qty),
			"booked_rooms": gorm.Expr(
				"CASE WHEN booked_rooms - ? < 0 THEN 0 ELSE booked_rooms - ? END", qty, qty),
			"updated_at": time.Now().UTC(),
		}).
		Error
}

// BulkUpdate applies per-date overrides for a room type. Only the fields
// set on each DayUpdate are written. Changing total_rooms recomputes
// available_rooms as total minus booked, floored at zero, unless the same
// update pins available_rooms explicitly.
func (r *repository) BulkUpdate(ctx context.Context, roomTypeID uuid.UUID, updates []DayUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, update := range updates {
			fields := map[string]any{"updated_at": time.Now().UTC()}
			if update.TotalRooms != nil {
				if *update.TotalRooms < 0 {
					return pkgerrors.New(pkgerrors.CodeValidation, "total rooms cannot be negative")
				}
				fields["total_rooms"] = *update.TotalRooms
				if update.AvailableRooms == nil {
					fields["available_rooms"] = gorm.Expr(
						"CASE WHEN ? - booked_rooms < 0 THEN 0 ELSE ? - booked_rooms END",
						*update.TotalRooms, *update.TotalRooms)
				}
			}
			if update.AvailableRooms != nil {
				if *update.AvailableRooms < 0 {
					return pkgerrors.New(pkgerrors.CodeValidation, "available rooms cannot be negative")
				}
				fields["available_rooms"] = *update.AvailableRooms
			}
			if update.StopSell != nil {
				fields["stop_sell"] = *update.StopSell
			}
			if update.MinStay != nil {
				if *update.MinStay < 1 {
					return pkgerrors.New(pkgerrors.CodeValidation, "min stay must be at least 1")
				}
				fields["min_stay"] = *update.MinStay
			}
			if update.PriceOverride != nil {
				fields["price_override"] = *update.PriceOverride
			}

			result := tx.Model(&models.InventoryDay{}).
				Where("room_type_id = ? AND date = ?", roomTypeID, NormalizeDate(update.Date)).
				Updates(fields)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("no inventory row for %s", NormalizeDate(update.Date).Format("2006-01-02")))
			}
		}
		return nil
	})
}

// GetMinAvailability returns the bottleneck availability across the range:
// the lowest sellable count over every night, where a stop-sell night
// counts as zero. A range with any night missing from the ledger is not
// sellable at all and reports zero.
func (r *repository) GetMinAvailability(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) (int, error) {
	nights := Nights(from, to)
	if nights <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "range end must be after range start")
	}

	var row struct {
		MinAvail *int
		Cnt      int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.InventoryDay{}).
		Select("MIN(CASE WHEN stop_sell THEN 0 ELSE available_rooms END) AS min_avail, COUNT(*) AS cnt").
		Where("room_type_id = ? AND date >= ? AND date < ?", roomTypeID, NormalizeDate(from), NormalizeDate(to)).
		Scan(&row).
		Error
	if err != nil {
		return 0, err
	}
	if row.Cnt < int64(nights) || row.MinAvail == nil {
		return 0, nil
	}
	return *row.MinAvail, nil
}

func (r *repository) HasStopSell(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryDay{}).
		Where("room_type_id = ? AND date >= ? AND date < ? AND stop_sell = ?",
			roomTypeID, NormalizeDate(from), NormalizeDate(to), true).
		Count(&count).
		Error
	return count > 0, err
}

// SeedRange creates ledger rows for every missing night in [from, to),
// initialized to the room type's full capacity. Existing rows are left
// untouched so re-seeding never clobbers manual adjustments. Returns the
// number of rows created.
func (r *repository) SeedRange(ctx context.Context, roomType *models.RoomType, from, to time.Time) (int, error) {
	dates := DateRange(from, to)
	if len(dates) == 0 {
		return 0, nil
	}

	var existing []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.InventoryDay{}).
		Where("room_type_id = ? AND date >= ? AND date < ?", roomType.ID, dates[0], NormalizeDate(to)).
		Pluck("date", &existing).
		Error
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, d := range existing {
		seen[NormalizeDate(d).Format("2006-01-02")] = struct{}{}
	}

	var rows []models.InventoryDay
	for _, d := range dates {
		if _, ok := seen[d.Format("2006-01-02")]; ok {
			continue
		}
		rows = append(rows, models.InventoryDay{
			ID:             uuid.New(),
			RoomTypeID:     roomType.ID,
			Date:           d,
			TotalRooms:     roomType.TotalRooms,
			AvailableRooms: roomType.TotalRooms,
			BookedRooms:    0,
			MinStay:        1,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&rows, 200).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}
