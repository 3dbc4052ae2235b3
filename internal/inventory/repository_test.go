package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	roomTypes := `
CREATE TABLE IF NOT EXISTS room_types (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  total_rooms INTEGER NOT NULL,
  base_rate NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	inventoryDays := `
CREATE TABLE IF NOT EXISTS inventory_days (
  id TEXT PRIMARY KEY,
  room_type_id TEXT NOT NULL,
  date DATETIME NOT NULL,
  total_rooms INTEGER NOT NULL,
  available_rooms INTEGER NOT NULL,
  booked_rooms INTEGER NOT NULL DEFAULT 0,
  stop_sell INTEGER NOT NULL DEFAULT 0,
  min_stay INTEGER NOT NULL DEFAULT 1,
  price_override NUMERIC,
  updated_at DATETIME,
  UNIQUE (room_type_id, date)
);`
	require.NoError(t, db.Exec(roomTypes).Error)
	require.NoError(t, db.Exec(inventoryDays).Error)
	return db
}

func newRoomType(t *testing.T, db *gorm.DB, totalRooms int) *models.RoomType {
	t.Helper()

	roomType := &models.RoomType{
		ID:         uuid.New(),
		Name:       "Deluxe King",
		TotalRooms: totalRooms,
		IsActive:   true,
	}
	require.NoError(t, db.Create(roomType).Error)
	return roomType
}

func seedDays(t *testing.T, db *gorm.DB, roomType *models.RoomType, from time.Time, nights int) {
	t.Helper()

	repo := NewRepository(db)
	created, err := repo.SeedRange(context.Background(), roomType, from, from.AddDate(0, 0, nights))
	require.NoError(t, err)
	require.Equal(t, nights, created)
}

func TestSeedRangeIsIdempotent(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	roomType := newRoomType(t, db, 10)
	from := NormalizeDate(time.Now())

	created, err := repo.SeedRange(ctx, roomType, from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, 7, created)

	// Drain one night, then re-seed a wider range. The drained night must
	// keep its adjusted count.
	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.DeductRooms(ctx, tx, roomType.ID, from, from.AddDate(0, 0, 1), 4)
	})
	require.NoError(t, err)

	created, err = repo.SeedRange(ctx, roomType, from, from.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	day, err := repo.GetForDate(ctx, roomType.ID, from)
	require.NoError(t, err)
	assert.Equal(t, 6, day.AvailableRooms)
	assert.Equal(t, 4, day.BookedRooms)
}

func TestDeductAndRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	roomType := newRoomType(t, db, 8)
	from := NormalizeDate(time.Now())
	seedDays(t, db, roomType, from, 5)

	checkOut := from.AddDate(0, 0, 3)
	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.DeductRooms(ctx, tx, roomType.ID, from, checkOut, 2)
	})
	require.NoError(t, err)

	days, err := repo.GetForRange(ctx, roomType.ID, from, checkOut)
	require.NoError(t, err)
	require.Len(t, days, 3)
	for _, day := range days {
		assert.Equal(t, 6, day.AvailableRooms)
		assert.Equal(t, 2, day.BookedRooms)
	}

	// The night after check-out is untouched.
	after, err := repo.GetForDate(ctx, roomType.ID, checkOut)
	require.NoError(t, err)
	assert.Equal(t, 8, after.AvailableRooms)

	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.RestoreRooms(ctx, tx, roomType.ID, from, checkOut, 2)
	})
	require.NoError(t, err)

	days, err = repo.GetForRange(ctx, roomType.ID, from, checkOut)
	require.NoError(t, err)
	for _, day := range days {
		assert.Equal(t, 8, day.AvailableRooms)
		assert.Equal(t, 0, day.BookedRooms)
	}
}

func TestDeductRoomsShortfallRollsBack(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	roomType := newRoomType(t, db, 5)
	from := NormalizeDate(time.Now())
	seedDays(t, db, roomType, from, 4)

	// Drain the middle night so a 4-night stay cannot be satisfied.
	middle := from.AddDate(0, 0, 2)
	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.DeductRooms(ctx, tx, roomType.ID, middle, middle.AddDate(0, 0, 1), 5)
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.DeductRooms(ctx, tx, roomType.ID, from, from.AddDate(0, 0, 4), 2)
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientInventory))

	// No night lost rooms to the failed attempt, including the ones the
	// conditional update had matched before the rollback.
	days, err := repo.GetForRange(ctx, roomType.ID, from, from.AddDate(0, 0, 4))
	require.NoError(t, err)
	require.Len(t, days, 4)
	assert.Equal(t, 5, days[0].AvailableRooms)
	assert.Equal(t, 5, days[1].AvailableRooms)
	assert.Equal(t, 0, days[2].AvailableRooms)
	assert.Equal(t, 5, days[3].AvailableRooms)
}

func TestDeductRoomsLastRoomSingleWinner(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	roomType := newRoomType(t, db, 1)
	from := NormalizeDate(time.Now())
	seedDays(t, db, roomType, from, 2)

	stay := from.AddDate(0, 0, 2)
	first := db.Transaction(func(tx *gorm.DB) error {
		return repo.DeductRooms(ctx, tx, roomType.ID, from, stay, 1)
	})
	second := db.Transaction(func(tx *gorm.DB) error {
		return repo.DeductRooms(ctx, tx, roomType.ID, from, stay, 1)
	})

	require.NoError(t, first)
	require.Error(t, second)
	assert.True(t, pkgerrors.HasCode(second, pkgerrors.CodeInsufficientInventory))

	avail, err := repo.GetMinAvailability(ctx, roomType.ID, from, stay)
	require.NoError(t, err)
	assert.Equal(t, 0, avail)
}

func TestDeductRoomsRespectsStopSell(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	roomType := newRoomType(t, db, 5)
	from := NormalizeDate(time.Now())
	seedDays(t, db, roomType, from, 3)

	stop := true
	require.NoError(t, repo.BulkUpdate(ctx, roomType.ID, []DayUpdate{
		{Date: from.AddDate(0, 0, 1), StopSell: &stop},
	}))

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.DeductRooms(ctx, tx, roomType.ID, from, from.AddDate(0, 0, 3), 1)
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientInventory))
}

func TestRestoreRoomsClampsAtCapacity(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	roomType := newRoomType(t, db, 3)
	from := NormalizeDate(time.Now())
	seedDays(t, db, roomType, from, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.RestoreRooms(ctx, tx, roomType.ID, from, from.AddDate(0, 0, 2), 5)
	})
	require.NoError(t, err)

	days, err := repo.GetForRange(ctx, roomType.ID, from, from.AddDate(0, 0, 2))
	require.NoError(t, err)
	for _, day := range days {
		assert.Equal(t, 3, day.AvailableRooms)
		assert.Equal(t, 0, day.BookedRooms)
	}
}

func TestGetMinAvailability(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	roomType := newRoomType(t, db, 10)
	from := NormalizeDate(time.Now())
	seedDays(t, db, roomType, from, 3)

	// Make the middle night the bottleneck.
	err := db.Transaction(func(tx *gorm.DB) error {
		middle := from.AddDate(0, 0, 1)
		return repo.DeductRooms(ctx, tx, roomType.ID, middle, middle.AddDate(0, 0, 1), 7)
	})
	require.NoError(t, err)

	avail, err := repo.GetMinAvailability(ctx, roomType.ID, from, from.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, avail)

	// A stop-sell night zeroes the whole range.
	stop := true
	require.NoError(t, repo.BulkUpdate(ctx, roomType.ID, []DayUpdate{
		{Date: from.AddDate(0, 0, 2), StopSell: &stop},
	}))
	avail, err = repo.GetMinAvailability(ctx, roomType.ID, from, from.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 0, avail)

	// Nights beyond the seeded horizon are unsellable.
	avail, err = repo.GetMinAvailability(ctx, roomType.ID, from, from.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, 0, avail)
}

func TestBulkUpdateValidation(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	roomType := newRoomType(t, db, 4)
	from := NormalizeDate(time.Now())
	seedDays(t, db, roomType, from, 2)

	negative := -1
	err := repo.BulkUpdate(ctx, roomType.ID, []DayUpdate{
		{Date: from, AvailableRooms: &negative},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	two := 2
	err = repo.BulkUpdate(ctx, roomType.ID, []DayUpdate{
		{Date: from.AddDate(0, 0, 30), AvailableRooms: &two},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	minStay := 3
	require.NoError(t, repo.BulkUpdate(ctx, roomType.ID, []DayUpdate{
		{Date: from, AvailableRooms: &two, MinStay: &minStay},
	}))
	day, err := repo.GetForDate(ctx, roomType.ID, from)
	require.NoError(t, err)
	assert.Equal(t, 2, day.AvailableRooms)
	assert.Equal(t, 3, day.MinStay)
}

func TestBulkUpdateTotalRoomsRecomputesAvailability(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	roomType := newRoomType(t, db, 10)
	from := NormalizeDate(time.Now())
	seedDays(t, db, roomType, from, 1)

	// Book 6 of 10 rooms so the night carries a live booked count.
	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.DeductRooms(ctx, tx, roomType.ID, from, from.AddDate(0, 0, 1), 6)
	})
	require.NoError(t, err)

	// Shrinking capacity below the booked count clamps availability to zero.
	four := 4
	require.NoError(t, repo.BulkUpdate(ctx, roomType.ID, []DayUpdate{
		{Date: from, TotalRooms: &four},
	}))
	day, err := repo.GetForDate(ctx, roomType.ID, from)
	require.NoError(t, err)
	assert.Equal(t, 4, day.TotalRooms)
	assert.Equal(t, 0, day.AvailableRooms)
	assert.Equal(t, 6, day.BookedRooms)

	// Growing capacity frees the difference.
	twelve := 12
	require.NoError(t, repo.BulkUpdate(ctx, roomType.ID, []DayUpdate{
		{Date: from, TotalRooms: &twelve},
	}))
	day, err = repo.GetForDate(ctx, roomType.ID, from)
	require.NoError(t, err)
	assert.Equal(t, 12, day.TotalRooms)
	assert.Equal(t, 6, day.AvailableRooms)

	// An explicit available count wins over the recompute.
	three := 3
	ten := 10
	require.NoError(t, repo.BulkUpdate(ctx, roomType.ID, []DayUpdate{
		{Date: from, TotalRooms: &ten, AvailableRooms: &three},
	}))
	day, err = repo.GetForDate(ctx, roomType.ID, from)
	require.NoError(t, err)
	assert.Equal(t, 10, day.TotalRooms)
	assert.Equal(t, 3, day.AvailableRooms)

	negative := -1
	err = repo.BulkUpdate(ctx, roomType.ID, []DayUpdate{
		{Date: from, TotalRooms: &negative},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestHasStopSell(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	roomType := newRoomType(t, db, 5)
	from := NormalizeDate(time.Now())
	seedDays(t, db, roomType, from, 5)

	closed, err := repo.HasStopSell(ctx, roomType.ID, from, from.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.False(t, closed, "freshly seeded nights are all open")

	stop := true
	require.NoError(t, repo.BulkUpdate(ctx, roomType.ID, []DayUpdate{
		{Date: from.AddDate(0, 0, 2), StopSell: &stop},
	}))

	closed, err = repo.HasStopSell(ctx, roomType.ID, from, from.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.True(t, closed, "a single closed night closes the range")

	// A range ending before the closed night stays open.
	closed, err = repo.HasStopSell(ctx, roomType.ID, from, from.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.False(t, closed)

	// Unseeded ranges have nothing closed.
	closed, err = repo.HasStopSell(ctx, roomType.ID, from.AddDate(0, 0, 30), from.AddDate(0, 0, 35))
	require.NoError(t, err)
	assert.False(t, closed)
}
