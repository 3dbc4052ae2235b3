package channels

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lagunahotels/channelsync-backend/pkg/db"
	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	"github.com/lagunahotels/channelsync-backend/pkg/enums"
)

func setupChannelsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:channels_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	connections := `
CREATE TABLE IF NOT EXISTS channel_connections (
  id TEXT PRIMARY KEY,
  channel_name TEXT NOT NULL UNIQUE,
  api_endpoint TEXT NOT NULL,
  credentials TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 0,
  last_sync_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	mappings := `
CREATE TABLE IF NOT EXISTS channel_mappings (
  id TEXT PRIMARY KEY,
  channel_name TEXT NOT NULL,
  room_type_id TEXT NOT NULL,
  rate_plan_id TEXT,
  external_room_id TEXT NOT NULL,
  external_rate_id TEXT,
  sync_availability INTEGER NOT NULL DEFAULT 1,
  sync_rates INTEGER NOT NULL DEFAULT 1,
  sync_reservations INTEGER NOT NULL DEFAULT 1,
  status TEXT NOT NULL DEFAULT 'active',
  failure_count INTEGER NOT NULL DEFAULT 0,
  last_sync_at DATETIME,
  last_sync_status TEXT,
  last_error TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (channel_name, room_type_id, rate_plan_id)
);`
	require.NoError(t, conn.Exec(connections).Error)
	require.NoError(t, conn.Exec(mappings).Error)
	return conn
}

func newConnection(t *testing.T, conn *gorm.DB, name string) *models.ChannelConnection {
	t.Helper()

	record := &models.ChannelConnection{
		ID:          uuid.New(),
		ChannelName: name,
		APIEndpoint: "https://api." + name + ".example/v1",
		Credentials: "{}",
		IsActive:    true,
	}
	require.NoError(t, conn.Create(record).Error)
	return record
}

func newMapping(t *testing.T, conn *gorm.DB, channelName string) *models.ChannelMapping {
	t.Helper()

	record := &models.ChannelMapping{
		ID:             uuid.New(),
		ChannelName:    channelName,
		RoomTypeID:     uuid.New(),
		ExternalRoomID: "EXT-101",
		SyncAvail:      true,
		SyncRates:      true,
		SyncResv:       true,
		Status:         enums.MappingStatusActive,
	}
	require.NoError(t, conn.Create(record).Error)
	return record
}

func TestConnectionNameIsUnique(t *testing.T) {
	t.Parallel()

	conn := setupChannelsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	_, err := repo.CreateConnection(ctx, &models.ChannelConnection{
		ChannelName: "stayhub",
		APIEndpoint: "https://api.stayhub.example/v1",
	})
	require.NoError(t, err)

	_, err = repo.CreateConnection(ctx, &models.ChannelConnection{
		ChannelName: "stayhub",
		APIEndpoint: "https://other.example",
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "ux_channel_connections_name"))
}

func TestTouchLastSync(t *testing.T) {
	t.Parallel()

	conn := setupChannelsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	newConnection(t, conn, "stayhub")

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.TouchLastSync(ctx, "stayhub", at))

	fetched, err := repo.GetConnectionByName(ctx, "stayhub")
	require.NoError(t, err)
	require.NotNil(t, fetched.LastSyncAt)
	assert.WithinDuration(t, at, *fetched.LastSyncAt, time.Second)
}

func TestRecordSyncFailureEscalatesToError(t *testing.T) {
	t.Parallel()

	conn := setupChannelsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	newConnection(t, conn, "stayhub")
	mapping := newMapping(t, conn, "stayhub")

	const maxFailures = 3
	for i := 0; i < maxFailures-1; i++ {
		require.NoError(t, repo.RecordSyncFailure(ctx, mapping.ID, time.Now(), "timeout", maxFailures))
		fetched, err := repo.GetMapping(ctx, mapping.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.MappingStatusActive, fetched.Status)
	}

	require.NoError(t, repo.RecordSyncFailure(ctx, mapping.ID, time.Now(), "timeout", maxFailures))
	fetched, err := repo.GetMapping(ctx, mapping.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MappingStatusError, fetched.Status)
	assert.Equal(t, maxFailures, fetched.FailureCount)
	require.NotNil(t, fetched.LastError)
	assert.Equal(t, "timeout", *fetched.LastError)

	// One success recovers the mapping and resets the streak.
	require.NoError(t, repo.RecordSyncSuccess(ctx, mapping.ID, time.Now()))
	fetched, err = repo.GetMapping(ctx, mapping.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MappingStatusActive, fetched.Status)
	assert.Equal(t, 0, fetched.FailureCount)
	assert.Nil(t, fetched.LastError)
}

func TestRecordSyncFailureLeavesInactiveMappings(t *testing.T) {
	t.Parallel()

	conn := setupChannelsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	newConnection(t, conn, "stayhub")
	mapping := newMapping(t, conn, "stayhub")
	mapping.Status = enums.MappingStatusInactive
	require.NoError(t, conn.Save(mapping).Error)

	require.NoError(t, repo.RecordSyncFailure(ctx, mapping.ID, time.Now(), "timeout", 1))
	fetched, err := repo.GetMapping(ctx, mapping.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MappingStatusInactive, fetched.Status)
}

func TestReactivateErrorMappings(t *testing.T) {
	t.Parallel()

	conn := setupChannelsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	newConnection(t, conn, "stayhub")
	newConnection(t, conn, "roamly")

	parked := newMapping(t, conn, "stayhub")
	require.NoError(t, repo.RecordSyncFailure(ctx, parked.ID, time.Now(), "api key revoked", 1))

	inactive := newMapping(t, conn, "stayhub")
	inactive.Status = enums.MappingStatusInactive
	require.NoError(t, conn.Save(inactive).Error)

	other := newMapping(t, conn, "roamly")
	require.NoError(t, repo.RecordSyncFailure(ctx, other.ID, time.Now(), "api key revoked", 1))

	n, err := repo.ReactivateErrorMappings(ctx, "stayhub", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	fetched, err := repo.GetMapping(ctx, parked.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MappingStatusActive, fetched.Status)
	assert.Equal(t, 0, fetched.FailureCount)
	assert.Nil(t, fetched.LastError)

	// Manually disabled mappings stay disabled.
	fetched, err = repo.GetMapping(ctx, inactive.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MappingStatusInactive, fetched.Status)

	// Other channels are untouched.
	fetched, err = repo.GetMapping(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MappingStatusError, fetched.Status)
}

func TestCountMappingsByChannel(t *testing.T) {
	t.Parallel()

	conn := setupChannelsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	newConnection(t, conn, "stayhub")
	newConnection(t, conn, "roamly")
	newMapping(t, conn, "stayhub")
	newMapping(t, conn, "stayhub")

	count, err := repo.CountMappingsByChannel(ctx, "stayhub")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountMappingsByChannel(ctx, "roamly")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
