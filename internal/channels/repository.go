package channels

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	"github.com/lagunahotels/channelsync-backend/pkg/enums"
)

// ConnectionRepository defines persistence for configured channels.
type ConnectionRepository interface {
	CreateConnection(ctx context.Context, conn *models.ChannelConnection) (*models.ChannelConnection, error)
	UpdateConnection(ctx context.Context, conn *models.ChannelConnection) (*models.ChannelConnection, error)
	DeleteConnection(ctx context.Context, id uuid.UUID) error
	GetConnection(ctx context.Context, id uuid.UUID) (*models.ChannelConnection, error)
	GetConnectionByName(ctx context.Context, channelName string) (*models.ChannelConnection, error)
	ListConnections(ctx context.Context, activeOnly bool) ([]models.ChannelConnection, error)
	TouchLastSync(ctx context.Context, channelName string, at time.Time) error
}

// MappingRepository defines persistence for room type mappings.
type MappingRepository interface {
	CreateMapping(ctx context.Context, mapping *models.ChannelMapping) (*models.ChannelMapping, error)
	UpdateMapping(ctx context.Context, mapping *models.ChannelMapping) (*models.ChannelMapping, error)
	DeleteMapping(ctx context.Context, id uuid.UUID) error
	GetMapping(ctx context.Context, id uuid.UUID) (*models.ChannelMapping, error)
	ListMappingsByChannel(ctx context.Context, channelName string) ([]models.ChannelMapping, error)
	ListMappingsByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]models.ChannelMapping, error)
	CountMappingsByChannel(ctx context.Context, channelName string) (int64, error)
	RecordSyncSuccess(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordSyncFailure(ctx context.Context, id uuid.UUID, at time.Time, cause string, maxFailures int) error
	ReactivateErrorMappings(ctx context.Context, channelName string, at time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds connection and mapping repositories over one GORM DB.
func NewRepository(db *gorm.DB) *repository {
	return &repository{db: db}
}

var (
	_ ConnectionRepository = (*repository)(nil)
	_ MappingRepository    = (*repository)(nil)
)

func (r *repository) CreateConnection(ctx context.Context, conn *models.ChannelConnection) (*models.ChannelConnection, error) {
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(conn).Error; err != nil {
		return nil, err
	}
	return conn, nil
}

func (r *repository) UpdateConnection(ctx context.Context, conn *models.ChannelConnection) (*models.ChannelConnection, error) {
	if err := r.db.WithContext(ctx).Save(conn).Error; err != nil {
		return nil, err
	}
	return conn, nil
}

func (r *repository) DeleteConnection(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ChannelConnection{}).Error
}

func (r *repository) GetConnection(ctx context.Context, id uuid.UUID) (*models.ChannelConnection, error) {
	var conn models.ChannelConnection
	if err := r.db.WithContext(ctx).First(&conn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *repository) GetConnectionByName(ctx context.Context, channelName string) (*models.ChannelConnection, error) {
	var conn models.ChannelConnection
	if err := r.db.WithContext(ctx).First(&conn, "channel_name = ?", channelName).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *repository) ListConnections(ctx context.Context, activeOnly bool) ([]models.ChannelConnection, error) {
	var rows []models.ChannelConnection
	qb := r.db.WithContext(ctx).Order("channel_name ASC")
	if activeOnly {
		qb = qb.Where("is_active = ?", true)
	}
	return rows, qb.Find(&rows).Error
}

func (r *repository) TouchLastSync(ctx context.Context, channelName string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ChannelConnection{}).
		Where("channel_name = ?", channelName).
		UpdateColumn("last_sync_at", at).
		Error
}

func (r *repository) CreateMapping(ctx context.Context, mapping *models.ChannelMapping) (*models.ChannelMapping, error) {
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(mapping).Error; err != nil {
		return nil, err
	}
	return mapping, nil
}

func (r *repository) UpdateMapping(ctx context.Context, mapping *models.ChannelMapping) (*models.ChannelMapping, error) {
	if err := r.db.WithContext(ctx).Save(mapping).Error; err != nil {
		return nil, err
	}
	return mapping, nil
}

func (r *repository) DeleteMapping(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ChannelMapping{}).Error
}

func (r *repository) GetMapping(ctx context.Context, id uuid.UUID) (*models.ChannelMapping, error) {
	var mapping models.ChannelMapping
	if err := r.db.WithContext(ctx).First(&mapping, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *repository) ListMappingsByChannel(ctx context.Context, channelName string) ([]models.ChannelMapping, error) {
	var rows []models.ChannelMapping
	err := r.db.WithContext(ctx).
		Where("channel_name = ?", channelName).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

func (r *repository) ListMappingsByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]models.ChannelMapping, error) {
	var rows []models.ChannelMapping
	err := r.db.WithContext(ctx).
		Where("room_type_id = ?", roomTypeID).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

func (r *repository) CountMappingsByChannel(ctx context.Context, channelName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChannelMapping{}).
		Where("channel_name = ?", channelName).
		Count(&count).
		Error
	return count, err
}

// RecordSyncSuccess resets the failure streak and reactivates a mapping that
// had been parked in the error state.
func (r *repository) RecordSyncSuccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	status := string(enums.SyncStatusSuccess)
	return r.db.WithContext(ctx).
		Model(&models.ChannelMapping{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failure_count":    0,
			"status":           enums.MappingStatusActive,
			"last_sync_at":     at,
			"last_sync_status": status,
			"last_error":       nil,
			"updated_at":       at,
		}).
		Error
}

// RecordSyncFailure bumps the consecutive failure count and parks the mapping
// in the error state once it reaches maxFailures.
func (r *repository) RecordSyncFailure(ctx context.Context, id uuid.UUID, at time.Time, cause string, maxFailures int) error {
	status := string(enums.SyncStatusFailed)
	if err := r.db.WithContext(ctx).
		Model(&models.ChannelMapping{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failure_count":    gorm.Expr("failure_count + 1"),
			"last_sync_at":     at,
			"last_sync_status": status,
			"last_error":       cause,
			"updated_at":       at,
		}).
		Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.ChannelMapping{}).
		Where("id = ? AND failure_count >= ? AND status <> ?", id, maxFailures, enums.MappingStatusInactive).
		UpdateColumn("status", enums.MappingStatusError).
		Error
}

// ReactivateErrorMappings returns a channel's error-parked mappings to the
// active state with a clean failure streak. Inactive mappings stay inactive.
func (r *repository) ReactivateErrorMappings(ctx context.Context, channelName string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ChannelMapping{}).
		Where("channel_name = ? AND status = ?", channelName, enums.MappingStatusError).
		Updates(map[string]any{
			"status":        enums.MappingStatusActive,
			"failure_count": 0,
			"last_error":    nil,
			"updated_at":    at,
		})
	return result.RowsAffected, result.Error
}
