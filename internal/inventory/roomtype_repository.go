package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
)

// RoomTypeRepository defines CRUD operations for room types.
type RoomTypeRepository interface {
	CreateRoomType(ctx context.Context, roomType *models.RoomType) (*models.RoomType, error)
	UpdateRoomType(ctx context.Context, roomType *models.RoomType) (*models.RoomType, error)
	GetRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error)
	ListRoomTypes(ctx context.Context, activeOnly bool) ([]models.RoomType, error)
}

type roomTypeRepository struct {
	db *gorm.DB
}

// NewRoomTypeRepository builds a room type repository tied to the provided GORM DB.
func NewRoomTypeRepository(db *gorm.DB) RoomTypeRepository {
	return &roomTypeRepository{db: db}
}

func (r *roomTypeRepository) CreateRoomType(ctx context.Context, roomType *models.RoomType) (*models.RoomType, error) {
	if roomType.ID == uuid.Nil {
		roomType.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(roomType).Error; err != nil {
		return nil, err
	}
	return roomType, nil
}

func (r *roomTypeRepository) UpdateRoomType(ctx context.Context, roomType *models.RoomType) (*models.RoomType, error) {
	if err := r.db.WithContext(ctx).Save(roomType).Error; err != nil {
		return nil, err
	}
	return roomType, nil
}

func (r *roomTypeRepository) GetRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error) {
	var roomType models.RoomType
	if err := r.db.WithContext(ctx).First(&roomType, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &roomType, nil
}

func (r *roomTypeRepository) ListRoomTypes(ctx context.Context, activeOnly bool) ([]models.RoomType, error) {
	var rows []models.RoomType
	qb := r.db.WithContext(ctx).Order("created_at ASC")
	if activeOnly {
		qb = qb.Where("is_active = ?", true)
	}
	return rows, qb.Find(&rows).Error
}
