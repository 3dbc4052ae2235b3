package booking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	"github.com/lagunahotels/channelsync-backend/pkg/enums"
)

// Repository defines persistence operations for bookings. Creation takes an
// explicit transaction handle because a booking row and its ledger deduction
// must commit or roll back together.
type Repository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	Update(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.BookingStatus) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetByExternalRef(ctx context.Context, externalRef string) (*models.Booking, error)
	ListByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]models.Booking, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a booking repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *repository) Update(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := r.db.WithContext(ctx).Save(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *repository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.BookingStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		UpdateColumn("status", status).
		Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByExternalRef(ctx context.Context, externalRef string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "external_ref = ?", externalRef).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Where("room_type_id = ?", roomTypeID).
		Order("check_in ASC").
		Find(&rows).
		Error
	return rows, err
}
