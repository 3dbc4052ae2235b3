package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
)

// Service exposes room type management and the availability ledger.
type Service interface {
	CreateRoomType(ctx context.Context, input CreateRoomTypeInput) (*models.RoomType, error)
	ActivateRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error)
	GetRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error)
	ListRoomTypes(ctx context.Context, activeOnly bool) ([]models.RoomType, error)
	UpdateDays(ctx context.Context, roomTypeID uuid.UUID, updates []DayUpdate) error
	Availability(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) (int, error)
	Calendar(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]models.InventoryDay, error)
}

// CreateRoomTypeInput captures the data needed to register a room type.
type CreateRoomTypeInput struct {
	Name       string          `json:"name"`
	TotalRooms int             `json:"total_rooms"`
	BaseRate   decimal.Decimal `json:"base_rate"`
}

type service struct {
	repo        Repository
	roomTypes   RoomTypeRepository
	horizonDays int
}

// NewService wires the inventory service with its repositories. horizonDays
// controls how far ahead the ledger is seeded when a room type activates.
func NewService(repo Repository, roomTypes RoomTypeRepository, horizonDays int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if roomTypes == nil {
		return nil, fmt.Errorf("room type repository required")
	}
	if horizonDays <= 0 {
		return nil, fmt.Errorf("sales horizon must be positive")
	}
	return &service{repo: repo, roomTypes: roomTypes, horizonDays: horizonDays}, nil
}

func (s *service) CreateRoomType(ctx context.Context, input CreateRoomTypeInput) (*models.RoomType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room type name is required")
	}
	if input.TotalRooms <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total rooms must be positive")
	}
	if input.BaseRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base rate cannot be negative")
	}

	roomType := &models.RoomType{
		Name:       name,
		TotalRooms: input.TotalRooms,
		BaseRate:   input.BaseRate,
	}
	return s.roomTypes.CreateRoomType(ctx, roomType)
}

// ActivateRoomType flips the room type live and seeds the ledger out to the
// sales horizon so every sellable night has a row before the first booking
// or channel push touches it.
func (s *service) ActivateRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error) {
	roomType, err := s.roomTypes.GetRoomType(ctx, id)
	if err != nil {
		return nil, err
	}

	if !roomType.IsActive {
		roomType.IsActive = true
		if _, err := s.roomTypes.UpdateRoomType(ctx, roomType); err != nil {
			return nil, err
		}
	}

	from := NormalizeDate(time.Now())
	to := from.AddDate(0, 0, s.horizonDays)
	if _, err := s.repo.SeedRange(ctx, roomType, from, to); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seeding inventory ledger")
	}
	return roomType, nil
}

func (s *service) GetRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error) {
	return s.roomTypes.GetRoomType(ctx, id)
}

func (s *service) ListRoomTypes(ctx context.Context, activeOnly bool) ([]models.RoomType, error) {
	return s.roomTypes.ListRoomTypes(ctx, activeOnly)
}

func (s *service) UpdateDays(ctx context.Context, roomTypeID uuid.UUID, updates []DayUpdate) error {
	if len(updates) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one day update is required")
	}
	if _, err := s.roomTypes.GetRoomType(ctx, roomTypeID); err != nil {
		return err
	}
	return s.repo.BulkUpdate(ctx, roomTypeID, updates)
}

func (s *service) Availability(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) (int, error) {
	return s.repo.GetMinAvailability(ctx, roomTypeID, from, to)
}

func (s *service) Calendar(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]models.InventoryDay, error) {
	if !NormalizeDate(to).After(NormalizeDate(from)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "range end must be after range start")
	}
	return s.repo.GetForRange(ctx, roomTypeID, from, to)
}
