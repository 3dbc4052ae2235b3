package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lagunahotels/channelsync-backend/internal/inventory"
	"github.com/lagunahotels/channelsync-backend/internal/pricing"
	"github.com/lagunahotels/channelsync-backend/pkg/db"
	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	"github.com/lagunahotels/channelsync-backend/pkg/enums"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
	"github.com/lagunahotels/channelsync-backend/pkg/events"
	"github.com/lagunahotels/channelsync-backend/pkg/redis"
)

const dedupScope = "booking-pull"

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Ledger is the slice of the inventory surface bookings mutate.
type Ledger interface {
	GetForDate(ctx context.Context, roomTypeID uuid.UUID, date time.Time) (*models.InventoryDay, error)
	HasStopSell(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) (bool, error)
	DeductRooms(ctx context.Context, tx *gorm.DB, roomTypeID uuid.UUID, checkIn, checkOut time.Time, qty int) error
	RestoreRooms(ctx context.Context, tx *gorm.DB, roomTypeID uuid.UUID, checkIn, checkOut time.Time, qty int) error
}

// Service manages the booking lifecycle against the inventory ledger.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Booking, error)
	CreateFromExternal(ctx context.Context, input ExternalInput) (*models.Booking, error)
	Confirm(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Transition(ctx context.Context, id uuid.UUID, status enums.BookingStatus) (*models.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]models.Booking, error)
}

// CreateInput captures a direct booking request.
type CreateInput struct {
	RoomTypeID uuid.UUID `json:"room_type_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Rooms      int       `json:"rooms"`
	GuestName  string    `json:"guest_name"`
	GuestEmail string    `json:"guest_email"`
	Adults     int       `json:"adults"`
	Children   int       `json:"children"`
}

// ExternalInput captures a reservation pulled from a channel. ExternalRef is
// the channel's reservation identifier and drives deduplication.
type ExternalInput struct {
	ChannelName string
	ExternalRef string
	RoomTypeID  uuid.UUID
	CheckIn     time.Time
	CheckOut    time.Time
	Rooms       int
	GuestName   string
	GuestEmail  string
	Total       decimal.Decimal
}

type service struct {
	repo   Repository
	ledger Ledger
	quotes pricing.QuoteProvider
	tx     TxRunner
	bus    *events.Bus
	dedup  redis.DedupStore
	ttl    time.Duration
}

// NewService wires the booking service. dedup may be nil, in which case the
// unique external reference index is the only pull-side duplicate guard.
func NewService(repo Repository, ledger Ledger, quotes pricing.QuoteProvider, tx TxRunner, bus *events.Bus, dedup redis.DedupStore, dedupTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if quotes == nil {
		return nil, fmt.Errorf("quote provider required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	return &service{
		repo:   repo,
		ledger: ledger,
		quotes: quotes,
		tx:     tx,
		bus:    bus,
		dedup:  dedup,
		ttl:    dedupTTL,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Booking, error) {
	if err := validateStay(input.RoomTypeID, input.CheckIn, input.CheckOut, input.Rooms); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.GuestName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest name is required")
	}
	if err := s.checkSellable(ctx, input.RoomTypeID, input.CheckIn, input.CheckOut); err != nil {
		return nil, err
	}

	quote, err := s.quotes.Quote(ctx, input.RoomTypeID, input.CheckIn, input.CheckOut, input.Rooms)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		RoomTypeID: input.RoomTypeID,
		CheckIn:    inventory.NormalizeDate(input.CheckIn),
		CheckOut:   inventory.NormalizeDate(input.CheckOut),
		Rooms:      input.Rooms,
		Status:     enums.BookingStatusPending,
		Source:     enums.BookingSourceDirect,
		GuestName:  strings.TrimSpace(input.GuestName),
		GuestEmail: strings.TrimSpace(input.GuestEmail),
		Adults:     maxInt(input.Adults, 1),
		Children:   maxInt(input.Children, 0),
		Total:      quote.Total,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ledger.DeductRooms(ctx, tx, booking.RoomTypeID, booking.CheckIn, booking.CheckOut, booking.Rooms); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.Event{Topic: events.TopicBookingCreated, Payload: booking})
	return booking, nil
}

// CreateFromExternal imports a reservation pulled from a channel. Repeated
// imports of the same external reference return the existing booking without
// touching the ledger: the Redis guard short-circuits the common case and the
// unique index catches the race the guard cannot.
func (s *service) CreateFromExternal(ctx context.Context, input ExternalInput) (*models.Booking, error) {
	if err := validateStay(input.RoomTypeID, input.CheckIn, input.CheckOut, input.Rooms); err != nil {
		return nil, err
	}
	ref := strings.TrimSpace(input.ExternalRef)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external reference is required")
	}
	channelName := strings.TrimSpace(input.ChannelName)
	if channelName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel name is required")
	}

	dedupKey := ""
	if s.dedup != nil {
		dedupKey = s.dedup.IdempotencyKey(dedupScope, channelName+":"+ref)
		fresh, err := s.dedup.SetNX(ctx, dedupKey, time.Now().UTC().Format(time.RFC3339), s.ttl)
		if err == nil && !fresh {
			if existing, lookupErr := s.repo.GetByExternalRef(ctx, ref); lookupErr == nil {
				return existing, nil
			}
			// Guard says seen but no row exists, fall through and import.
		}
	}

	if existing, err := s.repo.GetByExternalRef(ctx, ref); err == nil {
		return existing, nil
	}

	booking := &models.Booking{
		RoomTypeID:  input.RoomTypeID,
		CheckIn:     inventory.NormalizeDate(input.CheckIn),
		CheckOut:    inventory.NormalizeDate(input.CheckOut),
		Rooms:       input.Rooms,
		Status:      enums.BookingStatusConfirmed,
		Source:      enums.BookingSourceChannel,
		ChannelName: &channelName,
		ExternalRef: &ref,
		GuestName:   strings.TrimSpace(input.GuestName),
		GuestEmail:  strings.TrimSpace(input.GuestEmail),
		Adults:      1,
		Total:       input.Total,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ledger.DeductRooms(ctx, tx, booking.RoomTypeID, booking.CheckIn, booking.CheckOut, booking.Rooms); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, booking)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_bookings_external_ref") {
			if existing, lookupErr := s.repo.GetByExternalRef(ctx, ref); lookupErr == nil {
				return existing, nil
			}
		}
		if s.dedup != nil && dedupKey != "" {
			// Failed imports must stay retryable on the next pull.
			_ = s.dedup.Del(ctx, dedupKey)
		}
		return nil, err
	}

	s.bus.Publish(ctx, events.Event{Topic: events.TopicBookingCreated, Payload: booking})
	return booking, nil
}

func (s *service) Confirm(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.Transition(ctx, id, enums.BookingStatusConfirmed)
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.Transition(ctx, id, enums.BookingStatusCancelled)
}

// Transition moves a booking through its lifecycle. Cancelling a booking that
// still holds rooms restores them in the same transaction as the status
// change.
func (s *service) Transition(ctx context.Context, id uuid.UUID, target enums.BookingStatus) (*models.Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == target {
		return booking, nil
	}
	if !legalTransition(booking.Status, target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move booking from %s to %s", booking.Status, target))
	}

	restores := target == enums.BookingStatusCancelled && booking.Status.HoldsInventory()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if restores {
			if err := s.ledger.RestoreRooms(ctx, tx, booking.RoomTypeID, booking.CheckIn, booking.CheckOut, booking.Rooms); err != nil {
				return err
			}
		}
		return s.repo.UpdateStatus(ctx, tx, booking.ID, target)
	})
	if err != nil {
		return nil, err
	}
	booking.Status = target

	switch target {
	case enums.BookingStatusConfirmed:
		s.bus.Publish(ctx, events.Event{Topic: events.TopicBookingConfirmed, Payload: booking})
	case enums.BookingStatusCancelled:
		s.bus.Publish(ctx, events.Event{Topic: events.TopicBookingCancelled, Payload: booking})
	}
	return booking, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]models.Booking, error) {
	return s.repo.ListByRoomType(ctx, roomTypeID)
}

// checkSellable enforces the arrival night's minimum stay and rejects stays
// crossing a stop-sell night before any rooms are deducted. A missing ledger
// row means the date is outside the sales horizon and therefore unsellable.
func (s *service) checkSellable(ctx context.Context, roomTypeID uuid.UUID, checkIn, checkOut time.Time) error {
	day, err := s.ledger.GetForDate(ctx, roomTypeID, checkIn)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "check-in date is not open for sale")
	}
	if nights := inventory.Nights(checkIn, checkOut); nights < day.MinStay {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("stay of %d nights is below the %d night minimum", nights, day.MinStay))
	}
	closed, err := s.ledger.HasStopSell(ctx, roomTypeID, checkIn, checkOut)
	if err != nil {
		return err
	}
	if closed {
		return pkgerrors.New(pkgerrors.CodeValidation, "stay includes a night that is closed for sale")
	}
	return nil
}

func validateStay(roomTypeID uuid.UUID, checkIn, checkOut time.Time, rooms int) error {
	if roomTypeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "room type id is required")
	}
	if rooms <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "room quantity must be positive")
	}
	if inventory.Nights(checkIn, checkOut) <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "check-out must be after check-in")
	}
	return nil
}

func legalTransition(from, to enums.BookingStatus) bool {
	switch from {
	case enums.BookingStatusPending:
		return to == enums.BookingStatusConfirmed || to == enums.BookingStatusCancelled
	case enums.BookingStatusConfirmed:
		return to == enums.BookingStatusCheckedIn || to == enums.BookingStatusCancelled || to == enums.BookingStatusNoShow
	case enums.BookingStatusCheckedIn:
		return to == enums.BookingStatusCheckedOut
	default:
		return false
	}
}

func maxInt(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}
