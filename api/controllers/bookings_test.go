package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	bookingsvc "github.com/lagunahotels/channelsync-backend/internal/booking"
	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	"github.com/lagunahotels/channelsync-backend/pkg/enums"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
)

func TestCreateBooking(t *testing.T) {
	logg := testLogger()
	roomTypeID := uuid.New()

	bookingBody := func() string {
		return `{"room_type_id":"` + roomTypeID.String() + `","check_in":"2026-03-15","check_out":"2026-03-17","rooms":1,"guest_name":"Ana Serrano","adults":2}`
	}

	t.Run("rejects inverted stay", func(t *testing.T) {
		body := `{"room_type_id":"` + roomTypeID.String() + `","check_in":"2026-03-17","check_out":"2026-03-15","rooms":1,"guest_name":"Ana Serrano"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
		rec := httptest.NewRecorder()
		CreateBooking(&stubBookings{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for inverted stay, got %d", rec.Code)
		}
	})

	t.Run("maps sold out to conflict", func(t *testing.T) {
		stub := &stubBookings{createErr: pkgerrors.New(pkgerrors.CodeInsufficientInventory, "not enough rooms")}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(bookingBody()))
		rec := httptest.NewRecorder()
		CreateBooking(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409 when sold out, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "INSUFFICIENT_INVENTORY") {
			t.Fatalf("expected typed error code in body, got %s", rec.Body.String())
		}
	})

	t.Run("creates", func(t *testing.T) {
		stub := &stubBookings{}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(bookingBody()))
		rec := httptest.NewRecorder()
		CreateBooking(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.created == nil || stub.created.RoomTypeID != roomTypeID || stub.created.Rooms != 1 {
			t.Fatalf("unexpected input passed to service: %+v", stub.created)
		}
	})
}

func TestTransitionBooking(t *testing.T) {
	logg := testLogger()
	bookingID := uuid.New()

	t.Run("rejects unknown status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/"+bookingID.String()+"/transition", strings.NewReader(`{"status":"teleported"}`))
		req = withURLParam(req, "bookingId", bookingID.String())
		rec := httptest.NewRecorder()
		TransitionBooking(&stubBookings{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
		}
	})

	t.Run("transitions", func(t *testing.T) {
		stub := &stubBookings{}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/"+bookingID.String()+"/transition", strings.NewReader(`{"status":"checked_in"}`))
		req = withURLParam(req, "bookingId", bookingID.String())
		rec := httptest.NewRecorder()
		TransitionBooking(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.transitioned != enums.BookingStatusCheckedIn {
			t.Fatalf("expected checked_in transition, got %q", stub.transitioned)
		}
	})
}

type stubBookings struct {
	created      *bookingsvc.CreateInput
	createErr    error
	transitioned enums.BookingStatus
}

func (s *stubBookings) Create(ctx context.Context, input bookingsvc.CreateInput) (*models.Booking, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = &input
	return &models.Booking{ID: uuid.New(), RoomTypeID: input.RoomTypeID, Rooms: input.Rooms, Status: enums.BookingStatusPending}, nil
}

func (s *stubBookings) CreateFromExternal(ctx context.Context, input bookingsvc.ExternalInput) (*models.Booking, error) {
	panic("unimplemented")
}

func (s *stubBookings) Confirm(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	panic("unimplemented")
}

func (s *stubBookings) Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	panic("unimplemented")
}

func (s *stubBookings) Transition(ctx context.Context, id uuid.UUID, status enums.BookingStatus) (*models.Booking, error) {
	s.transitioned = status
	return &models.Booking{ID: id, Status: status}, nil
}

func (s *stubBookings) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	panic("unimplemented")
}

func (s *stubBookings) ListByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]models.Booking, error) {
	panic("unimplemented")
}
