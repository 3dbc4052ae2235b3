package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lagunahotels/channelsync-backend/api/responses"
	"github.com/lagunahotels/channelsync-backend/api/validators"
	bookingsvc "github.com/lagunahotels/channelsync-backend/internal/booking"
	"github.com/lagunahotels/channelsync-backend/pkg/enums"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
	"github.com/lagunahotels/channelsync-backend/pkg/logger"
)

type createBookingRequest struct {
	RoomTypeID string `json:"room_type_id" validate:"required,uuid4"`
	CheckIn    string `json:"check_in" validate:"required"`
	CheckOut   string `json:"check_out" validate:"required"`
	Rooms      int    `json:"rooms" validate:"required,min=1"`
	GuestName  string `json:"guest_name" validate:"required,min=2,max=200"`
	GuestEmail string `json:"guest_email" validate:"omitempty,email"`
	Adults     int    `json:"adults" validate:"omitempty,min=1"`
	Children   int    `json:"children" validate:"omitempty,min=0"`
}

// CreateBooking takes a direct reservation, deducting inventory atomically
// for every night of the stay.
func CreateBooking(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createBookingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roomTypeID, err := uuid.Parse(payload.RoomTypeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid room type id"))
			return
		}
		checkIn, checkOut, err := parseBookingDates(payload.CheckIn, payload.CheckOut)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Create(r.Context(), bookingsvc.CreateInput{
			RoomTypeID: roomTypeID,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			Rooms:      payload.Rooms,
			GuestName:  payload.GuestName,
			GuestEmail: payload.GuestEmail,
			Adults:     payload.Adults,
			Children:   payload.Children,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, booking)
	}
}

func GetBooking(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// ListBookings returns bookings for the room type named in the query string.
func ListBookings(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.URL.Query().Get("room_type_id"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "room_type_id query parameter is required"))
			return
		}
		roomTypeID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid room type id"))
			return
		}
		bookings, err := svc.ListByRoomType(r.Context(), roomTypeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bookings)
	}
}

func ConfirmBooking(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.Confirm(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// CancelBooking cancels a booking and returns its nights to the pool.
func CancelBooking(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.Cancel(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// TransitionBooking moves a booking through its lifecycle, guarded by the
// allowed transition table.
func TransitionBooking(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseBookingStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking status"))
			return
		}

		booking, err := svc.Transition(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

func parseBookingDates(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.Parse("2006-01-02", checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "check_in must be YYYY-MM-DD")
	}
	out, err := time.Parse("2006-01-02", checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "check_out must be YYYY-MM-DD")
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "check_out must be after check_in")
	}
	return in, out, nil
}
