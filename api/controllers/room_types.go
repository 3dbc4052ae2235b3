package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lagunahotels/channelsync-backend/api/responses"
	"github.com/lagunahotels/channelsync-backend/api/validators"
	inventorysvc "github.com/lagunahotels/channelsync-backend/internal/inventory"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
	"github.com/lagunahotels/channelsync-backend/pkg/logger"
)

type createRoomTypeRequest struct {
	Name       string          `json:"name" validate:"required,min=2,max=120"`
	TotalRooms int             `json:"total_rooms" validate:"required,min=1"`
	BaseRate   decimal.Decimal `json:"base_rate" validate:"required"`
}

// CreateRoomType registers a new room type in the inactive state.
func CreateRoomType(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createRoomTypeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roomType, err := svc.CreateRoomType(r.Context(), inventorysvc.CreateRoomTypeInput{
			Name:       payload.Name,
			TotalRooms: payload.TotalRooms,
			BaseRate:   payload.BaseRate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, roomType)
	}
}

// ActivateRoomType flips a room type live and seeds its inventory horizon.
func ActivateRoomType(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "roomTypeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		roomType, err := svc.ActivateRoomType(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, roomType)
	}
}

func GetRoomType(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "roomTypeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		roomType, err := svc.GetRoomType(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, roomType)
	}
}

func ListRoomTypes(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := r.URL.Query().Get("active") == "true"
		roomTypes, err := svc.ListRoomTypes(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, roomTypes)
	}
}

type dayUpdateRequest struct {
	Date           string           `json:"date" validate:"required"`
	TotalRooms     *int             `json:"total_rooms,omitempty" validate:"omitempty,min=0"`
	AvailableRooms *int             `json:"available_rooms,omitempty" validate:"omitempty,min=0"`
	StopSell       *bool            `json:"stop_sell,omitempty"`
	MinStay        *int             `json:"min_stay,omitempty" validate:"omitempty,min=1"`
	PriceOverride  *decimal.Decimal `json:"price_override,omitempty"`
}

type updateDaysRequest struct {
	Days []dayUpdateRequest `json:"days" validate:"required,min=1,max=366,dive"`
}

// UpdateInventoryDays applies manual per-night adjustments to the calendar.
func UpdateInventoryDays(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "roomTypeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateDaysRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updates := make([]inventorysvc.DayUpdate, 0, len(payload.Days))
		for _, day := range payload.Days {
			date, err := time.Parse("2006-01-02", day.Date)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "dates must be YYYY-MM-DD").WithDetails(map[string]any{"date": day.Date}))
				return
			}
			updates = append(updates, inventorysvc.DayUpdate{
				Date:           date,
				TotalRooms:     day.TotalRooms,
				AvailableRooms: day.AvailableRooms,
				StopSell:       day.StopSell,
				MinStay:        day.MinStay,
				PriceOverride:  day.PriceOverride,
			})
		}

		if err := svc.UpdateDays(r.Context(), id, updates); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"updated": len(updates)})
	}
}

// InventoryCalendar returns the per-night ledger for a date range.
func InventoryCalendar(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "roomTypeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, to, err := parseStayRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		days, err := svc.Calendar(r.Context(), id, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, days)
	}
}

// Availability returns the bookable room count for a stay range, which is the
// minimum effective availability across its nights.
func Availability(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "roomTypeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, to, err := parseStayRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		available, err := svc.Availability(r.Context(), id, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"room_type_id": id,
			"check_in":     from.Format("2006-01-02"),
			"check_out":    to.Format("2006-01-02"),
			"available":    available,
		})
	}
}

func parseStayRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to query parameters are required")
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "to must be after from")
	}
	return from, to, nil
}
