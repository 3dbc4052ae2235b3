package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lagunahotels/channelsync-backend/api/responses"
	"github.com/lagunahotels/channelsync-backend/api/validators"
	channelsvc "github.com/lagunahotels/channelsync-backend/internal/channels"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
	"github.com/lagunahotels/channelsync-backend/pkg/logger"
)

type mappingRequest struct {
	ChannelName    string  `json:"channel_name" validate:"required,min=2,max=64"`
	RoomTypeID     string  `json:"room_type_id" validate:"required,uuid4"`
	RatePlanID     *string `json:"rate_plan_id,omitempty" validate:"omitempty,uuid4"`
	ExternalRoomID string  `json:"external_room_id" validate:"required,min=1,max=120"`
	ExternalRateID string  `json:"external_rate_id,omitempty" validate:"omitempty,max=120"`
	SyncAvail      *bool   `json:"sync_availability,omitempty"`
	SyncRates      *bool   `json:"sync_rates,omitempty"`
	SyncResv       *bool   `json:"sync_reservations,omitempty"`
}

func (m mappingRequest) toInput() (channelsvc.MappingInput, error) {
	roomTypeID, err := uuid.Parse(m.RoomTypeID)
	if err != nil {
		return channelsvc.MappingInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid room type id")
	}
	var ratePlanID *uuid.UUID
	if m.RatePlanID != nil {
		parsed, err := uuid.Parse(*m.RatePlanID)
		if err != nil {
			return channelsvc.MappingInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rate plan id")
		}
		ratePlanID = &parsed
	}
	return channelsvc.MappingInput{
		ChannelName:    strings.TrimSpace(m.ChannelName),
		RoomTypeID:     roomTypeID,
		RatePlanID:     ratePlanID,
		ExternalRoomID: strings.TrimSpace(m.ExternalRoomID),
		ExternalRateID: strings.TrimSpace(m.ExternalRateID),
		SyncAvail:      m.SyncAvail,
		SyncRates:      m.SyncRates,
		SyncResv:       m.SyncResv,
	}, nil
}

// CreateMapping binds a local room type to a channel's external room.
func CreateMapping(svc channelsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload mappingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mapping, err := svc.CreateMapping(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, mapping)
	}
}

func UpdateMapping(svc channelsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "mappingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload mappingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mapping, err := svc.UpdateMapping(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapping)
	}
}

func DeleteMapping(svc channelsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "mappingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteMapping(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

func GetMapping(svc channelsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "mappingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mapping, err := svc.GetMapping(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapping)
	}
}

// ListMappings filters by channel or room type; exactly one filter is
// required so the listing never spans the whole table.
func ListMappings(svc channelsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelName := strings.TrimSpace(r.URL.Query().Get("channel"))
		roomTypeRaw := strings.TrimSpace(r.URL.Query().Get("room_type_id"))

		switch {
		case channelName != "" && roomTypeRaw != "":
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "provide either channel or room_type_id, not both"))
		case channelName != "":
			mappings, err := svc.ListMappingsByChannel(r.Context(), channelName)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, mappings)
		case roomTypeRaw != "":
			roomTypeID, err := uuid.Parse(roomTypeRaw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid room type id"))
				return
			}
			mappings, err := svc.ListMappingsByRoomType(r.Context(), roomTypeID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, mappings)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "channel or room_type_id query parameter is required"))
		}
	}
}
