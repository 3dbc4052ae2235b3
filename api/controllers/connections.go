package controllers

import (
	"net/http"

	"github.com/lagunahotels/channelsync-backend/api/responses"
	"github.com/lagunahotels/channelsync-backend/api/validators"
	channelsvc "github.com/lagunahotels/channelsync-backend/internal/channels"
	"github.com/lagunahotels/channelsync-backend/pkg/logger"
)

type connectionRequest struct {
	ChannelName string            `json:"channel_name" validate:"required,min=2,max=64"`
	APIEndpoint string            `json:"api_endpoint" validate:"required,url"`
	Credentials map[string]string `json:"credentials,omitempty"`
}

// CreateConnection registers an OTA connection. Credentials are encrypted
// before they touch the database and never echoed back.
func CreateConnection(svc channelsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload connectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		connection, err := svc.CreateConnection(r.Context(), channelsvc.ConnectionInput{
			ChannelName: payload.ChannelName,
			APIEndpoint: payload.APIEndpoint,
			Credentials: payload.Credentials,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, connection)
	}
}

func UpdateConnection(svc channelsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "connectionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload connectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		connection, err := svc.UpdateConnection(r.Context(), id, channelsvc.ConnectionInput{
			ChannelName: payload.ChannelName,
			APIEndpoint: payload.APIEndpoint,
			Credentials: payload.Credentials,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, connection)
	}
}

type connectionActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// SetConnectionActive enables or disables synchronization for a channel.
func SetConnectionActive(svc channelsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "connectionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload connectionActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		connection, err := svc.SetConnectionActive(r.Context(), id, *payload.Active)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, connection)
	}
}

func DeleteConnection(svc channelsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "connectionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteConnection(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

func GetConnection(svc channelsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "connectionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		connection, err := svc.GetConnection(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, connection)
	}
}

func ListConnections(svc channelsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := r.URL.Query().Get("active") == "true"
		connections, err := svc.ListConnections(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, connections)
	}
}
