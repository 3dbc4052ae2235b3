package controllers

import (
	"net/http"
	"strings"

	"github.com/lagunahotels/channelsync-backend/api/responses"
	"github.com/lagunahotels/channelsync-backend/api/validators"
	syncsvc "github.com/lagunahotels/channelsync-backend/internal/sync"
	"github.com/lagunahotels/channelsync-backend/pkg/enums"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
	"github.com/lagunahotels/channelsync-backend/pkg/logger"
	"github.com/lagunahotels/channelsync-backend/pkg/pagination"
)

// ListSyncLogs pages through the sync audit trail, newest first.
func ListSyncLogs(logs syncsvc.LogRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := syncsvc.LogFilters{
			ChannelName: strings.TrimSpace(r.URL.Query().Get("channel")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("direction")); raw != "" {
			direction, err := enums.ParseSyncDirection(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid direction"))
				return
			}
			filters.Direction = &direction
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			syncType, err := enums.ParseSyncType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sync type"))
				return
			}
			filters.SyncType = &syncType
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseSyncStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filters.Status = &status
		}

		page, err := logs.List(r.Context(), filters, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"entries":     page.Entries,
			"next_cursor": page.NextCursor,
		})
	}
}

type triggerSyncRequest struct {
	Type string `json:"type" validate:"required,oneof=availability rates reservations"`
}

// TriggerSync runs one sync pass on demand, typically after an operator fixes
// credentials or mappings and wants the result without waiting for the next
// scheduled run. The call blocks until the pass completes so the response
// reflects the real outcome.
func TriggerSync(orchestrator *syncsvc.Orchestrator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload triggerSyncRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var err error
		switch enums.SyncType(payload.Type) {
		case enums.SyncTypeAvailability:
			err = orchestrator.PushAvailability(r.Context())
		case enums.SyncTypeRates:
			err = orchestrator.PushRates(r.Context())
		case enums.SyncTypeReservations:
			err = orchestrator.PullReservations(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync completed with errors"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "completed", "type": payload.Type})
	}
}
