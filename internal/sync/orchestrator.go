package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/lagunahotels/channelsync-backend/internal/booking"
	"github.com/lagunahotels/channelsync-backend/internal/inventory"
	"github.com/lagunahotels/channelsync-backend/internal/pricing"
	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	"github.com/lagunahotels/channelsync-backend/pkg/enums"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
	"github.com/lagunahotels/channelsync-backend/pkg/events"
	"github.com/lagunahotels/channelsync-backend/pkg/logger"
	"github.com/lagunahotels/channelsync-backend/pkg/metrics"
)

// Directory is the channel configuration surface the orchestrator reads.
// channels.Service satisfies it.
type Directory interface {
	ListConnections(ctx context.Context, activeOnly bool) ([]models.ChannelConnection, error)
	ListMappingsByChannel(ctx context.Context, channelName string) ([]models.ChannelMapping, error)
	ListMappingsByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]models.ChannelMapping, error)
	Credentials(ctx context.Context, channelName string) (map[string]string, error)
}

// MappingHealth records per-mapping sync outcomes. channels.MappingRepository
// satisfies it.
type MappingHealth interface {
	RecordSyncSuccess(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordSyncFailure(ctx context.Context, id uuid.UUID, at time.Time, cause string, maxFailures int) error
}

// ConnectionToucher stamps the last successful sync time on a connection.
type ConnectionToucher interface {
	TouchLastSync(ctx context.Context, channelName string, at time.Time) error
}

// Ledger is the read slice of the inventory surface pushes are built from.
type Ledger interface {
	GetForRange(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]models.InventoryDay, error)
}

// RateSource resolves the per-night rate schedule for rate pushes.
// pricing.LedgerQuoteProvider satisfies it.
type RateSource interface {
	NightlyRates(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]pricing.NightlyRate, error)
}

// BookingImporter turns pulled reservations into local bookings.
// booking.Service satisfies it.
type BookingImporter interface {
	CreateFromExternal(ctx context.Context, input booking.ExternalInput) (*models.Booking, error)
}

// Options tunes orchestrator behavior.
type Options struct {
	// PushWindowDays is how far ahead availability and rates are pushed.
	PushWindowDays int
	// ChannelTimeout bounds every individual adapter call.
	ChannelTimeout time.Duration
	// MaxFailures is the consecutive failure count that parks a mapping in
	// the error state.
	MaxFailures int
}

// Orchestrator drives pushes and pulls across every configured channel,
// isolating each channel's failures from the rest and writing one sync log
// entry per attempt.
type Orchestrator struct {
	registry  *Registry
	directory Directory
	health    MappingHealth
	touch     ConnectionToucher
	ledger    Ledger
	rates     RateSource
	importer  BookingImporter
	logs      LogRepository
	metrics   *metrics.SyncMetrics
	logg      *logger.Logger
	opts      Options
}

// NewOrchestrator wires the sync orchestrator.
func NewOrchestrator(
	registry *Registry,
	directory Directory,
	health MappingHealth,
	touch ConnectionToucher,
	ledger Ledger,
	rates RateSource,
	importer BookingImporter,
	logs LogRepository,
	syncMetrics *metrics.SyncMetrics,
	logg *logger.Logger,
	opts Options,
) (*Orchestrator, error) {
	if registry == nil || directory == nil || health == nil || touch == nil {
		return nil, fmt.Errorf("sync orchestrator dependencies required")
	}
	if ledger == nil || rates == nil || importer == nil || logs == nil {
		return nil, fmt.Errorf("sync orchestrator dependencies required")
	}
	if opts.PushWindowDays <= 0 {
		opts.PushWindowDays = 90
	}
	if opts.ChannelTimeout <= 0 {
		opts.ChannelTimeout = 30 * time.Second
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 3
	}
	return &Orchestrator{
		registry:  registry,
		directory: directory,
		health:    health,
		touch:     touch,
		ledger:    ledger,
		rates:     rates,
		importer:  importer,
		logs:      logs,
		metrics:   syncMetrics,
		logg:      logg,
		opts:      opts,
	}, nil
}

// PushAvailability pushes the full availability window to every active
// connection. A failing channel never blocks the others; the combined error
// reports which channels failed.
func (o *Orchestrator) PushAvailability(ctx context.Context) error {
	connections, err := o.directory.ListConnections(ctx, true)
	if err != nil {
		return err
	}
	var combined error
	for i := range connections {
		if err := o.pushToConnection(ctx, &connections[i], enums.SyncTypeAvailability, nil); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("channel %s: %w", connections[i].ChannelName, err))
		}
	}
	return combined
}

// PushRates pushes the rate window to every active connection.
func (o *Orchestrator) PushRates(ctx context.Context) error {
	connections, err := o.directory.ListConnections(ctx, true)
	if err != nil {
		return err
	}
	var combined error
	for i := range connections {
		if err := o.pushToConnection(ctx, &connections[i], enums.SyncTypeRates, nil); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("channel %s: %w", connections[i].ChannelName, err))
		}
	}
	return combined
}

// HandleBookingEvent reacts to booking lifecycle events by pushing the
// affected stay's availability to every channel mapped to that room type.
// The payload is extracted defensively: events published outside this module
// may carry map payloads instead of booking structs.
func (o *Orchestrator) HandleBookingEvent(ctx context.Context, evt events.Event) error {
	affected, ok := extractBooking(evt.Payload)
	if !ok {
		if o.logg != nil {
			o.logg.Warn(ctx, fmt.Sprintf("ignoring %s event with unrecognized payload", evt.Topic))
		}
		return nil
	}

	mappings, err := o.directory.ListMappingsByRoomType(ctx, affected.RoomTypeID)
	if err != nil {
		return err
	}
	channelSet := map[string]struct{}{}
	for _, mapping := range mappings {
		if mapping.SyncAvail && mapping.Status == enums.MappingStatusActive {
			channelSet[mapping.ChannelName] = struct{}{}
		}
	}
	if len(channelSet) == 0 {
		return nil
	}

	connections, err := o.directory.ListConnections(ctx, true)
	if err != nil {
		return err
	}
	window := &pushWindow{
		roomTypeID: affected.RoomTypeID,
		from:       inventory.NormalizeDate(affected.CheckIn),
		to:         inventory.NormalizeDate(affected.CheckOut),
	}
	var combined error
	for i := range connections {
		if _, mapped := channelSet[connections[i].ChannelName]; !mapped {
			continue
		}
		if err := o.pushToConnection(ctx, &connections[i], enums.SyncTypeAvailability, window); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("channel %s: %w", connections[i].ChannelName, err))
		}
	}
	return combined
}

// pushWindow narrows a push to one room type and date range; nil means the
// full configured window for every mapped room type.
type pushWindow struct {
	roomTypeID uuid.UUID
	from, to   time.Time
}

func (o *Orchestrator) pushToConnection(ctx context.Context, conn *models.ChannelConnection, syncType enums.SyncType, window *pushWindow) error {
	started := time.Now()
	entry, err := o.logs.Start(ctx, conn.ChannelName, enums.SyncDirectionPush, syncType)
	if err != nil {
		return err
	}

	status, processed, itemErrors, runErr := o.runPush(ctx, conn, syncType, window)

	var errMsg *string
	if runErr != nil {
		msg := runErr.Error()
		errMsg = &msg
	}
	if err := o.logs.Complete(ctx, entry.ID, status, processed, itemErrors, errMsg); err != nil && o.logg != nil {
		o.logg.Error(ctx, "completing sync log entry", err)
	}
	o.metrics.ObserveAttempt(conn.ChannelName, string(syncType), string(enums.SyncDirectionPush), string(status), time.Since(started), processed)

	if status != enums.SyncStatusFailed {
		if err := o.touch.TouchLastSync(ctx, conn.ChannelName, time.Now().UTC()); err != nil && o.logg != nil {
			o.logg.Error(ctx, "updating connection last sync", err)
		}
	}
	return runErr
}

func (o *Orchestrator) runPush(ctx context.Context, conn *models.ChannelConnection, syncType enums.SyncType, window *pushWindow) (enums.SyncStatus, int, []string, error) {
	client, err := o.registry.Resolve(conn.ChannelName)
	if err != nil {
		return enums.SyncStatusFailed, 0, nil, err
	}
	credentials, err := o.directory.Credentials(ctx, conn.ChannelName)
	if err != nil {
		return enums.SyncStatusFailed, 0, nil, err
	}
	channel := ChannelContext{Connection: conn, Credentials: credentials}

	mappings, err := o.directory.ListMappingsByChannel(ctx, conn.ChannelName)
	if err != nil {
		return enums.SyncStatusFailed, 0, nil, err
	}

	var (
		processed  int
		attempted  int
		failures   int
		itemErrors []string
		runErr     error
	)
	for i := range mappings {
		mapping := &mappings[i]
		if !mappingWantsSync(mapping, syncType) {
			continue
		}
		if window != nil && mapping.RoomTypeID != window.roomTypeID {
			continue
		}
		attempted++

		count, pushErr := o.pushMapping(ctx, client, channel, mapping, syncType, window)
		now := time.Now().UTC()
		if pushErr == nil {
			processed += count
			if err := o.health.RecordSyncSuccess(ctx, mapping.ID, now); err != nil && o.logg != nil {
				o.logg.Error(ctx, "recording mapping sync success", err)
			}
			continue
		}

		failures++
		itemErrors = append(itemErrors, fmt.Sprintf("mapping %s: %v", mapping.ID, pushErr))
		runErr = multierr.Append(runErr, pushErr)

		if pkgerrors.HasCode(pushErr, pkgerrors.CodeCredential) {
			// Credentials are channel-wide: park every active mapping on the
			// channel so no future run retries until the connection is
			// reconfigured. Reconfiguring reactivates its mappings.
			for j := range mappings {
				if mappings[j].Status != enums.MappingStatusActive {
					continue
				}
				if err := o.health.RecordSyncFailure(ctx, mappings[j].ID, now, pushErr.Error(), 1); err != nil && o.logg != nil {
					o.logg.Error(ctx, "recording mapping sync failure", err)
				}
			}
			break
		}
		if err := o.health.RecordSyncFailure(ctx, mapping.ID, now, pushErr.Error(), o.opts.MaxFailures); err != nil && o.logg != nil {
			o.logg.Error(ctx, "recording mapping sync failure", err)
		}
	}

	switch {
	case attempted == 0:
		return enums.SyncStatusSuccess, 0, nil, nil
	case failures == 0:
		return enums.SyncStatusSuccess, processed, nil, nil
	case failures < attempted:
		return enums.SyncStatusPartial, processed, itemErrors, runErr
	default:
		return enums.SyncStatusFailed, processed, itemErrors, runErr
	}
}

func (o *Orchestrator) pushMapping(ctx context.Context, client Client, channel ChannelContext, mapping *models.ChannelMapping, syncType enums.SyncType, window *pushWindow) (int, error) {
	from := inventory.NormalizeDate(time.Now())
	to := from.AddDate(0, 0, o.opts.PushWindowDays)
	if window != nil {
		from, to = window.from, window.to
	}

	switch syncType {
	case enums.SyncTypeAvailability:
		days, err := o.ledger.GetForRange(ctx, mapping.RoomTypeID, from, to)
		if err != nil {
			return 0, err
		}
		if len(days) == 0 {
			return 0, nil
		}
		updates := make([]AvailabilityUpdate, 0, len(days))
		for _, day := range days {
			updates = append(updates, AvailabilityUpdate{
				ExternalRoomID: mapping.ExternalRoomID,
				Date:           day.Date,
				Quantity:       day.EffectiveAvailability(),
			})
		}
		callCtx, cancel := context.WithTimeout(ctx, o.opts.ChannelTimeout)
		defer cancel()
		result, err := client.PushAvailability(callCtx, channel, updates)
		if err != nil {
			return 0, err
		}
		return result.Processed, nil

	case enums.SyncTypeRates:
		nightly, err := o.rates.NightlyRates(ctx, mapping.RoomTypeID, from, to)
		if err != nil {
			return 0, err
		}
		if len(nightly) == 0 {
			return 0, nil
		}
		updates := make([]RateUpdate, 0, len(nightly))
		for _, night := range nightly {
			updates = append(updates, RateUpdate{
				ExternalRoomID: mapping.ExternalRoomID,
				ExternalRateID: mapping.ExternalRateID,
				Date:           night.Date,
				Rate:           night.Rate,
			})
		}
		callCtx, cancel := context.WithTimeout(ctx, o.opts.ChannelTimeout)
		defer cancel()
		result, err := client.PushRates(callCtx, channel, updates)
		if err != nil {
			return 0, err
		}
		return result.Processed, nil

	default:
		return 0, fmt.Errorf("unsupported push type %q", syncType)
	}
}

// PullReservations ingests new reservations from every active connection.
// Each reservation resolves through the mapping table and imports through the
// booking collaborator; duplicates count as processed without error.
func (o *Orchestrator) PullReservations(ctx context.Context) error {
	connections, err := o.directory.ListConnections(ctx, true)
	if err != nil {
		return err
	}
	var combined error
	for i := range connections {
		if err := o.pullFromConnection(ctx, &connections[i]); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("channel %s: %w", connections[i].ChannelName, err))
		}
	}
	return combined
}

func (o *Orchestrator) pullFromConnection(ctx context.Context, conn *models.ChannelConnection) error {
	started := time.Now()
	entry, err := o.logs.Start(ctx, conn.ChannelName, enums.SyncDirectionPull, enums.SyncTypeReservations)
	if err != nil {
		return err
	}

	status, processed, itemErrors, runErr := o.runPull(ctx, conn)

	var errMsg *string
	if runErr != nil {
		msg := runErr.Error()
		errMsg = &msg
	}
	if err := o.logs.Complete(ctx, entry.ID, status, processed, itemErrors, errMsg); err != nil && o.logg != nil {
		o.logg.Error(ctx, "completing sync log entry", err)
	}
	o.metrics.ObserveAttempt(conn.ChannelName, string(enums.SyncTypeReservations), string(enums.SyncDirectionPull), string(status), time.Since(started), processed)

	if status != enums.SyncStatusFailed {
		if err := o.touch.TouchLastSync(ctx, conn.ChannelName, time.Now().UTC()); err != nil && o.logg != nil {
			o.logg.Error(ctx, "updating connection last sync", err)
		}
	}
	return runErr
}

func (o *Orchestrator) runPull(ctx context.Context, conn *models.ChannelConnection) (enums.SyncStatus, int, []string, error) {
	client, err := o.registry.Resolve(conn.ChannelName)
	if err != nil {
		return enums.SyncStatusFailed, 0, nil, err
	}
	credentials, err := o.directory.Credentials(ctx, conn.ChannelName)
	if err != nil {
		return enums.SyncStatusFailed, 0, nil, err
	}
	mappings, err := o.directory.ListMappingsByChannel(ctx, conn.ChannelName)
	if err != nil {
		return enums.SyncStatusFailed, 0, nil, err
	}

	byExternalRoom := map[string]*models.ChannelMapping{}
	for i := range mappings {
		mapping := &mappings[i]
		if mapping.SyncResv && mapping.Status != enums.MappingStatusInactive {
			byExternalRoom[mapping.ExternalRoomID] = mapping
		}
	}
	if len(byExternalRoom) == 0 {
		return enums.SyncStatusSuccess, 0, nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.opts.ChannelTimeout)
	reservations, err := client.PullReservations(callCtx, ChannelContext{Connection: conn, Credentials: credentials})
	cancel()
	if err != nil {
		return enums.SyncStatusFailed, 0, nil, err
	}

	var (
		processed  int
		itemErrors []string
	)
	for _, raw := range reservations {
		mapping, ok := byExternalRoom[raw.ExternalRoomID]
		if !ok {
			itemErrors = append(itemErrors, fmt.Sprintf("reservation %s: no mapping for external room %s", raw.ExternalRef, raw.ExternalRoomID))
			continue
		}
		_, importErr := o.importer.CreateFromExternal(ctx, booking.ExternalInput{
			ChannelName: conn.ChannelName,
			ExternalRef: raw.ExternalRef,
			RoomTypeID:  mapping.RoomTypeID,
			CheckIn:     raw.CheckIn,
			CheckOut:    raw.CheckOut,
			Rooms:       maxRooms(raw.Rooms),
			GuestName:   raw.GuestName,
			GuestEmail:  raw.GuestEmail,
			Total:       raw.Total,
		})
		if importErr != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("reservation %s: %v", raw.ExternalRef, importErr))
			continue
		}
		processed++
	}

	switch {
	case len(itemErrors) == 0:
		return enums.SyncStatusSuccess, processed, nil, nil
	case processed > 0:
		return enums.SyncStatusPartial, processed, itemErrors, nil
	default:
		return enums.SyncStatusFailed, processed, itemErrors, fmt.Errorf("all %d reservations failed to import", len(itemErrors))
	}
}

func mappingWantsSync(mapping *models.ChannelMapping, syncType enums.SyncType) bool {
	if mapping.Status != enums.MappingStatusActive {
		return false
	}
	switch syncType {
	case enums.SyncTypeAvailability:
		return mapping.SyncAvail
	case enums.SyncTypeRates:
		return mapping.SyncRates
	case enums.SyncTypeReservations:
		return mapping.SyncResv
	default:
		return false
	}
}

// extractBooking pulls the affected room type and stay range out of an event
// payload without trusting its concrete type.
func extractBooking(payload any) (*models.Booking, bool) {
	switch value := payload.(type) {
	case *models.Booking:
		if value == nil || value.RoomTypeID == uuid.Nil {
			return nil, false
		}
		return value, true
	case models.Booking:
		if value.RoomTypeID == uuid.Nil {
			return nil, false
		}
		return &value, true
	case map[string]any:
		roomTypeRaw, _ := value["room_type_id"].(string)
		roomTypeID, err := uuid.Parse(roomTypeRaw)
		if err != nil {
			return nil, false
		}
		checkIn, okIn := parseEventTime(value["check_in"])
		checkOut, okOut := parseEventTime(value["check_out"])
		if !okIn || !okOut {
			return nil, false
		}
		return &models.Booking{RoomTypeID: roomTypeID, CheckIn: checkIn, CheckOut: checkOut}, true
	default:
		return nil, false
	}
}

func parseEventTime(raw any) (time.Time, bool) {
	switch value := raw.(type) {
	case time.Time:
		return value, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, value); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func maxRooms(rooms int) int {
	if rooms <= 0 {
		return 1
	}
	return rooms
}
