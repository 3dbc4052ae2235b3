package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
)

// ChannelContext bundles everything an adapter needs to talk to one channel:
// the connection row for the endpoint and the already-decrypted credentials.
type ChannelContext struct {
	Connection  *models.ChannelConnection
	Credentials map[string]string
}

// AvailabilityUpdate is one night of sellable inventory for one external room.
type AvailabilityUpdate struct {
	ExternalRoomID string    `json:"external_room_id"`
	Date           time.Time `json:"date"`
	Quantity       int       `json:"quantity"`
}

// RateUpdate is one night's rate for one external rate plan.
type RateUpdate struct {
	ExternalRoomID string          `json:"external_room_id"`
	ExternalRateID string          `json:"external_rate_id"`
	Date           time.Time       `json:"date"`
	Rate           decimal.Decimal `json:"rate"`
}

// ExternalReservation is a raw reservation as reported by a channel, before
// it is resolved against the mapping table.
type ExternalReservation struct {
	ExternalRef    string          `json:"external_ref"`
	ExternalRoomID string          `json:"external_room_id"`
	CheckIn        time.Time       `json:"check_in"`
	CheckOut       time.Time       `json:"check_out"`
	Rooms          int             `json:"rooms"`
	GuestName      string          `json:"guest_name"`
	GuestEmail     string          `json:"guest_email"`
	Total          decimal.Decimal `json:"total"`
}

// Result summarizes one push call. ItemErrors carries per-item failures for
// partially accepted batches.
type Result struct {
	Processed  int
	ItemErrors []string
}

// Client is implemented once per OTA. Adapters own every channel-specific
// request and response detail; callers never see channel payloads.
type Client interface {
	PushAvailability(ctx context.Context, channel ChannelContext, updates []AvailabilityUpdate) (*Result, error)
	PushRates(ctx context.Context, channel ChannelContext, updates []RateUpdate) (*Result, error)
	PullReservations(ctx context.Context, channel ChannelContext) ([]ExternalReservation, error)
}

// Registry resolves channel names to their adapter implementations.
// Registration happens at process start; lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register binds a channel name to its client. Re-registering a name
// replaces the previous client.
func (r *Registry) Register(channelName string, client Client) {
	if channelName == "" || client == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[channelName] = client
}

// Resolve returns the client for a channel name.
func (r *Registry) Resolve(channelName string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[channelName]
	if !ok {
		return nil, fmt.Errorf("no client registered for channel %q", channelName)
	}
	return client, nil
}

// Names lists the registered channel names in stable order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
