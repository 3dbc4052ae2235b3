package channels

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	"github.com/lagunahotels/channelsync-backend/pkg/enums"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
	"github.com/lagunahotels/channelsync-backend/pkg/vault"
)

var channelNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,63}$`)

// RoomTypeGetter is the slice of the inventory surface this service needs to
// validate mapping targets.
type RoomTypeGetter interface {
	GetRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error)
}

// Service manages channel connections, their encrypted credentials, and room
// type mappings.
type Service interface {
	CreateConnection(ctx context.Context, input ConnectionInput) (*models.ChannelConnection, error)
	UpdateConnection(ctx context.Context, id uuid.UUID, input ConnectionInput) (*models.ChannelConnection, error)
	SetConnectionActive(ctx context.Context, id uuid.UUID, active bool) (*models.ChannelConnection, error)
	DeleteConnection(ctx context.Context, id uuid.UUID) error
	GetConnection(ctx context.Context, id uuid.UUID) (*models.ChannelConnection, error)
	ListConnections(ctx context.Context, activeOnly bool) ([]models.ChannelConnection, error)
	Credentials(ctx context.Context, channelName string) (map[string]string, error)

	CreateMapping(ctx context.Context, input MappingInput) (*models.ChannelMapping, error)
	UpdateMapping(ctx context.Context, id uuid.UUID, input MappingInput) (*models.ChannelMapping, error)
	DeleteMapping(ctx context.Context, id uuid.UUID) error
	GetMapping(ctx context.Context, id uuid.UUID) (*models.ChannelMapping, error)
	ListMappingsByChannel(ctx context.Context, channelName string) ([]models.ChannelMapping, error)
	ListMappingsByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]models.ChannelMapping, error)
}

// ConnectionInput carries the writable fields of a channel connection.
// Credentials, when non-nil, replace the stored blob wholesale.
type ConnectionInput struct {
	ChannelName string            `json:"channel_name"`
	APIEndpoint string            `json:"api_endpoint"`
	Credentials map[string]string `json:"credentials"`
}

// MappingInput carries the writable fields of a channel mapping.
type MappingInput struct {
	ChannelName    string     `json:"channel_name"`
	RoomTypeID     uuid.UUID  `json:"room_type_id"`
	RatePlanID     *uuid.UUID `json:"rate_plan_id"`
	ExternalRoomID string     `json:"external_room_id"`
	ExternalRateID string     `json:"external_rate_id"`
	SyncAvail      *bool      `json:"sync_availability"`
	SyncRates      *bool      `json:"sync_rates"`
	SyncResv       *bool      `json:"sync_reservations"`
}

type service struct {
	connections ConnectionRepository
	mappings    MappingRepository
	roomTypes   RoomTypeGetter
	vault       *vault.Vault
}

// NewService wires the channel service.
func NewService(connections ConnectionRepository, mappings MappingRepository, roomTypes RoomTypeGetter, credentialVault *vault.Vault) (Service, error) {
	if connections == nil || mappings == nil {
		return nil, fmt.Errorf("channel repositories required")
	}
	if roomTypes == nil {
		return nil, fmt.Errorf("room type getter required")
	}
	if credentialVault == nil {
		return nil, fmt.Errorf("credential vault required")
	}
	return &service{
		connections: connections,
		mappings:    mappings,
		roomTypes:   roomTypes,
		vault:       credentialVault,
	}, nil
}

func (s *service) CreateConnection(ctx context.Context, input ConnectionInput) (*models.ChannelConnection, error) {
	name, err := normalizeChannelName(input.ChannelName)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimSpace(input.APIEndpoint)
	if endpoint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api endpoint is required")
	}

	blob, err := s.vault.Encrypt(input.Credentials)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypting channel credentials")
	}

	conn := &models.ChannelConnection{
		ChannelName: name,
		APIEndpoint: endpoint,
		Credentials: blob,
	}
	return s.connections.CreateConnection(ctx, conn)
}

func (s *service) UpdateConnection(ctx context.Context, id uuid.UUID, input ConnectionInput) (*models.ChannelConnection, error) {
	conn, err := s.connections.GetConnection(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.ChannelName) != "" && input.ChannelName != conn.ChannelName {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel name cannot change once created")
	}
	if endpoint := strings.TrimSpace(input.APIEndpoint); endpoint != "" {
		conn.APIEndpoint = endpoint
	}
	replacedCredentials := input.Credentials != nil
	if replacedCredentials {
		blob, err := s.vault.Encrypt(input.Credentials)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypting channel credentials")
		}
		conn.Credentials = blob
	}
	updated, err := s.connections.UpdateConnection(ctx, conn)
	if err != nil {
		return nil, err
	}
	if replacedCredentials {
		// Fresh credentials clear any credential-parked mappings so the next
		// sync run picks the channel up again.
		if _, err := s.mappings.ReactivateErrorMappings(ctx, updated.ChannelName, time.Now().UTC()); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

func (s *service) SetConnectionActive(ctx context.Context, id uuid.UUID, active bool) (*models.ChannelConnection, error) {
	conn, err := s.connections.GetConnection(ctx, id)
	if err != nil {
		return nil, err
	}
	if conn.IsActive == active {
		return conn, nil
	}
	conn.IsActive = active
	return s.connections.UpdateConnection(ctx, conn)
}

// DeleteConnection refuses to remove a channel that still has mappings so
// orphaned mappings can never point at a vanished connection.
func (s *service) DeleteConnection(ctx context.Context, id uuid.UUID) error {
	conn, err := s.connections.GetConnection(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.mappings.CountMappingsByChannel(ctx, conn.ChannelName)
	if err != nil {
		return err
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("channel %s still has %d mappings", conn.ChannelName, count))
	}
	return s.connections.DeleteConnection(ctx, id)
}

func (s *service) GetConnection(ctx context.Context, id uuid.UUID) (*models.ChannelConnection, error) {
	return s.connections.GetConnection(ctx, id)
}

func (s *service) ListConnections(ctx context.Context, activeOnly bool) ([]models.ChannelConnection, error) {
	return s.connections.ListConnections(ctx, activeOnly)
}

// Credentials returns the decrypted credential map for a channel. Blobs that
// cannot be decrypted yield an empty map rather than an error so a bad secret
// degrades to auth failures at the channel instead of blocking the sync loop.
func (s *service) Credentials(ctx context.Context, channelName string) (map[string]string, error) {
	conn, err := s.connections.GetConnectionByName(ctx, channelName)
	if err != nil {
		return nil, err
	}
	return s.vault.Decrypt(conn.Credentials), nil
}

func (s *service) CreateMapping(ctx context.Context, input MappingInput) (*models.ChannelMapping, error) {
	name, err := normalizeChannelName(input.ChannelName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.ExternalRoomID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external room id is required")
	}
	if _, err := s.connections.GetConnectionByName(ctx, name); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, fmt.Sprintf("channel %s is not configured", name))
	}
	if _, err := s.roomTypes.GetRoomType(ctx, input.RoomTypeID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "room type not found")
	}

	mapping := &models.ChannelMapping{
		ChannelName:    name,
		RoomTypeID:     input.RoomTypeID,
		RatePlanID:     input.RatePlanID,
		ExternalRoomID: strings.TrimSpace(input.ExternalRoomID),
		ExternalRateID: strings.TrimSpace(input.ExternalRateID),
		SyncAvail:      boolOrDefault(input.SyncAvail, true),
		SyncRates:      boolOrDefault(input.SyncRates, true),
		SyncResv:       boolOrDefault(input.SyncResv, true),
		Status:         enums.MappingStatusActive,
	}
	return s.mappings.CreateMapping(ctx, mapping)
}

func (s *service) UpdateMapping(ctx context.Context, id uuid.UUID, input MappingInput) (*models.ChannelMapping, error) {
	mapping, err := s.mappings.GetMapping(ctx, id)
	if err != nil {
		return nil, err
	}

	if external := strings.TrimSpace(input.ExternalRoomID); external != "" {
		mapping.ExternalRoomID = external
	}
	if external := strings.TrimSpace(input.ExternalRateID); external != "" {
		mapping.ExternalRateID = external
	}
	if input.SyncAvail != nil {
		mapping.SyncAvail = *input.SyncAvail
	}
	if input.SyncRates != nil {
		mapping.SyncRates = *input.SyncRates
	}
	if input.SyncResv != nil {
		mapping.SyncResv = *input.SyncResv
	}
	return s.mappings.UpdateMapping(ctx, mapping)
}

func (s *service) DeleteMapping(ctx context.Context, id uuid.UUID) error {
	if _, err := s.mappings.GetMapping(ctx, id); err != nil {
		return err
	}
	return s.mappings.DeleteMapping(ctx, id)
}

func (s *service) GetMapping(ctx context.Context, id uuid.UUID) (*models.ChannelMapping, error) {
	return s.mappings.GetMapping(ctx, id)
}

func (s *service) ListMappingsByChannel(ctx context.Context, channelName string) ([]models.ChannelMapping, error) {
	return s.mappings.ListMappingsByChannel(ctx, channelName)
}

func (s *service) ListMappingsByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]models.ChannelMapping, error) {
	return s.mappings.ListMappingsByRoomType(ctx, roomTypeID)
}

func normalizeChannelName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !channelNamePattern.MatchString(name) {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			"channel name must be lowercase alphanumeric with dashes or underscores")
	}
	return name, nil
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
