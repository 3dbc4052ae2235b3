package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	bookingsvc "github.com/lagunahotels/channelsync-backend/internal/booking"
	channelsvc "github.com/lagunahotels/channelsync-backend/internal/channels"
	inventorysvc "github.com/lagunahotels/channelsync-backend/internal/inventory"
	syncsvc "github.com/lagunahotels/channelsync-backend/internal/sync"
	pkgAuth "github.com/lagunahotels/channelsync-backend/pkg/auth"
	"github.com/lagunahotels/channelsync-backend/pkg/config"
	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	"github.com/lagunahotels/channelsync-backend/pkg/enums"
	"github.com/lagunahotels/channelsync-backend/pkg/logger"
	"github.com/lagunahotels/channelsync-backend/pkg/pagination"
)

type stubInventoryService struct{}

func (stubInventoryService) CreateRoomType(ctx context.Context, input inventorysvc.CreateRoomTypeInput) (*models.RoomType, error) {
	panic("unimplemented")
}

func (stubInventoryService) ActivateRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error) {
	panic("unimplemented")
}

func (stubInventoryService) GetRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error) {
	panic("unimplemented")
}

func (stubInventoryService) ListRoomTypes(ctx context.Context, activeOnly bool) ([]models.RoomType, error) {
	return []models.RoomType{}, nil
}

func (stubInventoryService) UpdateDays(ctx context.Context, roomTypeID uuid.UUID, updates []inventorysvc.DayUpdate) error {
	panic("unimplemented")
}

func (stubInventoryService) Availability(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) (int, error) {
	panic("unimplemented")
}

func (stubInventoryService) Calendar(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]models.InventoryDay, error) {
	panic("unimplemented")
}

type stubBookingService struct{}

func (stubBookingService) Create(ctx context.Context, input bookingsvc.CreateInput) (*models.Booking, error) {
	panic("unimplemented")
}

func (stubBookingService) CreateFromExternal(ctx context.Context, input bookingsvc.ExternalInput) (*models.Booking, error) {
	panic("unimplemented")
}

func (stubBookingService) Confirm(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	panic("unimplemented")
}

func (stubBookingService) Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	panic("unimplemented")
}

func (stubBookingService) Transition(ctx context.Context, id uuid.UUID, status enums.BookingStatus) (*models.Booking, error) {
	panic("unimplemented")
}

func (stubBookingService) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	panic("unimplemented")
}

func (stubBookingService) ListByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]models.Booking, error) {
	panic("unimplemented")
}

type stubChannelService struct{}

func (stubChannelService) CreateConnection(ctx context.Context, input channelsvc.ConnectionInput) (*models.ChannelConnection, error) {
	return &models.ChannelConnection{ID: uuid.New(), ChannelName: input.ChannelName, APIEndpoint: input.APIEndpoint}, nil
}

func (stubChannelService) UpdateConnection(ctx context.Context, id uuid.UUID, input channelsvc.ConnectionInput) (*models.ChannelConnection, error) {
	panic("unimplemented")
}

func (stubChannelService) SetConnectionActive(ctx context.Context, id uuid.UUID, active bool) (*models.ChannelConnection, error) {
	panic("unimplemented")
}

func (stubChannelService) DeleteConnection(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubChannelService) GetConnection(ctx context.Context, id uuid.UUID) (*models.ChannelConnection, error) {
	panic("unimplemented")
}

func (stubChannelService) ListConnections(ctx context.Context, activeOnly bool) ([]models.ChannelConnection, error) {
	return []models.ChannelConnection{}, nil
}

func (stubChannelService) Credentials(ctx context.Context, channelName string) (map[string]string, error) {
	panic("unimplemented")
}

func (stubChannelService) CreateMapping(ctx context.Context, input channelsvc.MappingInput) (*models.ChannelMapping, error) {
	panic("unimplemented")
}

func (stubChannelService) UpdateMapping(ctx context.Context, id uuid.UUID, input channelsvc.MappingInput) (*models.ChannelMapping, error) {
	panic("unimplemented")
}

func (stubChannelService) DeleteMapping(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubChannelService) GetMapping(ctx context.Context, id uuid.UUID) (*models.ChannelMapping, error) {
	panic("unimplemented")
}

func (stubChannelService) ListMappingsByChannel(ctx context.Context, channelName string) ([]models.ChannelMapping, error) {
	return []models.ChannelMapping{}, nil
}

func (stubChannelService) ListMappingsByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]models.ChannelMapping, error) {
	return []models.ChannelMapping{}, nil
}

type stubLogRepository struct{}

func (stubLogRepository) Start(ctx context.Context, channelName string, direction enums.SyncDirection, syncType enums.SyncType) (*models.SyncLog, error) {
	panic("unimplemented")
}

func (stubLogRepository) Complete(ctx context.Context, id uuid.UUID, status enums.SyncStatus, processed int, itemErrors []string, errMsg *string) error {
	panic("unimplemented")
}

func (stubLogRepository) List(ctx context.Context, filters syncsvc.LogFilters, params pagination.Params) (*syncsvc.LogPage, error) {
	return &syncsvc.LogPage{}, nil
}

func (stubLogRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:    cfg,
		Logger:    logg,
		Probes:    map[string]func(context.Context) error{"db": func(context.Context) error { return nil }},
		Inventory: stubInventoryService{},
		Bookings:  stubBookingService{},
		Channels:  stubChannelService{},
		SyncLogs:  stubLogRepository{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.OperatorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestHealthReadyChecksProbes(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for readiness got %d", resp.Code)
	}
}

func TestAPIRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/room-types", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAPIAcceptsValidJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/room-types", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.OperatorRoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestConnectionWritesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	staff := httptest.NewRequest(http.MethodDelete, "/api/v1/connections/"+uuid.NewString(), nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.OperatorRoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff delete got %d", resp.Code)
	}

	staffRead := httptest.NewRequest(http.MethodGet, "/api/v1/connections", nil)
	staffRead.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.OperatorRoleStaff))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staffRead)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff read got %d", resp.Code)
	}
}

func TestSyncRunAbsentWithoutOrchestrator(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/run", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.OperatorRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound && resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected sync trigger to be unavailable, got %d", resp.Code)
	}
}
