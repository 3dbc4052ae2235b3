package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	inventorysvc "github.com/lagunahotels/channelsync-backend/internal/inventory"
	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	"github.com/lagunahotels/channelsync-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreateRoomType(t *testing.T) {
	logg := testLogger()

	t.Run("rejects invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/room-types", strings.NewReader(`{"name":"x"}`))
		rec := httptest.NewRecorder()
		CreateRoomType(&stubInventory{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for short name, got %d", rec.Code)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		body := `{"name":"Sea View Double","total_rooms":10,"base_rate":"120.00","color":"blue"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/room-types", strings.NewReader(body))
		rec := httptest.NewRecorder()
		CreateRoomType(&stubInventory{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
		}
	})

	t.Run("creates", func(t *testing.T) {
		stub := &stubInventory{}
		body := `{"name":"Sea View Double","total_rooms":10,"base_rate":"120.00"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/room-types", strings.NewReader(body))
		rec := httptest.NewRecorder()
		CreateRoomType(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.created == nil || stub.created.Name != "Sea View Double" || stub.created.TotalRooms != 10 {
			t.Fatalf("unexpected input passed to service: %+v", stub.created)
		}
	})
}

func TestUpdateInventoryDays(t *testing.T) {
	logg := testLogger()
	roomTypeID := uuid.New()

	t.Run("rejects malformed date", func(t *testing.T) {
		body := `{"days":[{"date":"03/15/2026","stop_sell":true}]}`
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/room-types/"+roomTypeID.String()+"/calendar", strings.NewReader(body))
		req = withURLParam(req, "roomTypeId", roomTypeID.String())
		rec := httptest.NewRecorder()
		UpdateInventoryDays(&stubInventory{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for bad date, got %d", rec.Code)
		}
	})

	t.Run("rejects invalid room type id", func(t *testing.T) {
		body := `{"days":[{"date":"2026-03-15","stop_sell":true}]}`
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/room-types/nope/calendar", strings.NewReader(body))
		req = withURLParam(req, "roomTypeId", "nope")
		rec := httptest.NewRecorder()
		UpdateInventoryDays(&stubInventory{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for bad id, got %d", rec.Code)
		}
	})

	t.Run("applies updates", func(t *testing.T) {
		stub := &stubInventory{}
		body := `{"days":[{"date":"2026-03-15","stop_sell":true,"total_rooms":8},{"date":"2026-03-16","min_stay":2}]}`
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/room-types/"+roomTypeID.String()+"/calendar", strings.NewReader(body))
		req = withURLParam(req, "roomTypeId", roomTypeID.String())
		rec := httptest.NewRecorder()
		UpdateInventoryDays(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(stub.updates) != 2 {
			t.Fatalf("expected 2 updates, got %d", len(stub.updates))
		}
		if !stub.updates[0].Date.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected first update date %v", stub.updates[0].Date)
		}
		if stub.updates[0].TotalRooms == nil || *stub.updates[0].TotalRooms != 8 {
			t.Fatalf("total_rooms should pass through, got %v", stub.updates[0].TotalRooms)
		}
	})
}

func TestAvailabilityRequiresRange(t *testing.T) {
	logg := testLogger()
	roomTypeID := uuid.New()

	t.Run("missing range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/room-types/"+roomTypeID.String()+"/availability", nil)
		req = withURLParam(req, "roomTypeId", roomTypeID.String())
		rec := httptest.NewRecorder()
		Availability(&stubInventory{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 without from/to, got %d", rec.Code)
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/room-types/"+roomTypeID.String()+"/availability?from=2026-03-17&to=2026-03-15", nil)
		req = withURLParam(req, "roomTypeId", roomTypeID.String())
		rec := httptest.NewRecorder()
		Availability(&stubInventory{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for inverted range, got %d", rec.Code)
		}
	})

	t.Run("reports minimum", func(t *testing.T) {
		stub := &stubInventory{available: 4}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/room-types/"+roomTypeID.String()+"/availability?from=2026-03-15&to=2026-03-17", nil)
		req = withURLParam(req, "roomTypeId", roomTypeID.String())
		rec := httptest.NewRecorder()
		Availability(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"available":4`) {
			t.Fatalf("expected available count in body, got %s", rec.Body.String())
		}
	})
}

type stubInventory struct {
	created   *inventorysvc.CreateRoomTypeInput
	updates   []inventorysvc.DayUpdate
	available int
}

func (s *stubInventory) CreateRoomType(ctx context.Context, input inventorysvc.CreateRoomTypeInput) (*models.RoomType, error) {
	s.created = &input
	return &models.RoomType{ID: uuid.New(), Name: input.Name, TotalRooms: input.TotalRooms, BaseRate: input.BaseRate}, nil
}

func (s *stubInventory) ActivateRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error) {
	panic("unimplemented")
}

func (s *stubInventory) GetRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error) {
	panic("unimplemented")
}

func (s *stubInventory) ListRoomTypes(ctx context.Context, activeOnly bool) ([]models.RoomType, error) {
	panic("unimplemented")
}

func (s *stubInventory) UpdateDays(ctx context.Context, roomTypeID uuid.UUID, updates []inventorysvc.DayUpdate) error {
	s.updates = updates
	return nil
}

func (s *stubInventory) Availability(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) (int, error) {
	return s.available, nil
}

func (s *stubInventory) Calendar(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]models.InventoryDay, error) {
	panic("unimplemented")
}
