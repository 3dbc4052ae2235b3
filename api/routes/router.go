package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lagunahotels/channelsync-backend/api/controllers"
	"github.com/lagunahotels/channelsync-backend/api/middleware"
	bookingsvc "github.com/lagunahotels/channelsync-backend/internal/booking"
	channelsvc "github.com/lagunahotels/channelsync-backend/internal/channels"
	inventorysvc "github.com/lagunahotels/channelsync-backend/internal/inventory"
	syncsvc "github.com/lagunahotels/channelsync-backend/internal/sync"
	"github.com/lagunahotels/channelsync-backend/pkg/config"
	"github.com/lagunahotels/channelsync-backend/pkg/enums"
	"github.com/lagunahotels/channelsync-backend/pkg/logger"
)

// Deps carries everything the HTTP surface needs. Sync orchestration is
// optional so the API can come up before any channel adapter is registered.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Probes     map[string]func(context.Context) error
	Inventory  inventorysvc.Service
	Bookings   bookingsvc.Service
	Channels   channelsvc.Service
	SyncLogs   syncsvc.LogRepository
	Sync       *syncsvc.Orchestrator
	Metrics    prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Probes))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/room-types", func(r chi.Router) {
			r.Get("/", controllers.ListRoomTypes(deps.Inventory, logg))
			r.Post("/", controllers.CreateRoomType(deps.Inventory, logg))
			r.Get("/{roomTypeId}", controllers.GetRoomType(deps.Inventory, logg))
			r.Post("/{roomTypeId}/activate", controllers.ActivateRoomType(deps.Inventory, logg))
			r.Get("/{roomTypeId}/calendar", controllers.InventoryCalendar(deps.Inventory, logg))
			r.Patch("/{roomTypeId}/calendar", controllers.UpdateInventoryDays(deps.Inventory, logg))
			r.Get("/{roomTypeId}/availability", controllers.Availability(deps.Inventory, logg))
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", controllers.ListBookings(deps.Bookings, logg))
			r.Post("/", controllers.CreateBooking(deps.Bookings, logg))
			r.Get("/{bookingId}", controllers.GetBooking(deps.Bookings, logg))
			r.Post("/{bookingId}/confirm", controllers.ConfirmBooking(deps.Bookings, logg))
			r.Post("/{bookingId}/cancel", controllers.CancelBooking(deps.Bookings, logg))
			r.Post("/{bookingId}/transition", controllers.TransitionBooking(deps.Bookings, logg))
		})

		// Channel configuration mutates shared credentials, so it stays
		// behind the admin role.
		r.Route("/connections", func(r chi.Router) {
			r.Get("/", controllers.ListConnections(deps.Channels, logg))
			r.Get("/{connectionId}", controllers.GetConnection(deps.Channels, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.OperatorRoleAdmin), logg))
				r.Post("/", controllers.CreateConnection(deps.Channels, logg))
				r.Put("/{connectionId}", controllers.UpdateConnection(deps.Channels, logg))
				r.Post("/{connectionId}/active", controllers.SetConnectionActive(deps.Channels, logg))
				r.Delete("/{connectionId}", controllers.DeleteConnection(deps.Channels, logg))
			})
		})

		r.Route("/mappings", func(r chi.Router) {
			r.Get("/", controllers.ListMappings(deps.Channels, logg))
			r.Get("/{mappingId}", controllers.GetMapping(deps.Channels, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.OperatorRoleAdmin), logg))
				r.Post("/", controllers.CreateMapping(deps.Channels, logg))
				r.Put("/{mappingId}", controllers.UpdateMapping(deps.Channels, logg))
				r.Delete("/{mappingId}", controllers.DeleteMapping(deps.Channels, logg))
			})
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/logs", controllers.ListSyncLogs(deps.SyncLogs, logg))
			if deps.Sync != nil {
				r.With(middleware.RequireRole(string(enums.OperatorRoleAdmin), logg)).
					Post("/run", controllers.TriggerSync(deps.Sync, logg))
			}
		})
	})

	return r
}
