package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/Harshitk-cp/timely/internal/api/handlers"
	mw "github.com/Harshitk-cp/timely/internal/api/middleware"
	"github.com/Harshitk-cp/timely/internal/buildconfig"
	"github.com/Harshitk-cp/timely/internal/config"
	"github.com/Harshitk-cp/timely/internal/domain"
	"github.com/Harshitk-cp/timely/internal/horizon"
	"github.com/Harshitk-cp/timely/internal/service"
	"github.com/Harshitk-cp/timely/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Stores bundles the persistence dependencies of the HTTP surface.
type Stores struct {
	Tenants domain.TenantStore
	Sensors domain.SensorStore
	Sources domain.SourceStore
	// Ping reports database health for /health.
	Ping func(ctx context.Context) error
}

// App holds the router and the state shared with background tasks.
type App struct {
	Router      *chi.Mux
	RateLimiter *mw.RateLimiter
	startTime   time.Time
	counters    mw.Counters
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	return NewAppWithStores(Stores{
		Tenants: store.NewTenantStore(db),
		Sensors: store.NewSensorStore(db),
		Sources: store.NewSourceStore(db),
		Ping:    db.Ping,
	}, logger)
}

func NewAppWithStores(s Stores, logger *zap.Logger) *App {
	sensorSvc := service.NewSensorService(s.Sensors, logger)
	horizonSvc := service.NewHorizonService(logger)
	sourceSvc := service.NewSourceService(s.Sources, logger)

	tenantHandler := handlers.NewTenantHandler(s.Tenants)
	sensorHandler := handlers.NewSensorHandler(sensorSvc)
	horizonHandler := handlers.NewHorizonHandler(horizonSvc)
	sourceHandler := handlers.NewSourceHandler(sourceSvc)

	r := chi.NewRouter()
	app := &App{
		Router:      r,
		RateLimiter: mw.NewRateLimiter(config.RateLimitRPS(), config.RateLimitBurst()),
		startTime:   time.Now(),
	}
	metricsCollector := mw.NewMetricsCollector(&app.counters)

	// order matters: the request id must exist before anything logs
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiter.Middleware)

	r.Get("/health", healthHandler(s.Ping))
	r.Get("/metrics", app.metricsHandler())
	r.Get("/version", versionHandler)

	// bootstrap endpoint, no auth
	r.Post("/v1/tenants", tenantHandler.Create)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.Tenants))

		r.Route("/sensors", func(r chi.Router) {
			r.Post("/", sensorHandler.Create)
			r.Get("/", sensorHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sensorHandler.GetByID)
				r.Put("/knowledge-horizon", sensorHandler.UpdateHorizon)
				r.Get("/knowledge-horizon", sensorHandler.KnowledgeHorizon)
				r.Get("/knowledge-time", sensorHandler.KnowledgeTime)
			})
		})

		r.Route("/horizons", func(r chi.Router) {
			r.Get("/rules", horizonHandler.Rules)
			r.Post("/evaluate", horizonHandler.Evaluate)
		})

		r.Route("/sources", func(r chi.Router) {
			r.Post("/ensure", sourceHandler.Ensure)
			r.Get("/{id}", sourceHandler.GetByID)
		})
	})

	return app
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				handlers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}
		handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	info := buildconfig.VersionInfo()
	info["go_version"] = runtime.Version()
	handlers.WriteJSON(w, http.StatusOK, info)
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		handlers.WriteJSON(w, http.StatusOK, map[string]any{
			"uptime_seconds":   uptime.Seconds(),
			"uptime_human":     uptime.Round(time.Second).String(),
			"request_count":    app.counters.Requests.Load(),
			"error_count":      app.counters.Errors.Load(),
			"refused_count":    app.counters.Refused.Load(),
			"registered_rules": len(horizon.Rules()),
			"goroutines":       runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": float64(memStats.Alloc) / 1024 / 1024,
				"sys_mb":   float64(memStats.Sys) / 1024 / 1024,
				"num_gc":   memStats.NumGC,
			},
		})
	}
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.TenantStore = (*store.TenantStore)(nil)
	_ domain.SensorStore = (*store.SensorStore)(nil)
	_ domain.SourceStore = (*store.SourceStore)(nil)
)
