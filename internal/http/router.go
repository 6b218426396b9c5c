package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/eventprint/internal/auth"
	"github.com/geocoder89/eventprint/internal/config"
	"github.com/geocoder89/eventprint/internal/http/handlers"
	"github.com/geocoder89/eventprint/internal/http/middlewares"
	"github.com/geocoder89/eventprint/internal/observability"
)

const (
	serviceName = "eventprint-api"

	maxRequestBody = 2 << 20
	renderTimeout  = 30 * time.Second
)

type RegistrationStore interface {
	handlers.RegistrationGetter
	handlers.RegistrationTokenLookup
}

// TemplateStore is normally the cached repo; Invalidate drops both tiers.
type TemplateStore interface {
	handlers.TemplateGetter
	handlers.TemplateInvalidator
}

type StationStore interface {
	handlers.StationStore
	middlewares.StationLoader
}

type Deps struct {
	Events        handlers.EventGetter
	Registrations RegistrationStore
	Templates     TemplateStore
	Stations      StationStore
	Engine        handlers.Renderer
	Tokens        *auth.Manager

	// optional
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   map[string]handlers.Pinger
}

func NewRouter(cfg config.Config, d Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(maxRequestBody))
	r.Use(otelgin.Middleware(serviceName))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// health
	health := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	limiter := middlewares.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	limit := func(keyFn func(*gin.Context) string) gin.HandlerFunc {
		if cfg.RateLimitPerMinute <= 0 {
			return func(c *gin.Context) { c.Next() }
		}
		return limiter.Middleware(keyFn)
	}

	renderHandler := handlers.NewRenderHandler(d.Events, d.Registrations, d.Templates, d.Engine, renderTimeout)
	templatesHandler := handlers.NewTemplatesHandler(d.Templates, d.Templates)
	stationsHandler := handlers.NewStationsHandler(d.Stations, d.Events, d.Templates, d.Tokens)
	printHandler := handlers.NewStationPrintHandler(d.Events, d.Registrations, d.Templates, d.Engine, cfg.PrinterDefaultPort, renderTimeout)
	verifyHandler := handlers.NewVerifyHandler(d.Registrations, d.Events)

	authMw := middlewares.NewAuthMiddleware(d.Tokens)
	stationAuth := middlewares.NewStationAuth(d.Tokens, d.Stations)

	// organiser endpoints
	admin := r.Group("/")
	admin.Use(authMw.RequireAuth(), authMw.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/events/:id/registrations/:registrationId/certificate", renderHandler.Certificate)
		admin.GET("/events/:id/registrations/:registrationId/badge", renderHandler.Badge)
		admin.GET("/events/:id/templates/active", templatesHandler.Active)
		admin.POST("/events/:id/templates/refresh", templatesHandler.Refresh)
		admin.DELETE("/stations/:stationId", stationsHandler.Revoke)

		admin.POST("/events/:id/templates/preview", middlewares.RequireJSON(), renderHandler.Preview)
		admin.POST("/events/:id/stations", middlewares.RequireJSON(), stationsHandler.Create)
	}

	// kiosks
	station := r.Group("/station")
	station.Use(stationAuth.RequireStation(), limit(middlewares.KeyByStationOrIP))
	station.POST("/print", middlewares.RequireJSON(), printHandler.Print)

	// public
	r.GET("/verify/:token", limit(middlewares.KeyByIP), verifyHandler.Verify)

	return r
}
