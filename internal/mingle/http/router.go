package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/service"
	"github.com/aussiebroadwan/mingle/internal/mingle/store"
	"github.com/aussiebroadwan/mingle/internal/mingle/weather"
	"github.com/aussiebroadwan/mingle/pkg/httpx"
	"github.com/aussiebroadwan/mingle/pkg/slogx"

	_ "github.com/aussiebroadwan/mingle/api/mingle" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Forecaster returns today's forecast at a coordinate, or nil.
type Forecaster interface {
	FetchForecast(ctx context.Context, lat, lon float64) *weather.Forecast
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	blobs        store.Store

	Store      *service.DomainStore
	OTP        *service.OTPService
	Geolocator *service.Geolocator
	Forecaster Forecaster // Optional: events are served without a forecast when nil

	// FallbackCoordinate is forecast for events that have no location yet.
	FallbackCoordinate domain.Coordinate
	ForecastTimeout    time.Duration

	// AdminToken enables POST /v1/admin/reset. Empty disables it.
	AdminToken string
}

func NewRouter(buildVersion string, blobs store.Store, ds *service.DomainStore, logger *slog.Logger) *Router {
	r := &Router{
		Mux:                http.NewServeMux(),
		buildVersion:       buildVersion,
		startTime:          time.Now(),
		logger:             logger,
		blobs:              blobs,
		Store:              ds,
		FallbackCoordinate: weather.FallbackCoordinate,
		ForecastTimeout:    3 * time.Second,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		SessionMiddleware(ds),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerEvents()
	r.registerGuests()
	r.registerSystem()
	r.registerAdmin()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Mingle API
//	@version		0.1.0
//	@description	Social events with private addresses. Hosts publish events showing only a city;
//	@description	the full address is revealed to guests the host approves.
//	@description
//	@description	The server keeps a single session. Anonymous viewers may identify themselves
//	@description	with the X-Guest-Email header to see events they were approved for.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/mingle
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	h := &AccountsHandler{Store: r.Store, OTP: r.OTP, Geolocator: r.Geolocator}

	// Code issue and registration send mail, keep them tight.
	r.Mux.Handle("POST /v1/otp",
		httpx.Chain(http.HandlerFunc(h.HandleIssueCode),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Login - strict by IP to slow password guessing
	r.Mux.Handle("POST /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleCurrentUser),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("PUT /v1/me/location",
		httpx.Chain(http.HandlerFunc(h.HandleLocation),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/me",
		httpx.Chain(http.HandlerFunc(h.HandleProfile),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/me",
		httpx.Chain(http.HandlerFunc(h.HandleDeleteAccount),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/me/events",
		httpx.Chain(http.HandlerFunc(h.HandleMyEvents),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerEvents() {
	h := &EventsHandler{
		Store:              r.Store,
		Geolocator:         r.Geolocator,
		Forecaster:         r.Forecaster,
		FallbackCoordinate: r.FallbackCoordinate,
		ForecastTimeout:    r.ForecastTimeout,
	}

	// Browsing is public and cheap.
	r.Mux.Handle("GET /v1/events",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /v1/events/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// Host operations - moderate by user
	r.Mux.Handle("POST /v1/events",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/events/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/events/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/events/{id}/share",
		httpx.Chain(http.HandlerFunc(h.HandleShare),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerGuests() {
	h := &GuestsHandler{Store: r.Store}

	r.Mux.Handle("POST /v1/events/{id}/rsvps",
		httpx.Chain(http.HandlerFunc(h.HandleRSVP),
			httpx.RateLimitByIPAndPath(httpx.ModerateLimit, "id"),
		),
	)

	// Access requests reach the host, so limit per IP and event.
	r.Mux.Handle("POST /v1/events/{id}/access-requests",
		httpx.Chain(http.HandlerFunc(h.HandleAccessRequest),
			httpx.RateLimitByIPAndPath(httpx.StrictLimit, "id"),
		),
	)

	r.Mux.Handle("POST /v1/events/{id}/access-requests/{requestID}/approve",
		httpx.Chain(http.HandlerFunc(h.HandleApprove),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/events/{id}/access-requests/{requestID}/deny",
		httpx.Chain(http.HandlerFunc(h.HandleDeny),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.blobs),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{Store: r.Store, Geolocator: r.Geolocator, Token: r.AdminToken}
	r.Mux.Handle("POST /v1/admin/reset",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}
