// Package kernel assembles the HTTP handler: the global middleware stack,
// the operational endpoints and the API routes.
package kernel

import (
	"net/http"
	"strings"
	"time"

	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/metrics"
	"github.com/aniicone/cafe-api/pkg/middleware"
	"github.com/aniicone/cafe-api/pkg/reqid"
	"github.com/aniicone/cafe-api/pkg/response"
	"github.com/aniicone/cafe-api/pkg/router"
)

const welcome = "Welcome to Aniicone's Café API"

// Options tune the global middleware.
type Options struct {
	CORSOrigins        []string
	RateLimitPerMinute int
	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []string
	// StorageRoot, when set, is served read-only under /storage/.
	StorageRoot string
	// Ping reports backing-store health for /healthz. Nil means healthy.
	Ping func(r *http.Request) error
}

type HTTPKernel struct {
	router *router.Router
}

// NewHTTPKernel builds the router and hands it to register for the API
// routes.
func NewHTTPKernel(opts Options, register func(*router.Router) error) (*HTTPKernel, error) {
	r := router.New()

	// Global middleware stack (outermost → innermost):
	//  1. Prometheus metrics, for total latency
	//  2. Recovery
	//  3. Request ID, before anything logs
	//  4. Logger
	//  5. CORS
	//  6. Rate limiter
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(opts.CORSOrigins...)))
	if opts.RateLimitPerMinute > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMinute, time.Minute, opts.TrustedProxies...))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, req, apperr.NewNotFound("Route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, req, apperr.New(apperr.NotFound, http.StatusMethodNotAllowed, "Method not allowed"))
	})

	r.Get("/", "home", func(w http.ResponseWriter, _ *http.Request) {
		response.Message(w, http.StatusOK, welcome)
	})
	r.Get("/healthz", "health", health(opts.Ping))
	r.Get("/metrics", "metrics", metrics.Handler())

	if root := strings.TrimSpace(opts.StorageRoot); root != "" {
		r.Handle("/storage/*", http.StripPrefix("/storage/", http.FileServer(http.Dir(root))))
	}

	if register != nil {
		if err := register(r); err != nil {
			return nil, err
		}
	}
	return &HTTPKernel{router: r}, nil
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

func (k *HTTPKernel) Routes() []router.RouteInfo { return k.router.Routes() }

func health(ping func(*http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r); err != nil {
				response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
