// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and rate
// limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/config"
	"github.com/tbourn/go-crm-backend/internal/http/handlers"
	"github.com/tbourn/go-crm-backend/internal/http/middleware"
	"github.com/tbourn/go-crm-backend/internal/repo"
	"github.com/tbourn/go-crm-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), CORS and security
// headers, health and metrics endpoints, and then mounts the public API under
// cfg.APIBasePath with auth, idempotency, and rate limiting.
//
// Middleware order matters:
//
// Global:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing (emails, phones)
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Metrics
//  8. CORS and Security headers
//
// API group (auth endpoints): rate limiter keyed by IP.
// API group (protected): auth gate → idempotency validator → rate limiter,
// in that order so replay detection sees the user identity and can bypass
// the limiter.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// Error/stack passthrough in failure envelopes follows APP_ENV, not the
	// Gin mode; production responses never expose internals.
	handlers.SetErrorDetail(!cfg.IsProduction())

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. CRM traffic routinely carries
	// customer emails and phone numbers in payloads and queries.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress list-heavy responses
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture (safe defaults: allow all if none configured)
	corsHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey}
	exposed := []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    exposed,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    exposed,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, "API endpoint not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, "Method not allowed on this endpoint")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Dependency injection: services ← db/config
	authSvc := &services.AuthService{
		DB:         db,
		Secret:     cfg.JWT.Secret,
		TokenTTL:   cfg.JWT.TTL,
		BcryptCost: cfg.BcryptCost,
	}
	customerSvc := &services.CustomerService{DB: db}
	dealSvc := &services.DealService{DB: db, IdempotencyTTL: cfg.IdempotencyTTL}
	interSvc := &services.InteractionService{DB: db, IdempotencyTTL: cfg.IdempotencyTTL}
	taskSvc := &services.TaskService{DB: db}
	h := handlers.New(authSvc, customerSvc, dealSvc, interSvc, taskSvc)

	// One shared limiter so auth and protected routes draw from the same
	// buckets (keyed per user once authenticated, per IP otherwise).
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)

	// Unauthenticated auth endpoints, still rate limited (login brute force).
	auth := api.Group("/auth")
	auth.Use(rl.Handler())
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	// Everything else requires a bearer token. The idempotency validator runs
	// after the auth gate so replay lookups see the user identity, and before
	// the limiter so detected replays bypass it.
	protected := api.Group("")
	protected.Use(middleware.RequireAuth(cfg.JWT.Secret, handlers.RespondError))
	protected.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, uid, resource, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, uid, resource, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))
	protected.Use(rl.Handler())
	{
		// Customers
		protected.POST("/customers", h.CreateCustomer)
		protected.GET("/customers", h.ListCustomers)
		protected.GET("/customers/:id", h.GetCustomer)
		protected.PUT("/customers/:id", h.UpdateCustomer)
		protected.DELETE("/customers/:id", h.DeleteCustomer)

		// Deals
		protected.POST("/deals", h.CreateDeal)
		protected.GET("/deals", h.ListDeals)
		protected.PUT("/deals/:id", h.UpdateDeal)

		// Interactions
		protected.POST("/interactions", h.CreateInteraction)
		protected.GET("/interactions", h.ListInteractions)

		// Tasks
		protected.POST("/tasks", h.CreateTask)
		protected.GET("/tasks", h.ListTasks)
		protected.PUT("/tasks/:id", h.UpdateTask)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
