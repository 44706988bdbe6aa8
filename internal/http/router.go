// Package httpapi wires the HTTP transport (Gin) to the task service,
// middleware, and route handlers.
//
// The task routes are mounted twice: under the versioned prefix
// (API_BASE_PATH, default /api/v1) and at the root for legacy clients. The
// root mount runs the deprecation tagger first. Requests that match no route
// fall through to the not-found stage, and every recorded error is rendered
// by the error responder in the shape of the route's version.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-task-backend/docs"
	"github.com/tbourn/go-task-backend/internal/config"
	"github.com/tbourn/go-task-backend/internal/http/handlers"
	"github.com/tbourn/go-task-backend/internal/http/middleware"
	"github.com/tbourn/go-task-backend/internal/repo"
	"github.com/tbourn/go-task-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Access log (plain or redacting): sees the final status
//  4. Metrics: sees the final status
//  5. Gzip: wraps everything written below it
//  6. Error responder: renders errors recorded by any later stage
//  7. Recovery: panics become recorded 500s
//  8. Body size limiter
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per client IP, bypass on replay)
//  11. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	// Unmatched methods are unknown routes, not 405s.
	r.HandleMethodNotAllowed = false

	prefix := cfg.APIBasePath
	if prefix == "" || prefix == "/" {
		prefix = middleware.DefaultVersionPrefix
	}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{middleware.HeaderIdempotencyKey},
		}))
	} else {
		r.Use(middleware.Logger())
	}

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.ErrorResponder(middleware.ErrorOptions{VersionPrefix: prefix}))
	r.Use(middleware.Recovery())

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	r.Use(limitBody(maxBody))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, services.IdempotencyScope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	useCORS(r, cfg.CORS.AllowedOrigins)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:       cfg.Security.EnableHSTS,
		HSTSMaxAge:       cfg.Security.HSTSMaxAge,
		NoStoreMutations: true,
		EnablePolicy:     true,
		Expose:           []string{"X-Request-ID", middleware.HeaderIdempotencyReplayed},
	}))

	deprecate := middleware.Deprecate(middleware.DeprecationOptions{
		Message:       cfg.Legacy.Message,
		SunsetDate:    cfg.Legacy.SunsetDate,
		VersionPrefix: prefix,
	})

	// Fallback: deprecation tagger then not-found, as for any legacy path.
	r.NoRoute(deprecate, handlers.NotFound(prefix))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = prefix
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	svc := services.NewTaskService(db, repo.TaskStore{})
	if cfg.IdempotencyTTL > 0 {
		svc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	h := handlers.New(svc)

	// Versioned API first, then the deprecated root mount.
	h.Register(groupWithPrefix(r, prefix))
	h.Register(r.Group("/", deprecate))
}

// useCORS installs the CORS posture: allow all origins when none are
// configured, otherwise echo allowlisted origins.
func useCORS(r *gin.Engine, origins []string) {
	methods := []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey, "If-None-Match"}
	exposeHeaders := []string{
		"X-Request-ID", "Content-Length", "ETag",
		middleware.HeaderIdempotencyReplayed,
		middleware.HeaderWarning,
		middleware.HeaderDeprecated,
		middleware.HeaderSunsetDate,
		middleware.HeaderAlternativeEndpoint,
	}

	if len(origins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
		return
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     methods,
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    exposeHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}

// limitBody caps the request body at maxBytes using http.MaxBytesReader.
// Reads beyond the cap fail with *http.MaxBytesError, which the validation
// stage turns into a 413.
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
