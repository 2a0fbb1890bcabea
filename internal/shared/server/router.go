package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dealdocs-backend/internal/documents"
	"dealdocs-backend/internal/duplicates"
	"dealdocs-backend/internal/extractions"
	"dealdocs-backend/internal/shared/config"
	"dealdocs-backend/internal/shared/metrics"
	"dealdocs-backend/internal/shared/server/middleware"
	"dealdocs-backend/internal/shared/server/respond"
)

const (
	rateGroupDefault = "DEFAULT"
	rateGroupChecks  = "CHECKS"
)

// RouterDeps holds the handlers mounted under /api/v1.
type RouterDeps struct {
	Config            config.Config
	DocumentHandler   *documents.Handler
	ExtractionHandler *extractions.Handler
	DuplicateHandler  *duplicates.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	limited := api.Group("")
	if rl := deps.Config.RateLimit; rl.RPS > 0 && rl.Burst > 0 {
		// Duplicate checks run once per upload, so they get a larger budget.
		limited.Use(middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor: func(c *gin.Context) string {
				if c.FullPath() == "/api/v1/duplicate-checks" {
					return rateGroupChecks
				}
				return rateGroupDefault
			},
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault: {Rate: rl.RPS, Burst: rl.Burst},
				rateGroupChecks:  {Rate: rl.RPS * 2, Burst: rl.Burst * 2},
			},
		}))
	}

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(limited)
	}
	if deps.ExtractionHandler != nil {
		deps.ExtractionHandler.RegisterRoutes(limited)
	}
	if deps.DuplicateHandler != nil {
		deps.DuplicateHandler.RegisterRoutes(limited)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
