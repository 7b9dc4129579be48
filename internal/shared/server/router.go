package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"gezy-backend/internal/casework"
	"gezy-backend/internal/services/health"
	"gezy-backend/internal/shared/auth"
	"gezy-backend/internal/shared/config"
	"gezy-backend/internal/shared/metrics"
	"gezy-backend/internal/shared/server/middleware"
	"gezy-backend/internal/shared/server/respond"
	"gezy-backend/internal/users"
)

const (
	groupDefault = "DEFAULT"
	groupRead    = "READ"
	groupUpload  = "UPLOAD"
	groupLetters = "LETTERS"
)

// RouterDeps are the handlers and settings the router mounts.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Service
	UserHandler     *users.Handler
	CaseworkHandler *casework.Handler
	Limiter         *middleware.RateLimiter
	Verifier        *auth.Verifier
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		otelgin.Middleware("gezy-api", otelgin.WithFilter(middleware.Traced)),
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	authed := api.Group("")
	authed.Use(
		middleware.Auth(middleware.AuthConfig{Verifier: deps.Verifier, AllowGuests: cfg.AllowGuests}),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        rateLimitRules(cfg.RateLimitRPS, cfg.RateLimitBurst),
			DefaultGroup: groupDefault,
			GroupFor:     rateLimitGroup,
			Limiter:      deps.Limiter,
		}),
	)
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(authed)
	}
	if deps.CaseworkHandler != nil {
		deps.CaseworkHandler.RegisterRoutes(authed)
	}

	return r
}

// rateLimitRules scales every group from the configured base rate. Letter
// generation calls a provider and gets the tightest budget.
func rateLimitRules(rps float64, burst int) map[string]middleware.RateLimitRule {
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 20
	}
	return map[string]middleware.RateLimitRule{
		groupDefault: {Rate: rps, Burst: burst},
		groupRead:    {Rate: rps * 5, Burst: burst * 2},
		groupUpload:  {Rate: rps / 2, Burst: max(1, burst/4)},
		groupLetters: {Rate: rps / 4, Burst: max(1, burst/10)},
	}
}

func rateLimitGroup(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case c.Request.Method == http.MethodGet:
		return groupRead
	case strings.HasSuffix(path, "/documents"), strings.HasSuffix(path, "/documents/analyze"):
		return groupUpload
	case strings.HasSuffix(path, "/letters"), strings.HasSuffix(path, "/revise"):
		return groupLetters
	default:
		return groupDefault
	}
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
