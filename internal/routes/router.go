package routes

import (
	"sysinfo/internal/controllers"
	"sysinfo/internal/middleware"
	"sysinfo/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options holds everything the HTTP surface depends on
type Options struct {
	Source      services.MetricsSource
	Store       services.SampleReader
	Hub         *services.StreamHub // nil disables /ws
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

// NewRouter builds the gin engine with middleware and all routes registered
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger.Named("http")

	r := gin.New()
	r.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.SecurityHeadersMiddleware(),
		middleware.RateLimitMiddleware(opts.RateLimiter, logger),
	)

	RegisterMetricsRoutes(r,
		controllers.NewMetricsController(opts.Source, opts.Logger),
		controllers.NewHistoryController(opts.Store, opts.Logger),
	)
	if opts.Hub != nil {
		RegisterStreamRoutes(r, controllers.NewStreamController(opts.Hub, opts.Logger))
	}

	return r
}
