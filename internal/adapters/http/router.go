package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/verse-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/verse-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/verse-service/internal/platform/config"
	"github.com/jsamuelsen/verse-service/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// exportRoute streams the whole working set and is exempt from the timeout.
const exportRoute = "/api/v1/export"

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AppConfig contains application configuration.
	AppConfig *config.AppConfig

	// HealthHandler handles health check endpoints.
	HealthHandler *handlers.HealthHandler

	// ContentHandler serves the browse and edit API. Optional.
	ContentHandler *handlers.ContentHandler

	// Timeout is the API request timeout. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Logger - request-scoped logger
//  2. Recovery - catch panics
//  3. Request ID and Correlation ID
//  4. OpenTelemetry - tracing and HTTP metrics
//  5. Logging - access log (skips /-/ endpoints)
//  6. Timeout - on /api/v1 only
//
// Route groups:
//   - /-/ (internal): health, build info and metrics
//   - /api/v1/: content browse and edit endpoints
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Logger(cfg.Logger),
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.AppConfig.Name),
		telemetry.Middleware(),
		middleware.Logging(),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Timeout, exportRoute))
	}

	if cfg.ContentHandler != nil {
		cfg.ContentHandler.RegisterRoutes(apiV1)
	}
}

// NewDefaultRouterConfig creates a RouterConfig with the default timeout.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	healthHandler *handlers.HealthHandler,
	contentHandler *handlers.ContentHandler,
) RouterConfig {
	return RouterConfig{
		Logger:         logger,
		AppConfig:      appCfg,
		HealthHandler:  healthHandler,
		ContentHandler: contentHandler,
		Timeout:        DefaultRequestTimeout,
	}
}
