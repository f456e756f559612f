package api

import (
	"github.com/Conceptual-Machines/battito/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/battito/internal/api/middleware"
	"github.com/Conceptual-Machines/battito/internal/config"
	"github.com/Conceptual-Machines/battito/internal/metrics"
	"github.com/Conceptual-Machines/battito/internal/middleware"
	"github.com/Conceptual-Machines/battito/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services are the long-lived collaborators the handlers share
type Services struct {
	Compiler   *services.Compiler
	Player     *services.Player
	Targets    services.TargetStore
	CloudWatch *metrics.Client
}

func SetupRouter(db *gorm.DB, cfg *config.Config, svc Services, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(svc.CloudWatch))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(db, svc.Player.Fallback())
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, svc.Compiler)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	patternHandler := handlers.NewPatternHandler(svc.Compiler, svc.Player)

	// Original single-shot endpoint used by the web front end
	router.POST("/parse", authMiddleware(cfg), patternHandler.Parse)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(cfg))
	{
		v1.POST("/compile", patternHandler.Compile)
		v1.POST("/play", patternHandler.Play)
		v1.GET("/grammar", handlers.Grammar)

		exportHandler := handlers.NewExportHandler(svc.Compiler)
		v1.GET("/export.mid", exportHandler.ExportMIDI)

		targetHandler := handlers.NewTargetHandler(svc.Targets)
		v1.GET("/targets", targetHandler.List)
		v1.PUT("/targets/:name", middleware.AdminRequired(), targetHandler.Put)
		v1.DELETE("/targets/:name", middleware.AdminRequired(), targetHandler.Delete)
	}

	return router
}

// authMiddleware picks the middleware for AUTH_MODE
func authMiddleware(cfg *config.Config) gin.HandlerFunc {
	switch {
	case cfg.IsGatewayMode():
		return apimiddleware.GatewayAuth()
	case cfg.IsJWTMode():
		return middleware.JWTAuth(cfg)
	default:
		return apimiddleware.NoAuth()
	}
}
