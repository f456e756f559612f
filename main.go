package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Conceptual-Machines/battito/internal/api"
	"github.com/Conceptual-Machines/battito/internal/config"
	"github.com/Conceptual-Machines/battito/internal/database"
	"github.com/Conceptual-Machines/battito/internal/metrics"
	"github.com/Conceptual-Machines/battito/internal/services"
	"github.com/Conceptual-Machines/battito/internal/transport"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "battito@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	// Target routes live in Postgres when configured, in memory otherwise
	var db *gorm.DB
	var targets services.TargetStore
	if cfg.HasDatabase() {
		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to connect to database:", err)
		}
		if err := database.Migrate(db); err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to run migrations:", err)
		}
		targets = services.NewGormTargetStore(db)
	} else {
		log.Println("⚠️  DATABASE_URL not set, target routes are kept in memory")
		targets = services.NewMemoryTargetStore()
	}

	cloudwatch, err := metrics.NewClient(context.Background(), cfg.Environment)
	if err != nil {
		log.Printf("⚠️  CloudWatch disabled: %v", err)
	}

	sender := transport.NewSender()
	defer sender.Close()

	compiler := services.NewCompiler(cfg, cloudwatch)
	fallback := transport.Destination{Addr: cfg.OSCDestination(), Address: cfg.OSCAddress}
	player := services.NewPlayer(compiler, targets, sender, fallback, cloudwatch)
	log.Printf("🎛️  Default OSC destination: %s", fallback)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(db, cfg, api.Services{
		Compiler:   compiler,
		Player:     player,
		Targets:    targets,
		CloudWatch: cloudwatch,
	}, GetVersion())

	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
