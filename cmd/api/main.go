package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"planvault/internal/config"
	"planvault/internal/database"
	"planvault/internal/database/migration"
	handlers "planvault/internal/http/handler"
	"planvault/internal/http/middleware"
	"planvault/internal/mirror"
	"planvault/internal/otel"
	"planvault/internal/repository/postgres"
	"planvault/internal/repository/sidecar"
	"planvault/internal/service"
	"planvault/internal/storage"
)

func main() {
	ctx := context.Background()
	loc := time.UTC

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	// Tracing is configured from OTEL_* environment variables and degrades to
	// a no-op provider when the exporter cannot be reached.
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Local mirror directory; legacy sidecar metadata lives alongside it.
	localMirror, err := mirror.New(cfg.UploadsDir)
	if err != nil {
		log.Fatalf("failed to prepare uploads directory: %v", err)
	}
	legacy := sidecar.New(localMirror.Root())

	// Background retry loop for remote destroys that failed in-request.
	cleanup := service.NewCleanupQueue()
	go cleanup.Run(ctx, objStore, time.Minute)

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(objStore, docRepo, legacy, localMirror, cleanup)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    8 << 20, // above the app-level upload ceiling so validation answers, not the server
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMW.Handler())

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, docSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
