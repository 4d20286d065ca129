package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"imgdrop/docs"
	"imgdrop/internal/config"
	"imgdrop/internal/database"
	"imgdrop/internal/database/migration"
	handlers "imgdrop/internal/http/handler"
	"imgdrop/internal/http/middleware"
	"imgdrop/internal/jsonlog"
	"imgdrop/internal/otel"
	"imgdrop/internal/repository"
	"imgdrop/internal/repository/postgres"
	"imgdrop/internal/service"
	"imgdrop/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Image Upload API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Printf("invalid TZ_LOG %q, using UTC: %v", cfg.TimeZone, err)
		loc = time.UTC
	}
	logger := jsonlog.New(os.Stdout, loc)

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}

	store, err := newStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	// Metadata is optional; without DB_HOST uploads are only written to storage.
	var (
		db   *sql.DB
		repo repository.StoredFileRepository = repository.Discard
	)
	if cfg.Database.Enabled() {
		db, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		repo = postgres.NewStoredFilePostgres(db)
	}

	svc := service.NewImageService(store, repo)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	uploadMetrics, err := middleware.NewUploadMetrics(reg)
	if err != nil {
		log.Fatalf("failed to register upload metrics: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimitBytes,
	})

	// Register global middleware
	app.Use(recover.New())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == middleware.MetricsPath || c.Path() == "/healthz"
	})))
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(logger))
	app.Use(httpMetrics.Handler())
	app.Use(middleware.CORS())

	handlers.RegisterRoutes(app, svc, handlers.Options{
		URLs: handlers.URLBuilder{
			BaseURL:     cfg.PublicBaseURL,
			FromRequest: cfg.URLFromRequest,
		},
		Metrics:  uploadMetrics,
		Gatherer: reg,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server_starting", map[string]any{
			"addr":           addr,
			"storage_driver": cfg.Storage.Driver,
			"database":       cfg.Database.Enabled(),
		})
		serveErr <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server_failed", err, nil)
		}
	case sig := <-quit:
		logger.Info("server_stopping", map[string]any{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", err, nil)
	}
	if err := shutdownTracing(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("tracing_shutdown_failed", err, nil)
	}
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("database_close_failed", err, nil)
		}
	}
	logger.Info("server_stopped", nil)
}

func newStorage(cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverLocal, "":
		return storage.NewLocal(cfg.UploadDir)
	case config.DriverMinIO:
		// Initialize reusable S3-compatible object storage client (MinIO-supported)
		return storage.NewMinIO(cfg.MinIO)
	default:
		return nil, errors.New("unknown STORAGE_DRIVER " + cfg.Driver)
	}
}
