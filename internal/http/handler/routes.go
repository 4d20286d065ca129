package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"imgdrop/internal/http/middleware"
	"imgdrop/internal/service"
)

// PublicPrefix is the path stored images are served under.
const PublicPrefix = "/uploads/"

// Options carries everything the routes need besides the service.
type Options struct {
	URLs URLBuilder
	// Metrics may be nil.
	Metrics *middleware.UploadMetrics
	// Gatherer backs GET /metrics; the route is skipped when nil.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, svc service.ImageService, opts Options) {
	app.Get("/health", HealthCheck(svc))
	app.Get("/healthz", LivenessProbe())

	if opts.Gatherer != nil {
		app.Get(middleware.MetricsPath, adaptor.HTTPHandler(
			promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}),
		))
	}

	// Upload an image (multipart/form-data, field name: file)
	app.Post("/upload", UploadImage(svc, opts.URLs, opts.Metrics))

	// Stored images; GET also answers HEAD
	app.Get(PublicPrefix+":filename", ServeImage(svc))

	// Catalogue of stored images (empty when no database is configured)
	app.Get("/images", ListImages(svc))
}
