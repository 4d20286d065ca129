package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"imgdrop/internal/jsonlog"
)

// LoggerWithWriter logs each HTTP request as one JSON line to w.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(jsonlog.New(w, loc))
}

// Logger logs each HTTP request through log.
// Fields: ts, level, request_id, method, path, status, latency (ms).
func Logger(log *jsonlog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The global ErrorHandler has not written the response yet.
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		fields := map[string]any{
			"request_id": RequestIDFrom(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		if status >= fiber.StatusInternalServerError {
			fields["level"] = "error"
		}
		log.Log(fields)

		return err
	}
}
