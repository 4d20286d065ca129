package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"imgdrop/internal/http/middleware"
	"imgdrop/internal/service"
)

// uploadResponse is the body of a successful POST /upload.
type uploadResponse struct {
	URL string `json:"url"`
}

// UploadImage handles POST /upload.
//
// @Summary     Upload an image
// @Description Stores a png, jpg or jpeg under a generated name and returns its public URL.
// @Accept      multipart/form-data
// @Produce     json
// @Param       file formData file true "Image file (.png, .jpg, .jpeg)"
// @Success     200 {object} uploadResponse
// @Failure     400 {object} errorPayload
// @Failure     500 {object} errorPayload
// @Router      /upload [post]
func UploadImage(svc service.ImageService, urls URLBuilder, metrics *middleware.UploadMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			metrics.Observe(middleware.UploadRejected, 0)
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			metrics.Observe(middleware.UploadFailed, 0)
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		stored, err := svc.Upload(c.UserContext(), service.UploadRequest{
			Reader:   f,
			Filename: fh.Filename,
			Size:     fh.Size,
		})
		if err != nil {
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				metrics.Observe(middleware.UploadRejected, 0)
				return writeError(c, fiber.StatusBadRequest, "UNSUPPORTED_EXTENSION", verr.Error())
			}
			metrics.Observe(middleware.UploadFailed, 0)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		metrics.Observe(middleware.UploadStored, stored.Size)
		return c.Status(fiber.StatusOK).JSON(uploadResponse{URL: urls.Build(c, stored.Filename)})
	}
}

// ServeImage handles GET and HEAD /uploads/:filename.
//
// @Summary  Fetch a stored image
// @Produce  image/png,image/jpeg
// @Param    filename path string true "Generated filename"
// @Success  200 {file} binary
// @Failure  404 {object} errorPayload
// @Router   /uploads/{filename} [get]
func ServeImage(svc service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, info, err := svc.Open(c.UserContext(), c.Params("filename"))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		c.Set(fiber.HeaderContentType, info.ContentType)
		// Stored files never change once written.
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
		if !info.LastModified.IsZero() {
			c.Set(fiber.HeaderLastModified, info.LastModified.UTC().Format(http.TimeFormat))
		}
		if name := info.Metadata[service.MetaOriginalFilename]; name != "" {
			if cd := mime.FormatMediaType("inline", map[string]string{"filename": name}); cd != "" {
				c.Set(fiber.HeaderContentDisposition, cd)
			}
		}

		if c.Method() == fiber.MethodHead {
			rc.Close()
			c.Response().Header.SetContentLength(int(info.Size))
			return nil
		}
		// fasthttp closes the stream once the body has been written.
		return c.SendStream(rc, int(info.Size))
	}
}

// ListImages handles GET /images?limit=&offset=.
//
// @Summary  List stored images
// @Produce  json
// @Param    limit  query int false "Page size" default(10)
// @Param    offset query int false "Offset"    default(0)
// @Success  200 {object} service.FileListResult
// @Failure  400 {object} errorPayload
// @Router   /images [get]
func ListImages(svc service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// HealthCheck reports whether storage and the database answer within two seconds.
func HealthCheck(svc service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := svc.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200 while the process is serving.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
