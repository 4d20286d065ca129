package handler

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// URLBuilder turns a stored filename into the absolute URL it is served at.
type URLBuilder struct {
	// BaseURL is scheme://host[:port] without a trailing slash, e.g. http://localhost:8000.
	BaseURL string
	// FromRequest ignores BaseURL and uses the request's scheme and host.
	FromRequest bool
}

// Build returns <base>/uploads/<filename>.
func (b URLBuilder) Build(c *fiber.Ctx, filename string) string {
	base := strings.TrimRight(b.BaseURL, "/")
	if b.FromRequest || base == "" {
		// Protocol and Hostname honour X-Forwarded-Proto / X-Forwarded-Host
		// only for trusted proxies when EnableTrustedProxyCheck is on.
		base = c.Protocol() + "://" + c.Hostname()
	}
	return base + PublicPrefix + url.PathEscape(filename)
}
