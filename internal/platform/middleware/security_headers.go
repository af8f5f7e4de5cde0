package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

var secureConfig = echomw.SecureConfig{
	ContentTypeNosniff:    "nosniff",
	XFrameOptions:         "DENY",
	XSSProtection:         "0",
	ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
	ReferrerPolicy:        "no-referrer",
	// only sent over TLS or behind a proxy reporting https
	HSTSMaxAge: 31536000,
}

// SecurityHeaders sets the response headers expected of a JSON API that
// serves patient names and addresses. Register lists are never cached;
// /metrics is left cacheable for scrapers.
func SecurityHeaders() echo.MiddlewareFunc {
	secure := echomw.SecureWithConfig(secureConfig)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return secure(func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if c.Request().URL.Path != "/metrics" {
				h.Set("Cache-Control", "no-store")
			}
			return next(c)
		})
	}
}
