package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestTimeout puts a deadline on the request context. Spreadsheet and
// database reads give up when it passes, and the resulting error is
// answered with 504.
//
// The XLSX export and the live feed are exempt: a large register takes
// longer to render and a WebSocket lives for as long as the client stays.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	if timeout <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
		Timeout: timeout,
		Skipper: noDeadline,
		ErrorHandler: func(err error, c echo.Context) error {
			if errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(c.Request().Context().Err(), context.DeadlineExceeded) {
				return gatewayTimeout(c)
			}
			return err
		},
	})
}

func noDeadline(c echo.Context) bool {
	r := c.Request()
	return strings.HasSuffix(r.URL.Path, "/export") ||
		strings.EqualFold(r.Header.Get(echo.HeaderUpgrade), "websocket")
}

func gatewayTimeout(c echo.Context) error {
	if c.Response().Committed {
		return nil
	}
	return c.JSON(http.StatusGatewayTimeout, map[string]string{
		"message": "request processing exceeded the allowed time limit",
	})
}
