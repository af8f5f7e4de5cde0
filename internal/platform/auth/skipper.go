package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// DefaultPublicRoutes are reachable without a token: health checks, metrics and
// the API description.
var DefaultPublicRoutes = PublicRoutes{
	Paths:    []string{"/health", "/health/db", "/metrics", "/openapi.json", "/docs"},
	Prefixes: []string{"/docs/"},
}

// PublicRoutes lists routes that bypass authentication. Paths match the
// registered echo route exactly; Prefixes match the raw request path.
type PublicRoutes struct {
	Paths    []string
	Prefixes []string
}

// With returns a copy of r with extra exact paths.
func (r PublicRoutes) With(paths ...string) PublicRoutes {
	out := PublicRoutes{
		Paths:    append(append([]string(nil), r.Paths...), paths...),
		Prefixes: append([]string(nil), r.Prefixes...),
	}
	return out
}

// Skipper builds an echo skipper. The exact match uses c.Path(), so it only
// works once the router has resolved the route; unrouted requests fall back
// to the request path.
func (r PublicRoutes) Skipper() middleware.Skipper {
	exact := make(map[string]struct{}, len(r.Paths))
	for _, p := range r.Paths {
		exact[p] = struct{}{}
	}
	prefixes := append([]string(nil), r.Prefixes...)
	return func(c echo.Context) bool {
		route := c.Path()
		if route == "" {
			route = c.Request().URL.Path
		}
		if _, ok := exact[route]; ok {
			return true
		}
		reqPath := c.Request().URL.Path
		for _, p := range prefixes {
			if strings.HasPrefix(reqPath, p) {
				return true
			}
		}
		return false
	}
}

// Public reports whether path is one of the exact public paths or falls
// under a public prefix.
func (r PublicRoutes) Public(path string) bool {
	for _, p := range r.Paths {
		if p == path {
			return true
		}
	}
	for _, p := range r.Prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// AuthSkipper skips DefaultPublicRoutes.
var AuthSkipper = DefaultPublicRoutes.Skipper()
