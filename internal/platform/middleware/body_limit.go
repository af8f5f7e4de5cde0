package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// DefaultBodyLimit fits a visit row or a seed request many times over.
const DefaultBodyLimit = "64K"

// BodyLimit rejects request bodies larger than limit with 413, whether
// Content-Length announces it or the body only overflows while being read.
// A malformed limit falls back to DefaultBodyLimit; config.Validate rejects
// one before it gets here.
func BodyLimit(limit string) echo.MiddlewareFunc {
	n, err := ParseSize(limit)
	if err != nil {
		n, _ = ParseSize(DefaultBodyLimit)
	}
	return echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit: strconv.FormatInt(n, 10),
	})
}

// ParseSize reads "512", "64K", "64KB", "1M" or "1G" into bytes.
func ParseSize(s string) (int64, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if t == "" {
		return 0, fmt.Errorf("empty size")
	}
	t = strings.TrimSuffix(t, "B")

	var unit int64 = 1
	switch {
	case strings.HasSuffix(t, "G"):
		unit = 1 << 30
	case strings.HasSuffix(t, "M"):
		unit = 1 << 20
	case strings.HasSuffix(t, "K"):
		unit = 1 << 10
	}
	if unit > 1 {
		t = t[:len(t)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * unit, nil
}
