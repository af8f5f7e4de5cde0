package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const healthTimeout = 5 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stater is the part of *pgxpool.Pool that reports pool statistics.
type Stater interface {
	Stat() *pgxpool.Stat
}

// PoolStats is the connection pool section of /health/db.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// Health is the /health/db body.
type Health struct {
	Status    string     `json:"status"`
	LatencyMS float64    `json:"latency_ms"`
	Error     string     `json:"error,omitempty"`
	Pool      *PoolStats `json:"pool,omitempty"`
}

func poolStats(s Stater) *PoolStats {
	st := s.Stat()
	return &PoolStats{
		TotalConns:      st.TotalConns(),
		IdleConns:       st.IdleConns(),
		AcquiredConns:   st.AcquiredConns(),
		MaxConns:        st.MaxConns(),
		AcquireCount:    st.AcquireCount(),
		AcquireDuration: st.AcquireDuration().String(),
	}
}

// Check pings p within healthTimeout. Pool statistics are included when p
// also implements Stater.
func Check(ctx context.Context, p Pinger) Health {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	h := Health{
		Status:    "healthy",
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
	}
	if s, ok := p.(Stater); ok {
		h.Pool = poolStats(s)
	}
	if err != nil {
		h.Status = "unhealthy"
		h.Error = err.Error()
	}
	return h
}

// HealthHandler answers /health/db with 200 or 503.
func HealthHandler(p Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := Check(c.Request().Context(), p)
		code := http.StatusOK
		if h.Error != "" {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, h)
	}
}
