package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// PoolConfig configures NewPool.
type PoolConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
	// Logger receives pgx query traces; nil disables them. Statements are
	// logged when the logger is at debug level, otherwise only warnings
	// and errors.
	Logger *zerolog.Logger
}

// NewPool opens and pings a pgx pool for the postgres visit store.
func NewPool(ctx context.Context, pc PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(pc.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		cfg.MinConns = pc.MinConns
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = "registry-server"
	}
	if pc.Logger != nil {
		cfg.ConnConfig.Tracer = newTracer(*pc.Logger)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func newTracer(l zerolog.Logger) *tracelog.TraceLog {
	level := tracelog.LogLevelWarn
	if l.GetLevel() <= zerolog.DebugLevel {
		level = tracelog.LogLevelDebug
	}
	return &tracelog.TraceLog{
		Logger:   pgxLogger{l: l.With().Str("component", "pgx").Logger()},
		LogLevel: level,
	}
}

// pgxLogger adapts zerolog to tracelog.Logger.
type pgxLogger struct {
	l zerolog.Logger
}

func (p pgxLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	var ev *zerolog.Event
	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		ev = p.l.Debug()
	case tracelog.LogLevelInfo:
		ev = p.l.Info()
	case tracelog.LogLevelWarn:
		ev = p.l.Warn()
	default:
		ev = p.l.Error()
	}
	ev.Fields(data).Msg(msg)
}
