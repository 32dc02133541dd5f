// Package postgres adapts a pgx connection pool to the database interfaces.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"job-tracker/internal/config"
	"job-tracker/internal/database"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/telemetry"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var tracer = telemetry.Tracer("job-tracker/postgres")

var errNilPool = errors.New("postgres: nil pool")

const defaultPingTimeout = 5 * time.Second

// DSN builds a keyword/value connection string from cfg.
func DSN(cfg config.DatabaseConfig) string {
	kv := [][2]string{
		{"host", strings.TrimSpace(cfg.DBHost)},
		{"port", strings.TrimSpace(cfg.DBPort)},
		{"user", strings.TrimSpace(cfg.DBUser)},
		{"password", cfg.DBPassword},
		{"dbname", strings.TrimSpace(cfg.DBName)},
		{"sslmode", strings.TrimSpace(cfg.DBSSLMode)},
	}
	parts := make([]string, 0, len(kv))
	for _, p := range kv {
		parts = append(parts, p[0]+"="+p[1])
	}
	return strings.Join(parts, " ")
}

// tune copies the non-zero pool settings of cfg onto pc.
func tune(pc *pgxpool.Config, cfg config.DatabaseConfig) {
	durations := []struct {
		v   time.Duration
		dst *time.Duration
	}{
		{cfg.ConnectTimeout, &pc.ConnConfig.ConnectTimeout},
		{cfg.PoolMaxConnLifetime, &pc.MaxConnLifetime},
		{cfg.PoolMaxConnIdleTime, &pc.MaxConnIdleTime},
		{cfg.PoolHealthCheckPeriod, &pc.HealthCheckPeriod},
	}
	for _, d := range durations {
		if d.v > 0 {
			*d.dst = d.v
		}
	}
	if cfg.PoolMaxConns > 0 {
		pc.MaxConns = cfg.PoolMaxConns
	}
	if cfg.PoolMinConns > 0 && cfg.PoolMinConns <= pc.MaxConns {
		pc.MinConns = cfg.PoolMinConns
	}
}

// Pool is the process-wide job_applications store connection.
type Pool struct {
	conn
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect opens the pool and fails unless the server answers a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*Pool, error) {
	log = logger.OrNop(log).Named("postgres")

	pc, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	tune(pc, cfg)

	p, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := ctx, context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok {
		pingCtx, cancel = context.WithTimeout(ctx, defaultPingTimeout)
	}
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	log.Info("postgres connected",
		zap.String("host", cfg.DBHost),
		zap.String("database", cfg.DBName),
		zap.Int32("max_conns", pc.MaxConns))
	return &Pool{conn: conn{q: p, span: "postgres"}, pool: p, logger: log}, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	if p == nil || p.pool == nil {
		return errNilPool
	}
	return p.pool.Ping(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	st := p.pool.Stat()
	p.pool.Close()
	p.logger.Info("postgres closed",
		zap.Int32("total_conns", st.TotalConns()),
		zap.Int64("acquires", st.AcquireCount()))
	return nil
}

func (p *Pool) Begin(ctx context.Context) (database.Tx, error) {
	if p == nil || p.pool == nil {
		return nil, errNilPool
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return txConn{conn: conn{q: tx, span: "postgres.tx"}, tx: tx}, nil
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn traces statements and narrows pgx results to the database interfaces.
type conn struct {
	q    pgxQuerier
	span string
}

func (c conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if c.q == nil {
		return 0, errNilPool
	}
	ctx, span := tracer.Start(ctx, c.span+".exec")
	defer span.End()

	tag, err := c.q.Exec(ctx, query, args...)
	if err != nil {
		telemetry.Fail(span, err)
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c conn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	if c.q == nil {
		return nil, errNilPool
	}
	ctx, span := tracer.Start(ctx, c.span+".query")
	defer span.End()

	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	return rows, nil
}

func (c conn) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	if c.q == nil {
		return errRow{err: errNilPool}
	}
	return c.q.QueryRow(ctx, query, args...)
}

type txConn struct {
	conn
	tx pgx.Tx
}

func (t txConn) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback after Commit is a no-op.
func (t txConn) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}

var (
	_ database.DB = (*Pool)(nil)
	_ database.Tx = txConn{}
)
