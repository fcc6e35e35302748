package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/config"
)

var (
	// ErrNotFound is returned by repositories when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a unique constraint
	ErrConflict = errors.New("record already exists")
)

const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool used by repositories
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Service struct {
	pool *pgxpool.Pool
}

// NewService opens a pool against DATABASE_URL. It returns nil when the
// database is not configured or unreachable.
func NewService(ctx context.Context) *Service {
	url := config.GetDatabaseURL()
	if url == "" {
		log.Warn().Msg("Database URL not configured - service will be unavailable")
		return nil
	}

	pool, err := newPool(ctx, url)
	if err != nil {
		log.Error().Err(err).Msg("Failed to establish database connection")
		return nil
	}

	return &Service{pool: pool}
}

func newPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	cfg.MaxConns = int32(config.GetDatabaseMaxConns())
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Pool returns the underlying connection pool
func (s *Service) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Service) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Service) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// NotFound maps pgx.ErrNoRows to ErrNotFound and leaves other errors intact
func NotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Conflict maps unique constraint violations to ErrConflict
func Conflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}

// LikePattern escapes LIKE wildcards in s and wraps it for a substring match
func LikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
