package cache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/palisade/palisade/pkg/telemetry"
	"github.com/rs/zerolog"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteGateway implements Gateway on top of a single SQLite database:
// same Init/Migrate bootstrapping, same WAL/busy-timeout DSN, same
// embedded-migration wiring as a relational run-store, repurposed to a single
// cache_entries(service, key, value, expires_at) table.
type SQLiteGateway struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// Config holds SQLite gateway configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteGateway constructs a gateway bound to cfg.Path. Callers must
// still call Init and Migrate before use.
func NewSQLiteGateway(cfg Config, logger zerolog.Logger) (*SQLiteGateway, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteGateway{
		path:   cfg.Path,
		logger: logger.With().Str("component", "cache-gateway").Logger(),
	}, nil
}

// Init opens the database connection and enables WAL mode.
func (g *SQLiteGateway) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", g.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	g.db = db
	return nil
}

// Close closes the database connection.
func (g *SQLiteGateway) Close() error {
	if g.db != nil {
		return g.db.Close()
	}
	return nil
}

// Migrate runs the embedded cache_entries migration.
func (g *SQLiteGateway) Migrate(_ context.Context) error {
	if g.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(g.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Add upserts value, serialised as JSON, under (service, key).
func (g *SQLiteGateway) Add(ctx context.Context, service, key string, value any, ttl time.Duration) (ok bool, err error) {
	ctx, done := telemetry.WithCacheOpContext(ctx, service, "add")
	defer func() { done(err) }()

	raw, err := json.Marshal(value)
	if err != nil {
		err = fmt.Errorf("failed to marshal cache value: %w", err)
		return false, err
	}

	now := time.Now()
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).Unix(), Valid: true}
	}

	query := `
		INSERT INTO cache_entries (service, key, value, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(service, key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
	`

	if _, execErr := g.db.ExecContext(ctx, query, service, key, raw, expiresAt, now.Unix()); execErr != nil {
		err = fmt.Errorf("failed to write cache entry: %w", execErr)
		g.logger.Error().Err(err).Str("service", service).Str("key", key).Msg("cache write failed")
		return false, err
	}

	return true, nil
}

// Get deserialises the value stored under (service, key) into out. An
// expired entry is deleted lazily and reported as not found.
func (g *SQLiteGateway) Get(ctx context.Context, service, key string, out any) (found bool, err error) {
	ctx, done := telemetry.WithCacheOpContext(ctx, service, "get")
	defer func() { done(err) }()

	query := `
		SELECT value, expires_at
		FROM cache_entries
		WHERE service = ? AND key = ?
	`

	var raw []byte
	var expiresAt sql.NullInt64
	scanErr := g.db.QueryRowContext(ctx, query, service, key).Scan(&raw, &expiresAt)
	if errors.Is(scanErr, sql.ErrNoRows) {
		return false, nil
	}
	if scanErr != nil {
		err = fmt.Errorf("failed to read cache entry: %w", scanErr)
		g.logger.Error().Err(err).Str("service", service).Str("key", key).Msg("cache read failed")
		return false, err
	}

	if expiresAt.Valid && expiresAt.Int64 <= time.Now().Unix() {
		_, _ = g.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE service = ? AND key = ?`, service, key)
		return false, nil
	}

	if unmarshalErr := json.Unmarshal(raw, out); unmarshalErr != nil {
		err = fmt.Errorf("failed to unmarshal cache entry: %w", unmarshalErr)
		return false, err
	}
	return true, nil
}

// List enumerates non-expired keys under service starting with prefix.
func (g *SQLiteGateway) List(ctx context.Context, service, prefix string) (keys []string, err error) {
	ctx, done := telemetry.WithCacheOpContext(ctx, service, "list")
	defer func() { done(err) }()

	query := `
		SELECT key
		FROM cache_entries
		WHERE service = ? AND key LIKE ? ESCAPE '\' AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY key
	`

	rows, queryErr := g.db.QueryContext(ctx, query, service, escapeLike(prefix)+"%", time.Now().Unix())
	if queryErr != nil {
		err = fmt.Errorf("failed to list cache entries: %w", queryErr)
		return nil, err
	}
	defer rows.Close()

	keys = []string{}
	for rows.Next() {
		var key string
		if scanErr := rows.Scan(&key); scanErr != nil {
			err = fmt.Errorf("failed to scan cache key: %w", scanErr)
			return nil, err
		}
		keys = append(keys, key)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		err = fmt.Errorf("failed to list cache entries: %w", rowsErr)
		return nil, err
	}

	return keys, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
