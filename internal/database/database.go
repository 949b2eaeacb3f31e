// FilePath: internal/database/database.go
package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/itsatony/talkingplants/internal/config"
	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"
	_ "modernc.org/sqlite"
)

const (
	postgresDriver = "postgres"
	sqliteDriver   = "sqlite"
)

func init() {
	sqlx.BindDriver(sqliteDriver, sqlx.QUESTION)
}

// DB is an interface that both PostgreSQL and SQLite connections implement
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	GetDB() *sqlx.DB
}

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx, so repositories can run
// inside or outside a transaction.
type Querier interface {
	sqlx.ExtContext
}

// PostgresDB represents a PostgreSQL database connection
type PostgresDB struct {
	db *sqlx.DB
}

// SQLiteDB represents an embedded SQLite database
type SQLiteDB struct {
	db *sqlx.DB
}

// Open connects to the database selected by cfg.Driver
func Open(cfg config.DatabaseConfig) (DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgresDB(cfg.Postgres)
	case config.DriverSQLite:
		return NewSQLiteDB(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg config.PostgresConfig) (DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect(postgresDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}

	nuts.L.Infof("[PostgresDB] Connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &PostgresDB{db: db}, nil
}

// NewSQLiteDB opens (or creates) a SQLite database file
func NewSQLiteDB(path string) (DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create db dir: %w", err)
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := sqlx.Connect(sqliteDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %w", err)
	}
	// A single connection serializes transactions, standing in for row locks.
	db.SetMaxOpenConns(1)

	nuts.L.Infof("[SQLiteDB] Opened %s", path)
	return &SQLiteDB{db: db}, nil
}

// Implementation of DB interface for PostgresDB
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresDB) GetDB() *sqlx.DB {
	return p.db
}

// Implementation of DB interface for SQLiteDB
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) GetDB() *sqlx.DB {
	return s.db
}

// WithTx runs fn inside a transaction. Any error returned by fn, a panic, or a
// cancelled ctx rolls the whole transaction back.
func WithTx(ctx context.Context, db DB, fn func(tx Querier) error) (err error) {
	tx, err := db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseError("failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !stderrors.Is(rbErr, sql.ErrTxDone) {
				nuts.L.Errorf("[Database] Rollback failed: %v", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.NewDatabaseError("failed to commit transaction", err)
	}
	return nil
}

// ForUpdate returns the row-lock suffix for q's dialect. SQLite has no row
// locks; its single connection already serializes writers.
func ForUpdate(q Querier) string {
	if q.DriverName() == postgresDriver {
		return " FOR UPDATE"
	}
	return ""
}

// IsUniqueViolation reports whether err was raised by a unique constraint
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
