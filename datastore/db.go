package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"

	defaultBusyTimeout = 5 * time.Second
	maxPingElapsedTime = 30 * time.Second
)

// Queryer is the common interface to execute queries on a database.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Handler represents a database connection handler.
type Handler interface {
	Queryer
	Stats() sql.DBStats
	Close() error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Transactor, error)
}

// Transactor represents a database transaction.
type Transactor interface {
	Queryer
	Commit() error
	Rollback() error
}

// DB implements Handler.
type DB struct {
	*sql.DB
	DSN *DSN
}

// BeginTx wraps sql.Tx from the inner sql.DB within a datastore.Tx.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (Transactor, error) {
	tx, err := db.DB.BeginTx(ctx, opts)

	return &Tx{tx}, err
}

// Begin wraps sql.Tx from the inner sql.DB within a datastore.Tx.
func (db *DB) Begin() (Transactor, error) {
	return db.BeginTx(context.Background(), nil)
}

// Path returns the database file path.
func (db *DB) Path() string {
	if db.DSN == nil {
		return ""
	}
	return db.DSN.Path
}

// Tx implements Transactor.
type Tx struct {
	*sql.Tx
}

// DSN represents the data source name parameters for a DB connection.
type DSN struct {
	// Path is the database file path. The reserved value ":memory:" opens an
	// in-memory database.
	Path        string
	BusyTimeout time.Duration
	JournalMode string
	// ForeignKeys toggles enforcement of foreign key constraints. Enforcement
	// is per connection, so it is applied as a connection string pragma and
	// picked up by every pooled connection.
	ForeignKeys bool
}

// String builds the string representation of a DSN.
func (dsn *DSN) String() string {
	busyTimeout := dsn.BusyTimeout
	if busyTimeout == 0 {
		busyTimeout = defaultBusyTimeout
	}

	pragmas := []string{
		fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()),
	}
	if dsn.ForeignKeys {
		pragmas = append(pragmas, "foreign_keys(1)")
	}
	if dsn.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("journal_mode(%s)", dsn.JournalMode))
	}

	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+url.QueryEscape(p))
	}

	return fmt.Sprintf("file:%s?%s", dsn.Path, strings.Join(params, "&"))
}

type opts struct {
	logger *logrus.Entry
	pool   *PoolConfig
}

// PoolConfig represents the settings for the database connection pool.
type PoolConfig struct {
	MaxIdle     int
	MaxOpen     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// Option is used to configure the database connections.
type Option func(*opts)

// WithLogger configures the logger for the database connection handler.
func WithLogger(l *logrus.Entry) Option {
	return func(opts *opts) {
		opts.logger = l
	}
}

// WithPoolConfig configures the settings for the database connection pool.
func WithPoolConfig(c *PoolConfig) Option {
	return func(opts *opts) {
		opts.pool = c
	}
}

func applyOptions(input []Option) opts {
	log := logrus.New()
	log.SetOutput(io.Discard)

	config := opts{
		logger: logrus.NewEntry(log),
		pool:   &PoolConfig{},
	}

	for _, v := range input {
		v(&config)
	}

	return config
}

// Open opens a database connection pool for the given DSN, verifying
// connectivity with a retried ping. The database file is created if it does
// not exist.
func Open(dsn *DSN, options ...Option) (*DB, error) {
	config := applyOptions(options)

	db, err := sql.Open(driverName, dsn.String())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(config.pool.MaxOpen)
	db.SetMaxIdleConns(config.pool.MaxIdle)
	db.SetConnMaxLifetime(config.pool.MaxLifetime)
	db.SetConnMaxIdleTime(config.pool.MaxIdleTime)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxPingElapsedTime

	if err := backoff.RetryNotify(db.Ping, b, func(err error, d time.Duration) {
		config.logger.WithError(err).WithField("backoff", d.String()).Warn("database ping failed, retrying")
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	config.logger.WithField("path", dsn.Path).Info("database connection established")

	return &DB{DB: db, DSN: dsn}, nil
}
