package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/apperrors"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/logging"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/retry"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type Config struct {
	Driver         string
	URL            string
	MaxConnections int
}

// DB holds the store connection. Its methods are the persistence layer for
// projects, file records, unreviewed files and deployment logs. Every call
// runs in its own transaction scoped to one user.
type DB struct {
	db       *sql.DB
	dialect  Dialect
	logger   *zap.Logger
	retryCfg *retry.Config
	now      func() time.Time
}

func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*DB, error) {
	dialect := Dialect(cfg.Driver)
	dsn := cfg.URL

	switch dialect {
	case DialectPostgres:
	case DialectSQLite:
		dsn = sqliteDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		maxConns := cfg.MaxConnections
		if maxConns <= 0 {
			maxConns = 25
		}
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns / 5)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(30 * time.Minute)
	}

	err = retry.Do(ctx, retry.DefaultConfig(), func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %s", logging.SanitizeConnectionString(cfg.URL), logging.SanitizeError(err))
	}

	return &DB{
		db:       db,
		dialect:  dialect,
		logger:   logger.Named("database"),
		retryCfg: retry.DefaultConfig(),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// sqliteDSN enables foreign keys and a busy timeout unless the caller already
// set pragmas.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (d *DB) Dialect() Dialect {
	return d.dialect
}

// SQL exposes the underlying pool for migrations.
func (d *DB) SQL() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (d *DB) rebind(query string) string {
	if d.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// withUser runs fn in a transaction scoped to userID. On PostgreSQL the user
// id is set as app.current_user_id for the row level security policies; the
// setting is transaction-local so it never leaks to the next borrower of the
// connection.
func (d *DB) withUser(ctx context.Context, userID uuid.UUID, fn func(tx *sql.Tx) error) error {
	if userID == uuid.Nil {
		return apperrors.ErrAuthRequired
	}

	var tx *sql.Tx
	err := retry.DoIfRetryable(ctx, d.retryCfg, func() error {
		var err error
		tx, err = d.db.BeginTx(ctx, nil)
		return err
	})
	if err != nil {
		return d.storageErr("begin transaction", err)
	}

	if d.dialect == DialectPostgres {
		if _, err := tx.ExecContext(ctx, "SELECT set_config('app.current_user_id', $1, true)", userID.String()); err != nil {
			_ = tx.Rollback()
			return d.storageErr("set user scope", err)
		}
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return d.storageErr("commit transaction", err)
	}
	return nil
}

// storageErr converts a driver error into an application error. Missing rows
// become NotFound; application errors pass through untouched.
func (d *DB) storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.Wrap(apperrors.KindNotFound, op+": not found", err)
	}
	d.logger.Error("Storage operation failed",
		zap.String("operation", op),
		zap.String("error", logging.SanitizeError(err)))
	return apperrors.Storage(op, err)
}

func (d *DB) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	return tx.ExecContext(ctx, d.rebind(query), args...)
}

func (d *DB) query(ctx context.Context, tx *sql.Tx, query string, args ...any) (*sql.Rows, error) {
	return tx.QueryContext(ctx, d.rebind(query), args...)
}

func (d *DB) queryRow(ctx context.Context, tx *sql.Tx, query string, args ...any) *sql.Row {
	return tx.QueryRowContext(ctx, d.rebind(query), args...)
}

// utc normalises timestamps before they are written so both dialects store
// comparable values.
func utc(t time.Time) time.Time {
	return t.UTC()
}
