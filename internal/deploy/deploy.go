// Package deploy executes converted SQL against the configured target database.
package deploy

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/config"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/logging"
)

// Script is one file's converted SQL.
type Script struct {
	Name string
	SQL  string
}

// Deployer runs a set of scripts as a single unit: either all of them are
// applied or none are.
type Deployer interface {
	Deploy(ctx context.Context, scripts []Script) error
}

// SQLTarget deploys through database/sql. SQL Server uses go-mssqldb and
// PostgreSQL uses lib/pq.
type SQLTarget struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
	logger  *zap.Logger
}

// Open connects to the target described by cfg. It returns nil and no error
// when no target is configured.
func Open(ctx context.Context, cfg config.DeployConfig, logger *zap.Logger) (*SQLTarget, error) {
	if cfg.Driver == "" {
		return nil, nil
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("error opening deployment target: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to deployment target %s (ping failed): %s",
			logging.SanitizeConnectionString(cfg.DSN), logging.SanitizeError(err))
	}

	logger.Info("Connected to deployment target", zap.String("driver", cfg.Driver))
	return NewSQLTarget(db, cfg.Driver, cfg.Timeout, logger), nil
}

func NewSQLTarget(db *sql.DB, driver string, timeout time.Duration, logger *zap.Logger) *SQLTarget {
	return &SQLTarget{
		db:      db,
		driver:  driver,
		timeout: timeout,
		logger:  logger.Named("deploy"),
	}
}

func (t *SQLTarget) Deploy(ctx context.Context, scripts []Script) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin deployment: %w", err)
	}
	defer tx.Rollback()

	start := time.Now()
	statements := 0
	for _, script := range scripts {
		for i, stmt := range SplitStatements(script.SQL) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				t.logger.Warn("Deployment statement failed",
					zap.String("file_name", script.Name),
					zap.Int("statement", i+1),
					zap.String("sql", logging.TruncateString(stmt, logging.MaxContentLogLength)),
					zap.Error(err))
				return fmt.Errorf("%s: statement %d: %w", script.Name, i+1, err)
			}
			statements++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deployment: %w", err)
	}

	t.logger.Info("Deployment applied",
		zap.String("driver", t.driver),
		zap.Int("files", len(scripts)),
		zap.Int("statements", statements),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (t *SQLTarget) Close() error {
	return t.db.Close()
}
