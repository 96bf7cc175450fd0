package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/database"
)

const postgresImage = "postgres:16-alpine"

// PostgresDB is a shared PostgreSQL container with migrations applied.
// AdminURL connects as the superuser that owns the tables; AppURL connects as
// an unprivileged role so row level security is enforced.
type PostgresDB struct {
	Container testcontainers.Container
	AdminURL  string
	AppURL    string
}

var (
	sharedPostgres     *PostgresDB
	sharedPostgresOnce sync.Once
	sharedPostgresErr  error
)

// GetPostgresDB returns the shared container, starting it on first use.
// The test is skipped in short mode or when Docker is not available.
func GetPostgresDB(t *testing.T) *PostgresDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedPostgresOnce.Do(func() {
		sharedPostgres, sharedPostgresErr = setupPostgres()
	})

	if sharedPostgresErr != nil {
		t.Skipf("PostgreSQL container unavailable: %v", sharedPostgresErr)
	}
	return sharedPostgres
}

func setupPostgres() (*PostgresDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "migrations_test",
			"POSTGRES_USER":     "owner",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	adminURL := fmt.Sprintf("postgres://owner:test_password@%s:%s/migrations_test?sslmode=disable", host, port.Port())
	appURL := fmt.Sprintf("postgres://app_user:app_password@%s:%s/migrations_test?sslmode=disable", host, port.Port())

	cfg := database.Config{Driver: string(database.DialectPostgres), URL: adminURL}
	if err := database.RunMigrations(cfg, zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createAppRole(ctx, adminURL); err != nil {
		return nil, err
	}

	return &PostgresDB{Container: container, AdminURL: adminURL, AppURL: appURL}, nil
}

// createAppRole adds a login role without BYPASSRLS that can use the tables.
func createAppRole(ctx context.Context, adminURL string) error {
	db, err := sql.Open("postgres", adminURL)
	if err != nil {
		return fmt.Errorf("failed to open admin connection: %w", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE ROLE app_user LOGIN PASSWORD 'app_password' NOSUPERUSER NOBYPASSRLS`,
		`GRANT USAGE ON SCHEMA public TO app_user`,
		`GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO app_user`,
		`GRANT USAGE, SELECT ON ALL SEQUENCES IN SCHEMA public TO app_user`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare app role: %w", err)
		}
	}
	return nil
}
