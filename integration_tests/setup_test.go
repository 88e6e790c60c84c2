// Package integrationtests exercises the repository against a real Postgres
// instance. Run with -short to skip.
package integrationtests

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	ingestiondb "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/repositories"
	ingestionmigrations "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/repositories/migrations"
)

var (
	testDB   *bun.DB
	testRepo *ingestiondb.RepositoryImpl
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(0)
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("matchsync_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("failed to get connection string: %v", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	testDB = bun.NewDB(sqldb, pgdialect.New())

	if err := runMigrations(ctx, testDB); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	testRepo = &ingestiondb.RepositoryImpl{DB: testDB}

	code := m.Run()

	testDB.Close()
	if err := pgContainer.Terminate(ctx); err != nil {
		log.Printf("failed to terminate postgres container: %v", err)
	}
	os.Exit(code)
}

func runMigrations(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, ingestionmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("migrator init: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// resetMatches clears the matches table between tests. Reference rows are
// seeded once and shared.
func resetMatches(t *testing.T) {
	t.Helper()
	if _, err := testDB.NewTruncateTable().Model((*ingestiondb.Match)(nil)).Exec(context.Background()); err != nil {
		t.Fatalf("failed to truncate matches: %v", err)
	}
}
