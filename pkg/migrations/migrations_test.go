package migrations

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun/migrate"

	"github.com/aomi-labs/db-master/pkg/migrations/contractsdb"
	"github.com/aomi-labs/db-master/pkg/pgutil"
)

func TestContractsDBMigrations_Apply(t *testing.T) {
	requireDockerAccess(t)

	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, contractsdb.Migrations)

	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if group.IsZero() {
		t.Error("expected migrations to run, but none were applied")
	}

	pgutil.AssertTableExists(t, db, "contracts")
	pgutil.AssertIndexExists(t, db, "idx_contracts_chain_id_address")
	pgutil.AssertIndexExists(t, db, "idx_contracts_chain_id")
	pgutil.AssertIndexExists(t, db, "idx_contracts_protocol")
	pgutil.AssertIndexExists(t, db, "idx_contracts_is_proxy")

	// reapplying is a no-op
	group, err = migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("second Migrate() failed: %v", err)
	}
	if !group.IsZero() {
		t.Error("expected no pending migrations on second run")
	}
}

func TestContractsDBMigrations_Rollback(t *testing.T) {
	requireDockerAccess(t)

	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, contractsdb.Migrations)

	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	if _, err := migrator.Rollback(ctx); err != nil {
		t.Fatalf("Rollback() failed: %v", err)
	}

	var exists bool
	err := db.NewSelect().
		ColumnExpr("EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = ? AND table_name = ?)", "public", "contracts").
		Scan(ctx, &exists)
	if err != nil {
		t.Fatalf("failed to check table: %v", err)
	}
	if exists {
		t.Error("contracts table should be dropped after rollback")
	}
}

func requireDockerAccess(t *testing.T) {
	t.Helper()

	candidates := []string{
		"/var/run/docker.sock",
		filepath.Join(os.Getenv("HOME"), ".docker/run/docker.sock"),
	}

	for _, sock := range candidates {
		if sock == "" {
			continue
		}
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", sock)
		if err == nil {
			_ = conn.Close()
			return
		}
	}

	t.Skip("docker daemon socket is not accessible; skipping testcontainer-backed migration tests")
}
