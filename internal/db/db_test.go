package db_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"finance-analytics/internal/db"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func TestDiscoverMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"001_first.sql":  {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("ignored")},
		"sub/003_x.sql":  {Data: []byte("ignored")},
	}
	got, err := db.DiscoverMigrations(fsys)
	if err != nil {
		t.Fatalf("DiscoverMigrations: %v", err)
	}
	if len(got) != 2 || got[0].Version != "001" || got[1].Filename != "002_second.sql" {
		t.Fatalf("migrations = %+v", got)
	}
	if len(got[0].Checksum) != 64 || got[0].Checksum == got[1].Checksum {
		t.Errorf("checksums = %q, %q", got[0].Checksum, got[1].Checksum)
	}
}

func TestDiscoverMigrations_Errors(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"duplicate version": {
			"001_a.sql": {Data: []byte("SELECT 1;")},
			"001_b.sql": {Data: []byte("SELECT 1;")},
		},
		"no version": {
			"schema.sql": {Data: []byte("SELECT 1;")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := db.DiscoverMigrations(fsys); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRepositoryMigrations(t *testing.T) {
	got, err := db.DiscoverMigrations(os.DirFS("../../migrations"))
	if err != nil {
		t.Fatalf("DiscoverMigrations: %v", err)
	}
	if len(got) == 0 || !strings.Contains(got[0].SQL, "CREATE TABLE IF NOT EXISTS payables") {
		t.Errorf("first migration does not create the record tables")
	}
}

// TestMigrateAndVerify runs against a real database when TEST_DATABASE_URL
// is set.
func TestMigrateAndVerify(t *testing.T) {
	_ = godotenv.Load("../../.env")
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, url, db.PoolOptions{MaxConns: 2})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer pool.Close()

	if _, err := db.Migrate(ctx, pool, os.DirFS("../../migrations"), zap.NewNop()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	again, err := db.Migrate(ctx, pool, os.DirFS("../../migrations"), zap.NewNop())
	if err != nil || again != 0 {
		t.Fatalf("second Migrate = %d, %v; want 0, nil", again, err)
	}

	reports, err := db.Verify(ctx, pool)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	for _, r := range reports {
		if !r.OK() {
			t.Errorf("%s: exists=%v missing=%v", r.Table, r.Exists, r.MissingColumns)
		}
	}
}
