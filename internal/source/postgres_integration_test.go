package source_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"finance-analytics/internal/records"
	"finance-analytics/internal/source"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		DROP TABLE IF EXISTS payables, receivables;
		CREATE TABLE payables (
			row_id        INTEGER,
			document_date TEXT,
			amount        NUMERIC(20, 2),
			due_date      TEXT,
			beneficiary   TEXT,
			created_at    DATE
		);
		INSERT INTO payables VALUES
			(1, '1404/01/01', 12500.50, '1404/02/01', 'A', '2025-03-21'),
			(2, '1404/01/02', NULL,     '1404/02/02', 'B', NULL);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}
	return pool
}

func TestPostgres_Read(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	src := source.NewPostgres(pool)
	tbl, err := src.Read(context.Background(), records.Payable)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Len())
	}
	if got := tbl.Value(0, "amount").String(); got != "12500.5" {
		t.Errorf("amount = %q, want exact numeric", got)
	}
	if got := tbl.Value(0, "created_at").String(); got != "1404/01/01" {
		t.Errorf("date column = %q, want local-calendar string", got)
	}
	for _, c := range tbl.Columns {
		if c.Name == "amount" && c.Type != records.ColumnNumber {
			t.Error("NUMERIC column should be typed number even with nulls")
		}
	}

	_, err = src.Read(context.Background(), records.Receivable)
	if !errors.Is(err, source.ErrNotFound) {
		t.Errorf("missing table err = %v, want ErrNotFound", err)
	}
}
