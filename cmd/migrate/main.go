// Command migrate imports the four record workbooks into Postgres.
//
// Headers are renamed to their normalized column names and amounts are
// written as raw Rial values; scaling happens when the record store loads
// the tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"finance-analytics/internal/bootstrap"
	"finance-analytics/internal/db"
	"finance-analytics/internal/records"
	"finance-analytics/internal/source"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", "data", "directory holding <kind>.xlsx or <kind>.csv files")
	bucket := flag.String("s3", "", "read workbooks from this S3 bucket instead of -dir")
	prefix := flag.String("prefix", "", "S3 key prefix")
	region := flag.String("region", envOr("AWS_REGION", "us-east-1"), "AWS region")
	only := flag.String("kinds", "", "comma-separated record kinds to import (default all)")
	appendRows := flag.Bool("append", false, "append instead of replacing existing rows")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()
	ctx := context.Background()

	kinds, err := selectKinds(*only)
	if err != nil {
		log.Fatal(err)
	}

	var src source.Source = source.NewFiles(*dir)
	if *bucket != "" {
		client, err := bootstrap.NewS3Client(ctx, *region)
		if err != nil {
			log.Fatal(err)
		}
		src = source.NewS3(client, *bucket, *prefix)
	}

	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"), db.PoolOptions{MaxConns: 4})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	failed := 0
	for _, kind := range kinds {
		n, err := importKind(ctx, pool, src, kind, !*appendRows)
		if err != nil {
			failed++
			logger.Error("import failed", zap.Stringer("kind", kind), zap.String("from", src.Location(kind)), zap.Error(err))
			continue
		}
		logger.Info("imported", zap.Stringer("kind", kind), zap.Int64("rows", n), zap.String("from", src.Location(kind)))
	}
	if failed > 0 {
		pool.Close()
		log.Fatalf("%d of %d imports failed", failed, len(kinds))
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func selectKinds(list string) ([]records.Kind, error) {
	if strings.TrimSpace(list) == "" {
		return records.Kinds(), nil
	}
	var out []records.Kind
	for _, s := range strings.Split(list, ",") {
		k, err := records.ParseKind(s)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// importKind copies one workbook into its table inside a transaction.
func importKind(ctx context.Context, pool *pgxpool.Pool, src source.Source, kind records.Kind, replace bool) (int64, error) {
	raw, err := src.Read(ctx, kind)
	if err != nil {
		return 0, err
	}
	table := records.SchemaFor(kind).Table
	dbCols, err := db.TableColumns(ctx, pool, table)
	if err != nil {
		return 0, err
	}
	if len(dbCols) == 0 {
		return 0, fmt.Errorf("table %s does not exist, run verify-db first", table)
	}
	cols, rows, err := copyRows(raw.WithoutEmptyRows(), dbCols)
	if err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if replace {
		if _, err := tx.Exec(ctx, "TRUNCATE "+pgx.Identifier{table}.Sanitize()); err != nil {
			return 0, fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, cols, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit %s: %w", table, err)
	}
	return n, nil
}

// copyRows projects t onto the columns present in both t and the database
// table, in database order. row_id becomes an integer, the kind's amount
// columns exact numerics, everything else text.
func copyRows(t *records.Table, dbCols []string) ([]string, [][]any, error) {
	schema := records.SchemaFor(t.Kind)
	numeric := make(map[string]bool, len(schema.AmountColumns))
	for _, c := range schema.AmountColumns {
		numeric[c] = true
	}

	var cols []string
	var idx []int
	for _, c := range dbCols {
		if i := t.Index(c); i >= 0 {
			cols = append(cols, c)
			idx = append(idx, i)
		}
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("%s: no workbook column matches the table", t.Kind)
	}

	rows := make([][]any, 0, t.Len())
	for r := 0; r < t.Len(); r++ {
		row := make([]any, len(cols))
		for j, c := range cols {
			v := t.Get(r, idx[j])
			if v.IsNull() {
				continue
			}
			switch {
			case c == "row_id":
				d := v.Decimal()
				if d.Valid {
					row[j] = d.Decimal.IntPart()
				}
			case numeric[c]:
				d := v.Decimal()
				if !d.Valid {
					return nil, nil, fmt.Errorf("%s row %d: %s %q is not a number", t.Kind, r+1, c, v.String())
				}
				row[j] = numericOf(d.Decimal)
			default:
				row[j] = v.String()
			}
		}
		rows = append(rows, row)
	}
	return cols, rows, nil
}

func numericOf(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
