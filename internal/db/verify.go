package db

import (
	"context"
	"fmt"

	"finance-analytics/internal/records"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TableReport is the verification result of one record table.
type TableReport struct {
	Kind           records.Kind
	Table          string
	Exists         bool
	Rows           int64
	Columns        []string
	MissingColumns []string
}

// OK reports whether the table exists with all required columns.
func (r TableReport) OK() bool {
	return r.Exists && len(r.MissingColumns) == 0
}

// Verify checks that every record table exists, carries its required
// columns, and counts its rows.
func Verify(ctx context.Context, pool *pgxpool.Pool) ([]TableReport, error) {
	var out []TableReport
	for _, kind := range records.Kinds() {
		schema := records.SchemaFor(kind)
		rep := TableReport{Kind: kind, Table: schema.Table}

		columns, err := TableColumns(ctx, pool, schema.Table)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 {
			rep.MissingColumns = schema.RequiredColumns
			out = append(out, rep)
			continue
		}
		rep.Exists = true
		rep.Columns = columns
		rep.MissingColumns = missing(schema.RequiredColumns, columns)

		q := "SELECT count(*) FROM " + pgx.Identifier{schema.Table}.Sanitize()
		if err := pool.QueryRow(ctx, q).Scan(&rep.Rows); err != nil {
			return nil, fmt.Errorf("count %s: %w", schema.Table, err)
		}
		out = append(out, rep)
	}
	return out, nil
}

// TableColumns lists the columns of a table in the current schema, in
// ordinal order. A missing table yields no columns.
func TableColumns(ctx context.Context, pool *pgxpool.Pool, table string) ([]string, error) {
	rows, err := pool.Query(ctx, `
SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	return cols, nil
}

func missing(required, have []string) []string {
	set := make(map[string]bool, len(have))
	for _, c := range have {
		set[c] = true
	}
	var out []string
	for _, c := range required {
		if !set[c] {
			out = append(out, c)
		}
	}
	return out
}
