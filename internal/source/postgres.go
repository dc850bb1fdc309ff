package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance-analytics/internal/calendar"
	"finance-analytics/internal/records"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// Postgres reads each kind from its table in a Postgres database.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a source reading from pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var numericOIDs = map[uint32]bool{
	pgtype.Int2OID:    true,
	pgtype.Int4OID:    true,
	pgtype.Int8OID:    true,
	pgtype.Float4OID:  true,
	pgtype.Float8OID:  true,
	pgtype.NumericOID: true,
}

func (s *Postgres) Read(ctx context.Context, kind records.Kind) (*records.Table, error) {
	table := records.SchemaFor(kind).Table
	query := "SELECT * FROM " + pgx.Identifier{table}.Sanitize()

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, wrapPgError(kind, table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = fd.Name
	}
	b := records.NewBuilder(kind, names...)
	for i, fd := range fields {
		if numericOIDs[fd.DataTypeOID] {
			b.Force(names[i], records.ColumnNumber)
		} else {
			b.Force(names[i], records.ColumnText)
		}
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		cells := make([]any, len(vals))
		for i, v := range vals {
			cells[i] = pgCell(v)
		}
		b.Row(cells...)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError(kind, table, err)
	}
	return b.Build(), nil
}

func (s *Postgres) Location(kind records.Kind) string {
	return "postgres:" + records.SchemaFor(kind).Table
}

// pgCell converts a decoded Postgres value into a table cell. Dates and
// timestamps are rendered in the local calendar, which is how every record
// date is stored.
func pgCell(v any) records.Value {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid || x.NaN || x.InfinityModifier != pgtype.Finite {
			return records.Null()
		}
		if x.Int == nil {
			return records.Number(decimal.Zero)
		}
		return records.Number(decimal.NewFromBigInt(x.Int, x.Exp))
	case time.Time:
		return records.ParseCell(calendar.ToLocal(x))
	case pgtype.Date:
		if !x.Valid {
			return records.Null()
		}
		return records.ParseCell(calendar.ToLocal(x.Time))
	case []byte:
		return records.ParseCell(string(x))
	default:
		return records.ValueOf(v)
	}
}

func wrapPgError(kind records.Kind, table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%s: table %s: %w", kind, table, ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", table, err)
}
