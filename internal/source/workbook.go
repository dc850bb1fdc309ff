package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"finance-analytics/internal/records"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook parses the first sheet of an XLSX workbook into a raw table of
// the given kind. The header row is taken from the kind's schema and headers
// are renamed to their normalized column names.
func ReadWorkbook(kind records.Kind, r io.Reader) (*records.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", sheets[0], err)
	}
	return fromRows(kind, rows, records.SchemaFor(kind).HeaderRow)
}

// ReadCSV parses a CSV file whose first line holds the headers.
func ReadCSV(kind records.Kind, r io.Reader) (*records.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRows(kind, rows, 0)
}

func fromRows(kind records.Kind, rows [][]string, headerRow int) (*records.Table, error) {
	if len(rows) <= headerRow {
		return nil, errors.New("missing header row")
	}
	headers := Headers(kind, rows[headerRow])
	b := records.NewBuilder(kind, headers...)
	for _, row := range rows[headerRow+1:] {
		if len(row) == 0 {
			continue
		}
		b.Strings(row)
	}
	return b.Build(), nil
}

// Headers renames a raw header row for kind. Repeated headers are suffixed
// ".1", ".2", ... before renaming, and blank headers become "Unnamed: <i>".
func Headers(kind records.Kind, raw []string) []string {
	seen := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		if h == "" {
			out[i] = "Unnamed: " + strconv.Itoa(i)
			continue
		}
		name := h
		if n := seen[h]; n > 0 {
			name = h + "." + strconv.Itoa(n)
		}
		seen[h]++
		out[i] = records.NormalizeHeader(kind, name)
	}
	return out
}
