package analysis

import (
	"regexp"

	"finance-analytics/internal/records"
)

// Column discovery heuristics. The same algorithms run over every record
// kind, so columns are found by type and name rather than bound to a schema.
// Recognized names are always checked before positional fallback.
var (
	// indexColumns are never treated as measures.
	indexColumns = []string{"row_id", "id", "Unnamed: 0"}

	// nonGroupingColumns are text columns never used as a grouping key.
	nonGroupingColumns = []string{
		"document_date", "due_date", "description",
		"invoice_date", "performa_date", "internal_due_date",
	}

	// namePriority lists recognized grouping columns, best first.
	namePriority = []string{"customer_name", "beneficiary", "company_name"}

	// amountPriority lists recognized measure columns, best first.
	amountPriority = []string{"total_amount", "amount", "subtotal"}

	datePattern = regexp.MustCompile(`\d{4}/\d{1,2}/\d{1,2}`)
)

// dateSampleSize is how many non-null values are inspected per column.
const dateSampleSize = 5

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// numericColumns returns the numeric columns of t, excluding index columns,
// in table order.
func numericColumns(t *records.Table) []string {
	var out []string
	for _, c := range t.ColumnsOfType(records.ColumnNumber) {
		if !contains(indexColumns, c) {
			out = append(out, c)
		}
	}
	return out
}

// dateColumns returns the text columns whose first few non-null values
// include at least one local-calendar date, in table order.
func dateColumns(t *records.Table) []string {
	var out []string
	for _, c := range t.Columns {
		if c.Type != records.ColumnText {
			continue
		}
		idx := t.Index(c.Name)
		sampled := 0
		for r := 0; r < t.Len() && sampled < dateSampleSize; r++ {
			v := t.Get(r, idx)
			if v.IsNull() {
				continue
			}
			sampled++
			if datePattern.MatchString(v.String()) {
				out = append(out, c.Name)
				break
			}
		}
	}
	return out
}

// groupingColumns returns the text columns eligible as a grouping key.
func groupingColumns(t *records.Table) []string {
	var out []string
	for _, c := range t.ColumnsOfType(records.ColumnText) {
		if !contains(nonGroupingColumns, c) {
			out = append(out, c)
		}
	}
	return out
}

// pick returns the first of priority present in candidates, falling back to
// the first candidate. ok is false when candidates is empty.
func pick(candidates, priority []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	for _, p := range priority {
		if contains(candidates, p) {
			return p, true
		}
	}
	return candidates[0], true
}
