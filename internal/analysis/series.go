package analysis

import (
	"sort"
	"time"

	"finance-analytics/internal/calendar"
	"finance-analytics/internal/records"

	"github.com/shopspring/decimal"
)

// point is one row reduced to a Gregorian day and an amount.
type point struct {
	date   time.Time
	amount decimal.Decimal
	row    int
}

// dateOf parses a local-calendar cell. Null and unparsable cells are not ok.
func dateOf(v records.Value) (time.Time, bool) {
	if v.IsNull() {
		return time.Time{}, false
	}
	return calendar.ToGregorian(v.String())
}

func iso(t time.Time) string { return t.Format(calendar.LayoutISO) }

func jalali(t time.Time) string { return calendar.ToLocal(t) }

// monthOf is the Gregorian "YYYY-MM" bucket of t.
func monthOf(t time.Time) string { return t.Format("2006-01") }

// points returns the rows of t whose date and amount both parse, in table
// order. Rows failing either are skipped.
func points(t *records.Table, dateCol, amountCol string) []point {
	di, ai := t.Index(dateCol), t.Index(amountCol)
	if di < 0 || ai < 0 {
		return nil
	}
	var out []point
	for r := 0; r < t.Len(); r++ {
		d, ok := dateOf(t.Get(r, di))
		if !ok {
			continue
		}
		amt := t.Get(r, ai).Decimal()
		if !amt.Valid {
			continue
		}
		out = append(out, point{date: d, amount: amt.Decimal, row: r})
	}
	return out
}

// sortByDate orders pts by day, keeping table order within a day.
func sortByDate(pts []point) {
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].date.Before(pts[j].date) })
}

// bucket is an aggregate under a string key such as a day or a month.
type bucket struct {
	key string
	agg agg
}

// groupBy aggregates pts under key(p) and returns the buckets in ascending
// key order.
func groupBy(pts []point, key func(point) string) []bucket {
	idx := make(map[string]int)
	var out []bucket
	for _, p := range pts {
		k := key(p)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, bucket{key: k})
		}
		out[i].agg.add(decimal.NewNullDecimal(p.amount))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// sumColumn adds up the numeric cells of col, skipping nulls.
func sumColumn(t *records.Table, col string) agg {
	var a agg
	i := t.Index(col)
	if i < 0 {
		return a
	}
	for r := 0; r < t.Len(); r++ {
		a.add(t.Get(r, i).Decimal())
	}
	return a
}

// daysBetween is the whole number of days from a to b; both are UTC days.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
