package analysis

import (
	"sort"
	"time"

	"finance-analytics/internal/calendar"
	"finance-analytics/internal/records"

	"github.com/shopspring/decimal"
)

const sampleRows = 5

type shapeResult struct {
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

type dailyRow struct {
	Date       string   `json:"date"`
	JalaliDate string   `json:"jalali_date"`
	Sum        float64  `json:"sum"`
	Count      int      `json:"count"`
	Mean       *float64 `json:"mean"`
}

type breakdownResult struct {
	FileType       string                     `json:"file_type"`
	TotalRows      int                        `json:"total_rows"`
	TotalColumns   int                        `json:"total_columns"`
	NumericColumns []string                   `json:"numeric_columns"`
	DateColumns    []string                   `json:"date_columns"`
	SampleData     []map[string]records.Value `json:"sample_data"`
	DailyBreakdown []dailyRow                 `json:"daily_breakdown,omitempty"`
}

// dailyBreakdown groups the first numeric column by the calendar day of the
// first date-shaped column.
func dailyBreakdown(in *input) (any, error) {
	t := in.primary
	nums := numericColumns(t)
	if len(nums) == 0 {
		return &shapeResult{Columns: t.ColumnNames(), Rows: t.Len()}, nil
	}
	dates := dateColumns(t)
	res := &breakdownResult{
		FileType:       in.kind.ID(),
		TotalRows:      t.Len(),
		TotalColumns:   len(t.Columns),
		NumericColumns: nums,
		DateColumns:    dates,
		SampleData:     t.Records(sampleRows),
	}
	if len(dates) == 0 {
		return res, nil
	}
	pts := points(t, dates[0], nums[0])
	for _, b := range groupBy(pts, func(p point) string { return iso(p.date) }) {
		day, _ := time.Parse(calendar.LayoutISO, b.key)
		res.DailyBreakdown = append(res.DailyBreakdown, dailyRow{
			Date:       b.key,
			JalaliDate: jalali(day),
			Sum:        f(b.agg.sum),
			Count:      b.agg.count,
			Mean:       nf(b.agg.mean()),
		})
	}
	return res, nil
}

type cumulativeRow struct {
	GregorianDate string  `json:"gregorian_date"`
	JalaliDate    string  `json:"jalali_date"`
	Amount        float64 `json:"amount"`
	Cumulative    float64 `json:"cumulative"`
}

type cumulativeResult struct {
	FileType       string          `json:"file_type"`
	AmountColumn   string          `json:"amount_column,omitempty"`
	TotalSum       float64         `json:"total_sum"`
	TotalMean      float64         `json:"total_mean"`
	CumulativeData []cumulativeRow `json:"cumulative_data,omitempty"`
}

// cumulative reports the grand total of the first numeric column and, when
// a date column exists, its running sum in date order.
func cumulative(in *input) (any, error) {
	t := in.primary
	res := &cumulativeResult{FileType: in.kind.ID()}
	nums := numericColumns(t)
	if len(nums) == 0 {
		return res, nil
	}
	amountCol := nums[0]
	res.AmountColumn = amountCol
	total := sumColumn(t, amountCol)
	if total.count > 0 {
		res.TotalSum = f(total.sum)
		res.TotalMean = f(total.mean().Decimal)
	}

	dates := dateColumns(t)
	if len(dates) == 0 {
		return res, nil
	}
	pts := points(t, dates[0], amountCol)
	sortByDate(pts)
	running := decimal.Zero
	for _, p := range pts {
		running = running.Add(p.amount)
		res.CumulativeData = append(res.CumulativeData, cumulativeRow{
			GregorianDate: iso(p.date),
			JalaliDate:    jalali(p.date),
			Amount:        f(p.amount),
			Cumulative:    f(running),
		})
	}
	return res, nil
}

type beneficiary struct {
	Name  string   `json:"name"`
	Sum   float64  `json:"sum"`
	Count int      `json:"count"`
	Mean  *float64 `json:"mean"`
}

type topResult struct {
	FileType      string        `json:"file_type"`
	TopN          int           `json:"top_n"`
	GroupColumn   string        `json:"group_column,omitempty"`
	ValueColumn   string        `json:"value_column,omitempty"`
	Beneficiaries []beneficiary `json:"beneficiaries"`
}

// topBeneficiaries ranks the groups of the best grouping column by the sum
// of the best measure column.
func topBeneficiaries(in *input) (any, error) {
	t := in.primary
	topN := in.params.Int(ParamTopN, DefaultTopN)
	res := &topResult{FileType: in.kind.ID(), TopN: topN, Beneficiaries: []beneficiary{}}

	groupCol, ok := pick(groupingColumns(t), namePriority)
	if !ok {
		return res, nil
	}
	valueCol, ok := pick(numericColumns(t), amountPriority)
	if !ok {
		return res, nil
	}
	res.GroupColumn, res.ValueColumn = groupCol, valueCol

	gi, vi := t.Index(groupCol), t.Index(valueCol)
	idx := make(map[string]int)
	var groups []bucket
	for r := 0; r < t.Len(); r++ {
		name := t.Get(r, gi)
		amt := t.Get(r, vi).Decimal()
		if name.IsNull() || !amt.Valid {
			continue
		}
		k := name.String()
		i, seen := idx[k]
		if !seen {
			i = len(groups)
			idx[k] = i
			groups = append(groups, bucket{key: k})
		}
		groups[i].agg.add(amt)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if c := groups[i].agg.sum.Cmp(groups[j].agg.sum); c != 0 {
			return c > 0
		}
		return groups[i].key < groups[j].key
	})
	if len(groups) > topN {
		groups = groups[:topN]
	}
	for _, g := range groups {
		res.Beneficiaries = append(res.Beneficiaries, beneficiary{
			Name:  g.key,
			Sum:   f(g.agg.sum),
			Count: g.agg.count,
			Mean:  nf(g.agg.mean()),
		})
	}
	return res, nil
}

type summaryResult struct {
	FileType          string                 `json:"file_type"`
	TotalRows         int                    `json:"total_rows"`
	TotalColumns      int                    `json:"total_columns"`
	MemoryUsageMB     float64                `json:"memory_usage_mb"`
	NullValues        map[string]int         `json:"null_values"`
	TotalSum          *float64               `json:"total_sum,omitempty"`
	TotalMean         *float64               `json:"total_mean,omitempty"`
	NumericStatistics map[string]description `json:"numeric_statistics,omitempty"`
}

// summaryStats describes the table's shape and every numeric column.
func summaryStats(in *input) (any, error) {
	t := in.primary
	res := &summaryResult{
		FileType:      in.kind.ID(),
		TotalRows:     t.Len(),
		TotalColumns:  len(t.Columns),
		MemoryUsageMB: float64(t.MemoryBytes()) / (1024 * 1024),
		NullValues:    t.NullCounts(),
	}

	if col := records.SchemaFor(in.kind).AmountColumn; col != "" && t.Has(col) {
		a := sumColumn(t, col)
		sum := f(a.sum)
		res.TotalSum = &sum
		res.TotalMean = nf(a.mean())
	}

	numeric := t.ColumnsOfType(records.ColumnNumber)
	if len(numeric) == 0 {
		return res, nil
	}
	res.NumericStatistics = make(map[string]description, len(numeric))
	for _, col := range numeric {
		i := t.Index(col)
		var values []decimal.Decimal
		for r := 0; r < t.Len(); r++ {
			if d := t.Get(r, i).Decimal(); d.Valid {
				values = append(values, d.Decimal)
			}
		}
		res.NumericStatistics[col] = describe(values)
	}
	return res, nil
}
