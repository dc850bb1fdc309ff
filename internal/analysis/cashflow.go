package analysis

import (
	"fmt"
	"sort"
	"time"

	"finance-analytics/internal/records"

	"github.com/shopspring/decimal"
)

// ForecastBaseline is the cash position assumed at the start of a forecast.
// It is a business assumption; no opening balance is recorded anywhere.
const ForecastBaseline = 0

type flowType int

const (
	flowPayable flowType = iota
	flowReceivable
	flowSales
	flowProForma
)

var flowTypes = [...]struct{ id, label string }{
	flowPayable:    {"payable", "پرداختی (چک)"},
	flowReceivable: {"receivable", "دریافتی (چک)"},
	flowSales:      {"sales", "فروش (فاکتور)"},
	flowProForma:   {"proforma", "پیش‌فاکتور (بالقوه)"},
}

func (t flowType) ID() string    { return flowTypes[t].id }
func (t flowType) Label() string { return flowTypes[t].label }

// flowSource binds a record kind to the columns that place it on the cash
// timeline. Outgoing sources are negated.
type flowSource struct {
	kind      records.Kind
	typ       flowType
	dateCol   string
	amountCol string
	outgoing  bool
	nameCol   string
}

var cashSources = []flowSource{
	{records.Payable, flowPayable, "due_date", "amount", true, ""},
	{records.Receivable, flowReceivable, "due_date", "amount", false, ""},
	{records.Invoice, flowSales, "invoice_date", "total_amount", false, ""},
	{records.ProForma, flowProForma, "performa_date", "amount", false, ""},
}

// entry is one signed transaction on the cash timeline.
type entry struct {
	point
	typ        flowType
	name       records.Value
	cumulative decimal.Decimal
}

// collect gathers the signed entries of sources, sorted by date with the
// source order kept within a day, and fills in the running balance from
// baseline. keep filters rows; nil keeps everything.
func collect(in *input, sources []flowSource, baseline decimal.Decimal, keep func(point) bool) []entry {
	var out []entry
	for _, src := range sources {
		t := in.table(src.kind)
		if t.Empty() {
			continue
		}
		for _, p := range points(t, src.dateCol, src.amountCol) {
			if keep != nil && !keep(p) {
				continue
			}
			if src.outgoing {
				p.amount = p.amount.Neg()
			}
			out = append(out, entry{point: p, typ: src.typ, name: t.Value(p.row, src.nameCol)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	running := baseline
	for i := range out {
		running = running.Add(out[i].amount)
		out[i].cumulative = running
	}
	return out
}

type flowDay struct {
	Date       string  `json:"date"`
	JalaliDate string  `json:"jalali_date"`
	Amount     float64 `json:"amount"`
	Cumulative float64 `json:"cumulative"`
}

// rollupDays sums sorted entries per day, keeping the day's last balance.
func rollupDays(entries []entry) []flowDay {
	out := []flowDay{}
	var cur *flowDay
	var sum decimal.Decimal
	for _, e := range entries {
		day := iso(e.date)
		if cur == nil || cur.Date != day {
			out = append(out, flowDay{Date: day, JalaliDate: jalali(e.date)})
			cur = &out[len(out)-1]
			sum = decimal.Zero
		}
		sum = sum.Add(e.amount)
		cur.Amount = f(sum)
		cur.Cumulative = f(e.cumulative)
	}
	return out
}

// totals returns the positive sum and the absolute negative sum.
func totals(entries []entry) (in, out decimal.Decimal) {
	for _, e := range entries {
		if e.amount.IsPositive() {
			in = in.Add(e.amount)
		} else {
			out = out.Add(e.amount.Abs())
		}
	}
	return in, out
}

type transaction struct {
	Date        string  `json:"date"`
	JalaliDate  string  `json:"jalali_date"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
	Cumulative  float64 `json:"cumulative"`
}

type typeSummary struct {
	Type  string   `json:"type"`
	Label string   `json:"label"`
	Sum   float64  `json:"sum"`
	Count int      `json:"count"`
	Mean  *float64 `json:"mean"`
}

type cashFlowResult struct {
	CurrentPosition      float64       `json:"current_position"`
	Today                string        `json:"today"`
	TodayJalali          string        `json:"today_jalali"`
	TotalIncome          float64       `json:"total_income"`
	TotalOutcome         float64       `json:"total_outcome"`
	NetCashFlow          float64       `json:"net_cash_flow"`
	DailyFlow            []flowDay     `json:"daily_flow"`
	TypeSummary          []typeSummary `json:"type_summary"`
	DetailedTransactions []transaction `json:"detailed_transactions"`
}

// cashFlow unions every record kind into one signed timeline: payables go
// out, receivables and sales come in, pro-formas are potential income.
func cashFlow(in *input) (any, error) {
	entries := collect(in, cashSources, decimal.Zero, nil)
	if len(entries) == 0 {
		return noData("No cash flow data available"), nil
	}

	income, outcome := totals(entries)
	res := &cashFlowResult{
		CurrentPosition:      f(entries[len(entries)-1].cumulative),
		Today:                iso(in.today),
		TodayJalali:          jalali(in.today),
		TotalIncome:          f(income),
		TotalOutcome:         f(outcome),
		NetCashFlow:          f(income.Sub(outcome)),
		DailyFlow:            rollupDays(entries),
		DetailedTransactions: make([]transaction, 0, len(entries)),
	}

	var byType [len(flowTypes)]agg
	for _, e := range entries {
		byType[e.typ].add(decimal.NewNullDecimal(e.amount))
		res.DetailedTransactions = append(res.DetailedTransactions, transaction{
			Date:       iso(e.date),
			JalaliDate: jalali(e.date),
			Amount:     f(e.amount),
			Type:       e.typ.ID(),
			Label:      e.typ.Label(),
			Cumulative: f(e.cumulative),
		})
	}
	for typ, a := range byType {
		if a.count == 0 {
			continue
		}
		ft := flowType(typ)
		res.TypeSummary = append(res.TypeSummary, typeSummary{
			Type:  ft.ID(),
			Label: ft.Label(),
			Sum:   f(a.sum),
			Count: a.count,
			Mean:  nf(a.mean()),
		})
	}
	return res, nil
}

// Aging buckets, in report order.
const (
	bucketCurrent = iota
	bucket1to30
	bucket31to60
	bucket61to90
	bucketOver90
	bucketCount
)

// ageBucket places an item by days overdue: negative is not yet due, and an
// item due today is already in the first overdue bucket.
func ageBucket(days int) int {
	switch {
	case days < 0:
		return bucketCurrent
	case days <= 30:
		return bucket1to30
	case days <= 60:
		return bucket31to60
	case days <= 90:
		return bucket61to90
	default:
		return bucketOver90
	}
}

type agingBuckets struct {
	Current float64 `json:"current"`
	D1to30  float64 `json:"1-30"`
	D31to60 float64 `json:"31-60"`
	D61to90 float64 `json:"61-90"`
	Over90  float64 `json:"90+"`
}

type agingSide struct {
	Total   float64      `json:"total"`
	Overdue float64      `json:"overdue"`
	Buckets agingBuckets `json:"buckets"`
}

type agingResult struct {
	AnalysisDate            string    `json:"analysis_date"`
	AnalysisJalaliDate      string    `json:"analysis_jalali_date"`
	Payables                agingSide `json:"payables"`
	Receivables             agingSide `json:"receivables"`
	NetPosition             float64   `json:"net_position"`
	TotalOverduePayables    float64   `json:"total_overdue_payables"`
	TotalOverdueReceivables float64   `json:"total_overdue_receivables"`
}

// age buckets the due-dated amounts of kind by days overdue as of today.
func age(in *input, kind records.Kind) (side agingSide, total decimal.Decimal) {
	var sums [bucketCount]decimal.Decimal
	var overdue decimal.Decimal
	if t := in.table(kind); !t.Empty() {
		for _, p := range points(t, "due_date", "amount") {
			b := ageBucket(daysBetween(p.date, in.today))
			sums[b] = sums[b].Add(p.amount)
			total = total.Add(p.amount)
			if b != bucketCurrent {
				overdue = overdue.Add(p.amount)
			}
		}
	}
	side = agingSide{
		Total:   f(total),
		Overdue: f(overdue),
		Buckets: agingBuckets{
			Current: f(sums[bucketCurrent]),
			D1to30:  f(sums[bucket1to30]),
			D31to60: f(sums[bucket31to60]),
			D61to90: f(sums[bucket61to90]),
			Over90:  f(sums[bucketOver90]),
		},
	}
	return side, total
}

// accountsAging buckets payables and receivables independently by how long
// they are overdue.
func accountsAging(in *input) (any, error) {
	payables, payTotal := age(in, records.Payable)
	receivables, recTotal := age(in, records.Receivable)
	return &agingResult{
		AnalysisDate:            iso(in.today),
		AnalysisJalaliDate:      jalali(in.today),
		Payables:                payables,
		Receivables:             receivables,
		NetPosition:             f(recTotal.Sub(payTotal)),
		TotalOverduePayables:    payables.Overdue,
		TotalOverdueReceivables: receivables.Overdue,
	}, nil
}

var forecastSources = []flowSource{
	{records.Payable, flowPayable, "due_date", "amount", true, "beneficiary"},
	{records.Receivable, flowReceivable, "due_date", "amount", false, "company_name"},
}

// forecastLabels are the short labels used in forecast detail rows.
var forecastLabels = map[flowType]string{
	flowPayable:    "پرداختی",
	flowReceivable: "دریافتی",
}

type forecastWeek struct {
	Week       string  `json:"week"`
	StartDate  string  `json:"start_date"`
	Amount     float64 `json:"amount"`
	Cumulative float64 `json:"cumulative"`
}

type forecastResult struct {
	ForecastDays          int            `json:"forecast_days"`
	CurrentDate           string         `json:"current_date"`
	CurrentJalaliDate     string         `json:"current_jalali_date"`
	ForecastDate          string         `json:"forecast_date"`
	ForecastJalaliDate    string         `json:"forecast_jalali_date"`
	Baseline              float64        `json:"baseline"`
	TotalIncoming         float64        `json:"total_incoming"`
	TotalOutgoing         float64        `json:"total_outgoing"`
	NetForecast           float64        `json:"net_forecast"`
	MinPosition           float64        `json:"min_position"`
	MaxPosition           float64        `json:"max_position"`
	MinPositionDate       string         `json:"min_position_date"`
	MinPositionJalaliDate string         `json:"min_position_jalali_date"`
	MaxPositionDate       string         `json:"max_position_date"`
	MaxPositionJalaliDate string         `json:"max_position_jalali_date"`
	DailyForecast         []flowDay      `json:"daily_forecast"`
	WeeklyForecast        []forecastWeek `json:"weekly_forecast"`
	DetailedTransactions  []transaction  `json:"detailed_transactions"`
}

// weekOf is the ISO week label of t and the Monday starting it.
func weekOf(t time.Time) (string, time.Time) {
	y, w := t.ISOWeek()
	offset := (int(t.Weekday()) + 6) % 7
	return fmt.Sprintf("%04d-W%02d", y, w), t.AddDate(0, 0, -offset)
}

// forecast projects the cash position over payables and receivables due
// today or later. forecast_days only sets the reported horizon; it never
// filters transactions.
func forecast(in *input) (any, error) {
	days := in.params.Int(ParamForecastDays, DefaultForecastDays)
	baseline := decimal.NewFromInt(ForecastBaseline)
	entries := collect(in, forecastSources, baseline, func(p point) bool {
		return !p.date.Before(in.today)
	})
	if len(entries) == 0 {
		return noData("No future transactions to forecast"), nil
	}

	incoming, outgoing := totals(entries)
	horizon := in.today.AddDate(0, 0, days)
	res := &forecastResult{
		ForecastDays:         days,
		CurrentDate:          iso(in.today),
		CurrentJalaliDate:    jalali(in.today),
		ForecastDate:         iso(horizon),
		ForecastJalaliDate:   jalali(horizon),
		Baseline:             f(baseline),
		TotalIncoming:        f(incoming),
		TotalOutgoing:        f(outgoing),
		NetForecast:          f(incoming.Sub(outgoing)),
		DailyForecast:        rollupDays(entries),
		WeeklyForecast:       []forecastWeek{},
		DetailedTransactions: make([]transaction, 0, len(entries)),
	}

	lo, hi := 0, 0
	var week *forecastWeek
	var weekSum decimal.Decimal
	for i, e := range entries {
		if e.cumulative.LessThan(entries[lo].cumulative) {
			lo = i
		}
		if e.cumulative.GreaterThan(entries[hi].cumulative) {
			hi = i
		}

		label, start := weekOf(e.date)
		if week == nil || week.Week != label {
			res.WeeklyForecast = append(res.WeeklyForecast, forecastWeek{Week: label, StartDate: iso(start)})
			week = &res.WeeklyForecast[len(res.WeeklyForecast)-1]
			weekSum = decimal.Zero
		}
		weekSum = weekSum.Add(e.amount)
		week.Amount = f(weekSum)
		week.Cumulative = f(e.cumulative)

		res.DetailedTransactions = append(res.DetailedTransactions, transaction{
			Date:        iso(e.date),
			JalaliDate:  jalali(e.date),
			Amount:      f(e.amount),
			Type:        e.typ.ID(),
			Label:       forecastLabels[e.typ],
			Description: counterparty(e),
			Cumulative:  f(e.cumulative),
		})
	}
	res.MinPosition = f(entries[lo].cumulative)
	res.MinPositionDate = iso(entries[lo].date)
	res.MinPositionJalaliDate = jalali(entries[lo].date)
	res.MaxPosition = f(entries[hi].cumulative)
	res.MaxPositionDate = iso(entries[hi].date)
	res.MaxPositionJalaliDate = jalali(entries[hi].date)
	return res, nil
}

// counterparty names the other side of a forecast entry, or "N/A".
func counterparty(e entry) string {
	if e.name.IsNull() {
		return "N/A"
	}
	return e.name.String()
}
