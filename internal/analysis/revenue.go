package analysis

import (
	"sort"

	"finance-analytics/internal/records"

	"github.com/shopspring/decimal"
)

const topCustomers = 10

var hundred = decimal.NewFromInt(100)

type customerRevenue struct {
	Customer     string  `json:"customer"`
	Revenue      float64 `json:"revenue"`
	InvoiceCount int     `json:"invoice_count"`
}

type monthlyRevenue struct {
	Month string  `json:"month"`
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
}

type profitabilityResult struct {
	TotalRevenue       float64           `json:"total_revenue"`
	TotalRevenuePreTax float64           `json:"total_revenue_pre_tax"`
	TotalTax           float64           `json:"total_tax"`
	TotalCosts         float64           `json:"total_costs"`
	GrossProfit        float64           `json:"gross_profit"`
	NetProfit          float64           `json:"net_profit"`
	GrossMargin        float64           `json:"gross_margin"`
	NetMargin          float64           `json:"net_margin"`
	CustomerRevenue    []customerRevenue `json:"customer_revenue"`
	MonthlyRevenue     []monthlyRevenue  `json:"monthly_revenue"`
}

// margin is profit as a percentage of base, or 0 when base is not positive.
func margin(profit, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return profit.Div(base).Mul(hundred)
}

// profitability weighs invoice revenue against payable costs.
func profitability(in *input) (any, error) {
	inv := in.table(records.Invoice)
	pay := in.table(records.Payable)

	revenue := sumColumn(inv, "total_amount").sum
	preTax := sumColumn(inv, "subtotal").sum
	tax := sumColumn(inv, "tax").sum
	costs := sumColumn(pay, "amount").sum
	gross := preTax.Sub(costs)
	net := revenue.Sub(costs)

	res := &profitabilityResult{
		TotalRevenue:       f(revenue),
		TotalRevenuePreTax: f(preTax),
		TotalTax:           f(tax),
		TotalCosts:         f(costs),
		GrossProfit:        f(gross),
		NetProfit:          f(net),
		GrossMargin:        f(margin(gross, preTax)),
		NetMargin:          f(margin(net, revenue)),
		CustomerRevenue:    []customerRevenue{},
		MonthlyRevenue:     []monthlyRevenue{},
	}

	if ni, ai := inv.Index("customer_name"), inv.Index("total_amount"); ni >= 0 && ai >= 0 {
		idx := make(map[string]int)
		var groups []bucket
		for r := 0; r < inv.Len(); r++ {
			name := inv.Get(r, ni)
			if name.IsNull() {
				continue
			}
			i, ok := idx[name.String()]
			if !ok {
				i = len(groups)
				idx[name.String()] = i
				groups = append(groups, bucket{key: name.String()})
			}
			groups[i].agg.add(inv.Get(r, ai).Decimal())
		}
		sort.SliceStable(groups, func(i, j int) bool {
			if c := groups[i].agg.sum.Cmp(groups[j].agg.sum); c != 0 {
				return c > 0
			}
			return groups[i].key < groups[j].key
		})
		if len(groups) > topCustomers {
			groups = groups[:topCustomers]
		}
		for _, g := range groups {
			res.CustomerRevenue = append(res.CustomerRevenue, customerRevenue{
				Customer:     g.key,
				Revenue:      f(g.agg.sum),
				InvoiceCount: g.agg.count,
			})
		}
	}

	pts := points(inv, "invoice_date", "total_amount")
	for _, b := range groupBy(pts, func(p point) string { return monthOf(p.date) }) {
		res.MonthlyRevenue = append(res.MonthlyRevenue, monthlyRevenue{
			Month: b.key,
			Sum:   f(b.agg.sum),
			Count: b.agg.count,
		})
	}
	return res, nil
}

// Trend series identifiers.
const (
	seriesSales         = "sales"
	seriesProForma      = "proforma"
	seriesPayable       = "payable_outflow"
	seriesReceivable    = "receivable_inflow"
	seriesNet           = "net_cash_flow"
	seriesCumulativeNet = "cumulative_net_cash_flow"
)

var seriesLabels = map[string]string{
	seriesSales:         "فروش (فاکتور)",
	seriesProForma:      "پیش‌فاکتور",
	seriesPayable:       "پرداختی (چک)",
	seriesReceivable:    "دریافتی (چک)",
	seriesNet:           "جریان نقد خالص",
	seriesCumulativeNet: "موقعیت نقدی انباشته",
}

type seriesType struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type trendResult struct {
	TrendData     []map[string]any `json:"trend_data"`
	Types         []seriesType     `json:"types"`
	CumulativeCol *string          `json:"cumulative_col"`
}

// series is a monthly total keyed by "YYYY-MM".
type series struct {
	id     string
	months map[string]decimal.Decimal
}

func monthly(id string, pts []point) *series {
	if len(pts) == 0 {
		return nil
	}
	s := &series{id: id, months: make(map[string]decimal.Decimal)}
	for _, p := range pts {
		m := monthOf(p.date)
		s.months[m] = s.months[m].Add(p.amount)
	}
	return s
}

// integratedTrend pivots sales, pro-formas and cheque flows into one row
// per month with a column per series, missing months filled with zero.
func integratedTrend(in *input) (any, error) {
	pay := points(in.table(records.Payable), "due_date", "amount")
	rec := points(in.table(records.Receivable), "due_date", "amount")

	var all []*series
	add := func(s *series) {
		if s != nil {
			all = append(all, s)
		}
	}
	add(monthly(seriesSales, points(in.table(records.Invoice), "invoice_date", "total_amount")))
	add(monthly(seriesProForma, points(in.table(records.ProForma), "performa_date", "amount")))
	add(monthly(seriesPayable, pay))
	add(monthly(seriesReceivable, rec))
	net := monthly(seriesNet, append(negated(pay), rec...))
	add(net)
	if len(all) == 0 {
		return noData("Lack of data for trend"), nil
	}

	seen := make(map[string]bool)
	var months []string
	for _, s := range all {
		for m := range s.months {
			if !seen[m] {
				seen[m] = true
				months = append(months, m)
			}
		}
	}
	sort.Strings(months)

	res := &trendResult{TrendData: make([]map[string]any, 0, len(months))}
	for _, s := range all {
		res.Types = append(res.Types, seriesType{ID: s.id, Label: seriesLabels[s.id]})
	}
	running := decimal.Zero
	for _, m := range months {
		row := map[string]any{"month": m}
		for _, s := range all {
			row[s.id] = f(s.months[m])
		}
		if net != nil {
			running = running.Add(net.months[m])
			row[seriesCumulativeNet] = f(running)
		}
		res.TrendData = append(res.TrendData, row)
	}
	if net != nil {
		col := seriesCumulativeNet
		res.CumulativeCol = &col
	}
	return res, nil
}

// negated returns copies of pts with their amounts negated.
func negated(pts []point) []point {
	out := make([]point, len(pts))
	for i, p := range pts {
		p.amount = p.amount.Neg()
		out[i] = p
	}
	return out
}
