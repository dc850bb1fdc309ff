package analysis

import (
	"fmt"
	"sort"
	"time"

	"finance-analytics/internal/records"

	"github.com/shopspring/decimal"
)

// OnTimeThresholdDays is the largest pro-forma to invoice gap still counted
// as on time. It is a business assumption, not a structural requirement.
const OnTimeThresholdDays = 7

const msgMissingData = "Missing data for analysis"

type paymentDetail struct {
	OrderCode    records.Value `json:"order_code"`
	CustomerName records.Value `json:"customer_name"`
	PerformaDate records.Value `json:"performa_date"`
	InvoiceDate  records.Value `json:"invoice_date"`
	GapDays      *int          `json:"gap_days"`
	IsPaid       bool          `json:"is_paid"`
	IsOnTime     bool          `json:"is_on_time"`
}

type onTimeResult struct {
	TotalPerforma  int             `json:"total_performa"`
	TotalPaid      int             `json:"total_paid"`
	TotalOnTime    int             `json:"total_on_time"`
	OnTimeRate     float64         `json:"on_time_rate"`
	AverageGapDays *float64        `json:"average_gap_days"`
	PaymentDetails []paymentDetail `json:"payment_details"`
}

// onTimePayment left-joins pro-formas to invoices on order_code. A joined
// row is paid when an invoice matched and on time when the gap is within
// OnTimeThresholdDays. A null order code never matches.
func onTimePayment(in *input) (any, error) {
	pf := in.table(records.ProForma)
	inv := in.table(records.Invoice)
	if pf == nil || inv == nil ||
		!pf.Has("order_code", "performa_date") || !inv.Has("order_code", "invoice_date") {
		return noData(msgMissingData), nil
	}

	invCode, invDate := inv.Index("order_code"), inv.Index("invoice_date")
	byCode := make(map[string][]int)
	for r := 0; r < inv.Len(); r++ {
		code := inv.Get(r, invCode)
		if code.IsNull() {
			continue
		}
		byCode[code.String()] = append(byCode[code.String()], r)
	}

	pfCode, pfDate, pfName := pf.Index("order_code"), pf.Index("performa_date"), pf.Index("customer_name")
	res := &onTimeResult{TotalPerforma: pf.Len(), PaymentDetails: []paymentDetail{}}
	var gaps agg
	for r := 0; r < pf.Len(); r++ {
		code := pf.Get(r, pfCode)
		base := paymentDetail{
			OrderCode:    code,
			CustomerName: pf.Get(r, pfName),
			PerformaDate: pf.Get(r, pfDate),
		}
		var matches []int
		if !code.IsNull() {
			matches = byCode[code.String()]
		}
		if len(matches) == 0 {
			res.PaymentDetails = append(res.PaymentDetails, base)
			continue
		}
		start, startOK := dateOf(base.PerformaDate)
		for _, m := range matches {
			d := base
			d.InvoiceDate = inv.Get(m, invDate)
			d.IsPaid = true
			if end, ok := dateOf(d.InvoiceDate); ok && startOK {
				gap := daysBetween(start, end)
				d.GapDays = &gap
				d.IsOnTime = gap <= OnTimeThresholdDays
				gaps.add(decimal.NewNullDecimal(decimal.NewFromInt(int64(gap))))
			}
			res.PaymentDetails = append(res.PaymentDetails, d)
		}
	}

	for _, d := range res.PaymentDetails {
		if d.IsPaid {
			res.TotalPaid++
		}
		if d.IsOnTime {
			res.TotalOnTime++
		}
	}
	if n := len(res.PaymentDetails); n > 0 {
		res.OnTimeRate = float64(res.TotalOnTime) / float64(n)
	}
	res.AverageGapDays = nf(gaps.mean())
	return res, nil
}

type loyaltyRow struct {
	CustomerName string   `json:"customer_name"`
	TotalValue   float64  `json:"total_value"`
	OrderCount   int      `json:"order_count"`
	AverageValue *float64 `json:"average_value"`
	LastPurchase *string  `json:"last_purchase"`
}

type loyaltyResult struct {
	FileType       string       `json:"file_type"`
	LoyaltyData    []loyaltyRow `json:"loyalty_data"`
	TotalCustomers int          `json:"total_customers"`
}

// customerLoyalty groups the kind's name column, reporting spend, order
// count and the latest dated purchase per customer, most frequent first.
func customerLoyalty(in *input) (any, error) {
	t := in.primary
	schema := records.SchemaFor(in.kind)
	nameCol, amountCol := schema.NameColumn, schema.AmountColumn
	if !t.Has(nameCol, amountCol) {
		return noData(fmt.Sprintf("ستون‌های مورد نیاز (%s, %s) یافت نشدند", nameCol, amountCol)), nil
	}

	type customer struct {
		name string
		agg  agg
		last time.Time
	}
	ni, ai, di := t.Index(nameCol), t.Index(amountCol), t.Index(schema.DateColumn)
	idx := make(map[string]int)
	var customers []customer
	for r := 0; r < t.Len(); r++ {
		name := t.Get(r, ni)
		if name.IsNull() {
			continue
		}
		i, ok := idx[name.String()]
		if !ok {
			i = len(customers)
			idx[name.String()] = i
			customers = append(customers, customer{name: name.String()})
		}
		c := &customers[i]
		c.agg.add(t.Get(r, ai).Decimal())
		if d, ok := dateOf(t.Get(r, di)); ok && d.After(c.last) {
			c.last = d
		}
	}
	sort.SliceStable(customers, func(i, j int) bool {
		if customers[i].agg.count != customers[j].agg.count {
			return customers[i].agg.count > customers[j].agg.count
		}
		return customers[i].name < customers[j].name
	})

	res := &loyaltyResult{
		FileType:       in.kind.ID(),
		LoyaltyData:    make([]loyaltyRow, 0, len(customers)),
		TotalCustomers: len(customers),
	}
	for _, c := range customers {
		row := loyaltyRow{
			CustomerName: c.name,
			TotalValue:   f(c.agg.sum),
			OrderCount:   c.agg.count,
			AverageValue: nf(c.agg.mean()),
		}
		if !c.last.IsZero() {
			s := jalali(c.last)
			row.LastPurchase = &s
		}
		res.LoyaltyData = append(res.LoyaltyData, row)
	}
	return res, nil
}

type advancedResult struct {
	TotalSales     float64 `json:"total_sales"`
	TotalPayable   float64 `json:"total_payable"`
	PerformaCount  int     `json:"performa_count"`
	InvoiceCount   int     `json:"invoice_count"`
	ConversionRate float64 `json:"conversion_rate"`
	NetPosition    float64 `json:"net_position"`
}

// advancedReport is a management snapshot across invoices, payables and
// pro-formas. Missing tables count as zero.
func advancedReport(in *input) (any, error) {
	pay := in.table(records.Payable)
	inv := in.table(records.Invoice)
	pf := in.table(records.ProForma)
	if pay == nil && inv == nil && pf == nil {
		return noData(msgMissingData), nil
	}

	sales := sumColumn(inv, "total_amount").sum
	payable := sumColumn(pay, "amount").sum
	res := &advancedResult{
		TotalSales:    f(sales),
		TotalPayable:  f(payable),
		PerformaCount: pf.Len(),
		InvoiceCount:  inv.Len(),
		NetPosition:   f(sales.Sub(payable)),
	}
	if res.PerformaCount > 0 {
		res.ConversionRate = float64(res.InvoiceCount) / float64(res.PerformaCount)
	}
	return res, nil
}
