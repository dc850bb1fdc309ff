package records

import "github.com/shopspring/decimal"

// ScaleFactor converts raw Rial amounts to Toman. It is applied once, when a
// table is loaded into the record store.
var ScaleFactor = decimal.NewFromInt(10)

// Schema describes where a record kind lives and which of its columns carry
// meaning for the analyses.
type Schema struct {
	Kind        Kind
	Table       string // Postgres table name
	File        string // base file name (without extension) in a data directory or bucket
	Description string
	// HeaderRow is the zero-based spreadsheet row holding column headers in
	// the raw workbooks.
	HeaderRow int
	// AmountColumns are scaled by ScaleFactor at load time.
	AmountColumns   []string
	RequiredColumns []string
	// NameColumn, AmountColumn and DateColumn are the columns used by the
	// per-customer analyses.
	NameColumn   string
	AmountColumn string
	DateColumn   string
	// Headers maps raw workbook headers to normalized column names.
	Headers map[string]string
}

var schemas = map[Kind]Schema{
	Payable: {
		Kind:            Payable,
		Table:           "payables",
		File:            "payable",
		Description:     "Payable Cheques Analysis",
		HeaderRow:       1,
		AmountColumns:   []string{"amount"},
		RequiredColumns: []string{"amount", "due_date"},
		NameColumn:      "beneficiary",
		AmountColumn:    "amount",
		DateColumn:      "document_date",
		Headers: map[string]string{
			"ردیف":           "row_id",
			"شماره موکد":     "document_number",
			"تاریخ":          "document_date",
			"شرح عملیات":     "description",
			"بستانکار":       "amount",
			"تاریخ سررسید":   "due_date",
			"نام تفصیلی 1":   "beneficiary",
			"نام تفصیلی 2":   "account_name",
			"تاریخ سررسید.1": "internal_due_date",
		},
	},
	Receivable: {
		Kind:            Receivable,
		Table:           "receivables",
		File:            "receivable",
		Description:     "Accounts Receivable Analysis",
		HeaderRow:       1,
		AmountColumns:   []string{"amount"},
		RequiredColumns: []string{"amount", "due_date"},
		NameColumn:      "company_name",
		AmountColumn:    "amount",
		DateColumn:      "document_date",
		Headers: map[string]string{
			"ردیف":          "row_id",
			"تاریخ":         "document_date",
			"بدهکار":        "amount",
			"تاریخ سررسید":  "due_date",
			"تاریخ سررسید2": "internal_due_date",
			"نام شرکت":      "company_name",
		},
	},
	Invoice: {
		Kind:            Invoice,
		Table:           "invoices",
		File:            "invoices",
		Description:     "Invoices Analysis",
		HeaderRow:       0,
		AmountColumns:   []string{"subtotal", "tax", "total_amount"},
		RequiredColumns: []string{"total_amount", "invoice_date"},
		NameColumn:      "customer_name",
		AmountColumn:    "total_amount",
		DateColumn:      "invoice_date",
		Headers: map[string]string{
			" ":                            "row_id",
			"نوع":                          "invoice_type",
			"تاریخ":                        "invoice_date",
			"کد مشتری":                     "customer_code",
			"نام مشتری":                    "customer_name",
			"OC":                           "order_code",
			"تفصیلی دو مالی":               "account_detail",
			"جمع بها پس از کسر تخفیف":      "subtotal",
			"جمع کل مالیات بر ارزش افزوده": "tax",
			"جمع بهای نهایی":               "total_amount",
		},
	},
	ProForma: {
		Kind:            ProForma,
		Table:           "performa",
		File:            "performa",
		Description:     "Performa Analysis",
		HeaderRow:       0,
		AmountColumns:   []string{"amount"},
		RequiredColumns: []string{"amount", "performa_date"},
		NameColumn:      "customer_name",
		AmountColumn:    "amount",
		DateColumn:      "performa_date",
		Headers: map[string]string{
			"ردیف":           "row_id",
			"نوع":            "performa_type",
			"تاریخ":          "performa_date",
			"سری":            "series",
			"نام نوع فروش":   "sale_type",
			"OC":             "order_code",
			"تفصیلی دو مالی": "account_detail",
			"کد مشتری":       "customer_code",
			"نام مشتری":      "customer_name",
			"وضعیت":          "status",
			"جمع بهای برگه":  "amount",
			"شرح":            "description",
		},
	},
}

// SchemaFor returns the schema of k.
func SchemaFor(k Kind) Schema {
	return schemas[k]
}

// NormalizeHeader maps a raw workbook header to its normalized column name
// for kind k. Unknown headers are returned trimmed but otherwise unchanged.
func NormalizeHeader(k Kind, header string) string {
	if name, ok := schemas[k].Headers[header]; ok {
		return name
	}
	trimmed := trimHeader(header)
	if name, ok := schemas[k].Headers[trimmed]; ok {
		return name
	}
	return trimmed
}
