package main

import (
	"testing"

	"finance-analytics/internal/records"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestCopyRows(t *testing.T) {
	tbl := records.NewBuilder(records.Invoice, "row_id", "customer_name", "total_amount", "extra").
		Row(1, "X", "12500.50", "ignored").
		Row(2, nil, 300, "ignored").
		Build()

	cols, rows, err := copyRows(tbl, []string{"row_id", "invoice_date", "customer_name", "total_amount"})
	if err != nil {
		t.Fatalf("copyRows: %v", err)
	}
	if len(cols) != 3 || cols[0] != "row_id" || cols[1] != "customer_name" || cols[2] != "total_amount" {
		t.Fatalf("cols = %v", cols)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][0] != int64(1) || rows[0][1] != "X" {
		t.Errorf("row 0 = %v", rows[0])
	}
	amount := rows[0][2].(pgtype.Numeric)
	if amount.Int.Int64() != 1250050 || amount.Exp != -2 {
		t.Errorf("amount = %v e%d, want raw unscaled value", amount.Int, amount.Exp)
	}
	if rows[1][1] != nil {
		t.Errorf("null name = %v, want nil", rows[1][1])
	}
}

func TestCopyRows_Errors(t *testing.T) {
	bad := records.NewBuilder(records.Payable, "amount").Row("abc").Build()
	if _, _, err := copyRows(bad, []string{"amount"}); err == nil {
		t.Error("non-numeric amount accepted")
	}
	if _, _, err := copyRows(bad, []string{"due_date"}); err == nil {
		t.Error("disjoint columns accepted")
	}
}

func TestSelectKinds(t *testing.T) {
	all, err := selectKinds("")
	if err != nil || len(all) != 4 {
		t.Fatalf("selectKinds(\"\") = %v, %v", all, err)
	}
	some, err := selectKinds("invoices, performa")
	if err != nil || len(some) != 2 || some[0] != records.Invoice || some[1] != records.ProForma {
		t.Errorf("selectKinds = %v, %v", some, err)
	}
	if _, err := selectKinds("ledger"); err == nil {
		t.Error("unknown kind accepted")
	}
}
