package analysis

import (
	"encoding/json"
	"math"
	"testing"

	"finance-analytics/internal/records"

	"github.com/shopspring/decimal"
)

func TestDiscovery(t *testing.T) {
	tbl := records.NewBuilder(records.Invoice,
		"row_id", "invoice_date", "account_detail", "customer_name", "subtotal", "total_amount", "description").
		Row(1, "", "d1", "X", 10, 11, "note").
		Row(2, "1404/01/05", "d2", "Y", 20, 22, "1404/01/01 mentioned").
		Build()

	if got := numericColumns(tbl); len(got) != 2 || got[0] != "subtotal" || got[1] != "total_amount" {
		t.Errorf("numericColumns = %v", got)
	}
	dates := dateColumns(tbl)
	if len(dates) != 2 || dates[0] != "invoice_date" || dates[1] != "description" {
		t.Errorf("dateColumns = %v", dates)
	}
	groups := groupingColumns(tbl)
	if name, _ := pick(groups, namePriority); name != "customer_name" {
		t.Errorf("grouping pick = %q from %v", name, groups)
	}
	if amount, _ := pick(numericColumns(tbl), amountPriority); amount != "total_amount" {
		t.Errorf("amount pick = %q", amount)
	}
	if first, _ := pick([]string{"foo", "bar"}, namePriority); first != "foo" {
		t.Errorf("positional fallback = %q", first)
	}
	if _, ok := pick(nil, namePriority); ok {
		t.Error("pick on no candidates reported ok")
	}
}

func TestDateColumns_SamplesFirstValues(t *testing.T) {
	b := records.NewBuilder(records.Payable, "note")
	for i := 0; i < dateSampleSize; i++ {
		b.Row("text")
	}
	b.Row("1404/01/01")
	if got := dateColumns(b.Build()); len(got) != 0 {
		t.Errorf("dateColumns = %v, want none beyond the sample window", got)
	}
}

func TestClean(t *testing.T) {
	type inner struct {
		V   float64  `json:"v"`
		P   *float64 `json:"p"`
		Any any      `json:"any"`
	}
	nan := math.NaN()
	inf := math.Inf(1)
	ok := 2.5
	payload := &struct {
		A     float64          `json:"a"`
		B     *float64         `json:"b"`
		C     *float64         `json:"c"`
		Rows  []inner          `json:"rows"`
		Maps  []map[string]any `json:"maps"`
		Fixed [2]any           `json:"fixed"`
	}{
		A:     nan,
		B:     &inf,
		C:     &ok,
		Rows:  []inner{{V: inf, P: &nan, Any: nan}},
		Maps:  []map[string]any{{"x": nan, "y": 1.0, "z": map[string]any{"deep": math.Inf(-1)}}},
		Fixed: [2]any{nan, "s"},
	}

	out, err := json.Marshal(clean(payload))
	if err != nil {
		t.Fatalf("marshal after clean: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if got["a"] != 0.0 || got["b"] != nil || got["c"] != 2.5 {
		t.Errorf("top level = %s", out)
	}
	row := got["rows"].([]any)[0].(map[string]any)
	if row["v"] != 0.0 || row["p"] != nil || row["any"] != nil {
		t.Errorf("row = %v", row)
	}
	m := got["maps"].([]any)[0].(map[string]any)
	if m["x"] != nil || m["y"] != 1.0 || m["z"].(map[string]any)["deep"] != nil {
		t.Errorf("map = %v", m)
	}
	if fixed := got["fixed"].([]any); fixed[0] != nil || fixed[1] != "s" {
		t.Errorf("array = %v", fixed)
	}
}

func TestClean_NilAndScalars(t *testing.T) {
	if clean(nil) != nil {
		t.Error("clean(nil) != nil")
	}
	if v := clean(math.NaN()); v != nil {
		t.Errorf("clean(NaN) = %v, want nil", v)
	}
	if v := clean("x"); v != "x" {
		t.Errorf("clean(string) = %v", v)
	}
}

func TestDescribe(t *testing.T) {
	d := describe(decimals(1, 2, 3, 4))
	if d.Count != 4 || *d.Mean != 2.5 || *d.Min != 1 || *d.Max != 4 {
		t.Errorf("describe = %+v", d)
	}
	if *d.Q1 != 1.75 || *d.Q2 != 2.5 || *d.Q3 != 3.25 {
		t.Errorf("quartiles = %v %v %v", *d.Q1, *d.Q2, *d.Q3)
	}
	if math.Abs(*d.Std-1.2909944) > 1e-6 {
		t.Errorf("std = %v", *d.Std)
	}
	one := describe(decimals(7))
	if one.Std != nil || *one.Q2 != 7 {
		t.Errorf("single value = %+v", one)
	}
	if empty := describe(nil); empty.Count != 0 || empty.Mean != nil {
		t.Errorf("empty = %+v", empty)
	}
}

func TestParamsInt(t *testing.T) {
	p := Params{"a": 3, "b": 4.0, "c": "5", "d": json.Number("6"), "e": -1, "f": "x"}
	for name, want := range map[string]int{"a": 3, "b": 4, "c": 5, "d": 6, "e": 10, "f": 10, "missing": 10} {
		if got := p.Int(name, 10); got != want {
			t.Errorf("Int(%q) = %d, want %d", name, got, want)
		}
	}
}

func decimals(xs ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(xs))
	for i, x := range xs {
		out[i] = decimal.NewFromInt(x)
	}
	return out
}
