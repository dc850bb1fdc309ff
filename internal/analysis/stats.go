package analysis

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// agg accumulates a sum and count over non-null values. Nulls are skipped,
// never propagated.
type agg struct {
	sum   decimal.Decimal
	count int
}

func (a *agg) add(d decimal.NullDecimal) {
	if !d.Valid {
		return
	}
	a.sum = a.sum.Add(d.Decimal)
	a.count++
}

// mean is null for an empty aggregate.
func (a agg) mean() decimal.NullDecimal {
	if a.count == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(a.sum.Div(decimal.NewFromInt(int64(a.count))))
}

// f converts an exact decimal to the JSON number reported to callers.
func f(d decimal.Decimal) float64 { return d.InexactFloat64() }

// nf converts a nullable decimal to a nullable JSON number.
func nf(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	v := d.Decimal.InexactFloat64()
	return &v
}

// fp returns a pointer to v, or nil when v is not finite.
func fp(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ratio returns num/den, or 0 when den is zero.
func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// description is the per-column summary of a numeric column. Statistics
// undefined for the sample size are null.
type description struct {
	Count float64  `json:"count"`
	Mean  *float64 `json:"mean"`
	Std   *float64 `json:"std"`
	Min   *float64 `json:"min"`
	Q1    *float64 `json:"25%"`
	Q2    *float64 `json:"50%"`
	Q3    *float64 `json:"75%"`
	Max   *float64 `json:"max"`
}

// describe computes count, mean, sample standard deviation, min, quartiles
// and max over the non-null values of a column.
func describe(values []decimal.Decimal) description {
	d := description{Count: float64(len(values))}
	if len(values) == 0 {
		return d
	}
	var a agg
	xs := make([]float64, len(values))
	for i, v := range values {
		a.add(decimal.NewNullDecimal(v))
		xs[i] = v.InexactFloat64()
	}
	sort.Float64s(xs)
	d.Mean = nf(a.mean())
	if len(xs) > 1 {
		m := a.mean().Decimal.InexactFloat64()
		var ss float64
		for _, x := range xs {
			ss += (x - m) * (x - m)
		}
		d.Std = fp(math.Sqrt(ss / float64(len(xs)-1)))
	}
	d.Min = fp(xs[0])
	d.Q1 = fp(quantile(xs, 0.25))
	d.Q2 = fp(quantile(xs, 0.5))
	d.Q3 = fp(quantile(xs, 0.75))
	d.Max = fp(xs[len(xs)-1])
	return d
}

// quantile interpolates linearly between the closest ranks of sorted xs.
func quantile(xs []float64, q float64) float64 {
	if len(xs) == 1 {
		return xs[0]
	}
	pos := q * float64(len(xs)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return xs[lo]
	}
	frac := pos - float64(lo)
	return xs[lo] + (xs[hi]-xs[lo])*frac
}
