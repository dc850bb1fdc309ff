// Package calendar converts between Solar Hijri (Jalali) date strings and
// Gregorian dates. Every record date is stored as a Jalali "YYYY/MM/DD" string;
// analyses convert to Gregorian before sorting or bucketing and back to Jalali
// only for display fields.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Supported Jalali years. The leap-year break table below is valid for
// [-61, 3178); negative years cannot be written in the string form anyway.
const (
	MinYear = 1
	MaxYear = 3177
)

// LayoutISO is the display layout for Gregorian dates in result payloads.
const LayoutISO = "2006-01-02"

// breaks are the Jalali years in which the 33-year leap cycle changes
// (Borkowski's algorithm).
var breaks = [...]int{
	-61, 9, 38, 199, 426, 686, 756, 818, 1111, 1181, 1210,
	1635, 2060, 2097, 2192, 2262, 2324, 2394, 2456, 3178,
}

// Date is a broken-down Jalali date.
type Date struct {
	Year  int
	Month int
	Day   int
}

// String formats d as zero-padded "YYYY/MM/DD".
func (d Date) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}

// Valid reports whether d names a real day inside the supported era.
func (d Date) Valid() bool {
	if d.Year < MinYear || d.Year > MaxYear || d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return d.Day <= MonthLength(d.Year, d.Month)
}

// IsLeap reports whether the Jalali year jy has 366 days.
func IsLeap(jy int) bool {
	leap, _, _ := jalCal(jy)
	return leap == 0
}

// MonthLength returns the number of days in Jalali month jm of year jy.
func MonthLength(jy, jm int) int {
	switch {
	case jm <= 6:
		return 31
	case jm <= 11:
		return 30
	case IsLeap(jy):
		return 30
	default:
		return 29
	}
}

// Parse splits a "YYYY/MM/DD" string into a Jalali date. Anything after the
// first space (a time component) is ignored. Single-digit months and days
// are accepted.
func Parse(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Date{}, false
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Date{}, false
		}
		n[i] = v
	}
	d := Date{Year: n[0], Month: n[1], Day: n[2]}
	if !d.Valid() {
		return Date{}, false
	}
	return d, true
}

// Gregorian returns the Gregorian day for d at UTC midnight.
// d must be Valid.
func (d Date) Gregorian() time.Time {
	gy, gm, gd := d2g(j2d(d.Year, d.Month, d.Day))
	return time.Date(gy, time.Month(gm), gd, 0, 0, 0, 0, time.UTC)
}

// FromGregorian returns the Jalali date of the calendar day of t.
// ok is false when the day falls outside the supported era.
func FromGregorian(t time.Time) (Date, bool) {
	jy, jm, jd := d2j(g2d(t.Year(), int(t.Month()), t.Day()))
	d := Date{Year: jy, Month: jm, Day: jd}
	if !d.Valid() {
		return Date{}, false
	}
	return d, true
}

// ToGregorian converts a local-calendar value to a Gregorian day.
//
// Accepted inputs are Jalali strings (with or without a trailing time),
// time.Time and *time.Time (returned as their calendar day, unchanged), and
// nil. Any parse or range error yields ok == false; the caller excludes the
// row from date-dependent computation.
func ToGregorian(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return Day(x), true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return Day(*x), true
	case string:
		d, ok := Parse(x)
		if !ok {
			return time.Time{}, false
		}
		return d.Gregorian(), true
	case fmt.Stringer:
		return ToGregorian(x.String())
	default:
		return time.Time{}, false
	}
}

// ToLocal converts a Gregorian day to its Jalali "YYYY/MM/DD" string.
// Null inputs give ""; a value that cannot be converted falls back to its
// default string form.
func ToLocal(v any) string {
	var t time.Time
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return ""
		}
		t = *x
	default:
		return fmt.Sprint(v)
	}
	if t.IsZero() {
		return ""
	}
	d, ok := FromGregorian(t)
	if !ok {
		return t.Format(LayoutISO)
	}
	return d.String()
}

// Day truncates t to its calendar day at UTC midnight, keeping the
// year/month/day fields t has in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// jalCal returns the leap status of jy (0 means leap), the Gregorian year in
// which jy starts, and the March day of Farvardin 1st.
func jalCal(jy int) (leap, gy, march int) {
	gy = jy + 621
	leapJ := -14
	jp := breaks[0]
	jump := 0
	for i := 1; i < len(breaks); i++ {
		jm := breaks[i]
		jump = jm - jp
		if jy < jm {
			break
		}
		leapJ += jump/33*8 + (jump%33)/4
		jp = jm
	}
	n := jy - jp
	leapJ += n/33*8 + (n%33+3)/4
	if jump%33 == 4 && jump-n == 4 {
		leapJ++
	}
	leapG := gy/4 - (gy/100+1)*3/4 - 150
	march = 20 + leapJ - leapG

	if jump-n < 6 {
		n = n - jump + (jump+4)/33*33
	}
	leap = ((n+1)%33 - 1) % 4
	if leap == -1 {
		leap = 4
	}
	return leap, gy, march
}

// j2d converts a Jalali date to a Julian Day Number.
func j2d(jy, jm, jd int) int {
	_, gy, march := jalCal(jy)
	return g2d(gy, 3, march) + (jm-1)*31 - jm/7*(jm-7) + jd - 1
}

// d2j converts a Julian Day Number to a Jalali date.
func d2j(jdn int) (jy, jm, jd int) {
	gy, _, _ := d2g(jdn)
	jy = gy - 621
	leap, _, march := jalCal(jy)
	k := jdn - g2d(gy, 3, march)
	if k >= 0 {
		if k <= 185 {
			return jy, 1 + k/31, k%31 + 1
		}
		k -= 186
	} else {
		jy--
		k += 179
		if leap == 1 {
			k++
		}
	}
	return jy, 7 + k/30, k%30 + 1
}

// g2d converts a Gregorian date to a Julian Day Number.
func g2d(gy, gm, gd int) int {
	d := (gy+(gm-8)/6+100100)*1461/4 + (153*((gm+9)%12)+2)/5 + gd - 34840408
	return d - (gy+100100+(gm-8)/6)/100*3/4 + 752
}

// d2g converts a Julian Day Number to a Gregorian date.
func d2g(jdn int) (gy, gm, gd int) {
	j := 4*jdn + 139361631
	j += (4*jdn+183187720)/146097*3/4*4 - 3908
	i := (j%1461)/4*5 + 308
	gd = (i%153)/5 + 1
	gm = (i/153)%12 + 1
	gy = j/1461 - 100100 + (8-gm)/6
	return gy, gm, gd
}
