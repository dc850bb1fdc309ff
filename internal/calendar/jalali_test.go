package calendar_test

import (
	"testing"
	"time"

	"finance-analytics/internal/calendar"
)

func TestToGregorian_KnownDates(t *testing.T) {
	tests := []struct {
		jalali string
		want   string
	}{
		{"1404/01/01", "2025-03-21"},
		{"1403/01/01", "2024-03-20"},
		{"1403/12/30", "2025-03-20"},
		{"1399/12/30", "2021-03-20"},
		{"1400/01/01", "2021-03-21"},
		{"1367/11/22", "1989-02-11"},
		{"1404/1/5", "2025-03-25"},
		{"1404/01/18 10:30:00", "2025-04-07"},
	}
	for _, tt := range tests {
		got, ok := calendar.ToGregorian(tt.jalali)
		if !ok {
			t.Errorf("ToGregorian(%q): unexpected failure", tt.jalali)
			continue
		}
		if got.Format(calendar.LayoutISO) != tt.want {
			t.Errorf("ToGregorian(%q) = %s, want %s", tt.jalali, got.Format(calendar.LayoutISO), tt.want)
		}
	}
}

func TestToGregorian_Invalid(t *testing.T) {
	var nilTime *time.Time
	inputs := []any{
		nil,
		"",
		"not-a-date",
		"1404/13/01",
		"1404/07/31",
		"1404/12/30", // 1404 is not a leap year
		"1404-01-01",
		"1404/01",
		nilTime,
		42,
	}
	for _, in := range inputs {
		if got, ok := calendar.ToGregorian(in); ok {
			t.Errorf("ToGregorian(%#v) = %v, want failure", in, got)
		}
	}
}

func TestToGregorian_PassesThroughTime(t *testing.T) {
	in := time.Date(2025, 3, 21, 15, 4, 5, 0, time.UTC)
	got, ok := calendar.ToGregorian(in)
	if !ok {
		t.Fatal("expected time.Time to be accepted")
	}
	if !got.Equal(time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v, want the same calendar day", got)
	}
}

func TestToLocal(t *testing.T) {
	if got := calendar.ToLocal(nil); got != "" {
		t.Errorf("ToLocal(nil) = %q, want empty", got)
	}
	if got := calendar.ToLocal(time.Time{}); got != "" {
		t.Errorf("ToLocal(zero) = %q, want empty", got)
	}
	if got := calendar.ToLocal("raw"); got != "raw" {
		t.Errorf("ToLocal(raw) = %q, want fallback to input", got)
	}
	got := calendar.ToLocal(time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC))
	if got != "1404/01/05" {
		t.Errorf("ToLocal(2025-03-25) = %q, want 1404/01/05", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for jy := 1300; jy <= 1500; jy++ {
		for jm := 1; jm <= 12; jm++ {
			for jd := 1; jd <= calendar.MonthLength(jy, jm); jd++ {
				d := calendar.Date{Year: jy, Month: jm, Day: jd}
				g, ok := calendar.ToGregorian(d.String())
				if !ok {
					t.Fatalf("ToGregorian(%s) failed", d)
				}
				if back := calendar.ToLocal(g); back != d.String() {
					t.Fatalf("round trip %s -> %s -> %s", d, g.Format(calendar.LayoutISO), back)
				}
			}
		}
	}
}

func TestRoundTrip_ConsecutiveDays(t *testing.T) {
	start, _ := calendar.ToGregorian("1390/01/01")
	prev := calendar.ToLocal(start)
	for i := 1; i < 365*20; i++ {
		day := start.AddDate(0, 0, i)
		cur := calendar.ToLocal(day)
		if cur <= prev {
			t.Fatalf("jalali dates not increasing: %s then %s", prev, cur)
		}
		prev = cur
	}
}

func TestIsLeap(t *testing.T) {
	leap := map[int]bool{1399: true, 1403: true, 1404: false, 1400: false, 1408: true}
	for y, want := range leap {
		if got := calendar.IsLeap(y); got != want {
			t.Errorf("IsLeap(%d) = %v, want %v", y, got, want)
		}
	}
}
