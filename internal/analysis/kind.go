package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies one of the twelve analyses.
type Kind int

const (
	DailyBreakdown Kind = iota
	Cumulative
	TopBeneficiaries
	SummaryStats
	OnTimePayment
	CustomerLoyalty
	AdvancedReport
	CashFlow
	AccountsAging
	Profitability
	Forecast
	IntegratedTrend
)

type kindInfo struct {
	id    string
	slug  string
	label string
}

var kindInfos = [...]kindInfo{
	DailyBreakdown:   {"DailyBreakdown", "daily_breakdown", "تفکیک روزانه"},
	Cumulative:       {"Cumulative", "cumulative", "تجمعی"},
	TopBeneficiaries: {"TopBeneficiaries", "top_beneficiaries", "برترین ذینفعان"},
	SummaryStats:     {"SummaryStats", "summary_stats", "آمار خلاصه"},
	OnTimePayment:    {"OnTimePayment", "on_time_payment", "پرداخت به موقع"},
	CustomerLoyalty:  {"CustomerLoyalty", "customer_loyalty", "وفاداری مشتری"},
	AdvancedReport:   {"AdvancedReport", "advanced_report", "گزارش مدیریتی"},
	CashFlow:         {"CashFlow", "cash_flow", "جریان نقدی"},
	AccountsAging:    {"AccountsAging", "accounts_aging", "سنی حساب‌ها"},
	Profitability:    {"Profitability", "profitability_analysis", "تحلیل سودآوری"},
	Forecast:         {"Forecast", "forecast", "پیش‌بینی نقدینگی"},
	IntegratedTrend:  {"IntegratedTrend", "integrated_trend", "روند یکپارچه"},
}

// Kinds returns every analysis in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindInfos))
	for i := range kindInfos {
		out[i] = Kind(i)
	}
	return out
}

// CrossKind reports whether k reads several record kinds and therefore
// tolerates a missing primary table. Such analyses are left out of
// AnalyzeAll.
func (k Kind) CrossKind() bool {
	return k == OnTimePayment || k == AdvancedReport
}

// DateDependent reports whether k's result depends on the current day.
func (k Kind) DateDependent() bool {
	return k == CashFlow || k == AccountsAging || k == Forecast
}

func (k Kind) Valid() bool { return k >= 0 && int(k) < len(kindInfos) }

// ID is the stable machine identifier, used in cache keys and URLs.
func (k Kind) ID() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindInfos[k].slug
}

// Name is the CamelCase name of k.
func (k Kind) Name() string {
	if !k.Valid() {
		return k.ID()
	}
	return kindInfos[k].id
}

// Label is the Persian display label.
func (k Kind) Label() string {
	if !k.Valid() {
		return ""
	}
	return kindInfos[k].label
}

func (k Kind) String() string { return k.ID() }

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}{k.ID(), k.Label()})
}

// ParseKind accepts the snake_case id or the CamelCase name, ignoring case
// and hyphens.
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for i, info := range kindInfos {
		if key == info.slug || key == strings.ToLower(info.id) {
			return Kind(i), nil
		}
	}
	if key == "profitability" {
		return Profitability, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAnalysis, s)
}
