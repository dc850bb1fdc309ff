package web_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finance-analytics/internal/adapters/web"
	"finance-analytics/internal/analysis"
	"finance-analytics/internal/app"
	"finance-analytics/internal/cache"
	"finance-analytics/internal/records"
	"finance-analytics/internal/source"
	"finance-analytics/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var today = time.Date(2025, 4, 21, 15, 30, 0, 0, time.UTC)

func newServer(t *testing.T, tables ...*records.Table) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	c := cache.New(cache.NewMemory(), time.Hour, zap.NewNop())
	st := store.New(source.NewMemory(tables...), c, zap.NewNop())
	e := analysis.NewEngine(st, c, zap.NewNop(),
		analysis.WithClock(func() time.Time { return today }),
		analysis.WithMetrics(analysis.NewMetrics(reg)),
	)
	svc := app.NewAppService(st, e, c, zap.NewNop())
	srv := httptest.NewServer(web.NewHandler(svc, zap.NewNop(), "http://dash.local", reg))
	t.Cleanup(srv.Close)
	return srv
}

func payables() *records.Table {
	return records.NewBuilder(records.Payable, "amount", "due_date", "beneficiary").
		Row(1000, "1404/02/01", "A").
		Row(2000, "1404/02/05", "B").
		Row(500, "1404/02/05", "A").
		Build()
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, url, err)
		}
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/api/health", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestAnalysis(t *testing.T) {
	srv := newServer(t, payables())

	resp, body := do(t, http.MethodGet, srv.URL+"/api/analysis/payable/top_beneficiaries?top_n=1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %v", resp.StatusCode, body)
	}
	if body["cached"] != false || body["cache_key"] == "" {
		t.Errorf("envelope = %v", body)
	}
	data := body["data"].(map[string]any)
	list := data["beneficiaries"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["name"] != "B" {
		t.Errorf("beneficiaries = %v", list)
	}

	resp, body = do(t, http.MethodPost, srv.URL+"/api/analysis/payable/top_beneficiaries", `{"top_n": 1}`)
	if resp.StatusCode != http.StatusOK || body["cached"] != true {
		t.Errorf("POST with equal params: status %d cached %v", resp.StatusCode, body["cached"])
	}
}

func TestAnalysis_Errors(t *testing.T) {
	srv := newServer(t, payables())
	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown kind", http.MethodGet, "/api/analysis/ledger/summary_stats", "", http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown analysis", http.MethodGet, "/api/analysis/payable/astrology", "", http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad top_n", http.MethodGet, "/api/analysis/payable/top_beneficiaries?top_n=x", "", http.StatusBadRequest, "INVALID_REQUEST"},
		{"no data", http.MethodGet, "/api/analysis/invoice/summary_stats", "", http.StatusInternalServerError, "ANALYSIS_FAILED"},
		{"missing file", http.MethodGet, "/api/files/invoice", "", http.StatusNotFound, "NOT_FOUND"},
		{"malformed body", http.MethodPost, "/api/analysis/payable/cumulative", "{", http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, tc.method, srv.URL+tc.path, tc.body)
			if resp.StatusCode != tc.status || body["code"] != tc.code {
				t.Errorf("got %d %v, want %d %s", resp.StatusCode, body, tc.status, tc.code)
			}
			if body["request_id"] == nil {
				t.Error("error response lacks request_id")
			}
		})
	}
}

func TestAnalyzeAllAndSummary(t *testing.T) {
	srv := newServer(t, payables())

	resp, body := do(t, http.MethodGet, srv.URL+"/api/analysis/payable", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if _, ok := body["summary_stats"]; !ok {
		t.Errorf("all analyses lack summary_stats: keys %v", body)
	}
	if _, ok := body["on_time_payment"]; ok {
		t.Error("cross-kind analysis included")
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/api/summary", "")
	if resp.StatusCode != http.StatusOK || len(body) != 1 {
		t.Fatalf("summary = %d %v", resp.StatusCode, body)
	}
	if got := body["Payable"].(map[string]any)["total_sum"]; got != 350.0 {
		t.Errorf("total_sum = %v, want 350", got)
	}
}

func TestFilesAndCache(t *testing.T) {
	srv := newServer(t, payables())

	resp, body := do(t, http.MethodGet, srv.URL+"/api/files/payable", "")
	if resp.StatusCode != http.StatusOK || body["rows"] != 3.0 {
		t.Errorf("file info = %d %v", resp.StatusCode, body)
	}
	resp, body = do(t, http.MethodPost, srv.URL+"/api/files/payable/reload", "")
	if resp.StatusCode != http.StatusOK || body["filepath"] != "memory:payable" {
		t.Errorf("reload = %d %v", resp.StatusCode, body)
	}
	resp, body = do(t, http.MethodPost, srv.URL+"/api/files/reload", "")
	if resp.StatusCode != http.StatusOK || len(body["failed"].([]any)) != 3 {
		t.Errorf("reload all = %d %v", resp.StatusCode, body)
	}
	resp, body = do(t, http.MethodGet, srv.URL+"/api/cache", "")
	if resp.StatusCode != http.StatusOK || body["backend"] != "memory" {
		t.Errorf("cache info = %d %v", resp.StatusCode, body)
	}
	resp, body = do(t, http.MethodPost, srv.URL+"/api/cache/clear", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "cleared" {
		t.Errorf("clear = %d %v", resp.StatusCode, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t, payables())
	do(t, http.MethodGet, srv.URL+"/api/analysis/payable/summary_stats", "")

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "analysis_requests_total") {
		t.Error("metrics output lacks analysis_requests_total")
	}
}

func TestCORS(t *testing.T) {
	srv := newServer(t)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/health", nil)
	req.Header.Set("Origin", "http://dash.local")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || resp.Header.Get("Access-Control-Allow-Origin") != "http://dash.local" {
		t.Errorf("preflight = %d %q", resp.StatusCode, resp.Header.Get("Access-Control-Allow-Origin"))
	}
}
