package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"finance-analytics/internal/analysis"
	"finance-analytics/internal/app"
	"finance-analytics/internal/cache"
	"finance-analytics/internal/records"
	"finance-analytics/internal/source"
	"finance-analytics/internal/store"

	"go.uber.org/zap"
)

var today = time.Date(2025, 4, 21, 15, 30, 0, 0, time.UTC)

func payables(amounts ...int) *records.Table {
	b := records.NewBuilder(records.Payable, "amount", "due_date", "beneficiary")
	for i, a := range amounts {
		b.Row(a, "1404/02/01", string(rune('A'+i)))
	}
	return b.Build()
}

func newService(src source.Source) app.ApplicationService {
	c := cache.New(cache.NewMemory(), time.Hour, zap.NewNop())
	st := store.New(src, c, zap.NewNop())
	e := analysis.NewEngine(st, c, zap.NewNop(), analysis.WithClock(func() time.Time { return today }))
	return app.NewAppService(st, e, c, zap.NewNop())
}

func totalSum(t *testing.T, data json.RawMessage) float64 {
	t.Helper()
	var got struct {
		TotalSum float64 `json:"total_sum"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return got.TotalSum
}

func TestAnalyze_InvalidRequests(t *testing.T) {
	svc := newService(source.NewMemory(payables(100)))
	ctx := context.Background()

	cases := []struct {
		name string
		req  app.AnalyzeRequest
	}{
		{"unknown record kind", app.AnalyzeRequest{RecordKind: "ledger", AnalysisKind: "summary_stats"}},
		{"unknown analysis", app.AnalyzeRequest{RecordKind: "payable", AnalysisKind: "regression"}},
		{"malformed top_n", app.AnalyzeRequest{RecordKind: "payable", AnalysisKind: "top_beneficiaries",
			Params: map[string]any{analysis.ParamTopN: "many"}}},
		{"non-positive top_n", app.AnalyzeRequest{RecordKind: "payable", AnalysisKind: "top_beneficiaries",
			Params: map[string]any{analysis.ParamTopN: "0"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Analyze(ctx, tc.req); !errors.Is(err, app.ErrInvalidRequest) {
				t.Errorf("err = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestAnalyze_StringParamsShareCacheKey(t *testing.T) {
	svc := newService(source.NewMemory(payables(100, 200)))
	ctx := context.Background()

	first, err := svc.Analyze(ctx, app.AnalyzeRequest{
		RecordKind: "Payable", AnalysisKind: "top_beneficiaries",
		Params: map[string]any{analysis.ParamTopN: "1"},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := svc.Analyze(ctx, app.AnalyzeRequest{
		RecordKind: "payable", AnalysisKind: "TopBeneficiaries",
		Params: map[string]any{analysis.ParamTopN: 1},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if first.Result.CacheKey != second.Result.CacheKey {
		t.Errorf("cache keys differ: %s vs %s", first.Result.CacheKey, second.Result.CacheKey)
	}
	if !second.Result.Cached {
		t.Error("second call was not served from cache")
	}
}

func TestAnalyze_NoDataIsNoResult(t *testing.T) {
	svc := newService(source.NewMemory())
	_, err := svc.Analyze(context.Background(), app.AnalyzeRequest{RecordKind: "invoice", AnalysisKind: "summary_stats"})
	if !errors.Is(err, analysis.ErrNoResult) {
		t.Errorf("err = %v, want ErrNoResult", err)
	}
}

func TestAnalyzeAll(t *testing.T) {
	svc := newService(source.NewMemory(payables(100)))
	res, err := svc.AnalyzeAll(context.Background(), "payable")
	if err != nil {
		t.Fatalf("AnalyzeAll: %v", err)
	}
	ids := res.IDs()
	if len(ids) == 0 {
		t.Fatal("no analyses returned")
	}
	for _, id := range ids {
		ak, err := analysis.ParseKind(id)
		if err != nil {
			t.Fatalf("result id %q: %v", id, err)
		}
		if ak.CrossKind() {
			t.Errorf("cross-kind analysis %q included", id)
		}
	}
	if _, err := svc.AnalyzeAll(context.Background(), "nope"); !errors.Is(err, app.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestSummary_OmitsMissingKinds(t *testing.T) {
	svc := newService(source.NewMemory(payables(100, 50)))
	res, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if ids := res.IDs(); len(ids) != 1 || ids[0] != "Payable" {
		t.Fatalf("summary kinds = %v", ids)
	}
	if got := totalSum(t, res.Kinds["Payable"]); got != 15 {
		t.Errorf("total_sum = %v, want 15", got)
	}
}

func TestFileInfo(t *testing.T) {
	svc := newService(source.NewMemory(payables(100, 200, 300)))
	ctx := context.Background()

	res, err := svc.FileInfo(ctx, "payables")
	if err != nil {
		t.Fatalf("FileInfo: %v", err)
	}
	if res.Info.Rows != 3 || res.Info.Kind != records.Payable {
		t.Errorf("info = %+v", res.Info)
	}
	if _, err := svc.FileInfo(ctx, "invoice"); !errors.Is(err, app.ErrNotFound) {
		t.Errorf("missing table err = %v, want ErrNotFound", err)
	}
}

func TestReload_PicksUpSourceChanges(t *testing.T) {
	src := source.NewMemory(payables(100))
	svc := newService(src)
	ctx := context.Background()
	req := app.AnalyzeRequest{RecordKind: "payable", AnalysisKind: "summary_stats"}

	before, err := svc.Analyze(ctx, req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got := totalSum(t, before.Result.Data); got != 10 {
		t.Fatalf("total_sum = %v, want 10", got)
	}

	src.Put(payables(100, 400))
	res, err := svc.Reload(ctx, "payable")
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0].Rows != 2 {
		t.Fatalf("reloaded files = %+v", res.Files)
	}

	after, err := svc.Analyze(ctx, req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if after.Result.Cached {
		t.Error("stale result served from cache after reload")
	}
	if got := totalSum(t, after.Result.Data); got != 50 {
		t.Errorf("total_sum = %v, want 50", got)
	}
}

func TestReload_AllReportsFailures(t *testing.T) {
	svc := newService(source.NewMemory(payables(100)))
	res, err := svc.Reload(context.Background(), "")
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(res.Files) != 1 || len(res.Failed) != 3 {
		t.Errorf("files = %d, failed = %v", len(res.Files), res.Failed)
	}
	if _, err := svc.Reload(context.Background(), "invoice"); !errors.Is(err, app.ErrNotFound) {
		t.Errorf("single reload err = %v, want ErrNotFound", err)
	}
}

func TestCacheInfoAndClear(t *testing.T) {
	svc := newService(source.NewMemory(payables(100)))
	ctx := context.Background()
	req := app.AnalyzeRequest{RecordKind: "payable", AnalysisKind: "summary_stats"}
	if _, err := svc.Analyze(ctx, req); err != nil {
		t.Fatal(err)
	}

	info := svc.CacheInfo(ctx)
	if info.Backend != "memory" || info.Misses == 0 {
		t.Errorf("cache info = %+v", info)
	}
	if err := svc.ClearCache(ctx); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	res, err := svc.Analyze(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Result.Cached {
		t.Error("result served from cache after clear")
	}
}

func TestHealthAndKinds(t *testing.T) {
	svc := newService(source.NewMemory())
	if h := svc.Health(context.Background()); h.Status != "ok" {
		t.Errorf("health = %+v", h)
	}
	kinds := svc.ListKinds()
	if len(kinds.RecordKinds) != 4 || len(kinds.AnalysisKinds) != 12 {
		t.Errorf("kinds = %d record, %d analysis", len(kinds.RecordKinds), len(kinds.AnalysisKinds))
	}
}
