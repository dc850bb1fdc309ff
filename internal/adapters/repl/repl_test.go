package repl_test

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"finance-analytics/internal/adapters/repl"
	"finance-analytics/internal/analysis"
	"finance-analytics/internal/app"
	"finance-analytics/internal/cache"
	"finance-analytics/internal/records"
	"finance-analytics/internal/source"
	"finance-analytics/internal/store"

	"go.uber.org/zap"
)

func newService() app.ApplicationService {
	tbl := records.NewBuilder(records.Receivable, "amount", "due_date", "company_name").
		Row(5000, "1404/03/01", "Acme").
		Build()
	c := cache.New(cache.NewMemory(), time.Hour, zap.NewNop())
	st := store.New(source.NewMemory(tbl), c, zap.NewNop())
	return app.NewAppService(st, analysis.NewEngine(st, c, zap.NewNop()), c, zap.NewNop())
}

func TestRun(t *testing.T) {
	in := strings.Join([]string{
		"/help",
		"",
		"info receivable",
		"/analyze receivable nonsense",
		"/quit",
		"kinds",
	}, "\n")
	var out bytes.Buffer
	if err := repl.Run(context.Background(), newService(), bufio.NewReader(strings.NewReader(in)), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Usage: app", "Rows     : 1", "Error: ", "Goodbye!"} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Record kinds:") {
		t.Error("command after /quit was executed")
	}
}

func TestRun_EndsAtEOF(t *testing.T) {
	var out bytes.Buffer
	err := repl.Run(context.Background(), newService(), bufio.NewReader(strings.NewReader("cache")), &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), `"backend": "memory"`) {
		t.Errorf("last line without newline was not executed:\n%s", out.String())
	}
}
