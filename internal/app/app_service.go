package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"finance-analytics/internal/analysis"
	"finance-analytics/internal/cache"
	"finance-analytics/internal/records"
	"finance-analytics/internal/store"

	"go.uber.org/zap"
)

const healthMessage = "Finance analytics API is running"

// integerParams are the analysis parameters that must parse as integers.
var integerParams = []string{analysis.ParamTopN, analysis.ParamForecastDays}

type appService struct {
	store  *store.Store
	engine *analysis.Engine
	cache  *cache.Cache
	logger *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	st *store.Store,
	engine *analysis.Engine,
	c *cache.Cache,
	logger *zap.Logger,
) ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &appService{
		store:  st,
		engine: engine,
		cache:  c,
		logger: logger,
	}
}

// Analyze runs one analysis after resolving both kinds.
func (s *appService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResult, error) {
	rk, err := parseRecordKind(req.RecordKind)
	if err != nil {
		return nil, err
	}
	ak, err := analysis.ParseKind(req.AnalysisKind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	params, err := normalizeParams(req.Params)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Analyze(ctx, rk, ak, params)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{Result: res}, nil
}

// AnalyzeAll runs every single-kind analysis for a record kind.
func (s *appService) AnalyzeAll(ctx context.Context, recordKind string) (*AnalysisSetResult, error) {
	rk, err := parseRecordKind(recordKind)
	if err != nil {
		return nil, err
	}
	out := &AnalysisSetResult{RecordKind: rk, Results: map[string]*analysis.Result{}}
	for ak, res := range s.engine.AnalyzeAll(ctx, rk) {
		out.Results[ak.ID()] = res
	}
	return out, nil
}

// Summary collects SummaryStats payloads by record kind id.
func (s *appService) Summary(ctx context.Context) (*SummaryResult, error) {
	out := &SummaryResult{Kinds: map[string]json.RawMessage{}}
	for rk, res := range s.engine.Summary(ctx) {
		out.Kinds[rk.ID()] = res.Data
	}
	return out, nil
}

// FileInfo describes the loaded table of a record kind.
func (s *appService) FileInfo(ctx context.Context, recordKind string) (*FileInfoResult, error) {
	rk, err := parseRecordKind(recordKind)
	if err != nil {
		return nil, err
	}
	info := s.engine.FileInfo(ctx, rk)
	if info == nil {
		return nil, fmt.Errorf("%s table: %w", rk.ID(), ErrNotFound)
	}
	return &FileInfoResult{Info: info}, nil
}

// ListKinds returns every record and analysis kind in declaration order.
func (s *appService) ListKinds() *KindListResult {
	return &KindListResult{
		RecordKinds:   records.Kinds(),
		AnalysisKinds: analysis.Kinds(),
	}
}

// Reload re-reads one record kind, or every kind when recordKind is empty.
// Analysis keys do not encode the data version, so the whole result cache
// is cleared as well.
func (s *appService) Reload(ctx context.Context, recordKind string) (*ReloadResult, error) {
	out := &ReloadResult{}
	if strings.TrimSpace(recordKind) == "" {
		s.store.Invalidate(ctx)
		tables := s.store.LoadAll(ctx, true)
		for _, k := range records.Kinds() {
			if tables[k] == nil {
				out.Failed = append(out.Failed, k.ID())
				continue
			}
			out.Files = append(out.Files, s.store.Info(ctx, k))
		}
		s.logger.Info("tables reloaded", zap.Int("loaded", len(out.Files)), zap.Strings("failed", out.Failed))
		return out, nil
	}

	rk, err := parseRecordKind(recordKind)
	if err != nil {
		return nil, err
	}
	s.store.Invalidate(ctx, rk)
	if s.cache != nil {
		s.cache.Clear(ctx)
	}
	if s.store.Load(ctx, rk, true) == nil {
		out.Failed = []string{rk.ID()}
		return out, fmt.Errorf("%s table: %w", rk.ID(), ErrNotFound)
	}
	out.Files = []*store.FileInfo{s.store.Info(ctx, rk)}
	s.logger.Info("table reloaded", zap.Stringer("kind", rk))
	return out, nil
}

// CacheInfo reports cache counters, or a placeholder when caching is off.
func (s *appService) CacheInfo(ctx context.Context) cache.Info {
	if s.cache == nil {
		return cache.Info{Backend: "none"}
	}
	return s.cache.Info(ctx)
}

// ClearCache drops in-memory tables and every cached entry.
func (s *appService) ClearCache(ctx context.Context) error {
	s.store.Invalidate(ctx)
	return nil
}

// Health reports liveness.
func (s *appService) Health(_ context.Context) *HealthResult {
	return &HealthResult{Status: "ok", Message: healthMessage}
}

// parseRecordKind wraps records.ParseKind errors as invalid requests.
func parseRecordKind(s string) (records.Kind, error) {
	rk, err := records.ParseKind(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return rk, nil
}

// normalizeParams converts numeric strings of integer parameters to ints so
// that query-string and JSON callers derive the same cache key. Other
// parameters pass through unchanged.
func normalizeParams(in map[string]any) (analysis.Params, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(analysis.Params, len(in))
	for k, v := range in {
		out[k] = v
	}
	for _, name := range integerParams {
		v, ok := out[name]
		if !ok {
			continue
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %s must be a positive integer, got %q", ErrInvalidRequest, name, str)
		}
		out[name] = n
	}
	return out, nil
}

// sortedIDs returns the keys of m in ascending order.
func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
