// Package analysis computes the derived views over normalized record tables:
// time-bucketed aggregates, rankings, cross-kind joins, cash-flow projection
// and trend blending. Results are memoized in the result cache under a key
// derived from the analysis identity and its parameters.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finance-analytics/internal/cache"
	"finance-analytics/internal/calendar"
	"finance-analytics/internal/records"
	"finance-analytics/internal/store"

	"go.uber.org/zap"
)

// ErrUnknownRecordKind is returned for a record kind outside the enumeration.
var ErrUnknownRecordKind = errors.New("unknown record kind")

// Tables supplies normalized tables. *store.Store satisfies it.
type Tables interface {
	Table(ctx context.Context, kind records.Kind, force bool) *records.Table
	Info(ctx context.Context, kind records.Kind) *store.FileInfo
}

// algorithm computes one analysis payload. It returns either a payload, an
// *unavailable payload naming the missing data, or an error.
type algorithm func(in *input) (any, error)

var algorithms = map[Kind]algorithm{
	DailyBreakdown:   dailyBreakdown,
	Cumulative:       cumulative,
	TopBeneficiaries: topBeneficiaries,
	SummaryStats:     summaryStats,
	OnTimePayment:    onTimePayment,
	CustomerLoyalty:  customerLoyalty,
	AdvancedReport:   advancedReport,
	CashFlow:         cashFlow,
	AccountsAging:    accountsAging,
	Profitability:    profitability,
	Forecast:         forecast,
	IntegratedTrend:  integratedTrend,
}

// input is everything an algorithm may read.
type input struct {
	ctx     context.Context
	kind    records.Kind
	primary *records.Table
	tables  Tables
	params  Params
	today   time.Time
}

// table returns the table of k; the primary table is never loaded twice.
func (in *input) table(k records.Kind) *records.Table {
	if k == in.kind {
		return in.primary
	}
	return in.tables.Table(in.ctx, k, false)
}

// Engine runs analyses. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	tables  Tables
	cache   *cache.Cache
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now; the current day drives aging and forecasts.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics records Prometheus metrics for every call.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine returns an engine reading tables from tables and memoizing in c.
// A nil cache disables memoization.
func NewEngine(tables Tables, c *cache.Cache, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{tables: tables, cache: c, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CacheKey derives the result-cache key of one analysis call.
func CacheKey(rk records.Kind, ak Kind, params map[string]any) string {
	return cache.DeriveKey("analysis:"+rk.Slug()+":"+ak.ID(), params)
}

// Analyze runs one analysis. A nil error always comes with a Computed or
// Unavailable result. Failures are logged here and reported as ErrNoResult;
// unrecognized kinds as ErrUnknownRecordKind or ErrUnknownAnalysis.
func (e *Engine) Analyze(ctx context.Context, rk records.Kind, ak Kind, params Params) (*Result, error) {
	if !rk.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRecordKind, int(rk))
	}
	alg, ok := algorithms[ak]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAnalysis, int(ak))
	}

	start := time.Now()
	now := e.now()
	today := calendar.Day(now)
	keyParams := params.clone()
	if ak.DateDependent() {
		keyParams[paramAsOf] = today.Format(calendar.LayoutISO)
	}
	key := CacheKey(rk, ak, keyParams)
	log := e.logger.With(zap.String("record_kind", rk.ID()), zap.String("analysis_kind", ak.ID()))

	if e.cache != nil {
		data, hit := e.cache.Get(ctx, key)
		e.metrics.lookup(ak.ID(), hit)
		if hit {
			outcome := outcomeOf(data)
			log.Debug("analysis served from cache", zap.String("cache_key", key))
			e.metrics.observe(rk.ID(), ak.ID(), outcome, time.Since(start))
			return &Result{
				RecordKind:   rk,
				AnalysisKind: ak,
				Data:         json.RawMessage(data),
				ComputedAt:   now,
				CacheKey:     key,
				Outcome:      outcome,
				Cached:       true,
			}, nil
		}
	}

	primary := e.tables.Table(ctx, rk, false)
	if primary.Empty() && !ak.CrossKind() {
		log.Error("no data available for analysis")
		e.metrics.observe(rk.ID(), ak.ID(), Failed, time.Since(start))
		return nil, fmt.Errorf("%s/%s: no data available: %w", rk.ID(), ak.ID(), ErrNoResult)
	}

	in := &input{ctx: ctx, kind: rk, primary: primary, tables: e.tables, params: params, today: today}
	payload, err := e.run(log, alg, in)
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
		e.metrics.observe(rk.ID(), ak.ID(), Failed, time.Since(start))
		return nil, fmt.Errorf("%s/%s: %v: %w", rk.ID(), ak.ID(), err, ErrNoResult)
	}

	outcome := Computed
	if _, ok := payload.(*unavailable); ok {
		outcome = Unavailable
	}
	data, err := json.Marshal(clean(payload))
	if err != nil {
		log.Error("analysis result not serializable", zap.Error(err))
		e.metrics.observe(rk.ID(), ak.ID(), Failed, time.Since(start))
		return nil, fmt.Errorf("%s/%s: %v: %w", rk.ID(), ak.ID(), err, ErrNoResult)
	}

	if e.cache != nil {
		e.cache.Set(ctx, key, data)
	}
	e.metrics.observe(rk.ID(), ak.ID(), outcome, time.Since(start))
	log.Info("analysis computed",
		zap.String("cache_key", key),
		zap.String("outcome", outcome.String()),
		zap.Duration("took", time.Since(start)),
	)
	return &Result{
		RecordKind:   rk,
		AnalysisKind: ak,
		Data:         data,
		ComputedAt:   now,
		CacheKey:     key,
		Outcome:      outcome,
	}, nil
}

// run invokes alg, converting a panic into an error.
func (e *Engine) run(log *zap.Logger, alg algorithm, in *input) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("analysis panicked", zap.Any("panic", r), zap.Stack("stack"))
			payload, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return alg(in)
}

// AnalyzeAll runs every single-kind analysis for rk, omitting those that
// produced no result. Cross-kind analyses are skipped.
func (e *Engine) AnalyzeAll(ctx context.Context, rk records.Kind) map[Kind]*Result {
	out := make(map[Kind]*Result)
	for _, ak := range Kinds() {
		if ak.CrossKind() {
			continue
		}
		res, err := e.Analyze(ctx, rk, ak, nil)
		if err != nil {
			continue
		}
		out[ak] = res
	}
	return out
}

// Summary runs SummaryStats for every record kind, omitting failures.
func (e *Engine) Summary(ctx context.Context) map[records.Kind]*Result {
	out := make(map[records.Kind]*Result)
	for _, rk := range records.Kinds() {
		res, err := e.Analyze(ctx, rk, SummaryStats, nil)
		if err != nil {
			continue
		}
		out[rk] = res
	}
	return out
}

// FileInfo describes rk's table, or nil when it cannot be loaded.
func (e *Engine) FileInfo(ctx context.Context, rk records.Kind) *store.FileInfo {
	if !rk.Valid() {
		return nil
	}
	return e.tables.Info(ctx, rk)
}
