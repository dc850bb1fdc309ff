package app

import (
	"context"
	"errors"

	"finance-analytics/internal/cache"
)

var (
	// ErrInvalidRequest is returned when a record kind, analysis kind or
	// parameter cannot be interpreted.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound is returned when a record table cannot be loaded.
	ErrNotFound = errors.New("not found")
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from the analytics engine. Implementations must
// contain no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// Analyze runs one analysis. Kinds are given by their machine ids.
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResult, error)

	// AnalyzeAll runs every single-kind analysis for a record kind, omitting
	// analyses that produced no result.
	AnalyzeAll(ctx context.Context, recordKind string) (*AnalysisSetResult, error)

	// Summary returns the summary statistics of every record kind that has data.
	Summary(ctx context.Context) (*SummaryResult, error)

	// FileInfo describes the loaded table of a record kind.
	FileInfo(ctx context.Context, recordKind string) (*FileInfoResult, error)

	// ListKinds returns the record and analysis kinds the engine understands.
	ListKinds() *KindListResult

	// Reload forces a re-read of one record kind from its source, or of all
	// kinds when recordKind is empty. Cached analysis results are discarded.
	Reload(ctx context.Context, recordKind string) (*ReloadResult, error)

	// CacheInfo reports result-cache counters and backend statistics.
	CacheInfo(ctx context.Context) cache.Info

	// ClearCache drops every cached table and analysis result.
	ClearCache(ctx context.Context) error

	// Health reports liveness.
	Health(ctx context.Context) *HealthResult
}
