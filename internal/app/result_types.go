package app

import (
	"encoding/json"

	"finance-analytics/internal/analysis"
	"finance-analytics/internal/records"
	"finance-analytics/internal/store"
)

// AnalysisResult is returned by Analyze.
type AnalysisResult struct {
	Result *analysis.Result
}

// AnalysisSetResult is returned by AnalyzeAll, keyed by analysis id.
type AnalysisSetResult struct {
	RecordKind records.Kind
	Results    map[string]*analysis.Result
}

// SummaryResult is returned by Summary: record kind id to the summary payload.
type SummaryResult struct {
	Kinds map[string]json.RawMessage
}

// FileInfoResult is returned by FileInfo.
type FileInfoResult struct {
	Info *store.FileInfo
}

// ReloadResult is returned by Reload. Failed lists kinds whose source could
// not be read.
type ReloadResult struct {
	Files  []*store.FileInfo
	Failed []string
}

// KindListResult is returned by ListKinds.
type KindListResult struct {
	RecordKinds   []records.Kind
	AnalysisKinds []analysis.Kind
}

// HealthResult is returned by Health.
type HealthResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// IDs returns the analysis ids present, sorted.
func (r *AnalysisSetResult) IDs() []string { return sortedIDs(r.Results) }

// IDs returns the record kind ids present, sorted.
func (r *SummaryResult) IDs() []string { return sortedIDs(r.Kinds) }
