package app

// AnalyzeRequest is the input for a single analysis call.
type AnalyzeRequest struct {
	RecordKind   string
	AnalysisKind string
	Params       map[string]any // e.g. top_n, forecast_days
}
