package web

import (
	"encoding/json"
	"net/http"

	"finance-analytics/internal/analysis"
	"finance-analytics/internal/app"
	"finance-analytics/internal/records"

	"github.com/go-chi/chi/v5"
)

type kindsResponse struct {
	RecordKinds   []records.Kind  `json:"record_kinds"`
	AnalysisKinds []analysis.Kind `json:"analysis_kinds"`
}

// listKinds returns the record and analysis kinds with their labels.
func (h *Handler) listKinds(w http.ResponseWriter, r *http.Request) {
	k := h.svc.ListKinds()
	writeJSON(w, kindsResponse{RecordKinds: k.RecordKinds, AnalysisKinds: k.AnalysisKinds})
}

// analyze runs one analysis. Query parameters become analysis parameters.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	params := make(map[string]any)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}
	h.runAnalysis(w, r, params)
}

// analyzeWithBody runs one analysis with parameters from a JSON object body.
func (h *Handler) analyzeWithBody(w http.ResponseWriter, r *http.Request) {
	var params map[string]any
	if !decodeJSON(w, r, &params) {
		return
	}
	h.runAnalysis(w, r, params)
}

func (h *Handler) runAnalysis(w http.ResponseWriter, r *http.Request, params map[string]any) {
	res, err := h.svc.Analyze(r.Context(), app.AnalyzeRequest{
		RecordKind:   recordKind(r),
		AnalysisKind: chi.URLParam(r, "analysis"),
		Params:       params,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.Result.Serialize())
}

// analyzeAll returns each analysis result for one record kind, keyed by analysis id.
func (h *Handler) analyzeAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.AnalyzeAll(r.Context(), recordKind(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make(map[string]analysis.Serialized, len(res.Results))
	for id, result := range res.Results {
		out[id] = result.Serialize()
	}
	writeJSON(w, out)
}

// summary returns summary statistics keyed by record kind id.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make(map[string]json.RawMessage, len(res.Kinds))
	for id, data := range res.Kinds {
		out[id] = data
	}
	writeJSON(w, out)
}
