package web

import (
	"net/http"

	"finance-analytics/internal/store"
)

type reloadResponse struct {
	Files  []*store.FileInfo `json:"files"`
	Failed []string          `json:"failed"`
}

// fileInfo describes the loaded table of one record kind.
func (h *Handler) fileInfo(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.FileInfo(r.Context(), recordKind(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.Info)
}

// reload forces a re-read of one record kind and returns its file info.
func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Reload(r.Context(), recordKind(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.Files[0])
}

// reloadAll re-reads every record kind.
func (h *Handler) reloadAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Reload(r.Context(), "")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := reloadResponse{Files: res.Files, Failed: res.Failed}
	if out.Files == nil {
		out.Files = []*store.FileInfo{}
	}
	if out.Failed == nil {
		out.Failed = []string{}
	}
	writeJSON(w, out)
}

// cacheInfo reports result-cache statistics.
func (h *Handler) cacheInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.CacheInfo(r.Context()))
}

// clearCache drops every cached table and result.
func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearCache(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "cleared"})
}
