package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"finance-analytics/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
	logger *zap.Logger
}

// NewHandler creates and wires the chi router with all routes. Metrics are
// exposed from gatherer, or the default registry when gatherer is nil.
func NewHandler(svc app.ApplicationService, logger *zap.Logger, allowedOrigins string, gatherer prometheus.Gatherer) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h := &Handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(maxBodyBytes))

		// ── Analyses ──────────────────────────────────────────────────────────
		r.Get("/api/kinds", h.listKinds)
		r.Get("/api/summary", h.summary)
		r.Get("/api/analysis/{kind}", h.analyzeAll)
		r.Get("/api/analysis/{kind}/{analysis}", h.analyze)
		r.Post("/api/analysis/{kind}/{analysis}", h.analyzeWithBody)

		// ── Tables and cache ──────────────────────────────────────────────────
		r.Get("/api/files/{kind}", h.fileInfo)
		r.Post("/api/files/{kind}/reload", h.reload)
		r.Post("/api/files/reload", h.reloadAll)
		r.Get("/api/cache", h.cacheInfo)
		r.Post("/api/cache/clear", h.clearCache)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Health(r.Context()))
}

// recordKind extracts the {kind} URL parameter.
func recordKind(r *http.Request) string {
	return chi.URLParam(r, "kind")
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
