package analysis

import (
	"encoding/json"
	"errors"
	"time"

	"finance-analytics/internal/records"
)

var (
	// ErrNoResult is returned when an analysis produced no usable result.
	// The cause has already been logged.
	ErrNoResult = errors.New("analysis produced no result")

	// ErrUnknownAnalysis is returned for an unrecognized analysis kind.
	ErrUnknownAnalysis = errors.New("unknown analysis kind")
)

// Outcome tags how an analysis call ended.
type Outcome int

const (
	// Computed results carry a populated payload.
	Computed Outcome = iota
	// Unavailable results carry an {"error": ...} payload explaining which
	// data was missing.
	Unavailable
	// Failed calls produced nothing; Analyze reports them as ErrNoResult.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Computed:
		return "computed"
	case Unavailable:
		return "unavailable"
	default:
		return "failed"
	}
}

// Result is the envelope around one analysis payload. Data is the cleaned,
// serialized payload; a cache hit returns the stored bytes unchanged with a
// fresh ComputedAt.
type Result struct {
	RecordKind   records.Kind
	AnalysisKind Kind
	Data         json.RawMessage
	ComputedAt   time.Time
	CacheKey     string
	Outcome      Outcome
	Cached       bool
}

// Serialized is the wire form of a Result.
type Serialized struct {
	RecordKind   records.Kind    `json:"record_kind"`
	AnalysisKind Kind            `json:"analysis_kind"`
	Data         json.RawMessage `json:"data"`
	ComputedAt   string          `json:"computed_at"`
	CacheKey     string          `json:"cache_key"`
	Cached       bool            `json:"cached"`
}

// Serialize returns the wire form with an ISO-8601 timestamp.
func (r *Result) Serialize() Serialized {
	return Serialized{
		RecordKind:   r.RecordKind,
		AnalysisKind: r.AnalysisKind,
		Data:         r.Data,
		ComputedAt:   r.ComputedAt.Format(time.RFC3339Nano),
		CacheKey:     r.CacheKey,
		Cached:       r.Cached,
	}
}

func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Serialize())
}

// unavailable is the payload of an Unavailable outcome.
type unavailable struct {
	Error string `json:"error"`
}

func noData(msg string) *unavailable { return &unavailable{Error: msg} }

// outcomeOf classifies a stored payload: a top-level "error" key marks it
// Unavailable.
func outcomeOf(data []byte) Outcome {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Computed
	}
	if _, ok := top["error"]; ok {
		return Unavailable
	}
	return Computed
}
