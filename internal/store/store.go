// Package store holds one normalized table per record kind.
//
// Tables are loaded from a source.Source, cleaned, scaled to the secondary
// currency unit, written through to the result cache, and then published
// atomically: readers see either the previous table or the complete new one.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"finance-analytics/internal/cache"
	"finance-analytics/internal/records"
	"finance-analytics/internal/source"

	"go.uber.org/zap"
)

// artifactColumns are index columns left behind by exports and ORMs.
var artifactColumns = []string{"Unnamed: 0", "_sa_instance_state"}

// CacheKey returns the result-cache key of a kind's table.
func CacheKey(kind records.Kind) string {
	return "db_data:" + kind.Slug()
}

// Store is safe for concurrent use.
type Store struct {
	src    source.Source
	cache  *cache.Cache
	logger *zap.Logger
	now    func() time.Time

	mu     sync.RWMutex
	tables map[records.Kind]*records.Table

	// loading serializes loads of the same kind; different kinds load
	// independently.
	loading map[records.Kind]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for load timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store reading from src.
func New(src source.Source, c *cache.Cache, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		src:     src,
		cache:   c,
		logger:  logger,
		now:     time.Now,
		tables:  map[records.Kind]*records.Table{},
		loading: map[records.Kind]*sync.Mutex{},
	}
	for _, k := range records.Kinds() {
		s.loading[k] = &sync.Mutex{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads kind into memory and returns it. Without force, a table found in
// the result cache is used instead of the source. A missing or unreadable
// source is logged and yields nil.
func (s *Store) Load(ctx context.Context, kind records.Kind, force bool) *records.Table {
	mu := s.loading[kind]
	if mu == nil {
		s.logger.Error("unknown record kind", zap.Stringer("kind", kind))
		return nil
	}
	mu.Lock()
	defer mu.Unlock()

	key := CacheKey(kind)
	if !force && s.cache != nil {
		var cached records.Table
		if s.cache.GetJSON(ctx, key, &cached) && cached.Kind == kind {
			s.logger.Debug("table loaded from cache", zap.Stringer("kind", kind), zap.Int("rows", cached.Len()))
			s.publish(kind, &cached)
			return &cached
		}
	}

	start := time.Now()
	raw, err := s.src.Read(ctx, kind)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			s.logger.Warn("record source not found", zap.Stringer("kind", kind), zap.Error(err))
		} else {
			s.logger.Error("record source read failed", zap.Stringer("kind", kind), zap.Error(err))
		}
		return nil
	}

	t := Normalize(raw).Stamped(s.src.Location(kind), s.now())
	if t.Empty() {
		s.logger.Warn("record table is empty", zap.Stringer("kind", kind), zap.String("source", t.Source))
	}
	if s.cache != nil {
		s.cache.SetJSON(ctx, key, t)
	}
	s.publish(kind, t)
	s.logger.Info("table loaded",
		zap.Stringer("kind", kind),
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Columns)),
		zap.String("source", t.Source),
		zap.Duration("took", time.Since(start)),
	)
	return t
}

// Normalize drops artifact columns and fully empty rows and scales the
// kind's amount columns by records.ScaleFactor. It must be applied exactly
// once per raw table.
func Normalize(raw *records.Table) *records.Table {
	schema := records.SchemaFor(raw.Kind)
	return raw.
		WithoutColumns(artifactColumns...).
		WithoutEmptyRows().
		Scaled(records.ScaleFactor, schema.AmountColumns...)
}

func (s *Store) publish(kind records.Kind, t *records.Table) {
	s.mu.Lock()
	s.tables[kind] = t
	s.mu.Unlock()
}

// Table returns the in-memory table of kind, loading it when absent or when
// force is set.
func (s *Store) Table(ctx context.Context, kind records.Kind, force bool) *records.Table {
	if !force {
		s.mu.RLock()
		t, ok := s.tables[kind]
		s.mu.RUnlock()
		if ok {
			return t
		}
	}
	return s.Load(ctx, kind, force)
}

// LoadAll loads every kind concurrently, omitting kinds that fail.
func (s *Store) LoadAll(ctx context.Context, force bool) map[records.Kind]*records.Table {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = make(map[records.Kind]*records.Table, len(records.Kinds()))
	)
	for _, k := range records.Kinds() {
		wg.Add(1)
		go func(k records.Kind) {
			defer wg.Done()
			if t := s.Table(ctx, k, force); t != nil {
				mu.Lock()
				out[k] = t
				mu.Unlock()
			}
		}(k)
	}
	wg.Wait()
	return out
}

// FileInfo is descriptive metadata about a loaded table.
type FileInfo struct {
	Kind        records.Kind `json:"file_type"`
	Description string       `json:"description"`
	Rows        int          `json:"rows"`
	Columns     int          `json:"columns"`
	ColumnNames []string     `json:"column_names"`
	MemoryMB    float64      `json:"memory_usage_mb"`
	Source      string       `json:"filepath"`
	LoadedAt    time.Time    `json:"loaded_at"`
}

// Info describes kind's table, loading it if needed. It returns nil when the
// table cannot be loaded.
func (s *Store) Info(ctx context.Context, kind records.Kind) *FileInfo {
	t := s.Table(ctx, kind, false)
	if t == nil {
		return nil
	}
	return &FileInfo{
		Kind:        kind,
		Description: records.SchemaFor(kind).Description,
		Rows:        t.Len(),
		Columns:     len(t.Columns),
		ColumnNames: t.ColumnNames(),
		MemoryMB:    float64(t.MemoryBytes()) / (1024 * 1024),
		Source:      t.Source,
		LoadedAt:    t.LoadedAt,
	}
}

// Invalidate forgets the given kinds, both in memory and in the result cache.
// With no kinds it drops every table and clears the whole cache.
func (s *Store) Invalidate(ctx context.Context, kinds ...records.Kind) {
	if len(kinds) == 0 {
		s.mu.Lock()
		s.tables = map[records.Kind]*records.Table{}
		s.mu.Unlock()
		if s.cache != nil {
			s.cache.Clear(ctx)
		}
		s.logger.Info("all tables invalidated")
		return
	}
	s.mu.Lock()
	for _, k := range kinds {
		delete(s.tables, k)
	}
	s.mu.Unlock()
	if s.cache != nil {
		for _, k := range kinds {
			s.cache.Delete(ctx, CacheKey(k))
		}
	}
	s.logger.Info("tables invalidated", zap.Int("kinds", len(kinds)))
}
