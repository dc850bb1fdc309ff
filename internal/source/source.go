// Package source reads raw record tables from their backing store: a
// Postgres database, a directory of CSV or XLSX files, or an S3 bucket of
// workbooks. Sources only parse and rename columns; cleaning and amount
// scaling belong to the record store.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"finance-analytics/internal/records"
)

// ErrNotFound is returned when the backing table or file of a kind does not
// exist.
var ErrNotFound = errors.New("source not found")

// Source reads one raw table per record kind.
type Source interface {
	// Read returns the raw table for kind, or an error wrapping ErrNotFound
	// when the backing table or file is missing.
	Read(ctx context.Context, kind records.Kind) (*records.Table, error)

	// Location describes where kind is read from, for display.
	Location(kind records.Kind) string
}

// ── In-memory source ─────────────────────────────────────────────────────────

// Memory is a Source backed by tables held in memory. It is used by tests and
// by the CLI when data is piped in.
type Memory struct {
	mu     sync.RWMutex
	tables map[records.Kind]*records.Table
	reads  map[records.Kind]int
}

// NewMemory returns a Memory source holding the given tables.
func NewMemory(tables ...*records.Table) *Memory {
	m := &Memory{tables: map[records.Kind]*records.Table{}, reads: map[records.Kind]int{}}
	for _, t := range tables {
		m.tables[t.Kind] = t
	}
	return m
}

// Put replaces the table of t.Kind.
func (m *Memory) Put(t *records.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.Kind] = t
}

// Remove forgets the table of kind.
func (m *Memory) Remove(kind records.Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, kind)
}

// Reads returns how many times kind has been read.
func (m *Memory) Reads(kind records.Kind) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads[kind]
}

func (m *Memory) Read(_ context.Context, kind records.Kind) (*records.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads[kind]++
	t, ok := m.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%s: %w", kind, ErrNotFound)
	}
	return t, nil
}

func (m *Memory) Location(kind records.Kind) string {
	return "memory:" + kind.Slug()
}
