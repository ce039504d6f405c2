// Package summary aggregates parsed records into per-type byte totals.
package summary

import (
	"sort"
	"strings"

	"github.com/Justice4Joffrey/log-parser/pkg/parser"
)

// TypeStats holds the running totals for one type.
type TypeStats struct {
	Bytes   int64
	Records int64
}

// TypeRow is one type and its totals, used for rendering.
type TypeRow struct {
	Type    string `parquet:"type" json:"type"`
	Bytes   int64  `parquet:"bytes" json:"bytes"`
	Records int64  `parquet:"records" json:"records"`
}

// ErrorTally records parse failures. E is the concrete tally type so that
// Merge can take its own kind.
type ErrorTally[E any] interface {
	// Register records one failed record at the given zero-based index.
	Register(index int)
	// Merge folds other into the receiver.
	Merge(other E)
	// Total returns the number of failed records.
	Total() int
	// Diagnostics returns human-readable lines describing the failures.
	Diagnostics() []string
}

// Summary is the aggregate of one run, or of one batch in concurrent mode.
// A Summary is not safe for concurrent use; concurrent callers build one per
// goroutine and Combine them.
type Summary[E ErrorTally[E]] struct {
	types  map[string]*TypeStats
	errors E
}

// New returns an empty Summary that records failures into errs.
func New[E ErrorTally[E]](errs E) *Summary[E] {
	return &Summary[E]{
		types:  make(map[string]*TypeStats),
		errors: errs,
	}
}

// NewLines returns a Summary that keeps failing record indices.
func NewLines() *Summary[*LineErrors] {
	return New(&LineErrors{})
}

// NewCounts returns a Summary that only counts failures.
func NewCounts() *Summary[*CountErrors] {
	return New(&CountErrors{})
}

// Accumulate adds a parsed record. md.Type is copied only when it names a type
// not seen before, so it may alias a transient buffer.
func (s *Summary[E]) Accumulate(md parser.Metadata) {
	if st, ok := s.types[string(md.Type)]; ok {
		st.Bytes += int64(md.Bytes)
		st.Records++
		return
	}
	s.types[string(md.Type)] = &TypeStats{Bytes: int64(md.Bytes), Records: 1}
}

// RegisterError records a failed record.
func (s *Summary[E]) RegisterError(index int) {
	s.errors.Register(index)
}

// Combine merges other into s. other must not be used afterwards.
func (s *Summary[E]) Combine(other *Summary[E]) {
	if other == nil {
		return
	}
	for name, st := range other.types {
		if cur, ok := s.types[name]; ok {
			cur.Bytes += st.Bytes
			cur.Records += st.Records
			continue
		}
		s.types[name] = st
	}
	s.errors.Merge(other.errors)
}

// TotalSize returns the sum of bytes over all types.
func (s *Summary[E]) TotalSize() int64 {
	var total int64
	for _, st := range s.types {
		total += st.Bytes
	}
	return total
}

// TotalRecords returns the number of successfully parsed records.
func (s *Summary[E]) TotalRecords() int64 {
	var total int64
	for _, st := range s.types {
		total += st.Records
	}
	return total
}

// Errors returns the failure tally.
func (s *Summary[E]) Errors() E {
	return s.errors
}

// Lookup returns the totals for one type.
func (s *Summary[E]) Lookup(name string) (TypeStats, bool) {
	st, ok := s.types[name]
	if !ok {
		return TypeStats{}, false
	}
	return *st, true
}

// Len returns the number of distinct types.
func (s *Summary[E]) Len() int {
	return len(s.types)
}

// Types returns all types sorted by bytes descending, then name ascending.
func (s *Summary[E]) Types() []TypeRow {
	rows := make([]TypeRow, 0, len(s.types))
	for name, st := range s.types {
		rows = append(rows, TypeRow{Type: name, Bytes: st.Bytes, Records: st.Records})
	}
	sortRows(rows)
	return rows
}

// Snapshot returns a read-only projection of s. Type names that are not valid
// UTF-8 are rendered with U+FFFD replacements; names that become equal are
// summed so that TypeSize still adds up to TotalSize.
func (s *Summary[E]) Snapshot() Snapshot {
	snap := Snapshot{
		TypeSize:    make(map[string]int64, len(s.types)),
		TypeRecords: make(map[string]int64, len(s.types)),
		TotalErrors: s.errors.Total(),
	}
	for name, st := range s.types {
		name = strings.ToValidUTF8(name, "\uFFFD")
		snap.TypeSize[name] += st.Bytes
		snap.TypeRecords[name] += st.Records
		snap.TotalSize += st.Bytes
	}
	return snap
}

func sortRows(rows []TypeRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Bytes != rows[j].Bytes {
			return rows[i].Bytes > rows[j].Bytes
		}
		return rows[i].Type < rows[j].Type
	})
}
