package summary

import (
	"fmt"
	"slices"
	"strconv"
)

// LineErrors keeps the zero-based index of every failed record. Used when
// records are read in order and their position is known.
type LineErrors struct {
	lines []int
}

// Register implements ErrorTally.
func (e *LineErrors) Register(index int) {
	e.lines = append(e.lines, index)
}

// Merge implements ErrorTally.
func (e *LineErrors) Merge(other *LineErrors) {
	if other == nil {
		return
	}
	e.lines = append(e.lines, other.lines...)
}

// Total implements ErrorTally.
func (e *LineErrors) Total() int {
	return len(e.lines)
}

// Lines returns the failed record indices in ascending order.
func (e *LineErrors) Lines() []int {
	out := slices.Clone(e.lines)
	slices.Sort(out)
	return out
}

// Diagnostics implements ErrorTally.
func (e *LineErrors) Diagnostics() []string {
	switch len(e.lines) {
	case 0:
		return nil
	case 1:
		return []string{fmt.Sprintf("Failed to parse line %d", e.lines[0]), ""}
	}
	out := make([]string, 0, len(e.lines)+2)
	out = append(out, "Failed to parse the following lines:")
	for _, line := range e.Lines() {
		out = append(out, strconv.Itoa(line))
	}
	return append(out, "")
}

// CountErrors only counts failed records. Used when records are processed in
// independent batches and their global position is unknown.
type CountErrors struct {
	n int
}

// Register implements ErrorTally. The index is ignored.
func (e *CountErrors) Register(int) {
	e.n++
}

// Merge implements ErrorTally.
func (e *CountErrors) Merge(other *CountErrors) {
	if other == nil {
		return
	}
	e.n += other.n
}

// Total implements ErrorTally.
func (e *CountErrors) Total() int {
	return e.n
}

// Diagnostics implements ErrorTally.
func (e *CountErrors) Diagnostics() []string {
	switch e.n {
	case 0:
		return nil
	case 1:
		return []string{"1 line could not be parsed", ""}
	}
	return []string{fmt.Sprintf("%d lines could not be parsed", e.n), ""}
}

var (
	_ ErrorTally[*LineErrors]  = (*LineErrors)(nil)
	_ ErrorTally[*CountErrors] = (*CountErrors)(nil)
)
