// Package lines splits an in-memory buffer into delimiter-terminated records
// without copying.
package lines

import (
	"bytes"
	"iter"
)

// Splitter yields successive records of a buffer. Each record includes its
// trailing delimiter, except a final record that has none. Records alias the
// underlying buffer with their capacity clipped to their length.
type Splitter struct {
	buf   []byte
	delim byte
	pos   int
}

// New returns a Splitter positioned at the start of buf.
func New(buf []byte, delim byte) *Splitter {
	return &Splitter{buf: buf, delim: delim}
}

// Next returns the next record, or false once the buffer is exhausted.
func (s *Splitter) Next() ([]byte, bool) {
	if s.pos >= len(s.buf) {
		return nil, false
	}
	start := s.pos
	end := len(s.buf)
	if i := bytes.IndexByte(s.buf[start:], s.delim); i >= 0 {
		end = start + i + 1
	}
	s.pos = end
	return s.buf[start:end:end], true
}

// All returns an iterator over the records of buf.
func All(buf []byte, delim byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		s := New(buf, delim)
		for {
			rec, ok := s.Next()
			if !ok || !yield(rec) {
				return
			}
		}
	}
}

// Count returns the number of records All would yield.
func Count(buf []byte, delim byte) int {
	if len(buf) == 0 {
		return 0
	}
	n := bytes.Count(buf, []byte{delim})
	if buf[len(buf)-1] != delim {
		n++
	}
	return n
}
