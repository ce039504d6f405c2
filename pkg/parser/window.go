package parser

import "bytes"

var typeMarker = []byte(`"type":`)

// Window locates the "type" marker with a sliding-window search and then reads
// the quoted value that follows it. It accepts exactly the inputs TypePattern
// accepts and yields the same value.
type Window struct{}

// Parse implements Parser.
func (Window) Parse(record []byte) (Metadata, error) {
	from := 0
	for from < len(record) {
		idx := bytes.Index(record[from:], typeMarker)
		if idx < 0 {
			break
		}
		start := from + idx + len(typeMarker)
		if lo, hi, ok := quotedValue(record, start); ok {
			return Metadata{Type: record[lo:hi:hi], Bytes: len(record)}, nil
		}
		from = from + idx + 1
	}
	return Metadata{}, ErrNoType
}

// quotedValue skips whitespace at record[pos:], expects an opening quote, and
// returns the bounds of the value up to the next quote.
func quotedValue(record []byte, pos int) (lo, hi int, ok bool) {
	for pos < len(record) && isSpace(record[pos]) {
		pos++
	}
	if pos >= len(record) || record[pos] != '"' {
		return 0, 0, false
	}
	lo = pos + 1
	end := bytes.IndexByte(record[lo:], '"')
	if end < 0 {
		return 0, 0, false
	}
	return lo, lo + end, true
}

// isSpace reports whether c is in the regexp \s class.
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}
