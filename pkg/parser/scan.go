package parser

// Scan walks the record one byte at a time looking for the "type" marker.
// Same contract and results as Window, without any library search.
type Scan struct{}

// Parse implements Parser.
func (Scan) Parse(record []byte) (Metadata, error) {
	n := len(record)
	m := len(typeMarker)
	for i := 0; i+m <= n; i++ {
		if record[i] != '"' {
			continue
		}
		j := 1
		for j < m && record[i+j] == typeMarker[j] {
			j++
		}
		if j < m {
			continue
		}

		pos := i + m
		for pos < n && isSpace(record[pos]) {
			pos++
		}
		if pos >= n || record[pos] != '"' {
			continue
		}
		lo := pos + 1
		hi := lo
		for hi < n && record[hi] != '"' {
			hi++
		}
		if hi >= n {
			// No closing quote anywhere after this marker, so no later
			// marker can close either.
			break
		}
		return Metadata{Type: record[lo:hi:hi], Bytes: len(record)}, nil
	}
	return Metadata{}, ErrNoType
}
