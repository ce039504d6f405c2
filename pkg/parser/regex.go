package parser

import (
	"github.com/grafana/regexp"
)

// TypePattern matches the "type" key followed by a closed string value.
const TypePattern = `"type":\s*"([^"]*)"`

var typeRegexp = regexp.MustCompile(TypePattern)

// Regex finds the first match of TypePattern anywhere in the record.
type Regex struct {
	re *regexp.Regexp
}

// NewRegex returns a Regex strategy using the package's compiled pattern.
func NewRegex() Regex {
	return Regex{re: typeRegexp}
}

// Parse implements Parser.
func (p Regex) Parse(record []byte) (Metadata, error) {
	re := p.re
	if re == nil {
		re = typeRegexp
	}
	loc := re.FindSubmatchIndex(record)
	if loc == nil {
		return Metadata{}, ErrNoType
	}
	return Metadata{Type: record[loc[2]:loc[3]:loc[3]], Bytes: len(record)}, nil
}
