package parser

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// JSON decodes the whole record as a JSON object and reads its "type" member.
// It is the strictest strategy: invalid syntax, a missing member, null, or a
// non-string value all fail.
type JSON struct{}

type typedRecord struct {
	Type *string `json:"type"`
}

// Parse implements Parser.
func (JSON) Parse(record []byte) (Metadata, error) {
	var rec typedRecord
	if err := json.Unmarshal(record, &rec); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrNoType, err)
	}
	if rec.Type == nil {
		return Metadata{}, ErrNoType
	}
	return Metadata{Type: []byte(*rec.Type), Bytes: len(record)}, nil
}
