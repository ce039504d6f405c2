// Package parser extracts the "type" field from a single log record.
//
// Every strategy satisfies the same contract: given one record (optionally
// terminated by its delimiter) it returns the record's type and length, or an
// error satisfying errors.Is(err, ErrNoType). Strategies are stateless and
// safe for concurrent use.
package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoType indicates the record carries no extractable "type" field.
var ErrNoType = errors.New("record has no type field")

// Metadata describes one successfully parsed record.
//
// For the byte-scan and regex strategies Type is a subslice of the record and
// must not be retained past the record's lifetime. The JSON strategy returns an
// owned copy.
type Metadata struct {
	Type  []byte
	Bytes int
}

// Parser extracts Metadata from a record.
type Parser interface {
	Parse(record []byte) (Metadata, error)
}

// Func adapts a plain function to the Parser interface.
type Func func(record []byte) (Metadata, error)

// Parse calls f(record).
func (f Func) Parse(record []byte) (Metadata, error) {
	return f(record)
}

// Strategy names accepted by Lookup.
const (
	NameJSON   = "json"
	NameRegex  = "regex"
	NameWindow = "window"
	NameScan   = "scan"
)

// Default is the strategy used when none is configured.
const Default = NameWindow

var registry = map[string]func() Parser{
	NameJSON:   func() Parser { return JSON{} },
	NameRegex:  func() Parser { return NewRegex() },
	NameWindow: func() Parser { return Window{} },
	NameScan:   func() Parser { return Scan{} },
}

var aliases = map[string]string{
	"string": NameWindow,
	"char":   NameScan,
}

// Lookup returns the strategy registered under name (case-insensitive).
// An empty name selects Default.
func Lookup(name string) (Parser, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = Default
	}
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	newParser, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown parser %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return newParser(), nil
}

// Names returns the canonical strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
