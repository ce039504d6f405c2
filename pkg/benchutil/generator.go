// Package benchutil generates synthetic NDJSON logs with known totals for
// tests, benchmarks and the generate command.
package benchutil

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strings"
)

// Types is the fixed set of "type" values written by the generator.
var Types = []string{
	"abc", "bcd", "csdfsdf", "d", "edasjdflj", "fiwer", "gjasfdll", "hjlkjasdf",
	"ijlsdfj", "jsdflkjlk", "kR123", "fkjWER", "mdsfjh", "n", "o",
}

// GeneratorConfig configures synthetic data generation.
type GeneratorConfig struct {
	// Records is the number of lines to write.
	Records int
	// MaxKeys is the maximum number of random extra keys per record.
	MaxKeys int
	// MalformedRate is the fraction (0.0-1.0) of records written without a
	// type field.
	MalformedRate float64
	// Seed for reproducible generation. 0 = BenchmarkSeed.
	Seed int64
}

// DefaultConfig returns a config matching the usual benchmark shape:
// up to 10 extra keys and no malformed records.
func DefaultConfig(records int) GeneratorConfig {
	return GeneratorConfig{
		Records: records,
		MaxKeys: 10,
		Seed:    BenchmarkSeed,
	}
}

// Expected holds the totals a correct summarizer must report for the
// generated data.
type Expected struct {
	TypeSize    map[string]int64
	TotalSize   int64
	TotalBytes  int64
	Records     int
	Errors      int
	ErrorsLines []int
}

// Generator writes synthetic NDJSON records.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
	sb  strings.Builder
}

// NewGenerator creates a new data generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = BenchmarkSeed
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// WriteTo writes cfg.Records newline-terminated records to w and returns the
// totals they add up to.
func (g *Generator) WriteTo(w io.Writer) (Expected, error) {
	bw := bufio.NewWriterSize(w, 256*1024)
	exp := Expected{TypeSize: make(map[string]int64)}

	for i := 0; i < g.cfg.Records; i++ {
		line, typ := g.Record()
		if _, err := bw.WriteString(line); err != nil {
			return Expected{}, fmt.Errorf("write record %d: %w", i, err)
		}
		n := int64(len(line))
		exp.Records++
		exp.TotalBytes += n
		if typ == "" {
			exp.Errors++
			exp.ErrorsLines = append(exp.ErrorsLines, i)
			continue
		}
		exp.TypeSize[typ] += n
		exp.TotalSize += n
	}

	if err := bw.Flush(); err != nil {
		return Expected{}, fmt.Errorf("flush records: %w", err)
	}
	return exp, nil
}

// Generate returns the generated data in memory.
func (g *Generator) Generate() ([]byte, Expected) {
	var sb strings.Builder
	exp, _ := g.WriteTo(&sb)
	return []byte(sb.String()), exp
}

// Record returns one newline-terminated record and its type. The type is
// empty for a malformed record.
func (g *Generator) Record() (line, typ string) {
	malformed := g.cfg.MalformedRate > 0 && g.rng.Float64() < g.cfg.MalformedRate
	if !malformed {
		typ = Types[g.rng.Intn(len(Types))]
	}

	nKeys := 0
	if g.cfg.MaxKeys > 0 {
		nKeys = g.rng.Intn(g.cfg.MaxKeys + 1)
	}
	typeAt := g.rng.Intn(nKeys + 1)

	g.sb.Reset()
	g.sb.WriteByte('{')
	fields := 0
	for k := 0; k <= nKeys; k++ {
		if k == typeAt {
			if malformed {
				g.field(&fields, "message", g.randomString(1, 10))
			} else {
				g.field(&fields, "type", typ)
			}
			continue
		}
		key := g.randomString(1, 10)
		if key == "type" {
			key = "typ"
		}
		g.field(&fields, key, g.randomString(1, 10))
	}
	g.sb.WriteString("}\n")
	return g.sb.String(), typ
}

func (g *Generator) field(n *int, key, value string) {
	if *n > 0 {
		g.sb.WriteString(", ")
	}
	*n++
	fmt.Fprintf(&g.sb, "%q: %q", key, value)
}

func (g *Generator) randomString(minLen, maxLen int) string {
	n := minLen + g.rng.Intn(maxLen-minLen+1)
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + g.rng.Intn(26))
	}
	return string(b)
}
