package parser

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allStrategies() map[string]Parser {
	return map[string]Parser{
		NameJSON:   JSON{},
		NameRegex:  NewRegex(),
		NameWindow: Window{},
		NameScan:   Scan{},
	}
}

func TestParseValidRecord(t *testing.T) {
	record := []byte(`{"type":"B","foo":"bar","items":["one","two"]}` + "\n")

	for name, p := range allStrategies() {
		t.Run(name, func(t *testing.T) {
			md, err := p.Parse(record)
			require.NoError(t, err)
			assert.Equal(t, "B", string(md.Type))
			assert.Equal(t, len(record), md.Bytes)
		})
	}
}

func TestParseMissingType(t *testing.T) {
	record := []byte(`{"message":"Hello, world!"}` + "\n")

	for name, p := range allStrategies() {
		t.Run(name, func(t *testing.T) {
			_, err := p.Parse(record)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNoType)
		})
	}
}

func TestParseTypeNotFirstKey(t *testing.T) {
	record := []byte(`{"a":1,"type": "login","b":{"c":2}}`)

	for name, p := range allStrategies() {
		t.Run(name, func(t *testing.T) {
			md, err := p.Parse(record)
			require.NoError(t, err)
			assert.Equal(t, "login", string(md.Type))
			assert.Equal(t, len(record), md.Bytes)
		})
	}
}

func TestByteStrategiesMatchPattern(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   string
		ok     bool
	}{
		{"plain", `{"type":"A"}`, "A", true},
		{"whitespace", "{\"type\": \t\r\n \"A\"}", "A", true},
		{"empty value", `{"type":""}`, "", true},
		{"not json", `xx "type":"abc" yy`, "abc", true},
		{"unterminated value", `{"type":"abc`, "", false},
		{"number value", `{"type":5}`, "", false},
		{"null value", `{"type":null}`, "", false},
		{"vertical tab is not whitespace", "{\"type\":\v\"A\"}", "", false},
		{"first marker fails second matches", `{"type":1,"x":{"type":"inner"}}`, "inner", true},
		{"no colon", `{"type" "A"}`, "", false},
		{"marker at end", `{"type":`, "", false},
		{"value spans newline", "{\"type\":\"a\nb\"}", "a\nb", true},
		{"empty record", ``, "", false},
	}

	strategies := map[string]Parser{
		NameRegex:  NewRegex(),
		NameWindow: Window{},
		NameScan:   Scan{},
	}

	for _, tt := range tests {
		for name, p := range strategies {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				md, err := p.Parse([]byte(tt.record))
				if !tt.ok {
					assert.ErrorIs(t, err, ErrNoType)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.want, string(md.Type))
				assert.Equal(t, len(tt.record), md.Bytes)
			})
		}
	}
}

func TestByteStrategiesAgreeOnRandomInput(t *testing.T) {
	alphabet := []byte(`"type: {}ab` + " \t\n\v")
	rng := rand.New(rand.NewSource(7))
	regex := NewRegex()

	for i := 0; i < 20000; i++ {
		n := rng.Intn(40)
		record := make([]byte, n)
		for j := range record {
			record[j] = alphabet[rng.Intn(len(alphabet))]
		}
		// Seed a marker in about half the inputs so matches are common.
		if n > 8 && rng.Intn(2) == 0 {
			at := rng.Intn(n - len(typeMarker))
			copy(record[at:], typeMarker)
		}

		want, wantErr := regex.Parse(record)
		for name, p := range map[string]Parser{NameWindow: Window{}, NameScan: Scan{}} {
			got, gotErr := p.Parse(record)
			if (wantErr == nil) != (gotErr == nil) {
				t.Fatalf("%s disagrees with regex on %q: regex err=%v, %s err=%v", name, record, wantErr, name, gotErr)
			}
			if wantErr == nil && string(got.Type) != string(want.Type) {
				t.Fatalf("%s disagrees with regex on %q: %q vs %q", name, record, got.Type, want.Type)
			}
		}
	}
}

func TestJSONStrictness(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   string
		ok     bool
	}{
		{"valid", `{"type":"A","n":1}`, "A", true},
		{"trailing newline", "{\"type\":\"A\"}\n", "A", true},
		{"escaped value", `{"type":"a\"b"}`, `a"b`, true},
		{"null", `{"type":null}`, "", false},
		{"number", `{"type":5}`, "", false},
		{"missing", `{"other":"A"}`, "", false},
		{"truncated", `{"type":"A"`, "", false},
		{"not an object", `"type"`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := JSON{}.Parse([]byte(tt.record))
			if !tt.ok {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNoType))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(md.Type))
		})
	}
}

func TestJSONReturnsOwnedType(t *testing.T) {
	record := []byte(`{"type":"abc"}`)
	md, err := JSON{}.Parse(record)
	require.NoError(t, err)

	copy(record, bytesOf('x', len(record)))
	assert.Equal(t, "abc", string(md.Type))
}

func TestByteStrategiesReturnViews(t *testing.T) {
	record := []byte(`{"type":"abc"}`)
	md, err := Window{}.Parse(record)
	require.NoError(t, err)
	assert.Equal(t, len(md.Type), cap(md.Type))

	record[9] = 'z'
	assert.Equal(t, "zbc", string(md.Type))
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want Parser
	}{
		{"", Window{}},
		{"window", Window{}},
		{"string", Window{}},
		{"STRING", Window{}},
		{"scan", Scan{}},
		{"char", Scan{}},
		{"json", JSON{}},
		{"regex", NewRegex()},
	}

	for _, tt := range tests {
		got, err := Lookup(tt.name)
		require.NoError(t, err, "Lookup(%q)", tt.name)
		assert.IsType(t, tt.want, got, "Lookup(%q)", tt.name)
	}

	_, err := Lookup("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parser")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"json", "regex", "scan", "window"}, Names())
}

func TestFunc(t *testing.T) {
	var p Parser = Func(func(record []byte) (Metadata, error) {
		return Metadata{Type: []byte("fixed"), Bytes: len(record)}, nil
	})
	md, err := p.Parse([]byte("anything"))
	require.NoError(t, err)
	assert.Equal(t, "fixed", string(md.Type))
	assert.Equal(t, 8, md.Bytes)
}

func bytesOf(c byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return b
}

func BenchmarkParse(b *testing.B) {
	record := []byte(`{"type":"edasjdflj","foo":"bar","items":["one","two"],"nested":{"k":1}}` + "\n")
	for name, p := range allStrategies() {
		b.Run(name, func(b *testing.B) {
			b.SetBytes(int64(len(record)))
			for i := 0; i < b.N; i++ {
				if _, err := p.Parse(record); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
