package lines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(buf []byte, delim byte) []string {
	var out []string
	for rec := range All(buf, delim) {
		out = append(out, string(rec))
	}
	return out
}

func TestAll(t *testing.T) {
	tests := []struct {
		name  string
		input string
		delim byte
		want  []string
	}{
		{"terminated", "a\nb\n", '\n', []string{"a\n", "b\n"}},
		{"unterminated tail", "a\nb", '\n', []string{"a\n", "b"}},
		{"empty", "", '\n', nil},
		{"only delimiters", "\n\n", '\n', []string{"\n", "\n"}},
		{"custom delimiter", "x;yy;z", ';', []string{"x;", "yy;", "z"}},
		{"nul delimiter", "a\x00b\x00", 0, []string{"a\x00", "b\x00"}},
		{"no delimiter", "abc", '\n', []string{"abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collect([]byte(tt.input), tt.delim))
			assert.Equal(t, len(tt.want), Count([]byte(tt.input), tt.delim))
		})
	}
}

func TestRecordsAliasBuffer(t *testing.T) {
	buf := []byte("ab\ncd\n")
	s := New(buf, '\n')

	first, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, 3, cap(first))

	buf[0] = 'X'
	assert.Equal(t, "Xb\n", string(first))

	// Appending to a clipped record must not clobber the next one.
	_ = append(first, 'Z')
	second, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "cd\n", string(second))

	_, ok = s.Next()
	assert.False(t, ok)
}

func TestAllStopsEarly(t *testing.T) {
	var seen int
	for range All([]byte("a\nb\nc\n"), '\n') {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestRestartable(t *testing.T) {
	buf := []byte("a\nb\n")
	assert.Equal(t, collect(buf, '\n'), collect(buf, '\n'))
}
