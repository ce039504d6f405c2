// Package sysmem detects total physical memory, which sizes the default
// in-flight batch budget.
package sysmem

// DefaultMemoryBytes is assumed when the platform cannot report its memory.
const DefaultMemoryBytes uint64 = 4 << 30

// Result holds the result of memory detection.
type Result struct {
	TotalBytes uint64
	// Reliable is false when TotalBytes is DefaultMemoryBytes rather than a
	// value reported by the platform.
	Reliable bool
}

// Total returns the total system memory, falling back to DefaultMemoryBytes.
func Total() Result {
	n, ok := totalSystemMemory()
	if !ok || n == 0 {
		return Result{TotalBytes: DefaultMemoryBytes}
	}
	return Result{TotalBytes: n, Reliable: true}
}

// Fraction returns frac of the total system memory in bytes, along with
// whether the total was reported by the platform. frac is clamped to [0, 1].
func Fraction(frac float64) (int64, bool) {
	frac = min(max(frac, 0), 1)
	r := Total()
	return int64(float64(r.TotalBytes) * frac), r.Reliable
}
