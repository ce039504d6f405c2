// Package membudget bounds the number of input bytes held in memory at once.
//
// In concurrent mode the reader reserves each batch before reading it and the
// worker that parses the batch releases it, so a slow reducer or a burst of
// slow workers makes the reader wait instead of buffering without limit.
package membudget

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/Justice4Joffrey/log-parser/pkg/humanfmt"
	"github.com/Justice4Joffrey/log-parser/pkg/sysmem"
)

// DefaultBudgetBytes is the fallback memory budget when system RAM cannot be detected.
const DefaultBudgetBytes int64 = 2 * humanfmt.GiB

// BudgetSource indicates how the memory budget was determined.
type BudgetSource string

const (
	// BudgetSourceAuto50Pct indicates the budget was set to 50% of detected RAM.
	BudgetSourceAuto50Pct BudgetSource = "auto-50pct"
	// BudgetSourceDefault indicates the budget used the fallback default.
	BudgetSourceDefault BudgetSource = "default"
	// BudgetSourceCLI indicates the budget was set via CLI flag.
	BudgetSourceCLI BudgetSource = "cli"
	// BudgetSourceEnv indicates the budget was set via environment variable.
	BudgetSourceEnv BudgetSource = "env"
	// BudgetSourceConfig indicates the budget was set in the config file.
	BudgetSourceConfig BudgetSource = "config"
)

// Budget is a byte-weighted semaphore. It is safe for concurrent use.
type Budget struct {
	total  int64
	source BudgetSource
	sem    *semaphore.Weighted
	inUse  atomic.Int64
	peak   atomic.Int64
}

// Config holds configuration for creating a Budget.
type Config struct {
	// TotalBytes is the total memory budget in bytes. Must be positive.
	TotalBytes int64

	// Source indicates how the budget was determined.
	Source BudgetSource
}

// New creates a new Budget with the given configuration.
func New(cfg Config) *Budget {
	total := cfg.TotalBytes
	if total <= 0 {
		total = DefaultBudgetBytes
	}
	return &Budget{
		total:  total,
		source: cfg.Source,
		sem:    semaphore.NewWeighted(total),
	}
}

// NewFromSystemRAM creates a Budget set to 50% of system RAM.
// If RAM cannot be detected, uses DefaultBudgetBytes.
func NewFromSystemRAM() *Budget {
	if half, ok := sysmem.Fraction(0.5); ok && half > 0 {
		return New(Config{
			TotalBytes: half,
			Source:     BudgetSourceAuto50Pct,
		})
	}
	return New(Config{
		TotalBytes: DefaultBudgetBytes,
		Source:     BudgetSourceDefault,
	})
}

// Total returns the total budget in bytes.
func (b *Budget) Total() int64 {
	return b.total
}

// InUse returns the currently reserved bytes.
func (b *Budget) InUse() int64 {
	return b.inUse.Load()
}

// Available returns the available bytes (total - inUse).
func (b *Budget) Available() int64 {
	return max(b.total-b.inUse.Load(), 0)
}

// Source returns how the budget was determined.
func (b *Budget) Source() BudgetSource {
	return b.source
}

// TryReserve attempts to reserve n bytes without blocking.
func (b *Budget) TryReserve(n int64) bool {
	if n <= 0 {
		return true
	}
	if !b.sem.TryAcquire(n) {
		return false
	}
	b.track(n)
	return true
}

// Reserve blocks until n bytes can be reserved or ctx is done.
// Returns an error if the reservation can never succeed (n > total).
func (b *Budget) Reserve(ctx context.Context, n int64) error {
	if n <= 0 {
		return nil
	}
	if n > b.total {
		return fmt.Errorf("reservation of %s exceeds total budget of %s", humanfmt.Bytes(n), humanfmt.Bytes(b.total))
	}
	if err := b.sem.Acquire(ctx, n); err != nil {
		return err
	}
	b.track(n)
	return nil
}

// Release returns n bytes previously reserved.
func (b *Budget) Release(n int64) {
	if n <= 0 {
		return
	}
	b.inUse.Add(-n)
	b.sem.Release(n)
}

func (b *Budget) track(n int64) {
	cur := b.inUse.Add(n)
	for {
		peak := b.peak.Load()
		if cur <= peak || b.peak.CompareAndSwap(peak, cur) {
			return
		}
	}
}

// Stats is a point-in-time view of a Budget.
type Stats struct {
	TotalBytes     int64
	InUseBytes     int64
	PeakBytes      int64
	AvailableBytes int64
	Source         BudgetSource
	UsagePercent   float64
}

// Stats returns current budget statistics.
func (b *Budget) Stats() Stats {
	inUse := b.inUse.Load()
	return Stats{
		TotalBytes:     b.total,
		InUseBytes:     inUse,
		PeakBytes:      b.peak.Load(),
		AvailableBytes: max(b.total-inUse, 0),
		Source:         b.source,
		UsagePercent:   float64(inUse) / float64(b.total) * 100.0,
	}
}
