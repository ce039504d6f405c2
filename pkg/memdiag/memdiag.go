// Package memdiag periodically logs heap usage while a run is in progress.
//
// Enable with LOGPARSER_MEM_DEBUG=1. LOGPARSER_MEM_PPROF=1 additionally serves
// net/http/pprof on LOGPARSER_MEM_PPROF_ADDR (default localhost:6060).
package memdiag

import (
	"errors"
	"net/http"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	// Registers pprof handlers on DefaultServeMux for the pprof HTTP server.
	_ "net/http/pprof"

	"github.com/Justice4Joffrey/log-parser/pkg/humanfmt"
	"github.com/Justice4Joffrey/log-parser/pkg/logging"
	"github.com/Justice4Joffrey/log-parser/pkg/membudget"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvDebug     = "LOGPARSER_MEM_DEBUG"
	EnvPprof     = "LOGPARSER_MEM_PPROF"
	EnvPprofAddr = "LOGPARSER_MEM_PPROF_ADDR"
)

// Config holds configuration for memory diagnostics.
type Config struct {
	Enabled      bool
	PprofEnabled bool
	PprofAddr    string
	LogInterval  time.Duration
}

// ConfigFromEnv builds a Config from the LOGPARSER_MEM_* variables.
func ConfigFromEnv() Config {
	addr := os.Getenv(EnvPprofAddr)
	if addr == "" {
		addr = "localhost:6060"
	}
	return Config{
		Enabled:      os.Getenv(EnvDebug) == "1",
		PprofEnabled: os.Getenv(EnvPprof) == "1",
		PprofAddr:    addr,
		LogInterval:  5 * time.Second,
	}
}

// Stats is the subset of runtime.MemStats that gets logged.
type Stats struct {
	HeapAlloc  uint64
	HeapInuse  uint64
	HeapSys    uint64
	StackInuse uint64
	Sys        uint64
	NumGC      uint32
}

// Read reads current memory statistics.
func Read() Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Stats{
		HeapAlloc:  m.HeapAlloc,
		HeapInuse:  m.HeapInuse,
		HeapSys:    m.HeapSys,
		StackInuse: m.StackInuse,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// Tracker logs memory usage on an interval until stopped. A disabled Tracker
// is a no-op, so callers can start one unconditionally.
type Tracker struct {
	config Config
	budget *membudget.Budget

	stopCh  chan struct{}
	doneCh  chan struct{}
	started atomic.Bool

	mu       sync.Mutex
	peakHeap uint64
}

// NewTracker creates a tracker. budget may be nil.
func NewTracker(config Config, budget *membudget.Budget) *Tracker {
	if config.LogInterval <= 0 {
		config.LogInterval = 5 * time.Second
	}
	return &Tracker{
		config: config,
		budget: budget,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins periodic logging if enabled.
func (t *Tracker) Start() {
	if !t.config.Enabled || !t.started.CompareAndSwap(false, true) {
		return
	}

	log := logging.L()
	log.Info().Dur("interval", t.config.LogInterval).Msg("memory diagnostics enabled")

	if t.config.PprofEnabled {
		go func() {
			log.Info().Str("addr", t.config.PprofAddr).Msg("starting pprof server")
			if err := http.ListenAndServe(t.config.PprofAddr, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("pprof server failed")
			}
		}()
	}

	go t.logLoop()
}

// Stop stops periodic logging and emits a final sample.
func (t *Tracker) Stop() {
	if !t.started.Load() {
		return
	}
	select {
	case <-t.stopCh:
	default:
		close(t.stopCh)
	}
	<-t.doneCh
}

// Sample reads memory stats and updates the recorded peak.
func (t *Tracker) Sample() Stats {
	stats := Read()
	t.mu.Lock()
	if stats.HeapAlloc > t.peakHeap {
		t.peakHeap = stats.HeapAlloc
	}
	t.mu.Unlock()
	return stats
}

// PeakHeap returns the largest heap allocation sampled so far.
func (t *Tracker) PeakHeap() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peakHeap
}

// LogNow logs current memory stats immediately.
func (t *Tracker) LogNow(reason string) {
	if !t.config.Enabled {
		return
	}

	stats := t.Sample()
	ev := logging.L().Debug().
		Str("reason", reason).
		Str("heap_alloc", humanfmt.Bytes(int64(stats.HeapAlloc))).
		Str("heap_inuse", humanfmt.Bytes(int64(stats.HeapInuse))).
		Str("heap_sys", humanfmt.Bytes(int64(stats.HeapSys))).
		Str("stack_inuse", humanfmt.Bytes(int64(stats.StackInuse))).
		Str("sys_total", humanfmt.Bytes(int64(stats.Sys))).
		Str("peak_heap", humanfmt.Bytes(int64(t.PeakHeap()))).
		Uint32("num_gc", stats.NumGC)

	if t.budget != nil {
		bs := t.budget.Stats()
		ev = ev.
			Str("budget_inuse", humanfmt.Bytes(bs.InUseBytes)).
			Str("budget_peak", humanfmt.Bytes(bs.PeakBytes)).
			Str("budget_total", humanfmt.Bytes(bs.TotalBytes))
	}
	ev.Msg("memory stats")
}

func (t *Tracker) logLoop() {
	defer close(t.doneCh)

	ticker := time.NewTicker(t.config.LogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			t.LogNow("shutdown")
			return
		case <-ticker.C:
			t.LogNow("periodic")
		}
	}
}
