package logging

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Justice4Joffrey/log-parser/pkg/humanfmt"
)

// ProgressTracker counts finished batches and bytes against an expected total
// and estimates the time remaining. It is safe for concurrent use.
//
// A total of zero means the expected count is unknown; percentages and ETAs
// are then omitted.
type ProgressTracker struct {
	phase     string
	total     int64
	completed atomic.Int64
	bytes     atomic.Int64
	startTime time.Time
	log       zerolog.Logger

	mu              sync.Mutex
	recentDurations []time.Duration
	maxRecent       int
}

// NewProgressTracker creates a tracker expecting total items.
func NewProgressTracker(phase string, total int64, log zerolog.Logger) *ProgressTracker {
	return &ProgressTracker{
		phase:           phase,
		total:           max(total, 0),
		startTime:       time.Now(),
		log:             log,
		recentDurations: make([]time.Duration, 0, 16),
		maxRecent:       16,
	}
}

// RecordCompletion records one finished item of n bytes that took d.
func (pt *ProgressTracker) RecordCompletion(n int64, d time.Duration) {
	pt.completed.Add(1)
	pt.bytes.Add(n)

	pt.mu.Lock()
	if len(pt.recentDurations) >= pt.maxRecent {
		pt.recentDurations = pt.recentDurations[1:]
	}
	pt.recentDurations = append(pt.recentDurations, d)
	pt.mu.Unlock()
}

// Completed returns the number of finished items.
func (pt *ProgressTracker) Completed() int64 {
	return pt.completed.Load()
}

// Bytes returns the number of bytes in finished items.
func (pt *ProgressTracker) Bytes() int64 {
	return pt.bytes.Load()
}

// Total returns the expected item count, or zero when unknown.
func (pt *ProgressTracker) Total() int64 {
	return pt.total
}

// Remaining returns the number of items not yet finished.
func (pt *ProgressTracker) Remaining() int64 {
	return max(pt.total-pt.completed.Load(), 0)
}

// ProgressPct returns the progress percentage (0-100), capped at 100.
func (pt *ProgressTracker) ProgressPct() float64 {
	if pt.total == 0 {
		return 100.0
	}
	return min(float64(pt.completed.Load())*100.0/float64(pt.total), 100.0)
}

// ETA estimates the time remaining from the mean of recent item durations.
// Items run concurrently, so the estimate is an upper bound.
func (pt *ProgressTracker) ETA() time.Duration {
	completed := pt.completed.Load()
	remaining := pt.Remaining()
	if completed == 0 || remaining == 0 {
		return 0
	}

	pt.mu.Lock()
	var sum time.Duration
	for _, d := range pt.recentDurations {
		sum += d
	}
	n := len(pt.recentDurations)
	pt.mu.Unlock()

	if n == 0 {
		return time.Since(pt.startTime) / time.Duration(completed) * time.Duration(remaining)
	}
	return sum / time.Duration(n) * time.Duration(remaining)
}

// Elapsed returns time since tracking started.
func (pt *ProgressTracker) Elapsed() time.Duration {
	return time.Since(pt.startTime)
}

// CompletionEvent builds a structured "something finished" log line with
// consistent field names.
type CompletionEvent struct {
	log     zerolog.Logger
	event   string
	phase   string
	elapsed time.Duration
	fields  map[string]any
}

// NewCompletionEvent creates a new completion event builder.
func NewCompletionEvent(log zerolog.Logger, event, phase string, elapsed time.Duration) *CompletionEvent {
	return &CompletionEvent{
		log:     log,
		event:   event,
		phase:   phase,
		elapsed: elapsed,
		fields:  make(map[string]any),
	}
}

// Str adds a string field.
func (ce *CompletionEvent) Str(key, val string) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Int adds an int field.
func (ce *CompletionEvent) Int(key string, val int) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Int64 adds an int64 field.
func (ce *CompletionEvent) Int64(key string, val int64) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Bytes adds a byte count, plus key_h in pretty mode.
func (ce *CompletionEvent) Bytes(key string, n int64) *CompletionEvent {
	ce.fields[key] = n
	if IsPrettyMode() {
		ce.fields[key+"_h"] = humanfmt.Bytes(n)
	}
	return ce
}

// Count adds a count, plus key_h in pretty mode.
func (ce *CompletionEvent) Count(key string, n int64) *CompletionEvent {
	ce.fields[key] = n
	if IsPrettyMode() {
		ce.fields[key+"_h"] = humanfmt.Count(n)
	}
	return ce
}

// ProgressFromTracker adds done/total/progress_pct/eta fields.
func (ce *CompletionEvent) ProgressFromTracker(pt *ProgressTracker) *CompletionEvent {
	ce.fields["done"] = pt.Completed()
	if total := pt.Total(); total > 0 {
		ce.fields["total"] = total
		ce.fields["progress_pct"] = pt.ProgressPct()
	}
	if eta := pt.ETA(); eta > 0 {
		ce.fields["eta_ms"] = eta.Milliseconds()
		if IsPrettyMode() {
			ce.fields["eta_h"] = humanfmt.Duration(eta)
		}
	}
	return ce
}

// Throughput adds bytes-per-second over the event's elapsed time.
func (ce *CompletionEvent) Throughput(n int64) *CompletionEvent {
	if ce.elapsed > 0 {
		ce.fields["throughput_bps"] = float64(n) / ce.elapsed.Seconds()
		if IsPrettyMode() {
			ce.fields["throughput_h"] = humanfmt.Throughput(n, ce.elapsed)
		}
	}
	return ce
}

// Log emits the event at info level.
func (ce *CompletionEvent) Log(msg string) {
	ce.emit(ce.log.Info(), msg)
}

// LogDebug emits the event at debug level.
func (ce *CompletionEvent) LogDebug(msg string) {
	ce.emit(ce.log.Debug(), msg)
}

func (ce *CompletionEvent) emit(e *zerolog.Event, msg string) {
	if e == nil {
		return
	}
	e = e.Str("event", ce.event).
		Str("phase", ce.phase).
		Int64("duration_ms", ce.elapsed.Milliseconds())
	if IsPrettyMode() {
		e = e.Str("duration_h", humanfmt.Duration(ce.elapsed))
	}
	for k, v := range ce.fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

// RunComplete starts a run_completed event.
func RunComplete(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "run_completed", phase, elapsed)
}

// BatchComplete starts a batch_completed event.
func BatchComplete(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "batch_completed", phase, elapsed)
}

// FileCreated starts a file_created event.
func FileCreated(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "file_created", phase, elapsed)
}
