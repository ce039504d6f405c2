package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestProgressTracker_BasicOperations(t *testing.T) {
	pt := NewProgressTracker("summarize", 10, zerolog.Nop())

	pt.RecordCompletion(1024, 100*time.Millisecond)
	pt.RecordCompletion(2048, 150*time.Millisecond)
	pt.RecordCompletion(512, 50*time.Millisecond)

	if pt.Completed() != 3 {
		t.Errorf("expected completed=3, got %d", pt.Completed())
	}
	if pt.Bytes() != 3584 {
		t.Errorf("expected bytes=3584, got %d", pt.Bytes())
	}
	if pct := pt.ProgressPct(); pct != 30.0 {
		t.Errorf("expected progress 30%%, got %.1f%%", pct)
	}
	if pt.Remaining() != 7 {
		t.Errorf("expected remaining=7, got %d", pt.Remaining())
	}
}

func TestProgressTracker_ETA(t *testing.T) {
	pt := NewProgressTracker("summarize", 10, zerolog.Nop())

	pt.RecordCompletion(1, 100*time.Millisecond)
	pt.RecordCompletion(1, 100*time.Millisecond)

	eta := pt.ETA()
	if eta < 700*time.Millisecond || eta > 900*time.Millisecond {
		t.Errorf("expected ETA ~800ms, got %v", eta)
	}
}

func TestProgressTracker_UnknownTotal(t *testing.T) {
	pt := NewProgressTracker("summarize", 0, zerolog.Nop())
	pt.RecordCompletion(10, time.Millisecond)

	if pct := pt.ProgressPct(); pct != 100.0 {
		t.Errorf("expected 100%% for unknown total, got %.1f%%", pct)
	}
	if eta := pt.ETA(); eta != 0 {
		t.Errorf("expected 0 ETA for unknown total, got %v", eta)
	}
}

func TestProgressTracker_Overshoot(t *testing.T) {
	pt := NewProgressTracker("summarize", 2, zerolog.Nop())
	for i := 0; i < 3; i++ {
		pt.RecordCompletion(1, time.Millisecond)
	}
	if pct := pt.ProgressPct(); pct != 100.0 {
		t.Errorf("expected progress capped at 100%%, got %.1f%%", pct)
	}
	if pt.Remaining() != 0 {
		t.Errorf("expected remaining=0, got %d", pt.Remaining())
	}
}

func TestCompletionEvent_BasicFields(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	SetPrettyMode(false)

	RunComplete(log, "summarize", 500*time.Millisecond).
		Str("mode", "sync").
		Int("types", 42).
		Int64("records", 1000000).
		Log("run finished")

	output := buf.String()
	for _, want := range []string{
		`"event":"run_completed"`,
		`"phase":"summarize"`,
		`"duration_ms":500`,
		`"mode":"sync"`,
		`"types":42`,
		`"records":1000000`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s, got: %s", want, output)
		}
	}
	if strings.Contains(output, "duration_h") {
		t.Errorf("unexpected human field outside pretty mode: %s", output)
	}
}

func TestCompletionEvent_BytesAndCounts(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	SetPrettyMode(true)
	defer SetPrettyMode(false)

	NewCompletionEvent(log, "test_event", "test_phase", time.Second).
		Bytes("size", 1073741824).
		Count("items", 1500000).
		Log("test message")

	output := buf.String()
	for _, want := range []string{
		`"size":1073741824`,
		`"items":1500000`,
		`"size_h":"1.00 GiB"`,
		`"items_h":"1.50M"`,
		`"duration_h":"1.00s"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s, got: %s", want, output)
		}
	}
}

func TestCompletionEvent_ProgressFromTracker(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	SetPrettyMode(false)

	pt := NewProgressTracker("summarize", 4, log)
	pt.RecordCompletion(10, 10*time.Millisecond)

	BatchComplete(log, "summarize", 10*time.Millisecond).
		ProgressFromTracker(pt).
		LogDebug("batch done")

	output := buf.String()
	for _, want := range []string{
		`"event":"batch_completed"`,
		`"done":1`,
		`"total":4`,
		`"progress_pct":25`,
		`"eta_ms":30`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s, got: %s", want, output)
		}
	}
}

func TestCompletionEvent_ProgressUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	SetPrettyMode(false)

	pt := NewProgressTracker("summarize", 0, log)
	pt.RecordCompletion(10, time.Millisecond)
	BatchComplete(log, "summarize", time.Millisecond).ProgressFromTracker(pt).Log("batch done")

	output := buf.String()
	if strings.Contains(output, "progress_pct") || strings.Contains(output, `"total"`) {
		t.Errorf("unknown total must not report progress: %s", output)
	}
}

func TestCompletionEvent_Throughput(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	SetPrettyMode(true)
	defer SetPrettyMode(false)

	FileCreated(log, "render", 2*time.Second).
		Throughput(4 * 1024 * 1024).
		Log("written")

	output := buf.String()
	if !strings.Contains(output, `"throughput_bps":2097152`) {
		t.Errorf("expected throughput_bps, got: %s", output)
	}
	if !strings.Contains(output, `"throughput_h":"2.00 MiB/s"`) {
		t.Errorf("expected throughput_h, got: %s", output)
	}
}

func TestCompletionEvent_LogDebugFiltered(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.InfoLevel)

	BatchComplete(log, "summarize", time.Millisecond).Int("n", 1).LogDebug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug event should be filtered at info level, got: %s", buf.String())
	}
}
