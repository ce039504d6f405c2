package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_Levels(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "info", Out: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	L().Info().Msg("visible")
	L().Debug().Msg("hidden")

	out := buf.String()
	if !strings.Contains(out, "visible") {
		t.Errorf("expected info message, got: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message leaked at info level: %s", out)
	}

	buf.Reset()
	if err := Init(Config{Out: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	L().Info().Msg("quiet by default")
	if buf.Len() != 0 {
		t.Errorf("default level should be warn, got: %s", buf.String())
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	if err := Init(Config{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestInit_HumanSetsPrettyMode(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "debug", Human: true, Out: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !IsPrettyMode() {
		t.Error("IsPrettyMode() = false after Init with Human")
	}
	L().Debug().Msg("console line")
	if !strings.Contains(buf.String(), "console line") {
		t.Errorf("expected console output, got: %s", buf.String())
	}

	if err := Init(Config{Out: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if IsPrettyMode() {
		t.Error("IsPrettyMode() = true after Init without Human")
	}
}

func TestWithPhase(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	log := WithPhase("summarize")
	log.Info().Msg("test message")

	if !bytes.Contains(buf.Bytes(), []byte(`"phase":"summarize"`)) {
		t.Errorf("expected phase field in output, got: %s", buf.String())
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).With().Str("custom", "field").Logger())

	L().Info().Msg("test")

	if !bytes.Contains(buf.Bytes(), []byte(`"custom":"field"`)) {
		t.Errorf("expected custom field in output, got: %s", buf.String())
	}

	_ = Init(Config{})
}
