package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func jsonConfig(level string) *Config {
	return &Config{Level: level, Format: FormatJSON, Output: "stdout"}
}

func decodeLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("failed to decode log line %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(jsonConfig("info"), "aggkit", &buf)

	l.Info("stage appended", Fields(FieldStage, "match", FieldStages, 1))

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["message"] != "stage appended" {
		t.Errorf("unexpected message %v", m["message"])
	}
	if m[FieldStage] != "match" {
		t.Errorf("expected stage=match, got %v", m[FieldStage])
	}
	if m[FieldService] != "aggkit" {
		t.Errorf("expected service=aggkit, got %v", m[FieldService])
	}
	if m["level"] != "info" {
		t.Errorf("expected level=info, got %v", m["level"])
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(jsonConfig("warn"), "aggkit", &buf)

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}

	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn message, got %q", buf.String())
	}
}

func TestNewWithWriter_InvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(jsonConfig("invalid-level"), "test", &buf)
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("expected invalid level to fall back to info")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected info message to be written")
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Level: "info", Format: FormatConsole, NoColor: true}
	l := NewWithWriter(cfg, "aggkit", &buf)

	l.Warn("facet not validated")

	out := buf.String()
	if !strings.Contains(out, "[WRN]") {
		t.Errorf("expected [WRN] tag, got %q", out)
	}
	if !strings.Contains(out, "facet not validated") {
		t.Errorf("expected message, got %q", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(jsonConfig("info"), "test", &buf)
	cl := l.WithComponent("aggregate")
	if cl.service != "test" {
		t.Errorf("service should be preserved, got %q", cl.service)
	}

	cl.Info("hello")
	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m[FieldComponent] != "aggregate" {
		t.Errorf("expected component=aggregate, got %v", m[FieldComponent])
	}
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(jsonConfig("info"), "test", &buf)

	l.WithFields(map[string]interface{}{FieldPipelineID: "p-1"}).
		WithError(errors.New("boom")).
		Error("run failed")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m[FieldPipelineID] != "p-1" {
		t.Errorf("expected pipeline_id=p-1, got %v", m[FieldPipelineID])
	}
	if m[FieldError] != "boom" {
		t.Errorf("expected error=boom, got %v", m[FieldError])
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing happens")
	l.WithComponent("x").Warn("still nothing")
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	l := NewFromEnv("env-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestGlobalLogger(t *testing.T) {
	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}

	var buf bytes.Buffer
	custom := NewWithWriter(jsonConfig("debug"), "custom", &buf)
	SetGlobalLogger(custom)
	defer SetGlobalLogger(nil)

	if GetGlobalLogger() != custom {
		t.Error("expected SetGlobalLogger to set the global logger")
	}

	Debug("debug msg")
	Info("info msg")
	Warn("warn msg")
	Error("error msg")
	if got := strings.Count(buf.String(), "\n"); got != 4 {
		t.Errorf("expected 4 lines, got %d", got)
	}
}

func TestRegistry(t *testing.T) {
	var buf bytes.Buffer
	named := NewWithWriter(jsonConfig("info"), "test", &buf)
	Register("aggregate-test", named)
	defer Unregister("aggregate-test")

	if Get("aggregate-test") != named {
		t.Error("expected registered logger to be returned")
	}
	if Get("unregistered") == nil {
		t.Error("expected fallback logger for unregistered name")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != FormatConsole {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected output 'stderr', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected Timestamp to be true")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json", Output: "stdout"}, false},
		{"valid console", Config{Level: "debug", Format: "console", Output: "stderr"}, false},
		{"invalid level", Config{Level: "bad", Format: "json", Output: "stdout"}, true},
		{"invalid format", Config{Level: "info", Format: "xml", Output: "stdout"}, true},
		{"invalid output", Config{Level: "info", Format: "json", Output: "file"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFieldHelpers(t *testing.T) {
	f := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(f) != 2 || f["a"] != 1 || f["b"] != "two" {
		t.Errorf("unexpected fields %v", f)
	}

	ef := ErrorFields("exec", errors.New("bad"))
	if ef[FieldOperation] != "exec" || ef[FieldError] != "bad" {
		t.Errorf("unexpected error fields %v", ef)
	}

	df := DurationFields("exec", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", df[FieldDuration])
	}
}
