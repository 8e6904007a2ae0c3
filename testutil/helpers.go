package testutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/aggkit/logger"
)

var errInvalidSnapshot = errors.New("testutil: invalid snapshot")

// LogBuffer returns a debug-level JSON logger writing to the returned
// buffer.
func LogBuffer() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := &logger.Config{Level: "debug", Format: logger.FormatJSON, Output: "stdout"}
	return logger.NewWithWriter(cfg, "test", &buf), &buf
}

// LogEntries decodes every JSON line written to buf.
func LogEntries(t testing.TB, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("failed to decode log line %q: %v", line, err)
		}
		entries = append(entries, m)
	}
	return entries
}

// LogsWithLevel returns the entries at level, e.g. "warn".
func LogsWithLevel(t testing.TB, buf *bytes.Buffer, level string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, e := range LogEntries(t, buf) {
		if e["level"] == level {
			out = append(out, e)
		}
	}
	return out
}
