package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew_WritesUTCJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug)
	logger.Debug("waiting", "locator", `css selector=".spinner"`)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	ts, _ := lines[0]["time"].(string)
	if !strings.HasSuffix(ts, "Z") {
		t.Fatalf("expected UTC timestamp, got %q", ts)
	}
	if lines[0]["locator"] != `css selector=".spinner"` {
		t.Fatalf("locator attr mismatch: %v", lines[0]["locator"])
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)
	logger.Info("dropped")
	logger.Warn("kept")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "kept" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestWith_AddsOnlyNonEmptyCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := With(New(&buf, slog.LevelInfo), Correlation{RunID: "run-1", Test: "TestNav"})
	logger.Info("hello")

	lines := decodeLines(t, &buf)
	if lines[0]["run_id"] != "run-1" || lines[0]["test"] != "TestNav" {
		t.Fatalf("correlation attrs missing: %v", lines[0])
	}
	if _, ok := lines[0]["browser"]; ok {
		t.Fatalf("empty browser attr should be omitted: %v", lines[0])
	}
}

func testParseLevel_KnownNames(t *rapid.T) {
	name := rapid.SampledFrom([]string{"debug", "info", "warn", "warning", "error"}).Draw(t, "name")
	upper := rapid.Bool().Draw(t, "upper")
	if upper {
		name = strings.ToUpper(name)
	}
	if _, err := ParseLevel(name); err != nil {
		t.Fatalf("ParseLevel(%q) error: %v", name, err)
	}
}

func TestParseLevel_KnownNames(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testParseLevel_KnownNames)
}

func TestParseLevel_RejectsUnknown(t *testing.T) {
	t.Parallel()
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestOpenRunLog_WritesFileAndConsole(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	rl, err := openRunLog(dir, slog.LevelInfo, &console, now)
	if err != nil {
		t.Fatalf("openRunLog: %v", err)
	}
	if !strings.HasSuffix(rl.Path, "test_run_20260304_050607.log") {
		t.Fatalf("unexpected log path %q", rl.Path)
	}
	rl.Info("session started")
	if err := rl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	data, err := os.ReadFile(rl.Path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "session started") {
		t.Fatalf("file missing entry: %q", data)
	}
	if !strings.Contains(console.String(), "session started") {
		t.Fatalf("console missing entry: %q", console.String())
	}
}

func TestFrom_FallsBackToDiscard(t *testing.T) {
	if From(context.Background()) == nil {
		t.Fatal("From should never return nil")
	}
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)
	ctx := WithLogger(context.Background(), logger)
	From(ctx).Info("via context")
	if !strings.Contains(buf.String(), "via context") {
		t.Fatalf("context logger not used: %q", buf.String())
	}
}

func TestAccessLog_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug)
	h := AccessLog(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if From(r.Context()) != logger {
			t.Errorf("handler did not receive the access logger")
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about", nil))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected one access line, got %d", len(lines))
	}
	if lines[0]["status"] != float64(http.StatusTeapot) || lines[0]["path"] != "/about" {
		t.Fatalf("unexpected access line: %v", lines[0])
	}
	if lines[0]["resp_bytes"] != float64(len("short and stout")) {
		t.Fatalf("resp_bytes mismatch: %v", lines[0]["resp_bytes"])
	}
}

func TestNew_RedactsSensitiveStrings(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)
	logger.Info("remote browser", "auth_token", "s3cr3t", "endpoint", "ws://grid:4444")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if got := lines[0]["auth_token"]; got != "[REDACTED]" {
		t.Fatalf("auth_token = %v, want [REDACTED]", got)
	}
	if got := lines[0]["endpoint"]; got != "ws://grid:4444" {
		t.Fatalf("endpoint = %v", got)
	}
}
