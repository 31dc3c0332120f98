package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"broom/internal/config"
	"broom/internal/logging"
)

func TestConsoleLoggerPromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	logging.NewComponentLogger(logger, "janitor").Info("cleanup finished", logging.Int("killed", 3))

	line := buf.String()
	if !strings.Contains(line, " INFO janitor: cleanup finished") {
		t.Fatalf("unexpected console line %q", line)
	}
	if !strings.Contains(line, "killed=3") {
		t.Fatalf("expected killed attribute in %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be promoted out of the attribute list: %q", line)
	}
}

func TestConsoleLoggerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	logger.Info("sweep", logging.Error(errors.New("pkill failed: exit 2")))

	if !strings.Contains(buf.String(), `error="pkill failed: exit 2"`) {
		t.Fatalf("expected quoted error value, got %q", buf.String())
	}
}

func TestConsoleLoggerFlattensGroups(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	logger.WithGroup("kill").Info("done", logging.Int("exit_code", 0))

	if !strings.Contains(buf.String(), "kill.exit_code=0") {
		t.Fatalf("expected flattened group key, got %q", buf.String())
	}
}

func TestConsoleLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	logger.Info("should be dropped")
	logger.Warn("should be kept")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Fatalf("info record leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "should be kept") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestJSONLoggerRenamesStandardKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	logger.Info("json message", logging.String("k", "v"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json record: %v", err)
	}
	if record["msg"] != "json message" {
		t.Fatalf("expected msg key, got %v", record)
	}
	if record["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Watch.VendorPrefix = "com.acme."
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("logging.NewFromConfig: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Info("startup")
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	logging.WarnWithContext(logger, "watcher degraded", "watcher_error")

	out := buf.String()
	for _, want := range []string{"event_type=watcher_error", "error_hint=", "impact="} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}
