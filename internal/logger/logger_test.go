package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newBufferLogger(level zerolog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithWriter(&buf, level), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected valid JSON output, got error: %v (%q)", err, buf.String())
	}
	return entry
}

func TestNew_DevelopmentMode(t *testing.T) {
	logger := New("development")

	if logger == nil {
		t.Fatal("Expected logger to be created")
	}
	if logger.GetZerolog().GetLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level in development, got %s", logger.GetZerolog().GetLevel())
	}
}

func TestNew_ProductionMode(t *testing.T) {
	logger := New("production")

	if logger == nil {
		t.Fatal("Expected logger to be created")
	}
	if logger.GetZerolog().GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level in production, got %s", logger.GetZerolog().GetLevel())
	}
}

func TestNewWithWriter_FieldsAndLevel(t *testing.T) {
	logger, buf := newBufferLogger(zerolog.DebugLevel)

	logger.Debug("Listing stations", map[string]interface{}{
		"skip":  0,
		"limit": 100,
	})

	entry := decodeLine(t, buf)
	if entry["level"] != "debug" {
		t.Errorf("Expected level debug, got %v", entry["level"])
	}
	if entry["message"] != "Listing stations" {
		t.Errorf("Expected message field, got %v", entry["message"])
	}
	if entry["limit"] != float64(100) {
		t.Errorf("Expected limit field 100, got %v", entry["limit"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("Expected timestamp field")
	}
}

func TestInfo(t *testing.T) {
	logger, buf := newBufferLogger(zerolog.InfoLevel)

	logger.Info("Station created", map[string]interface{}{
		"station_id": "4f1c",
		"level":      3,
	})

	output := buf.String()
	if !strings.Contains(output, "Station created") {
		t.Error("Expected log output to contain message")
	}
	if !strings.Contains(output, "4f1c") {
		t.Error("Expected log output to contain station_id field")
	}
}

func TestWarn(t *testing.T) {
	logger, buf := newBufferLogger(zerolog.InfoLevel)

	logger.Warn("Ignoring field", map[string]interface{}{
		"entity": "Station",
		"field":  "colour",
	})

	entry := decodeLine(t, buf)
	if entry["level"] != "warn" {
		t.Errorf("Expected level warn, got %v", entry["level"])
	}
	if entry["field"] != "colour" {
		t.Errorf("Expected field value colour, got %v", entry["field"])
	}
}

func TestError(t *testing.T) {
	logger, buf := newBufferLogger(zerolog.InfoLevel)

	logger.Error("Failed to list stations", errors.New("connection refused"), map[string]interface{}{
		"context": "database",
	})

	entry := decodeLine(t, buf)
	if entry["error"] != "connection refused" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
	if entry["context"] != "database" {
		t.Errorf("Expected context field, got %v", entry["context"])
	}
}

func TestWith(t *testing.T) {
	logger, buf := newBufferLogger(zerolog.InfoLevel)

	childLogger := logger.With(map[string]interface{}{
		"component": "repository",
		"entity":    "Station",
	})
	childLogger.Info("test message", nil)

	entry := decodeLine(t, buf)
	if entry["component"] != "repository" {
		t.Error("Expected log output to contain component field from context")
	}
	if entry["entity"] != "Station" {
		t.Error("Expected log output to contain entity field from context")
	}
}

func TestWithRequestID(t *testing.T) {
	logger, buf := newBufferLogger(zerolog.InfoLevel)

	childLogger := logger.WithRequestID("req-12345")
	childLogger.Info("request received", nil)

	entry := decodeLine(t, buf)
	if entry["request_id"] != "req-12345" {
		t.Errorf("Expected request_id field, got %v", entry["request_id"])
	}
}

func TestLogLevels_Production(t *testing.T) {
	logger, buf := newBufferLogger(zerolog.InfoLevel)

	logger.Debug("debug message", nil)
	if buf.Len() != 0 {
		t.Error("Debug message should not appear at info level")
	}

	logger.Info("info message", nil)
	if !strings.Contains(buf.String(), "info message") {
		t.Error("Info message should appear at info level")
	}
}

func TestNop(t *testing.T) {
	logger := Nop()

	// Must not panic or write anywhere
	logger.Info("discarded", map[string]interface{}{"key": "value"})
	logger.Error("discarded", errors.New("boom"), nil)

	if logger.GetZerolog().GetLevel() != zerolog.Disabled {
		t.Errorf("Expected disabled level, got %s", logger.GetZerolog().GetLevel())
	}
}

func TestNilFields(t *testing.T) {
	logger, buf := newBufferLogger(zerolog.InfoLevel)

	// Should not panic with nil fields
	logger.Info("message with nil fields", nil)

	if !strings.Contains(buf.String(), "message with nil fields") {
		t.Error("Expected message to be logged even with nil fields")
	}
}
