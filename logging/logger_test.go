package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name: "stdout logger",
			cfg: &Config{
				Level:  "info",
				Format: "text",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "json logger",
			cfg: &Config{
				Level:  "debug",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "stderr logger",
			cfg: &Config{
				Level:  "error",
				Format: "text",
				Output: "stderr",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("NewLogger() returned nil logger")
			}
		})
	}
}

func TestDefaultLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := &DefaultLogger{
		level:  LevelDebug,
		format: FormatText,
		output: &buf,
	}

	logger.Info("test message", "key1", "value1", "key2", 123)

	output := buf.String()
	if !strings.Contains(output, "INFO") {
		t.Errorf("Expected INFO in output, got: %s", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected message in output, got: %s", output)
	}
}

func TestDefaultLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := &DefaultLogger{
		level:  LevelDebug,
		format: FormatJSON,
		output: &buf,
	}

	logger.Warn("json message", "reason", "certificate_mismatch")

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if entry.Level != "WARN" {
		t.Errorf("Expected level WARN, got %s", entry.Level)
	}
	if entry.Fields["reason"] != "certificate_mismatch" {
		t.Errorf("Expected reason field, got %v", entry.Fields)
	}
}

func TestDefaultLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := &DefaultLogger{
		level:  LevelWarn,
		format: FormatText,
		output: &buf,
	}

	logger.Debug("should be dropped")
	logger.Info("should be dropped too")

	if buf.Len() != 0 {
		t.Errorf("Expected no output below warn level, got: %s", buf.String())
	}

	logger.Error("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("Expected error output, got: %s", buf.String())
	}
}

func TestDefaultLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := &DefaultLogger{
		level:  LevelDebug,
		format: FormatJSON,
		output: &buf,
	}

	sub := logger.With("component", "resolver")
	sub.Info("bound fields", "extra", "value")

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if entry.Fields["component"] != "resolver" {
		t.Errorf("Expected bound component field, got %v", entry.Fields)
	}
	if entry.Fields["extra"] != "value" {
		t.Errorf("Expected call-site field, got %v", entry.Fields)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"fatal", LevelFatal},
		{"unknown", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
