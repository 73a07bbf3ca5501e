package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLogger_TextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "text")

	l.Info("hidden")
	l.Warn("visible", "page", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info line to be filtered, got %q", out)
	}
	if !strings.Contains(out, "WARN: visible page=2") {
		t.Fatalf("unexpected text line: %q", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "json").With("document", "doc-1")

	l.Error("save failed", errors.New("boom"), "attempt", 1)

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("failed to decode json line: %v (%q)", err, buf.String())
	}
	if entry["severity"] != "ERROR" {
		t.Fatalf("expected severity ERROR, got %v", entry["severity"])
	}
	if entry["error"] != "boom" {
		t.Fatalf("expected error boom, got %v", entry["error"])
	}
	if entry["document"] != "doc-1" {
		t.Fatalf("expected document field from With, got %v", entry["document"])
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Fatalf("parseLogLevel(%q): expected %d, got %d", in, want, got)
		}
	}
}
