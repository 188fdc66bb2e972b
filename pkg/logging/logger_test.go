package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]hclog.Level{
		"DEBUG":   hclog.Debug,
		"debug":   hclog.Debug,
		"info":    hclog.Info,
		"":        hclog.Info,
		"WARNING": hclog.Warn,
		"warn":    hclog.Warn,
		"error":   hclog.Error,
		"off":     hclog.Off,
		"bogus":   hclog.Info,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Name: "up42", Level: "info", JSONFormat: true, Output: &buf})

	logger.Debug("dropped")
	logger.Info("got workflows", "count", 2, "project_id", "project_id123")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["@message"] != "got workflows" {
		t.Errorf("unexpected message: %v", entry["@message"])
	}
	if entry["project_id"] != "project_id123" {
		t.Errorf("unexpected project_id: %v", entry["project_id"])
	}
	if entry["@module"] != "up42" {
		t.Errorf("unexpected module: %v", entry["@module"])
	}
}
