package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		format   string
		wantJSON bool
	}{
		{name: "json", format: "json", wantJSON: true},
		{name: "text", format: "TEXT", wantJSON: false},
		{name: "unknown_falls_back_to_json", format: "xml", wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			logger := New(&buf, tt.format, slog.LevelInfo)
			logger.Info("committed", "uid", "card1")

			line := strings.TrimSpace(buf.String())
			isJSON := json.Valid([]byte(line))
			if isJSON != tt.wantJSON {
				t.Fatalf("json output: want %v, got %v (%q)", tt.wantJSON, isJSON, line)
			}
			if !strings.Contains(line, "card1") {
				t.Fatalf("missing attribute in %q", line)
			}
		})
	}
}

func TestNew_LevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := New(&buf, "json", slog.LevelWarn)
	logger.Info("dropped")

	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}
}
