package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"os"
	"strings"
	"testing"
)

func TestPrettyJSONHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, false))

	logger.With("bot", "b0").WithGroup("ship").With("id", 3).Debug("planned", "len", 12)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("not one JSON object per line: %v\n%s", err, buf.String())
	}
	if got["msg"] != "planned" || got["level"] != "DEBUG" || got["bot"] != "b0" {
		t.Fatalf("top level = %v", got)
	}
	ship, ok := got["ship"].(map[string]any)
	if !ok {
		t.Fatalf("missing ship group: %v", got)
	}
	if ship["id"] != float64(3) || ship["len"] != float64(12) {
		t.Errorf("ship group = %v", ship)
	}
}

func TestPrettyJSONHandler_IndentAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyJSONHandler(&buf, nil, true))

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug written at info level: %s", buf.String())
	}
	logger.Info("shown", "turn", 4)
	if !strings.Contains(buf.String(), "\n  \"turn\": 4") {
		t.Errorf("expected indented output, got %s", buf.String())
	}
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, Config{Level: "loud"}); err == nil {
		t.Errorf("unknown level accepted")
	}
	if _, err := New(&bytes.Buffer{}, Config{Format: "xml"}); err == nil {
		t.Errorf("unknown format accepted")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot-0.log")
	logger, closer, err := OpenFile(path, Config{Level: "debug", Format: FormatJSON})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	logger.Debug("hello", "turn", 1)
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"hello"`) {
		t.Errorf("log file = %s", raw)
	}
}
