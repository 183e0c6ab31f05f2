package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/i474232898/weatherai/internal/config"
)

func TestNewProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.AppConfig{AppEnv: "prod", LogLevel: slog.LevelInfo}, "1.2.3", "weatherai")

	log.Debug("hidden")
	log.Info("reload done", "stations", 30)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record above the level, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["app"] != "weatherai" || rec["version"] != "1.2.3" || rec["env"] != "prod" || rec["stations"] != float64(30) {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestNewDevWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.AppConfig{AppEnv: "dev", LogLevel: slog.LevelDebug}, "dev", "weatherai")

	log.Debug("resolving", "q", "tokio")
	if out := buf.String(); !strings.Contains(out, "resolving") || strings.HasPrefix(out, "{") {
		t.Fatalf("expected a text record, got %q", out)
	}
}
