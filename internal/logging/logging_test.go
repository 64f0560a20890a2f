package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Breadstickhemmo/42Brat/internal/config"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := DefaultFile(filepath.Join(t.TempDir(), "state"))
	log, err := New(config.LogConfig{File: path, Level: "info", MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	log.Debug("hidden")
	log.Info("push stream connected")
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"push stream connected"`) {
		t.Errorf("log missing info record: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %s", out)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(config.LogConfig{File: filepath.Join(t.TempDir(), "x.log"), Level: "loud"})
	if err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(config.LogConfig{}); err == nil {
		t.Error("expected error for empty path")
	}
}
