package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"frauddetect/config"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.Log{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(config.Log{Level: "info", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Info("model loaded")
	log.Debug("filtered out")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "model loaded") {
		t.Fatalf("expected info entry in log file, got %q", data)
	}
	if strings.Contains(string(data), "filtered out") {
		t.Fatal("debug entry should be below the configured level")
	}
}

func TestRotatingWriterSettings(t *testing.T) {
	w := RotatingWriter(config.Log{File: "x.log", MaxSizeMB: 5, MaxBackups: 2, MaxAgeDays: 7})
	if w.Filename != "x.log" || w.MaxSize != 5 || w.MaxBackups != 2 || w.MaxAge != 7 {
		t.Fatalf("unexpected writer settings: %+v", w)
	}
}
