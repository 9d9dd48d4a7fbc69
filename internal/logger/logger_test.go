package logger

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		log, err := New(Config{Level: "info", Format: "json"})
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}
		if log == nil {
			t.Fatal("Expected a logger")
		}
	})

	t.Run("UnknownLevelIsRejected", func(t *testing.T) {
		if _, err := New(Config{Level: "verbose", Format: "json"}); err == nil {
			t.Error("Expected error for unknown level")
		}
	})

	t.Run("FileOutput", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "grc.log")
		log, err := New(Config{
			Level:  "info",
			Format: "json",
			File:   &FileConfig{Enabled: true, Path: path},
		})
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}

		log.Info("scan started")
		log.Sync()

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Log file not created: %v", err)
		}
		if info.Size() == 0 {
			t.Error("Expected log file to contain the entry")
		}
	})
}

func TestLoggerContext(t *testing.T) {
	newObserved := func() (*Logger, *observer.ObservedLogs) {
		core, logs := observer.New(zapcore.DebugLevel)
		return &Logger{Logger: zap.New(core)}, logs
	}

	t.Run("WithComponent", func(t *testing.T) {
		log, logs := newObserved()
		log.WithComponent("scanner").Info("started")

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("Expected 1 entry, got %d", len(entries))
		}
		if got := entries[0].ContextMap()["component"]; got != "scanner" {
			t.Errorf("Expected component=scanner, got %v", got)
		}
	})

	t.Run("WithScanTarget", func(t *testing.T) {
		log, logs := newObserved()
		log.WithScanTarget("./src").Info("started")

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("Expected 1 entry, got %d", len(entries))
		}
		if got := entries[0].ContextMap()["target"]; got != "./src" {
			t.Errorf("Expected target=./src, got %v", got)
		}
	})

	t.Run("ContextHelpersChain", func(t *testing.T) {
		log, logs := newObserved()
		log.WithComponent("scanner").WithScanTarget("./src").Info("started")

		ctx := logs.All()[0].ContextMap()
		if ctx["component"] != "scanner" || ctx["target"] != "./src" {
			t.Errorf("Expected both fields, got %v", ctx)
		}
	})
}
