package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// restore puts back the global logger replaced by a test.
func restore(t *testing.T) {
	t.Helper()
	saved := Log
	t.Cleanup(func() {
		Log = saved
		Sugar = saved.Sugar()
	})
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	Sync()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	return string(data)
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level  string
		logged string // levels written, in severity order
	}{
		{"error", "ERROR"},
		{"warn", "ERROR WARN"},
		{"info", "ERROR WARN INFO"},
		{"debug", "ERROR WARN INFO DEBUG"},
		{"verbose", "ERROR WARN INFO"},
		{"fatal", "ERROR WARN INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			restore(t)
			path := filepath.Join(t.TempDir(), "levels.log")
			if err := InitWithFileConfig(tt.level, FileConfig{Path: path, MaxSizeMB: 1}, false); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")

			content := readLog(t, path)
			for _, lvl := range []string{"ERROR", "WARN", "INFO", "DEBUG"} {
				want := strings.Contains(tt.logged, lvl)
				if got := strings.Contains(content, lvl); got != want {
					t.Errorf("%s present = %v, want %v", lvl, got, want)
				}
			}
		})
	}
}

func TestLogRotation(t *testing.T) {
	restore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "meshview.log")

	// 1MB is the smallest size lumberjack rotates at.
	cfg := FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 2, MaxAgeDays: 1}
	if err := InitWithFileConfig("debug", cfg, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	payload := strings.Repeat("v", 256)
	for i := 0; i < 6000; i++ {
		Sugar.Debugf("vertex %d %s", i, payload)
	}
	Sync()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var rotated []string
	for _, e := range entries {
		if name := e.Name(); name != "meshview.log" && strings.HasPrefix(name, "meshview-") {
			rotated = append(rotated, name)
		}
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("current log file missing: %v", err)
	}
	if len(rotated) == 0 {
		t.Errorf("no rotated files in %v", entries)
	}
	if len(rotated) > cfg.MaxBackups {
		t.Errorf("%d backups kept, limit %d", len(rotated), cfg.MaxBackups)
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("logs/meshview.log")
	want := FileConfig{Path: "logs/meshview.log", MaxSizeMB: 20, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
	if cfg != want {
		t.Errorf("DefaultFileConfig() = %+v, want %+v", cfg, want)
	}
}

func TestNopBeforeInit(t *testing.T) {
	restore(t)
	Log = zap.NewNop()
	Sugar = Log.Sugar()

	// Must not panic or write anywhere.
	Info("not initialized")
	Named("importer").Warn("still quiet")
	Sync()
}

func TestNamed(t *testing.T) {
	restore(t)
	path := filepath.Join(t.TempDir(), "named.log")
	if err := InitWithFileConfig("info", FileConfig{Path: path, MaxSizeMB: 1}, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	Named("importer").Info("model loaded", zap.String("path", "tree.rsm"))

	content := readLog(t, path)
	for _, want := range []string{"importer", "model loaded", "tree.rsm"} {
		if !strings.Contains(content, want) {
			t.Errorf("expected %q in log output: %s", want, content)
		}
	}
}
