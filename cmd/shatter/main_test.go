package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadConfigCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	arena := filepath.Join(dir, "arena.yaml")
	// Point the arena file into the temporary directory before the default
	// config is written.
	if err := os.WriteFile(path, []byte("[Arena]\nFile = \""+filepath.ToSlash(arena)+"\"\n[Simulation]\nSeed = \"crates\"\nTicks = 10\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	conf, err := readConfig(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if conf.Ticks != 10 || !conf.Autopilot {
		t.Fatalf("expected file values to override defaults, got ticks %d autopilot %v", conf.Ticks, conf.Autopilot)
	}
	if _, err := os.Stat(arena); err != nil {
		t.Fatalf("expected arena file to be created: %v", err)
	}

	fresh := filepath.Join(t.TempDir(), "config.toml")
	wd, _ := os.Getwd()
	if err := os.Chdir(filepath.Dir(fresh)); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()
	if _, err := readConfig(fresh, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("read fresh config: %v", err)
	}
	data, err := os.ReadFile(fresh)
	if err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}
	if !strings.Contains(string(data), "[Fragments]") {
		t.Fatalf("expected a TOML config with a Fragments table, got:\n%s", data)
	}
}
