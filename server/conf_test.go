package server

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/shatter/server/entity"
)

func TestParseSeed(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"42", 42},
		{" 7 ", 7},
		{"18446744073709551615", 18446744073709551615},
		{"-1", 18446744073709551615},
		{"crates", xxhash.Sum64String("crates")},
	}
	for _, tt := range tests {
		got, err := parseSeed(tt.in)
		if err != nil {
			t.Fatalf("parse seed %q: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("expected seed %q to parse to %d, got %d", tt.in, tt.want, got)
		}
	}
	if _, err := parseSeed("99999999999999999999999"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for an out of range seed, got %v", err)
	}
	if _, err := parseSeed(""); err != nil {
		t.Fatalf("expected an empty seed to be accepted, got %v", err)
	}
}

func TestUserConfigConfig(t *testing.T) {
	uc := DefaultConfig()
	uc.Simulation.Seed = "7"
	uc.Simulation.TickRate = -1
	uc.Fragments.Count = 6
	uc.Arena.File = filepath.Join(t.TempDir(), "arenas", "arena.yaml")

	conf, err := uc.Config(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if conf.World.Seed != 7 || conf.World.TickRate != -1 {
		t.Fatalf("unexpected world config: seed %d, tick rate %d", conf.World.Seed, conf.World.TickRate)
	}
	if conf.Fragments != (entity.PieceConfig{Count: 6, Scale: 0.5, Force: 5}) {
		t.Fatalf("unexpected fragment config: %+v", conf.Fragments)
	}
	if conf.MinRemovalDelay != 2500 || conf.MaxRemovalDelay != 5000 {
		t.Fatalf("unexpected removal delays %d and %d", conf.MinRemovalDelay, conf.MaxRemovalDelay)
	}
	if !conf.Autopilot || conf.Ticks != uc.Simulation.Ticks {
		t.Fatalf("expected autopilot and ticks to be copied")
	}
	if _, err := os.Stat(uc.Arena.File); err != nil {
		t.Fatalf("expected the arena file to be created: %v", err)
	}
	if len(conf.Arena.Destructibles) != len(DefaultArena().Destructibles) {
		t.Fatalf("expected the default arena to be loaded")
	}
}

func TestUserConfigInvalid(t *testing.T) {
	for name, modify := range map[string]func(uc *UserConfig){
		"negative ticks":       func(uc *UserConfig) { uc.Simulation.Ticks = -1 },
		"negative count":       func(uc *UserConfig) { uc.Fragments.Count = -3 },
		"negative scale":       func(uc *UserConfig) { uc.Fragments.Scale = -0.5 },
		"negative removal":     func(uc *UserConfig) { uc.Fragments.MinRemovalTicks = -1 },
		"inverted removal":     func(uc *UserConfig) { uc.Fragments.MinRemovalTicks, uc.Fragments.MaxRemovalTicks = 10, 5 },
		"seed out of range":    func(uc *UserConfig) { uc.Simulation.Seed = "-99999999999999999999" },
		"invalid arena layout": func(uc *UserConfig) { uc.Arena.File = writeFile(t, "ground:\n  size: [0, 1, 50]\n") },
	} {
		uc := DefaultConfig()
		uc.Arena.File = filepath.Join(t.TempDir(), "arena.yaml")
		modify(&uc)
		if _, err := uc.Config(slog.New(slog.NewTextHandler(io.Discard, nil))); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

// writeFile writes contents to a new file in a temporary directory and
// returns its path.
func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arena.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
