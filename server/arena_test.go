package server

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestLoadArenaCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "arena.yaml")
	a, err := LoadArena(path)
	if err != nil {
		t.Fatalf("load arena: %v", err)
	}
	if len(a.Destructibles) != 3 || len(a.Enemies) != 1 {
		t.Fatalf("expected the default arena, got %+v", a)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected arena file to be written: %v", err)
	}
	if !strings.Contains(string(contents), "destructibles:") {
		t.Fatalf("expected a YAML arena, got:\n%s", contents)
	}

	// Loading the written file again gives the same layout.
	again, err := LoadArena(path)
	if err != nil {
		t.Fatalf("reload arena: %v", err)
	}
	if again.Ground != a.Ground || again.Player != a.Player {
		t.Fatalf("expected ground and player to survive a reload, got %+v", again)
	}
	crate := again.Destructibles[1]
	if crate.Name != "Crate" || len(crate.Children) != 1 || crate.Children[0].Scale != (mgl64.Vec3{1, 0.1, 1}) {
		t.Fatalf("expected the crate and its lid to survive a reload, got %+v", crate)
	}
	if again.Destructibles[2].Durability != 5 || again.Enemies[0].Yaw != 180 {
		t.Fatalf("expected durability and yaw to survive a reload")
	}
}

func TestLoadArenaFromFile(t *testing.T) {
	path := writeFile(t, `
ground:
  size: [20, 1, 20]
  height: 2
player:
  position: [0, 3, 0]
  yaw: 90
destructibles:
  - name: Vase
    position: [3, 2.5, 3]
    durability: 1
    children:
      - name: Flower
        position: [0, 0.5, 0]
        scale: [0.2, 0.5, 0.2]
`)
	a, err := LoadArena(path)
	if err != nil {
		t.Fatalf("load arena: %v", err)
	}
	if a.Ground.Height != 2 || a.Ground.Size != (mgl64.Vec3{20, 1, 20}) {
		t.Fatalf("unexpected ground %+v", a.Ground)
	}
	if a.Player.Yaw != 90 || len(a.Enemies) != 0 {
		t.Fatalf("unexpected player or enemies: %+v %+v", a.Player, a.Enemies)
	}
	if len(a.Destructibles) != 1 || a.Destructibles[0].Children[0].Name != "Flower" {
		t.Fatalf("unexpected destructibles %+v", a.Destructibles)
	}
}

func TestLoadArenaErrors(t *testing.T) {
	if _, err := LoadArena(" "); err == nil {
		t.Fatalf("expected an error for an empty path")
	}
	if _, err := LoadArena(writeFile(t, "ground: [not, a, map")); err == nil {
		t.Fatalf("expected an error for malformed YAML")
	}
}

func TestArenaValidate(t *testing.T) {
	for name, modify := range map[string]func(a *Arena){
		"zero ground":         func(a *Arena) { a.Ground.Size[1] = 0 },
		"unnamed":             func(a *Arena) { a.Destructibles[0].Name = "" },
		"negative durability": func(a *Arena) { a.Destructibles[0].Durability = -1 },
		"negative scale":      func(a *Arena) { a.Destructibles[2].Scale[0] = -1 },
		"flat scale":          func(a *Arena) { a.Destructibles[2].Scale[1] = 0 },
		"flat child":          func(a *Arena) { a.Destructibles[1].Children[0].Scale = mgl64.Vec3{1, 0, 1} },
		"below ground":        func(a *Arena) { a.Destructibles[0].Position[1] = -1 },
		"child below ground":  func(a *Arena) { a.Destructibles[1].Children[0].Position[1] = -0.6 },
		"enemy durability":    func(a *Arena) { a.Enemies[0].Durability = -2 },
		"player below ground": func(a *Arena) { a.Player.Position[1] = -5 },
	} {
		a := DefaultArena()
		modify(&a)
		if err := a.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
	if err := DefaultArena().Validate(); err != nil {
		t.Fatalf("expected the default arena to be valid, got %v", err)
	}
	a := DefaultArena()
	a.Destructibles[2].Scale = mgl64.Vec3{}
	if err := a.Validate(); err != nil {
		t.Fatalf("expected a zero scale to fall back to the default, got %v", err)
	}
}
