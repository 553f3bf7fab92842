package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Arena is the layout of the entities spawned into the World of a Server.
// Arenas are stored as YAML files and loaded using LoadArena.
type Arena struct {
	// Ground is the slab of terrain that all other entities stand on.
	Ground GroundLayout `yaml:"ground"`
	// Player is the spawn of the player.
	Player PlayerLayout `yaml:"player"`
	// Destructibles are the objects that shatter once their durability runs
	// out.
	Destructibles []DestructibleLayout `yaml:"destructibles"`
	// Enemies hunt the player and shatter like destructibles.
	Enemies []EnemyLayout `yaml:"enemies"`
}

// GroundLayout describes the terrain of an Arena.
type GroundLayout struct {
	// Size is the width, depth and length of the ground slab.
	Size mgl64.Vec3 `yaml:"size,flow"`
	// Height is the height of the top of the ground. It also acts as the
	// floor below which no entity can fall.
	Height float64 `yaml:"height"`
}

// PlayerLayout describes where the player spawns.
type PlayerLayout struct {
	Position mgl64.Vec3 `yaml:"position,flow"`
	// Yaw is the rotation of the player around the Y axis in degrees. At 0,
	// the player faces the positive Z axis.
	Yaw float64 `yaml:"yaw"`
}

// DestructibleLayout describes a destructible and the entities attached to
// it.
type DestructibleLayout struct {
	Name     string     `yaml:"name"`
	Position mgl64.Vec3 `yaml:"position,flow"`
	// Scale is the scale of the destructible. If zero, {1, 1, 1} is used.
	Scale mgl64.Vec3 `yaml:"scale,flow,omitempty"`
	// Durability is the amount of hits the destructible takes before it
	// shatters. If 0, the default durability is used.
	Durability int `yaml:"durability,omitempty"`
	// Children are destructibles attached to this one. Their positions are
	// relative to the position of their parent.
	Children []DestructibleLayout `yaml:"children,omitempty"`
}

// EnemyLayout describes the spawn of an enemy.
type EnemyLayout struct {
	Name       string     `yaml:"name"`
	Position   mgl64.Vec3 `yaml:"position,flow"`
	Yaw        float64    `yaml:"yaw"`
	Durability int        `yaml:"durability,omitempty"`
}

// DefaultArena returns the arena that is written to a new arena file: a
// ground of 50 by 50 blocks with a row of crates in front of the player, one
// of them carrying a lid, and a single enemy.
func DefaultArena() Arena {
	return Arena{
		Ground: GroundLayout{Size: mgl64.Vec3{50, 1, 50}},
		Player: PlayerLayout{Position: mgl64.Vec3{0, 1, -10}},
		Destructibles: []DestructibleLayout{
			{Name: "Crate", Position: mgl64.Vec3{-4, 0.5, 0}},
			{Name: "Crate", Position: mgl64.Vec3{0, 0.5, 0}, Children: []DestructibleLayout{
				{Name: "Lid", Position: mgl64.Vec3{0, 0.55, 0}, Scale: mgl64.Vec3{1, 0.1, 1}, Durability: 1},
			}},
			{Name: "Barrel", Position: mgl64.Vec3{4, 0.75, 0}, Scale: mgl64.Vec3{1, 1.5, 1}, Durability: 5},
		},
		Enemies: []EnemyLayout{
			{Name: "Enemy", Position: mgl64.Vec3{8, 0.5, 10}, Yaw: 180},
		},
	}
}

// empty reports if the Arena holds neither ground nor entities.
func (a Arena) empty() bool {
	return a.Ground.Size == (mgl64.Vec3{}) && len(a.Destructibles) == 0 && len(a.Enemies) == 0
}

// Validate checks if the Arena can be spawned. An error wrapping
// ErrInvalidConfig is returned if it cannot.
func (a Arena) Validate() error {
	for i, v := range a.Ground.Size {
		if v <= 0 {
			return fmt.Errorf("%w: ground size must be positive on every axis, got %v on axis %d", ErrInvalidConfig, v, i)
		}
	}
	for _, d := range a.Destructibles {
		if err := d.validate(a.Ground.Height); err != nil {
			return err
		}
	}
	for _, e := range a.Enemies {
		if e.Durability < 0 {
			return fmt.Errorf("%w: enemy %q has negative durability %d", ErrInvalidConfig, e.Name, e.Durability)
		}
		if e.Position[1] < a.Ground.Height {
			return fmt.Errorf("%w: enemy %q spawns below the ground", ErrInvalidConfig, e.Name)
		}
	}
	if a.Player.Position[1] < a.Ground.Height {
		return fmt.Errorf("%w: player spawns below the ground", ErrInvalidConfig)
	}
	return nil
}

// validate checks the layout and its children, which are positioned relative
// to floor.
func (d DestructibleLayout) validate(floor float64) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: destructible at %v has no name", ErrInvalidConfig, d.Position)
	}
	if d.Durability < 0 {
		return fmt.Errorf("%w: destructible %q has negative durability %d", ErrInvalidConfig, d.Name, d.Durability)
	}
	if d.Scale != (mgl64.Vec3{}) {
		// A zero scale means {1, 1, 1}, but a single flat axis leaves nothing to
		// shatter.
		for i, v := range d.Scale {
			if v <= 0 {
				return fmt.Errorf("%w: destructible %q has non-positive scale %v on axis %d", ErrInvalidConfig, d.Name, v, i)
			}
		}
	}
	if d.Position[1] < floor {
		return fmt.Errorf("%w: destructible %q spawns below the ground", ErrInvalidConfig, d.Name)
	}
	for _, c := range d.Children {
		if err := c.validate(floor - d.Position[1]); err != nil {
			return err
		}
	}
	return nil
}

// LoadArena loads the arena stored in the YAML file at the path passed. If
// the file does not exist yet, it is created with DefaultArena.
func LoadArena(path string) (Arena, error) {
	if strings.TrimSpace(path) == "" {
		return Arena{}, errors.New("arena path must not be empty")
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			a := DefaultArena()
			return a, writeArena(path, a)
		}
		return Arena{}, fmt.Errorf("read arena: %w", err)
	}
	var a Arena
	if err := yaml.Unmarshal(contents, &a); err != nil {
		return Arena{}, fmt.Errorf("decode arena: %w", err)
	}
	if err := a.Validate(); err != nil {
		return Arena{}, err
	}
	return a, nil
}

// writeArena writes the Arena passed to a YAML file at path, creating its
// directory if needed.
func writeArena(path string, a Arena) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("create arena directory: %w", err)
		}
	}
	encoded, err := yaml.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode arena: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("write arena: %w", err)
	}
	return nil
}
