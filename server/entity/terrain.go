package entity

import (
	"github.com/df-mc/shatter/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// NewTerrain creates a flat slab of ground with the size passed. The top of
// the slab lies at the height of opts.Position.
func NewTerrain(opts world.EntitySpawnOpts, size mgl64.Vec3) *world.EntityHandle {
	if opts.Name == "" {
		opts.Name = "Ground"
	}
	return opts.New(TerrainType, TerrainBehaviourConfig{Size: size})
}

// TerrainType is a world.EntityType implementation for static ground.
var TerrainType terrainType

type terrainType struct{}

func (terrainType) Open(handle *world.EntityHandle, data *world.EntityData) world.Entity {
	return Open(handle, data)
}

func (terrainType) EncodeEntity() string { return "shatter:terrain" }

func (terrainType) BBox(e world.Entity) world.BBox {
	size := mgl64.Vec3{1, 1, 1}
	if ent, ok := e.(*Ent); ok {
		if b, ok := ent.Behaviour().(*TerrainBehaviour); ok {
			size = b.size
		}
	}
	return world.Box(-size[0]/2, -size[1], -size[2]/2, size[0]/2, 0, size[2]/2)
}

// TerrainBehaviourConfig holds the size of a terrain slab.
type TerrainBehaviourConfig struct {
	Size mgl64.Vec3
}

// Apply applies the config to the world.EntityData passed.
func (conf TerrainBehaviourConfig) Apply(data *world.EntityData) {
	data.Data = conf.New()
}

// New creates a TerrainBehaviour using conf.
func (conf TerrainBehaviourConfig) New() *TerrainBehaviour {
	return &TerrainBehaviour{size: conf.Size}
}

// TerrainBehaviour implements the behaviour of static ground. Terrain never
// moves and is ignored by projectiles.
type TerrainBehaviour struct {
	size mgl64.Vec3
}

// Kind returns KindTerrain.
func (*TerrainBehaviour) Kind() Kind {
	return KindTerrain
}

// Size returns the size of the terrain slab.
func (t *TerrainBehaviour) Size() mgl64.Vec3 {
	return t.size
}

// Tick does nothing.
func (*TerrainBehaviour) Tick(*Ent, *world.Tx) *Movement {
	return nil
}

// Clone returns a copy of the terrain behaviour.
func (t *TerrainBehaviour) Clone() any {
	c := *t
	return &c
}
