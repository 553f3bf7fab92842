package entity

import "github.com/df-mc/shatter/server/world"

// DefaultRegistry is a world.EntityRegistry that registers all entities
// implemented by shatter.
var DefaultRegistry = world.NewEntityRegistry(
	BulletType,
	DestructibleType,
	EnemyType,
	PlayerType,
	TerrainType,
)
