package entity

import "github.com/df-mc/shatter/server/world"

// Kind classifies an entity for collision handling. It is fixed when the
// entity is created, except for destructibles that turn into fragments.
type Kind uint8

const (
	// KindOriginal is an entity placed in the world, such as a crate or an
	// enemy. Destructible originals lose durability when hit.
	KindOriginal Kind = iota
	// KindFragment is a piece of debris spawned by a shattered destructible.
	// Fragments are never hit and never shatter.
	KindFragment
	// KindHitSource is an entity that damages destructibles it touches, such
	// as a bullet.
	KindHitSource
	// KindTerrain is static ground. Hit sources pass over terrain without
	// being removed.
	KindTerrain
)

// String returns the name of the Kind.
func (k Kind) String() string {
	switch k {
	case KindOriginal:
		return "original"
	case KindFragment:
		return "fragment"
	case KindHitSource:
		return "hit_source"
	case KindTerrain:
		return "terrain"
	}
	return "unknown"
}

// classifier is implemented by behaviours that have a Kind other than
// KindOriginal.
type classifier interface {
	Kind() Kind
}

// KindOf returns the Kind of the entity passed. Entities that are not an *Ent
// or whose behaviour does not specify a Kind are KindOriginal.
func KindOf(e world.Entity) Kind {
	ent, ok := e.(*Ent)
	if !ok {
		return KindOriginal
	}
	if c, ok := ent.Behaviour().(classifier); ok {
		return c.Kind()
	}
	return KindOriginal
}
