package world

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Entity represents an entity in the world, typically an object that may be
// moved around and can be interacted with by other entities.
type Entity interface {
	// H returns the EntityHandle that points to the Entity.
	H() *EntityHandle
	// Position returns the current position of the entity in the world.
	Position() mgl64.Vec3
	// Rotation returns the current orientation of the entity.
	Rotation() mgl64.Quat
}

// TickerEntity represents an Entity with a Tick method. This method is called
// every time the World ticks.
type TickerEntity interface {
	Entity
	// Tick ticks the entity with the current tick passed.
	Tick(tx *Tx, current int64)
}

// Collider represents an Entity that is notified when it starts touching
// another Entity.
type Collider interface {
	Entity
	// Collide is called once when the entity starts touching other. It is not
	// called again until the two entities have separated.
	Collide(tx *Tx, other Entity)
}

// EntityType is the type of Entity. It specifies the name and bounding box of
// the Entity and opens an Entity from the data held by an EntityHandle.
type EntityType interface {
	// Open opens an Entity with the data passed.
	Open(handle *EntityHandle, data *EntityData) Entity
	// EncodeEntity converts the entity to its encoded representation: It
	// returns the type name, such as 'shatter:destructible'.
	EncodeEntity() string
	// BBox returns the bounding box of an Entity with this EntityType, relative
	// to the entity's position.
	BBox(e Entity) BBox
}

// EntityConfig is used to apply type specific configuration, usually a
// behaviour, to the EntityData of a new EntityHandle.
type EntityConfig interface {
	Apply(data *EntityData)
}

// Cloner is implemented by values stored in EntityData.Data that support
// being replicated by Tx.Instantiate.
type Cloner interface {
	// Clone returns an independent copy of the value.
	Clone() any
}

// EntityData holds the data of an entity that is shared by all EntityTypes.
// Data holds the type specific data, generally a behaviour.
type EntityData struct {
	Pos   mgl64.Vec3
	Rot   mgl64.Quat
	Scale mgl64.Vec3
	Name  string
	// Body is the physics body of the entity. It is nil for entities that are
	// not moved by forces.
	Body *RigidBody

	Data any
}

// EntitySpawnOpts holds options for spawning an entity in a World.
type EntitySpawnOpts struct {
	Position mgl64.Vec3
	// Rotation is the orientation of the entity. A zero Quat is replaced with
	// the identity rotation.
	Rotation mgl64.Quat
	// Scale is the scale of the entity on every axis. A zero Vec3 is replaced
	// with {1, 1, 1}.
	Scale mgl64.Vec3
	Name  string
	// Velocity is the initial velocity of the Body, if any.
	Velocity mgl64.Vec3
	Body     *RigidBody
	// ID is the unique ID of the entity. If left empty, a random UUID is
	// generated.
	ID uuid.UUID
}

// New creates an EntityHandle using the EntityType and EntityConfig passed.
// The handle may be added to a World using Tx.AddEntity.
func (opts EntitySpawnOpts) New(t EntityType, conf EntityConfig) *EntityHandle {
	if opts.ID == uuid.Nil {
		opts.ID = uuid.New()
	}
	if opts.Rotation == (mgl64.Quat{}) {
		opts.Rotation = mgl64.QuatIdent()
	}
	if opts.Scale == (mgl64.Vec3{}) {
		opts.Scale = mgl64.Vec3{1, 1, 1}
	}
	if opts.Name == "" {
		opts.Name = t.EncodeEntity()
	}
	handle := &EntityHandle{id: opts.ID, t: t}
	handle.data = EntityData{
		Pos:   opts.Position,
		Rot:   opts.Rotation,
		Scale: opts.Scale,
		Name:  opts.Name,
		Body:  opts.Body,
	}
	if handle.data.Body != nil {
		handle.data.Body.SetVelocity(opts.Velocity)
	}
	if conf != nil {
		conf.Apply(&handle.data)
	}
	return handle
}

// EntityHandle holds the persistent data of an Entity and points to the World
// it is in, if any. A handle that has been removed from its World is closed
// and is never added to a World again.
type EntityHandle struct {
	id   uuid.UUID
	t    EntityType
	data EntityData

	w      *World
	ent    Entity
	closed bool

	parent   *EntityHandle
	children []*EntityHandle
}

// UUID returns the unique ID of the entity.
func (e *EntityHandle) UUID() uuid.UUID {
	return e.id
}

// Type returns the EntityType of the entity.
func (e *EntityHandle) Type() EntityType {
	return e.t
}

// Closed reports if the entity was removed from its World.
func (e *EntityHandle) Closed() bool {
	return e.closed
}

// Entity returns the Entity that the handle points to, if the handle is
// currently in the World of the Tx passed.
func (e *EntityHandle) Entity(tx *Tx) (Entity, bool) {
	if e == nil || e.closed || e.w == nil || e.w != tx.World() {
		return nil, false
	}
	return e.entity(), true
}

// String returns the name and ID of the entity.
func (e *EntityHandle) String() string {
	return fmt.Sprintf("%s(%s)", e.data.Name, e.id)
}

func (e *EntityHandle) entity() Entity {
	if e.ent == nil {
		e.ent = e.t.Open(e, &e.data)
	}
	return e.ent
}

// detach removes the handle from the children of its parent.
func (e *EntityHandle) detach() {
	if e.parent == nil {
		return
	}
	e.parent.children = slices.DeleteFunc(e.parent.children, func(c *EntityHandle) bool {
		return c == e
	})
	e.parent = nil
}

// isAncestorOf checks if e is other or one of the ancestors of other.
func (e *EntityHandle) isAncestorOf(other *EntityHandle) bool {
	for h := other; h != nil; h = h.parent {
		if h == e {
			return true
		}
	}
	return false
}

// EntityRegistry is a mapping that EntityTypes may be registered to. It is
// used to look up an EntityType by its encoded name.
type EntityRegistry struct {
	ent map[string]EntityType
}

// NewEntityRegistry returns an EntityRegistry holding the types passed. It
// panics if two types share the same encoded name.
func NewEntityRegistry(types ...EntityType) EntityRegistry {
	m := make(map[string]EntityType, len(types))
	for _, t := range types {
		name := t.EncodeEntity()
		if _, ok := m[name]; ok {
			panic("cannot register the same entity (" + name + ") twice")
		}
		m[name] = t
	}
	return EntityRegistry{ent: m}
}

// Lookup looks up an EntityType by its name. If found, the EntityType is
// returned and the bool is true. The bool is false otherwise.
func (reg EntityRegistry) Lookup(name string) (EntityType, bool) {
	t, ok := reg.ent[name]
	return t, ok
}

// Types returns all EntityTypes passed upon construction of the
// EntityRegistry, sorted by name.
func (reg EntityRegistry) Types() []EntityType {
	types := make([]EntityType, 0, len(reg.ent))
	for _, t := range reg.ent {
		types = append(types, t)
	}
	slices.SortFunc(types, func(a, b EntityType) int {
		switch an, bn := a.EncodeEntity(), b.EncodeEntity(); {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	})
	return types
}
