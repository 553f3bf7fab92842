package entity

import (
	"fmt"

	"github.com/df-mc/shatter/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	defaultDurability      = 3
	defaultPieceCount      = 12
	defaultPieceScale      = 0.5
	defaultPieceForce      = 5.0
	defaultMinRemovalDelay = 2500
	defaultMaxRemovalDelay = 5000
)

// NewDestructible creates a new destructible entity with the durability
// passed. A durability of 0 or lower results in the default durability.
func NewDestructible(opts world.EntitySpawnOpts, durability int) *world.EntityHandle {
	conf := destructibleConf
	conf.Durability = durability
	return opts.New(DestructibleType, conf)
}

var destructibleConf = DestructibleBehaviourConfig{
	Gravity:     9.81,
	Drag:        0.05,
	AngularDrag: 0.5,
	Friction:    4,
}

// DefaultDestructibleConfig returns the DestructibleBehaviourConfig used by
// NewDestructible, with gravity, drag and friction filled out so that pieces
// fall and settle on the floor.
func DefaultDestructibleConfig() DestructibleBehaviourConfig {
	return destructibleConf
}

// DestructibleType is a world.EntityType implementation for destructible
// objects such as crates.
var DestructibleType destructibleType

type destructibleType struct{}

func (destructibleType) Open(handle *world.EntityHandle, data *world.EntityData) world.Entity {
	return Open(handle, data)
}

func (destructibleType) EncodeEntity() string { return "shatter:destructible" }

func (destructibleType) BBox(e world.Entity) world.BBox {
	return scaledBox(e, mgl64.Vec3{1, 1, 1})
}

// PieceConfig configures the fragments spawned when a destructible shatters.
type PieceConfig struct {
	// Count is the amount of fragments spawned. If 0, 12 fragments are
	// spawned. Negative values spawn no fragments.
	Count int
	// Scale is multiplied with the scale of the original to obtain the scale
	// of each fragment. If 0, 0.5 is used.
	Scale float64
	// Force is the base magnitude of the impulse applied to fragments. Every
	// axis of the impulse is drawn uniformly from [Force/2, Force*2]. If 0, 5
	// is used.
	Force float64
}

// DestructibleBehaviourConfig holds optional parameters for a
// DestructibleBehaviour.
type DestructibleBehaviourConfig struct {
	// Durability is the amount of hits the entity can take before it shatters.
	// If 0 or lower, 3 is used.
	Durability int
	// Pieces configures the fragments spawned when the entity shatters.
	Pieces PieceConfig
	// MinRemovalDelay and MaxRemovalDelay are the bounds, in ticks, of the
	// random delay after which a fragment removes itself. If 0, 2500 and
	// 5000 are used.
	MinRemovalDelay, MaxRemovalDelay int64
	// Gravity, Drag, AngularDrag and Friction are used to move the entity
	// if it has a rigid body. See MovementComputer.
	Gravity, Drag, AngularDrag, Friction float64
	// Floor is the height below which the entity cannot move.
	Floor float64
}

// Apply applies the config to the world.EntityData passed.
func (conf DestructibleBehaviourConfig) Apply(data *world.EntityData) {
	data.Data = conf.New()
}

// New creates a DestructibleBehaviour using the parameters in conf.
func (conf DestructibleBehaviourConfig) New() *DestructibleBehaviour {
	if conf.Durability <= 0 {
		conf.Durability = defaultDurability
	}
	if conf.Pieces.Count == 0 {
		conf.Pieces.Count = defaultPieceCount
	}
	if conf.Pieces.Scale == 0 {
		conf.Pieces.Scale = defaultPieceScale
	}
	if conf.Pieces.Force == 0 {
		conf.Pieces.Force = defaultPieceForce
	}
	if conf.MinRemovalDelay <= 0 {
		conf.MinRemovalDelay = defaultMinRemovalDelay
	}
	if conf.MaxRemovalDelay <= 0 {
		conf.MaxRemovalDelay = defaultMaxRemovalDelay
	}
	conf.MaxRemovalDelay = max(conf.MaxRemovalDelay, conf.MinRemovalDelay)
	return &DestructibleBehaviour{
		conf:       conf,
		durability: conf.Durability,
		mc: &MovementComputer{
			Gravity:     conf.Gravity,
			Drag:        conf.Drag,
			AngularDrag: conf.AngularDrag,
			Friction:    conf.Friction,
			Floor:       conf.Floor,
		},
	}
}

// State is the lifecycle state of a destructible entity.
type State uint8

const (
	// StateIntact is the state of an original that has durability left.
	StateIntact State = iota
	// StateDepleted is the state of an original whose durability reached 0.
	// It shatters during its next tick.
	StateDepleted
	// StateDestroyed is the terminal state of an entity that was removed.
	StateDestroyed
	// StateFragment is the state of a fragment that has no removal timer yet.
	StateFragment
	// StatePendingRemoval is the state of a fragment whose removal timer is
	// running.
	StatePendingRemoval
)

// String returns the name of the State.
func (s State) String() string {
	switch s {
	case StateIntact:
		return "intact"
	case StateDepleted:
		return "depleted"
	case StateDestroyed:
		return "destroyed"
	case StateFragment:
		return "fragment"
	case StatePendingRemoval:
		return "pending_removal"
	}
	return "unknown"
}

// DestructibleBehaviour implements the behaviour of an entity that loses
// durability when hit by a hit source and shatters into fragments once its
// durability runs out. Fragments remove themselves after a random delay.
type DestructibleBehaviour struct {
	conf DestructibleBehaviourConfig
	mc   *MovementComputer

	durability  int
	fragment    bool
	autoDestroy bool
	destroyed   bool
	removalTick int64
}

// Kind returns KindFragment for fragments and KindOriginal otherwise.
func (b *DestructibleBehaviour) Kind() Kind {
	if b.fragment {
		return KindFragment
	}
	return KindOriginal
}

// Destructible returns the DestructibleBehaviour itself. It allows behaviours
// embedding a DestructibleBehaviour to be found by DestructibleOf.
func (b *DestructibleBehaviour) Destructible() *DestructibleBehaviour {
	return b
}

// Durability returns the remaining durability. It is -1 once the entity has
// shattered.
func (b *DestructibleBehaviour) Durability() int {
	return b.durability
}

// Fragment reports if the entity is a fragment of a shattered destructible.
func (b *DestructibleBehaviour) Fragment() bool {
	return b.fragment
}

// AutoDestroy reports if the entity removes itself after a random delay.
func (b *DestructibleBehaviour) AutoDestroy() bool {
	return b.autoDestroy
}

// SetAutoDestroy enables or disables automatic removal. Automatic removal
// only has an effect on fragments.
func (b *DestructibleBehaviour) SetAutoDestroy(v bool) {
	b.autoDestroy = v
}

// RemovalTick returns the tick at which a fragment is removed. The bool is
// false if no removal timer was started yet.
func (b *DestructibleBehaviour) RemovalTick() (int64, bool) {
	return b.removalTick, b.removalTick != 0
}

// Pieces returns the configuration of the fragments spawned on shattering.
func (b *DestructibleBehaviour) Pieces() PieceConfig {
	return b.conf.Pieces
}

// State returns the current lifecycle State.
func (b *DestructibleBehaviour) State() State {
	switch {
	case b.destroyed:
		return StateDestroyed
	case b.fragment && b.removalTick != 0:
		return StatePendingRemoval
	case b.fragment:
		return StateFragment
	case b.durability == 0:
		return StateDepleted
	}
	return StateIntact
}

// Clone returns a copy of the behaviour. The copy has its own movement state
// and no removal timer.
func (b *DestructibleBehaviour) Clone() any {
	c := *b
	mc := *b.mc
	c.mc = &mc
	c.removalTick = 0
	return &c
}

// Hit registers a hit by a hit source, decreasing the durability by one. Hit
// returns false without effect if the entity is a fragment or has no
// durability left.
func (b *DestructibleBehaviour) Hit(e *Ent, tx *world.Tx) bool {
	if b.fragment || b.destroyed || b.durability <= 0 {
		return false
	}
	b.durability--
	tx.Log().Debug("Destructible hit.", "entity", e.Name(), "durability", b.durability)
	return true
}

// Collide registers a hit if other is a hit source and the entity itself is
// not.
func (b *DestructibleBehaviour) Collide(e *Ent, tx *world.Tx, other world.Entity) {
	if KindOf(other) == KindHitSource && e.Kind() != KindHitSource {
		b.Hit(e, tx)
	}
}

// Tick shatters a depleted original and starts the removal timer of a
// fragment with automatic removal enabled. The entity is moved if it has a
// rigid body.
func (b *DestructibleBehaviour) Tick(e *Ent, tx *world.Tx) *Movement {
	if b.destroyed {
		return nil
	}
	if !b.fragment && b.durability == 0 {
		b.deplete(e, tx)
		return nil
	}
	if b.fragment && b.autoDestroy && b.removalTick == 0 {
		b.scheduleRemoval(e, tx)
	}
	if body, ok := e.Body(); ok {
		return b.mc.TickMovement(e, body, tickDelta(tx))
	}
	return nil
}

// deplete shatters the entity and removes it. The durability is set to -1
// before removal so that a depleted entity never shatters twice.
func (b *DestructibleBehaviour) deplete(e *Ent, tx *world.Tx) {
	pieces, err := b.Shatter(e, tx)
	if err != nil {
		tx.Log().Error("Shatter destructible: "+err.Error(), "entity", e.Name(), "pieces", len(pieces))
	} else {
		tx.Log().Debug("Destructible shattered.", "entity", e.Name(), "pieces", len(pieces))
	}
	b.durability = -1
	b.destroyed = true
	e.CloseIn(tx)
}

// scheduleRemoval starts the removal timer of a fragment with a delay drawn
// uniformly from [MinRemovalDelay, MaxRemovalDelay].
func (b *DestructibleBehaviour) scheduleRemoval(e *Ent, tx *world.Tx) {
	lo, hi := b.conf.MinRemovalDelay, b.conf.MaxRemovalDelay
	delay := lo + tx.Rand().Int64N(hi-lo+1)
	b.removalTick = tx.CurrentTick() + delay
	tx.Schedule(e, delay, func(tx *world.Tx) {
		b.destroyed = true
		e.CloseIn(tx)
	})
}

// Shatter spawns the fragments of the entity into the world of tx. Every
// fragment is a copy of e named after it, scaled by the piece scale, given a
// rigid body if it has none and pushed and spun by a random impulse. Entities
// attached to a fragment are removed. The fragments spawned are returned
// along with an error if any of them could not be created. Shatter does not
// remove e.
func (b *DestructibleBehaviour) Shatter(e *Ent, tx *world.Tx) ([]*Ent, error) {
	count := b.conf.Pieces.Count
	if count < 0 {
		return nil, nil
	}
	pieces := make([]*Ent, 0, count)
	for i := 1; i <= count; i++ {
		clone, err := tx.Instantiate(e)
		if err != nil {
			return pieces, fmt.Errorf("spawn piece %d of %v: %w", i, e.H(), err)
		}
		piece, ok := clone.(*Ent)
		if !ok {
			tx.RemoveEntity(clone)
			return pieces, fmt.Errorf("spawn piece %d of %v: unexpected entity %T: %w", i, e.H(), clone, world.ErrInvariantViolation)
		}
		pb, ok := DestructibleOf(piece)
		if !ok {
			tx.RemoveEntity(clone)
			return pieces, fmt.Errorf("spawn piece %d of %v: piece is not destructible: %w", i, e.H(), world.ErrInvariantViolation)
		}
		piece.SetName(fmt.Sprintf("%s_Piece_%d", e.Name(), i))
		piece.SetScale(e.Scale().Mul(b.conf.Pieces.Scale))

		body := piece.EnsureBody()
		body.Kinematic, body.Mass = false, world.DefaultMass
		body.Stop()
		impulse := RandomImpulse(tx, b.conf.Pieces.Force)
		body.ApplyImpulse(impulse)
		body.ApplyTorqueImpulse(impulse)

		for _, child := range tx.Children(piece) {
			tx.Detach(child)
			tx.RemoveEntity(child)
		}
		pb.markFragment()
		pieces = append(pieces, piece)
	}
	return pieces, nil
}

// markFragment turns the behaviour into that of a fragment with automatic
// removal enabled.
func (b *DestructibleBehaviour) markFragment() {
	b.fragment = true
	b.autoDestroy = true
	b.destroyed = false
	b.removalTick = 0
}

// RandomImpulse returns a vector with every axis drawn uniformly from
// [force/2, force*2] using the random source of tx.
func RandomImpulse(tx *world.Tx, force float64) mgl64.Vec3 {
	r := tx.Rand()
	lo, span := force/2, force*2-force/2
	return mgl64.Vec3{
		lo + r.Float64()*span,
		lo + r.Float64()*span,
		lo + r.Float64()*span,
	}
}

// Destructible is implemented by behaviours that are, or embed, a
// DestructibleBehaviour.
type Destructible interface {
	Destructible() *DestructibleBehaviour
}

// DestructibleOf returns the DestructibleBehaviour of the entity passed, if
// it has one.
func DestructibleOf(e world.Entity) (*DestructibleBehaviour, bool) {
	ent, ok := e.(*Ent)
	if !ok {
		return nil, false
	}
	d, ok := ent.Behaviour().(Destructible)
	if !ok {
		return nil, false
	}
	return d.Destructible(), true
}
