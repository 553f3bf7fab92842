package entity

import (
	"math"

	"github.com/df-mc/shatter/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// Behaviour implements the behaviour of an Ent.
type Behaviour interface {
	// Tick ticks the Ent using the Behaviour. A Movement is returned that
	// specifies the movement of the entity over the tick. Nil may be returned
	// if the entity did not move.
	Tick(e *Ent, tx *world.Tx) *Movement
}

// CollisionBehaviour is a Behaviour that reacts to its Ent starting to touch
// another entity.
type CollisionBehaviour interface {
	Behaviour
	Collide(e *Ent, tx *world.Tx, other world.Entity)
}

// Ent is a world.Entity implementation that allows entity implementations to
// share a lot of code. It is currently under development and is prone to
// (breaking) changes.
type Ent struct {
	handle *world.EntityHandle
	data   *world.EntityData
}

// Open converts a world.EntityHandle and world.EntityData to an Ent. It is
// used by the Open methods of all entity types in this package.
func Open(handle *world.EntityHandle, data *world.EntityData) *Ent {
	return &Ent{handle: handle, data: data}
}

// H returns the world.EntityHandle of the Ent.
func (e *Ent) H() *world.EntityHandle {
	return e.handle
}

// Behaviour returns the Behaviour of the Ent.
func (e *Ent) Behaviour() Behaviour {
	b, _ := e.data.Data.(Behaviour)
	return b
}

// Kind returns the Kind of the Ent. See KindOf.
func (e *Ent) Kind() Kind {
	return KindOf(e)
}

// Name returns the name of the Ent.
func (e *Ent) Name() string {
	return e.data.Name
}

// SetName changes the name of the Ent.
func (e *Ent) SetName(name string) {
	e.data.Name = name
}

// Position returns the current position of the entity.
func (e *Ent) Position() mgl64.Vec3 {
	return e.data.Pos
}

// SetPosition moves the entity to the position passed. Entities attached to
// it are not moved.
func (e *Ent) SetPosition(pos mgl64.Vec3) {
	e.data.Pos = pos
}

// Rotation returns the orientation of the entity.
func (e *Ent) Rotation() mgl64.Quat {
	return e.data.Rot
}

// Forward returns the unit vector the entity is facing. Entities face the
// positive Z axis when not rotated.
func (e *Ent) Forward() mgl64.Vec3 {
	return e.data.Rot.Rotate(mgl64.Vec3{0, 0, 1})
}

// Turn rotates the entity around the Y axis by the angle passed in degrees.
func (e *Ent) Turn(degrees float64) {
	e.data.Rot = mgl64.QuatRotate(mgl64.DegToRad(degrees), mgl64.Vec3{0, 1, 0}).Mul(e.data.Rot).Normalize()
}

// LookAt rotates the entity around the Y axis so that it faces the target
// passed. The height of the target is ignored.
func (e *Ent) LookAt(target mgl64.Vec3) {
	dir := target.Sub(e.data.Pos)
	if dir[0] == 0 && dir[2] == 0 {
		return
	}
	e.data.Rot = mgl64.QuatRotate(math.Atan2(dir[0], dir[2]), mgl64.Vec3{0, 1, 0})
}

// Scale returns the scale of the entity on every axis.
func (e *Ent) Scale() mgl64.Vec3 {
	return e.data.Scale
}

// SetScale changes the scale of the entity.
func (e *Ent) SetScale(s mgl64.Vec3) {
	e.data.Scale = s
}

// Body returns the rigid body of the entity, if it has one.
func (e *Ent) Body() (*world.RigidBody, bool) {
	return e.data.Body, e.data.Body != nil
}

// EnsureBody returns the rigid body of the entity, adding a new one with
// world.DefaultMass if the entity did not have one yet.
func (e *Ent) EnsureBody() *world.RigidBody {
	if e.data.Body == nil {
		e.data.Body = world.NewRigidBody(world.DefaultMass)
	}
	return e.data.Body
}

// Velocity returns the velocity of the entity. Entities without a body always
// have a zero velocity.
func (e *Ent) Velocity() mgl64.Vec3 {
	if e.data.Body == nil {
		return mgl64.Vec3{}
	}
	return e.data.Body.Velocity()
}

// SetVelocity sets the velocity of the entity, if it has a body.
func (e *Ent) SetVelocity(v mgl64.Vec3) {
	if e.data.Body != nil {
		e.data.Body.SetVelocity(v)
	}
}

// Tick ticks the Ent using its Behaviour and applies the resulting Movement.
func (e *Ent) Tick(tx *world.Tx, _ int64) {
	b := e.Behaviour()
	if b == nil {
		return
	}
	if m := b.Tick(e, tx); m != nil && !e.handle.Closed() {
		m.apply(e)
	}
}

// Collide passes a collision with another entity to the Behaviour of the Ent
// if it implements CollisionBehaviour.
func (e *Ent) Collide(tx *world.Tx, other world.Entity) {
	if b, ok := e.Behaviour().(CollisionBehaviour); ok {
		b.Collide(e, tx, other)
	}
}

// CloseIn removes the Ent from the world of the transaction passed.
func (e *Ent) CloseIn(tx *world.Tx) {
	tx.RemoveEntity(e)
}

// scaledBox returns a box of the size passed multiplied by the scale of the
// entity, centred around the entity's position.
func scaledBox(e world.Entity, size mgl64.Vec3) world.BBox {
	if ent, ok := e.(*Ent); ok {
		s := ent.Scale()
		size = mgl64.Vec3{size[0] * s[0], size[1] * s[1], size[2] * s[2]}
	}
	return world.CentredBox(size)
}

// tickDelta returns the duration of one tick in seconds.
func tickDelta(tx *world.Tx) float64 {
	return 1 / float64(tx.World().TickRate())
}

// Compile time checks to make sure Ent implements the interfaces the world
// calls into.
var (
	_ world.TickerEntity = (*Ent)(nil)
	_ world.Collider     = (*Ent)(nil)
)
