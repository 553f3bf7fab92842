package entity

import (
	"math"

	"github.com/df-mc/shatter/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// MovementComputer is used to compute movement of an entity with a rigid body.
// All values are expressed per second and scaled by the duration of a tick.
type MovementComputer struct {
	// Gravity is the downward acceleration applied to the entity.
	Gravity float64
	// Drag is the fraction of the linear velocity lost per second.
	Drag float64
	// AngularDrag is the fraction of the angular velocity lost per second.
	AngularDrag float64
	// Friction is the fraction of the horizontal and angular velocity lost per
	// second while the entity is on the floor.
	Friction float64
	// Floor is the height of the floor plane. The bottom of the entity's
	// bounding box never moves below it.
	Floor float64

	onGround bool
}

// Movement represents the movement of a world.Entity as a result of a call to
// MovementComputer.TickMovement. The resulting position, rotation and
// velocities are applied to the entity by Ent.Tick.
type Movement struct {
	pos, vel, angVel mgl64.Vec3
	dpos             mgl64.Vec3
	rot              mgl64.Quat
	onGround         bool
}

// Position returns the position as a result of the Movement as an mgl64.Vec3.
func (m *Movement) Position() mgl64.Vec3 {
	return m.pos
}

// Velocity returns the velocity after the Movement as an mgl64.Vec3.
func (m *Movement) Velocity() mgl64.Vec3 {
	return m.vel
}

// AngularVelocity returns the angular velocity after the Movement.
func (m *Movement) AngularVelocity() mgl64.Vec3 {
	return m.angVel
}

// Rotation returns the orientation of the entity after the Movement.
func (m *Movement) Rotation() mgl64.Quat {
	return m.rot
}

// OnGround reports if the entity rests on the floor after the Movement.
func (m *Movement) OnGround() bool {
	return m.onGround
}

// Moved reports if the position of the entity changed by more than epsilon.
func (m *Movement) Moved() bool {
	return !m.dpos.ApproxEqualThreshold(zeroVec3, epsilon)
}

// apply writes the Movement to the entity and its body.
func (m *Movement) apply(e *Ent) {
	e.data.Pos, e.data.Rot = m.pos, m.rot
	if body, ok := e.Body(); ok {
		body.SetVelocity(m.vel)
		body.SetAngularVelocity(m.angVel)
	}
}

// TickMovement performs a movement tick on an entity with the body passed.
// Gravity, drag and friction are applied to the velocities of the body, after
// which the position and rotation are advanced by dt seconds.
func (c *MovementComputer) TickMovement(e *Ent, body *world.RigidBody, dt float64) *Movement {
	pos, rot := e.Position(), e.Rotation()
	vel, angVel := body.Velocity(), body.AngularVelocity()

	vel[1] -= c.Gravity * dt
	vel = vel.Mul(decay(c.Drag, dt))
	angVel = angVel.Mul(decay(c.AngularDrag, dt))
	if c.onGround {
		f := decay(c.Friction, dt)
		vel[0], vel[2] = vel[0]*f, vel[2]*f
		angVel = angVel.Mul(f)
	}

	dPos := vel.Mul(dt)
	newPos := pos.Add(dPos)

	c.onGround = false
	bottom := e.H().Type().BBox(e).Min()[1]
	if newPos[1]+bottom <= c.Floor {
		newPos[1] = c.Floor - bottom
		dPos[1] = newPos[1] - pos[1]
		if vel[1] < 0 {
			vel[1] = 0
		}
		c.onGround = true
	}

	return &Movement{
		pos: newPos, vel: vel, angVel: angVel, dpos: dPos,
		rot:      integrateRotation(rot, angVel, dt),
		onGround: c.onGround,
	}
}

// OnGround checks if the entity that this computer calculates is currently on
// the floor.
func (c *MovementComputer) OnGround() bool {
	return c.onGround
}

// zeroVec3 is a mgl64.Vec3 with zero values.
var zeroVec3 mgl64.Vec3

// epsilon is the epsilon used for thresholds for change used for change in
// position and velocity.
const epsilon = 0.001

// decay returns the factor a value is multiplied with when losing rate of it
// per second over dt seconds.
func decay(rate, dt float64) float64 {
	return math.Max(0, 1-rate*dt)
}

// integrateRotation advances the orientation q by the angular velocity w over
// dt seconds.
func integrateRotation(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	if w.ApproxEqualThreshold(zeroVec3, 1e-9) {
		return q
	}
	spin := mgl64.Quat{W: 0, V: w}.Mul(q).Scale(0.5 * dt)
	return q.Add(spin).Normalize()
}
