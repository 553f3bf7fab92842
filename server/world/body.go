package world

import "github.com/go-gl/mathgl/mgl64"

// DefaultMass is the mass used for rigid bodies that have no positive mass
// set.
const DefaultMass = 1.0

// RigidBody holds the physical state of an entity that is moved by forces.
// The World does not integrate bodies itself: entity behaviours read and write
// the velocities and apply them to the entity's position every tick.
type RigidBody struct {
	// Mass is the mass of the body. Values of zero or lower are treated as
	// DefaultMass.
	Mass float64
	// Kinematic bodies are moved only by their owner. Impulses and forces
	// applied to a kinematic body are ignored.
	Kinematic bool

	vel, angVel mgl64.Vec3
}

// NewRigidBody returns a non-kinematic RigidBody with the mass passed.
func NewRigidBody(mass float64) *RigidBody {
	return &RigidBody{Mass: mass}
}

// mass returns the effective mass of the body.
func (b *RigidBody) mass() float64 {
	if b.Mass <= 0 {
		return DefaultMass
	}
	return b.Mass
}

// Velocity returns the linear velocity of the body in units per second.
func (b *RigidBody) Velocity() mgl64.Vec3 {
	return b.vel
}

// SetVelocity sets the linear velocity of the body.
func (b *RigidBody) SetVelocity(v mgl64.Vec3) {
	b.vel = v
}

// AngularVelocity returns the angular velocity of the body in radians per
// second around each axis.
func (b *RigidBody) AngularVelocity() mgl64.Vec3 {
	return b.angVel
}

// SetAngularVelocity sets the angular velocity of the body.
func (b *RigidBody) SetAngularVelocity(v mgl64.Vec3) {
	b.angVel = v
}

// Speed returns the magnitude of the linear velocity.
func (b *RigidBody) Speed() float64 {
	return b.vel.Len()
}

// ApplyImpulse applies an instantaneous linear impulse to the body, changing
// its velocity by j/mass.
func (b *RigidBody) ApplyImpulse(j mgl64.Vec3) {
	if b.Kinematic {
		return
	}
	b.vel = b.vel.Add(j.Mul(1 / b.mass()))
}

// ApplyTorqueImpulse applies an instantaneous angular impulse to the body.
// Bodies are treated as having a unit inertia tensor scaled by their mass.
func (b *RigidBody) ApplyTorqueImpulse(j mgl64.Vec3) {
	if b.Kinematic {
		return
	}
	b.angVel = b.angVel.Add(j.Mul(1 / b.mass()))
}

// ApplyForce applies a continuous force f over a time step dt in seconds.
func (b *RigidBody) ApplyForce(f mgl64.Vec3, dt float64) {
	if b.Kinematic {
		return
	}
	b.vel = b.vel.Add(f.Mul(dt / b.mass()))
}

// Accelerate changes the velocity of the body by a*dt, regardless of its mass.
func (b *RigidBody) Accelerate(a mgl64.Vec3, dt float64) {
	if b.Kinematic {
		return
	}
	b.vel = b.vel.Add(a.Mul(dt))
}

// Stop zeroes both the linear and angular velocity of the body.
func (b *RigidBody) Stop() {
	b.vel, b.angVel = mgl64.Vec3{}, mgl64.Vec3{}
}

// clone returns a copy of the body.
func (b *RigidBody) clone() *RigidBody {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}
