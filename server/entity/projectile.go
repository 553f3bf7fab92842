package entity

import (
	"math"

	"github.com/df-mc/shatter/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	defaultProjectileSpeed    = 150.0
	defaultProjectileLifetime = 600
	projectileMuzzleOffset    = 1.0
	projectileLift            = 0.01
)

// NewBullet creates a bullet entity owned by the entity passed. Owner may be
// nil.
func NewBullet(opts world.EntitySpawnOpts, owner world.Entity) *world.EntityHandle {
	conf := bulletConf
	if owner != nil {
		conf.Owner = owner.H()
	}
	if opts.Body == nil {
		opts.Body = world.NewRigidBody(0.05)
	}
	return opts.New(BulletType, conf)
}

var bulletConf = ProjectileBehaviourConfig{
	Gravity: 0,
	Drag:    0.01,
}

// BulletType is a world.EntityType implementation for bullets.
var BulletType bulletType

type bulletType struct{}

func (bulletType) Open(handle *world.EntityHandle, data *world.EntityData) world.Entity {
	return Open(handle, data)
}

func (bulletType) EncodeEntity() string { return "shatter:bullet" }

func (bulletType) BBox(e world.Entity) world.BBox {
	return scaledBox(e, mgl64.Vec3{0.2, 0.2, 0.2})
}

// Shoot spawns a bullet in front of the shooter passed, one unit along its
// forward direction, flying forward and slightly upward at speed units per
// second. If speed is 0, a speed of 150 is used.
func Shoot(tx *world.Tx, shooter *Ent, speed float64) *Ent {
	if speed == 0 {
		speed = defaultProjectileSpeed
	}
	forward := shooter.Forward()
	dir := forward.Add(mgl64.Vec3{0, projectileLift, 0})
	opts := world.EntitySpawnOpts{
		Position: shooter.Position().Add(forward.Mul(projectileMuzzleOffset)),
		Rotation: shooter.Rotation(),
		Velocity: dir.Mul(speed),
	}
	bullet := tx.AddEntity(NewBullet(opts, shooter)).(*Ent)
	tx.Log().Debug("Bullet fired.", "shooter", shooter.Name(), "pos", opts.Position)
	return bullet
}

// ProjectileBehaviourConfig allows the configuration of projectiles. Calling
// ProjectileBehaviourConfig.New() creates a ProjectileBehaviour using these
// settings.
type ProjectileBehaviourConfig struct {
	// Owner is the entity that fired the projectile.
	Owner *world.EntityHandle
	// Gravity is the downward acceleration of the projectile in units per
	// second squared.
	Gravity float64
	// Drag is the fraction of the velocity lost per second.
	Drag float64
	// Lifetime is the amount of ticks after which the projectile removes
	// itself if it has not hit anything. If 0, 600 ticks is used.
	Lifetime int64
}

// Apply applies the config to the world.EntityData passed.
func (conf ProjectileBehaviourConfig) Apply(data *world.EntityData) {
	data.Data = conf.New()
}

// New creates a new ProjectileBehaviour using conf.
func (conf ProjectileBehaviourConfig) New() *ProjectileBehaviour {
	if conf.Lifetime == 0 {
		conf.Lifetime = defaultProjectileLifetime
	}
	return &ProjectileBehaviour{conf: conf, mc: &MovementComputer{
		Gravity: conf.Gravity,
		Drag:    conf.Drag,
		Floor:   math.Inf(-1),
	}}
}

// ProjectileBehaviour implements the behaviour of a hit source such as a
// bullet. Projectiles fly in a straight line, slowed by drag and pulled down
// by gravity. A projectile that touches anything other than terrain stops
// the entity it touched and is removed.
type ProjectileBehaviour struct {
	conf ProjectileBehaviourConfig
	mc   *MovementComputer

	age  int64
	done bool
}

// Kind returns KindHitSource.
func (lt *ProjectileBehaviour) Kind() Kind {
	return KindHitSource
}

// Owner returns the handle of the entity that fired the projectile, or nil.
func (lt *ProjectileBehaviour) Owner() *world.EntityHandle {
	return lt.conf.Owner
}

// Age returns the amount of ticks the projectile has existed for.
func (lt *ProjectileBehaviour) Age() int64 {
	return lt.age
}

// Clone returns a copy of the projectile behaviour.
func (lt *ProjectileBehaviour) Clone() any {
	c := *lt
	mc := *lt.mc
	c.mc = &mc
	return &c
}

// Tick moves the projectile. If the path of the projectile during the tick
// crosses the bounding box of another entity, the projectile is moved to the
// point of impact and the collision is reported immediately, so that fast
// projectiles do not pass through thin entities.
func (lt *ProjectileBehaviour) Tick(e *Ent, tx *world.Tx) *Movement {
	if lt.done {
		return nil
	}
	lt.age++
	if lt.age > lt.conf.Lifetime {
		lt.done = true
		e.CloseIn(tx)
		return nil
	}
	body, ok := e.Body()
	if !ok {
		body = e.EnsureBody()
	}
	m := lt.mc.TickMovement(e, body, tickDelta(tx))
	start, end := e.Position(), m.pos
	if target, frac, ok := lt.trace(e, tx, start, end); ok {
		m.pos = start.Add(end.Sub(start).Mul(frac))
		m.dpos = m.pos.Sub(start)
		m.apply(e)
		tx.Collide(e, target)
		return nil
	}
	return m
}

// Collide stops the entity touched and removes the projectile. Terrain is
// ignored.
func (lt *ProjectileBehaviour) Collide(e *Ent, tx *world.Tx, other world.Entity) {
	if lt.done || KindOf(other) == KindTerrain {
		return
	}
	if ent, ok := other.(*Ent); ok {
		ent.SetVelocity(mgl64.Vec3{})
	}
	lt.done = true
	e.CloseIn(tx)
}

// trace finds the first entity, other than the projectile itself and terrain,
// whose bounding box is crossed by the segment from start to end. The entity
// is returned with the fraction of the segment at which it is entered.
func (lt *ProjectileBehaviour) trace(e *Ent, tx *world.Tx, start, end mgl64.Vec3) (world.Entity, float64, bool) {
	self := e.H().Type().BBox(e)
	half := mgl64.Vec3{self.Width() / 2, self.Height() / 2, self.Length() / 2}
	area := world.Box(start[0], start[1], start[2], end[0], end[1], end[2]).Grow(8)

	var (
		hit  world.Entity
		best = math.Inf(1)
	)
	for other := range tx.EntitiesWithin(area) {
		if other.H() == e.H() || KindOf(other) == KindTerrain {
			continue
		}
		box := other.H().Type().BBox(other).Translate(other.Position())
		box = world.Box(
			box.Min()[0]-half[0], box.Min()[1]-half[1], box.Min()[2]-half[2],
			box.Max()[0]+half[0], box.Max()[1]+half[1], box.Max()[2]+half[2],
		)
		if box.Vec3Within(start) {
			// Already touching: contact detection reports it.
			continue
		}
		if frac, ok := segmentBoxEntry(start, end, box); ok && frac < best {
			hit, best = other, frac
		}
	}
	return hit, best, hit != nil
}

// segmentBoxEntry returns the fraction of the segment from start to end at
// which it enters box, using the slab method.
func segmentBoxEntry(start, end mgl64.Vec3, box world.BBox) (float64, bool) {
	d := end.Sub(start)
	tMin, tMax := 0.0, 1.0
	for i := 0; i < 3; i++ {
		lo, hi := box.Min()[i], box.Max()[i]
		if math.Abs(d[i]) < 1e-12 {
			if start[i] < lo || start[i] > hi {
				return 0, false
			}
			continue
		}
		t1, t2 := (lo-start[i])/d[i], (hi-start[i])/d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin, tMax = math.Max(tMin, t1), math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}
