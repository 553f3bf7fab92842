package entity

import (
	"github.com/df-mc/shatter/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// NewEnemy creates an enemy that hunts the target passed. If target is nil,
// the enemy hunts the first player it finds in its world.
func NewEnemy(opts world.EntitySpawnOpts, target world.Entity, durability int) *world.EntityHandle {
	conf := enemyConf
	conf.Destructible.Durability = durability
	if target != nil {
		conf.Target = target.H()
	}
	if opts.Body == nil {
		opts.Body = world.NewRigidBody(world.DefaultMass)
	}
	return opts.New(EnemyType, conf)
}

var enemyConf = EnemyBehaviourConfig{
	Destructible: destructibleConf,
}

// EnemyType is a world.EntityType implementation for enemies.
var EnemyType enemyType

type enemyType struct{}

func (enemyType) Open(handle *world.EntityHandle, data *world.EntityData) world.Entity {
	return Open(handle, data)
}

func (enemyType) EncodeEntity() string { return "shatter:enemy" }

func (enemyType) BBox(e world.Entity) world.BBox {
	return scaledBox(e, mgl64.Vec3{1, 1, 1})
}

// EnemyBehaviourConfig holds optional parameters for an EnemyBehaviour.
type EnemyBehaviourConfig struct {
	// Destructible configures the durability and fragments of the enemy.
	Destructible DestructibleBehaviourConfig
	// Target is the entity hunted by the enemy. If nil, the first player in
	// the world is hunted.
	Target *world.EntityHandle
	// SearchRadius is the distance within which the enemy can see its target.
	// If 0, 10 is used.
	SearchRadius float64
	// SearchAngle is the half angle in degrees of the vision cone of the
	// enemy. If 0, 60 is used.
	SearchAngle float64
	// ForwardForce is the acceleration of the enemy while moving. If 0, 16
	// is used.
	ForwardForce float64
	// SpeedLimit is the speed above which the enemy stops accelerating. If 0,
	// 3 is used.
	SpeedLimit float64
	// ShootChance is N in the 1 in N chance that the enemy shoots during a
	// tick in which it is chasing its target. If 0, 1025 is used.
	ShootChance int
	// BulletSpeed is the speed of the bullets fired. If 0, 150 is used.
	BulletSpeed float64
}

// Apply applies the config to the world.EntityData passed.
func (conf EnemyBehaviourConfig) Apply(data *world.EntityData) {
	data.Data = conf.New()
}

// New creates an EnemyBehaviour using the parameters in conf.
func (conf EnemyBehaviourConfig) New() *EnemyBehaviour {
	if conf.SearchRadius == 0 {
		conf.SearchRadius = 10
	}
	if conf.SearchAngle == 0 {
		conf.SearchAngle = 60
	}
	if conf.ForwardForce == 0 {
		conf.ForwardForce = 16
	}
	if conf.SpeedLimit == 0 {
		conf.SpeedLimit = 3
	}
	if conf.ShootChance == 0 {
		conf.ShootChance = 1025
	}
	if conf.BulletSpeed == 0 {
		conf.BulletSpeed = defaultProjectileSpeed
	}
	return &EnemyBehaviour{DestructibleBehaviour: conf.Destructible.New(), conf: conf, target: conf.Target}
}

// EnemyBehaviour implements the behaviour of an enemy. While its target is
// out of sight, the enemy patrols: it walks forward for a few seconds, stops
// for a moment and then possibly turns towards a random nearby point. Once
// the target is within its vision cone, the enemy turns towards it, walks
// towards it and occasionally shoots. Enemies are destructible. Fragments of
// an enemy do not move on their own.
type EnemyBehaviour struct {
	*DestructibleBehaviour
	conf EnemyBehaviourConfig

	target *world.EntityHandle

	patrolling, stopped, chasing bool
}

// Chasing reports if the enemy currently sees its target.
func (b *EnemyBehaviour) Chasing() bool {
	return b.chasing
}

// Stopped reports if the enemy is pausing during its patrol.
func (b *EnemyBehaviour) Stopped() bool {
	return b.stopped
}

// Clone returns a copy of the behaviour with a fresh patrol state.
func (b *EnemyBehaviour) Clone() any {
	c := *b
	c.DestructibleBehaviour = b.DestructibleBehaviour.Clone().(*DestructibleBehaviour)
	c.patrolling, c.stopped, c.chasing = false, false, false
	return &c
}

// Tick runs the AI of the enemy and moves it. Depleted enemies shatter like
// any destructible.
func (b *EnemyBehaviour) Tick(e *Ent, tx *world.Tx) *Movement {
	d := b.DestructibleBehaviour
	if d.fragment || d.destroyed || d.durability == 0 {
		return d.Tick(e, tx)
	}
	b.think(e, tx)
	if e.H().Closed() {
		return nil
	}
	return d.Tick(e, tx)
}

// think updates the chase and patrol state of the enemy and accelerates it.
func (b *EnemyBehaviour) think(e *Ent, tx *world.Tx) {
	body := e.EnsureBody()
	b.chasing = false
	if target, ok := b.findTarget(tx); ok {
		pos := target.Position()
		if pos.Sub(e.Position()).Len() <= b.conf.SearchRadius {
			b.chasing = Discovered(e.Position(), e.Forward(), pos, b.conf.SearchAngle)
		}
		if b.chasing {
			e.LookAt(pos)
			if tx.Rand().IntN(b.conf.ShootChance) == 0 {
				Shoot(tx, e, b.conf.BulletSpeed)
			}
		}
	}
	if !b.chasing && !b.patrolling {
		b.patrol(e, tx)
	}
	if b.stopped && !b.chasing {
		v := body.Velocity()
		body.SetVelocity(mgl64.Vec3{0, v[1], 0})
		return
	}
	if body.Speed() < b.conf.SpeedLimit {
		body.Accelerate(e.Forward().Mul(b.conf.ForwardForce), tickDelta(tx))
	}
}

// patrol starts one patrol cycle: after walking for 0-7 seconds the enemy
// stops for 0-3 seconds, after which it turns towards a random point within
// 3 units with a 50% chance.
func (b *EnemyBehaviour) patrol(e *Ent, tx *world.Tx) {
	r, rate := tx.Rand(), int64(tx.World().TickRate())
	walk, stop := int64(r.IntN(8)), int64(r.IntN(4))
	offset := mgl64.Vec3{float64(r.IntN(6) - 3), 0, float64(r.IntN(6) - 3)}

	b.patrolling = true
	tx.Schedule(e, walk*rate, func(tx *world.Tx) {
		b.stopped = true
		tx.Schedule(e, stop*rate, func(tx *world.Tx) {
			if tx.Rand().IntN(2) == 0 {
				e.LookAt(e.Position().Add(offset))
			}
			b.stopped, b.patrolling = false, false
		})
	})
}

// findTarget returns the target of the enemy if it is in the world of tx. If
// the enemy has no target, the first player found becomes its target.
func (b *EnemyBehaviour) findTarget(tx *world.Tx) (world.Entity, bool) {
	if b.target == nil {
		for e := range tx.Entities() {
			if ent, ok := e.(*Ent); ok {
				if _, ok := ent.Behaviour().(*PlayerBehaviour); ok {
					b.target = e.H()
					break
				}
			}
		}
	}
	return b.target.Entity(tx)
}
