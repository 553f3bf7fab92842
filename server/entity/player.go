package entity

import (
	"github.com/df-mc/shatter/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// NewPlayer creates a player controlled through PlayerBehaviour.SetInput.
func NewPlayer(opts world.EntitySpawnOpts) *world.EntityHandle {
	if opts.Name == "" {
		opts.Name = "Player"
	}
	if opts.Body == nil {
		opts.Body = world.NewRigidBody(world.DefaultMass)
	}
	return opts.New(PlayerType, playerConf)
}

var playerConf = PlayerBehaviourConfig{
	Gravity:  9.81,
	Drag:     0.05,
	Friction: 4,
}

// DefaultPlayerConfig returns the PlayerBehaviourConfig used by NewPlayer.
func DefaultPlayerConfig() PlayerBehaviourConfig {
	return playerConf
}

// PlayerType is a world.EntityType implementation for players.
var PlayerType playerType

type playerType struct{}

func (playerType) Open(handle *world.EntityHandle, data *world.EntityData) world.Entity {
	return Open(handle, data)
}

func (playerType) EncodeEntity() string { return "shatter:player" }

func (playerType) BBox(e world.Entity) world.BBox {
	return scaledBox(e, mgl64.Vec3{1, 2, 1})
}

// PlayerBehaviourConfig holds optional parameters for a PlayerBehaviour.
type PlayerBehaviourConfig struct {
	// TurnSpeed is the speed in degrees per second at which the player turns.
	// If 0, 75 is used.
	TurnSpeed float64
	// ForwardForce is the acceleration of the player while moving forward. If
	// 0, 75 is used.
	ForwardForce float64
	// SpeedLimit is the speed above which the player stops accelerating. If
	// 0, 5 is used.
	SpeedLimit float64
	// BulletSpeed is the speed of the bullets fired. If 0, 150 is used.
	BulletSpeed float64
	// Gravity, Drag and Friction are used to move the player. See
	// MovementComputer.
	Gravity, Drag, Friction float64
	// Floor is the height below which the player cannot move.
	Floor float64
}

// Apply applies the config to the world.EntityData passed.
func (conf PlayerBehaviourConfig) Apply(data *world.EntityData) {
	data.Data = conf.New()
}

// New creates a PlayerBehaviour using the parameters in conf.
func (conf PlayerBehaviourConfig) New() *PlayerBehaviour {
	if conf.TurnSpeed == 0 {
		conf.TurnSpeed = 75
	}
	if conf.ForwardForce == 0 {
		conf.ForwardForce = 75
	}
	if conf.SpeedLimit == 0 {
		conf.SpeedLimit = 5
	}
	if conf.BulletSpeed == 0 {
		conf.BulletSpeed = defaultProjectileSpeed
	}
	return &PlayerBehaviour{conf: conf, mc: &MovementComputer{
		Gravity:  conf.Gravity,
		Drag:     conf.Drag,
		Friction: conf.Friction,
		Floor:    conf.Floor,
	}}
}

// Input is the input a player holds during a tick.
type Input struct {
	// Forward is true while the player accelerates forward.
	Forward bool
	// Turn is -1 to turn left, 1 to turn right and 0 to keep facing the
	// same direction.
	Turn int
	// Fire is true while the fire button is held. A bullet is fired only on
	// the tick at which Fire becomes true.
	Fire bool
}

// PlayerBehaviour implements the behaviour of a player. The player is
// steered by the Input last set through SetInput.
type PlayerBehaviour struct {
	conf PlayerBehaviourConfig
	mc   *MovementComputer

	in       Input
	wasFired bool
	shots    int
}

// SetInput changes the input of the player. The input remains active until
// it is changed again.
func (p *PlayerBehaviour) SetInput(in Input) {
	in.Turn = max(-1, min(1, in.Turn))
	p.in = in
}

// Input returns the current input of the player.
func (p *PlayerBehaviour) Input() Input {
	return p.in
}

// Shots returns the amount of bullets the player has fired.
func (p *PlayerBehaviour) Shots() int {
	return p.shots
}

// Clone returns a copy of the behaviour without input.
func (p *PlayerBehaviour) Clone() any {
	c := *p
	mc := *p.mc
	c.mc = &mc
	c.in, c.wasFired = Input{}, false
	return &c
}

// Tick turns, accelerates and fires according to the current input and moves
// the player.
func (p *PlayerBehaviour) Tick(e *Ent, tx *world.Tx) *Movement {
	dt := tickDelta(tx)
	body := e.EnsureBody()

	if p.in.Turn != 0 {
		e.Turn(float64(p.in.Turn) * p.conf.TurnSpeed * dt)
	}
	if p.in.Forward && body.Speed() < p.conf.SpeedLimit {
		body.Accelerate(e.Forward().Mul(p.conf.ForwardForce), dt)
	}
	if p.in.Fire && !p.wasFired {
		Shoot(tx, e, p.conf.BulletSpeed)
		p.shots++
	}
	p.wasFired = p.in.Fire
	return p.mc.TickMovement(e, body, dt)
}
