package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df-mc/shatter/server/entity"
	"github.com/df-mc/shatter/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// autopilotInterval is the amount of ticks between two shots of a player on
// autopilot.
const autopilotInterval = 30

// Server runs an Arena in a World. A Server is created using Config.New, after
// which the arena is spawned using Server.Start and simulated using
// Server.Run.
type Server struct {
	conf Config
	w    *world.World

	startOnce sync.Once
	startErr  error
	closeOnce sync.Once
	closed    atomic.Bool

	player *world.EntityHandle
}

// World returns the World that the arena is simulated in.
func (srv *Server) World() *world.World {
	return srv.w
}

// Player returns the handle of the player of the arena. It is nil until the
// Server is started.
func (srv *Server) Player() *world.EntityHandle {
	return srv.player
}

// Metrics returns a snapshot of the metrics of the World.
func (srv *Server) Metrics() world.MetricsSnapshot {
	return srv.w.Metrics().Snapshot()
}

// Start spawns the Arena into the World. Calling Start more than once spawns
// nothing new and returns the error of the first call. An error wrapping
// ErrInvalidConfig is returned without spawning anything if the Arena is
// invalid. If the hierarchy of a destructible could not be built, the
// entities that could be spawned remain in the World.
func (srv *Server) Start() error {
	srv.startOnce.Do(func() {
		if err := srv.conf.Arena.Validate(); err != nil {
			srv.startErr = fmt.Errorf("validate arena: %w", err)
			return
		}
		<-srv.w.Exec(func(tx *world.Tx) {
			srv.startErr = srv.spawnArena(tx)
		})
		srv.conf.Log.Info("Arena started.", "entities", srv.w.EntityCount(), "tick_rate", srv.w.TickRate())
	})
	return srv.startErr
}

// spawnArena adds all entities of the Arena to the World of tx.
func (srv *Server) spawnArena(tx *world.Tx) error {
	a, floor := srv.conf.Arena, srv.conf.Arena.Ground.Height

	tx.AddEntity(entity.NewTerrain(world.EntitySpawnOpts{Position: mgl64.Vec3{0, floor, 0}}, a.Ground.Size))

	pconf := entity.DefaultPlayerConfig()
	pconf.Floor = floor
	player := tx.AddEntity(world.EntitySpawnOpts{
		Position: a.Player.Position,
		Rotation: yawRotation(a.Player.Yaw),
		Name:     "Player",
		Body:     world.NewRigidBody(world.DefaultMass),
	}.New(entity.PlayerType, pconf)).(*entity.Ent)
	srv.player = player.H()

	var errs []error
	for _, d := range a.Destructibles {
		if _, err := srv.spawnDestructible(tx, d, mgl64.Vec3{}); err != nil {
			errs = append(errs, err)
		}
	}
	for _, e := range a.Enemies {
		econf := entity.EnemyBehaviourConfig{Destructible: srv.destructibleConfig(e.Durability), Target: player.H()}
		name := e.Name
		if name == "" {
			name = "Enemy"
		}
		tx.AddEntity(world.EntitySpawnOpts{
			Position: e.Position,
			Rotation: yawRotation(e.Yaw),
			Name:     name,
			Body:     world.NewRigidBody(world.DefaultMass),
		}.New(entity.EnemyType, econf))
	}
	if srv.conf.Autopilot {
		srv.scheduleAutopilot(tx, player)
	}
	return errors.Join(errs...)
}

// spawnDestructible adds the destructible described by d, offset by the
// position passed, and attaches its children to it.
func (srv *Server) spawnDestructible(tx *world.Tx, d DestructibleLayout, offset mgl64.Vec3) (world.Entity, error) {
	e := tx.AddEntity(world.EntitySpawnOpts{
		Position: offset.Add(d.Position),
		Scale:    d.Scale,
		Name:     d.Name,
	}.New(entity.DestructibleType, srv.destructibleConfig(d.Durability)))

	var errs []error
	for _, c := range d.Children {
		child, err := srv.spawnDestructible(tx, c, e.Position())
		if err != nil {
			errs = append(errs, err)
		}
		if err := tx.Attach(e, child); err != nil {
			errs = append(errs, fmt.Errorf("attach %s to %s: %w", c.Name, d.Name, err))
		}
	}
	return e, errors.Join(errs...)
}

// destructibleConfig returns the DestructibleBehaviourConfig of destructibles
// with the durability passed, using the fragment settings of the Config.
func (srv *Server) destructibleConfig(durability int) entity.DestructibleBehaviourConfig {
	conf := entity.DefaultDestructibleConfig()
	conf.Durability = durability
	conf.Pieces = srv.conf.Fragments
	conf.MinRemovalDelay, conf.MaxRemovalDelay = srv.conf.MinRemovalDelay, srv.conf.MaxRemovalDelay
	conf.Floor = srv.conf.Arena.Ground.Height
	return conf
}

// scheduleAutopilot makes the player turn towards the nearest intact
// destructible and press fire every autopilotInterval ticks. Fire is released
// on the next tick so that every press fires one bullet.
func (srv *Server) scheduleAutopilot(tx *world.Tx, player *entity.Ent) {
	tx.Schedule(player, autopilotInterval, func(tx *world.Tx) {
		b, ok := player.Behaviour().(*entity.PlayerBehaviour)
		if !ok {
			return
		}
		if target, ok := nearestIntact(tx, player.Position()); ok {
			player.LookAt(target.Position())
			b.SetInput(entity.Input{Fire: true})
			tx.Schedule(player, 1, func(*world.Tx) {
				b.SetInput(entity.Input{})
			})
		}
		srv.scheduleAutopilot(tx, player)
	})
}

// nearestIntact returns the intact original destructible closest to pos.
func nearestIntact(tx *world.Tx, pos mgl64.Vec3) (world.Entity, bool) {
	var (
		nearest world.Entity
		best    = math.Inf(1)
	)
	for e := range tx.Entities() {
		d, ok := entity.DestructibleOf(e)
		if !ok || d.State() != entity.StateIntact {
			continue
		}
		if _, ok := tx.Parent(e); ok {
			// Attached entities move with and shatter after their parent.
			continue
		}
		if dist := e.Position().Sub(pos).Len(); dist < best {
			nearest, best = e, dist
		}
	}
	return nearest, nearest != nil
}

// Run starts the arena if it was not started yet and simulates it until the
// amount of ticks in the Config has passed or until ctx is cancelled. Worlds
// without automatic ticking are advanced by Run itself as fast as possible.
// The error of Start is returned if the arena could not be started, and the
// error of ctx if it was cancelled first.
func (srv *Server) Run(ctx context.Context) error {
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start arena: %w", err)
	}
	target := int64(srv.conf.Ticks)
	done := func() bool { return target > 0 && srv.w.CurrentTick() >= target }

	if srv.conf.World.TickRate < 0 {
		for !done() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n := world.DefaultTickRate
			if target > 0 {
				n = int(min(int64(n), target-srv.w.CurrentTick()))
			}
			srv.w.Advance(n)
		}
		return nil
	}

	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()
	for !done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

// Closed reports if Close was called. Transactions may no longer be executed
// on the World of a closed Server.
func (srv *Server) Closed() bool {
	return srv.closed.Load()
}

// Close closes the World of the Server. Close may be called multiple times.
func (srv *Server) Close() error {
	var err error
	srv.closeOnce.Do(func() {
		srv.closed.Store(true)
		srv.conf.Log.Debug("Closing arena...")
		err = srv.w.Close()
	})
	return err
}

// yawRotation returns a rotation around the Y axis by the angle passed in
// degrees.
func yawRotation(yaw float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(yaw), mgl64.Vec3{0, 1, 0})
}

// arenaHandler logs the entities that are removed from the arena and the
// collisions between them.
type arenaHandler struct {
	world.NopHandler
	srv *Server
}

// HandleEntityDespawn logs the removal of destructibles.
func (h *arenaHandler) HandleEntityDespawn(tx *world.Tx, e world.Entity) {
	if _, ok := entity.DestructibleOf(e); !ok {
		return
	}
	name := e.H().Type().EncodeEntity()
	if ent, ok := e.(*entity.Ent); ok {
		name = ent.Name()
	}
	tx.Log().Debug("Destructible removed.", "entity", name, "kind", entity.KindOf(e), "tick", tx.CurrentTick())
}

// HandleCollision logs collisions between a hit source and another entity.
func (h *arenaHandler) HandleCollision(tx *world.Tx, a, b world.Entity) {
	if entity.KindOf(a) != entity.KindHitSource && entity.KindOf(b) != entity.KindHitSource {
		return
	}
	tx.Log().Debug("Hit.", "a", entity.KindOf(a), "b", entity.KindOf(b), "tick", tx.CurrentTick())
}

// HandleClose logs the final metrics of the arena.
func (h *arenaHandler) HandleClose(tx *world.Tx) {
	s := tx.Metrics().Snapshot()
	tx.Log().Info("Arena closed.", "ticks", s.Ticks, "collisions", s.Collisions, "remaining", h.srv.w.EntityCount())
}
