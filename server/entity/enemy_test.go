package entity

import (
	"testing"

	"github.com/df-mc/shatter/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

func spawnEnemy(tx *world.Tx, pos mgl64.Vec3, target world.Entity) (*Ent, *EnemyBehaviour) {
	ent := tx.AddEntity(NewEnemy(world.EntitySpawnOpts{Name: "Enemy", Position: pos}, target, 3)).(*Ent)
	return ent, ent.Behaviour().(*EnemyBehaviour)
}

func TestEnemyChasesVisiblePlayer(t *testing.T) {
	tests := []struct {
		name   string
		player mgl64.Vec3
		chase  bool
	}{
		{name: "ahead", player: mgl64.Vec3{0, 1, 5}, chase: true},
		{name: "inside cone", player: mgl64.Vec3{3, 1, 5}, chase: true},
		{name: "behind", player: mgl64.Vec3{0, 1, -5}, chase: false},
		{name: "beside", player: mgl64.Vec3{5, 1, 0}, chase: false},
		{name: "too far", player: mgl64.Vec3{0, 1, 40}, chase: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w := newTestWorld(t)

			var enemy *EnemyBehaviour
			<-w.Exec(func(tx *world.Tx) {
				tx.AddEntity(NewPlayer(world.EntitySpawnOpts{Position: test.player}))
				_, enemy = spawnEnemy(tx, mgl64.Vec3{0, 0.5, 0}, nil)
			})
			w.Advance(1)

			<-w.Exec(func(tx *world.Tx) {
				if enemy.Chasing() != test.chase {
					t.Errorf("expected chasing=%v, got %v", test.chase, enemy.Chasing())
					return
				}
			})
		})
	}
}

func TestEnemyTurnsTowardsPlayer(t *testing.T) {
	w := newTestWorld(t)

	var enemy *Ent
	<-w.Exec(func(tx *world.Tx) {
		player := tx.AddEntity(NewPlayer(world.EntitySpawnOpts{Position: mgl64.Vec3{3, 1, 5}}))
		enemy, _ = spawnEnemy(tx, mgl64.Vec3{0, 0.5, 0}, player)
	})
	w.Advance(1)

	<-w.Exec(func(tx *world.Tx) {
		want := mgl64.Vec3{3, 0, 5}.Normalize()
		if f := enemy.Forward(); !vecNear(f, want, 1e-6) {
			t.Errorf("expected enemy to face %v, got %v", want, f)
			return
		}
	})
}

func TestEnemyWalksForwardWhilePatrolling(t *testing.T) {
	w := newTestWorld(t)

	var enemy *Ent
	<-w.Exec(func(tx *world.Tx) {
		enemy, _ = spawnEnemy(tx, mgl64.Vec3{0, 0.5, 0}, nil)
	})
	w.Advance(1)

	<-w.Exec(func(tx *world.Tx) {
		if v := enemy.Velocity(); v[2] <= 0 {
			t.Errorf("expected enemy to accelerate forward, got velocity %v", v)
			return
		}
		if s := tx.Metrics().Snapshot(); s.TimersScheduled == 0 {
			t.Errorf("expected patrol timer to be scheduled")
			return
		}
	})
}

func TestEnemySpeedLimit(t *testing.T) {
	w := newTestWorld(t)

	var (
		enemy *Ent
		b     *EnemyBehaviour
	)
	<-w.Exec(func(tx *world.Tx) {
		player := tx.AddEntity(NewPlayer(world.EntitySpawnOpts{Position: mgl64.Vec3{0, 1, 500}}))
		enemy, b = spawnEnemy(tx, mgl64.Vec3{0, 0.5, 0}, player)
		b.conf.SearchRadius = 1000
		b.conf.ShootChance = 1 << 30
	})
	for i := 0; i < 300; i++ {
		w.Advance(1)
		<-w.Exec(func(tx *world.Tx) {
			if !b.Chasing() {
				t.Errorf("expected enemy to keep chasing")
				return
			}
			if s := enemy.Velocity().Len(); s > b.conf.SpeedLimit+b.conf.ForwardForce/float64(tx.World().TickRate()) {
				t.Errorf("enemy exceeded speed limit: %v", s)
				return
			}
		})
	}
}

func TestEnemyFragmentsDoNotThink(t *testing.T) {
	w := newTestWorld(t)

	<-w.Exec(func(tx *world.Tx) {
		player := tx.AddEntity(NewPlayer(world.EntitySpawnOpts{Position: mgl64.Vec3{0, 1, 5}}))
		enemy, b := spawnEnemy(tx, mgl64.Vec3{0, 0.5, 0}, player)
		for b.Durability() > 0 {
			hit(tx, enemy)
		}
	})
	w.Advance(1)
	<-w.Exec(func(tx *world.Tx) {
		// Turn all fragments towards the player so that they would see it.
		for _, p := range fragmentsIn(tx) {
			p.LookAt(mgl64.Vec3{0, 1, 5})
		}
	})
	w.Advance(10)

	<-w.Exec(func(tx *world.Tx) {
		pieces := fragmentsIn(tx)
		if len(pieces) != 12 {
			t.Errorf("expected 12 enemy fragments, got %d", len(pieces))
			return
		}
		for _, p := range pieces {
			b, ok := p.Behaviour().(*EnemyBehaviour)
			if !ok {
				t.Errorf("expected fragment to keep the enemy behaviour, got %T", p.Behaviour())
				return
			}
			if b.Chasing() || !b.Fragment() {
				t.Errorf("expected fragment %s not to chase", p.Name())
				return
			}
		}
		for e := range tx.Entities() {
			if e.H().Type() == BulletType {
				t.Errorf("expected fragments not to shoot")
				return
			}
		}
	})
}
