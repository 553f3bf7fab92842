package world

import (
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestScheduleRunsInOrder(t *testing.T) {
	w := newTestWorld(t)

	var order []string
	record := func(name string) ExecFunc {
		return func(tx *Tx) { order = append(order, name) }
	}
	<-w.Exec(func(tx *Tx) {
		tx.Schedule(nil, 3, record("c"))
		tx.Schedule(nil, 1, record("a"))
		tx.Schedule(nil, 3, record("d"))
		tx.Schedule(nil, 0, record("b"))
	})
	w.Advance(1)
	if !slices.Equal(order, []string{"a", "b"}) {
		t.Fatalf("expected timers with delay 0 and 1 to fire on the next tick, got %v", order)
	}
	w.Advance(1)
	if len(order) != 2 {
		t.Fatalf("expected no timers to fire on tick 2, got %v", order)
	}
	w.Advance(1)
	if !slices.Equal(order, []string{"a", "b", "c", "d"}) {
		t.Fatalf("expected timers due at the same tick to fire in scheduling order, got %v", order)
	}
	if s := w.Metrics().Snapshot(); s.TimersScheduled != 4 || s.TimersFired != 4 {
		t.Fatalf("unexpected timer metrics: %+v", s)
	}
}

func TestScheduleRunsAfterEntities(t *testing.T) {
	w := newTestWorld(t)

	var ticked, fired int64
	<-w.Exec(func(tx *Tx) {
		e := spawnCube(tx, mgl64.Vec3{})
		e.state().onTick = func(tx *Tx, _ *testEntity) {
			ticked = tx.CurrentTick()
		}
		tx.Schedule(e, 1, func(tx *Tx) {
			if ticked != tx.CurrentTick() {
				t.Errorf("expected entities to be ticked before timers run")
			}
			fired = tx.CurrentTick()
		})
	})
	w.Advance(1)
	if fired != 1 {
		t.Fatalf("expected timer to fire at tick 1, got %d", fired)
	}
}

func TestScheduleDiscardsTimersOfRemovedOwner(t *testing.T) {
	w := newTestWorld(t)

	var fired bool
	<-w.Exec(func(tx *Tx) {
		owner := spawnCube(tx, mgl64.Vec3{})
		child := spawnCube(tx, mgl64.Vec3{5, 0, 0})
		_ = tx.Attach(owner, child)
		tx.Schedule(owner, 5, func(*Tx) { fired = true })
		tx.Schedule(child, 5, func(*Tx) { fired = true })
		tx.RemoveEntity(owner)

		// Scheduling with an owner that was already removed is a no-op.
		tx.Schedule(owner, 1, func(*Tx) { fired = true })
	})
	w.Advance(10)
	if fired {
		t.Fatalf("expected timers of removed owners never to fire")
	}
	if s := w.Metrics().Snapshot(); s.TimersDiscarded != 3 || s.TimersFired != 0 {
		t.Fatalf("expected 3 discarded and 0 fired timers, got %+v", s)
	}
}

func TestScheduleChainedTimers(t *testing.T) {
	w := newTestWorld(t)

	var ticks []int64
	<-w.Exec(func(tx *Tx) {
		tx.Schedule(nil, 2, func(tx *Tx) {
			ticks = append(ticks, tx.CurrentTick())
			tx.Schedule(nil, 3, func(tx *Tx) {
				ticks = append(ticks, tx.CurrentTick())
			})
		})
	})
	w.Advance(10)
	if !slices.Equal(ticks, []int64{2, 5}) {
		t.Fatalf("expected chained timers to fire at ticks 2 and 5, got %v", ticks)
	}
}

func TestSchedulerDiscardKeepsHeapOrder(t *testing.T) {
	s := newScheduler()
	a, b := &EntityHandle{}, &EntityHandle{}
	var order []int64
	for _, due := range []int64{9, 3, 7, 1, 5} {
		s.schedule(a, due, func(*Tx) { order = append(order, due) })
		s.schedule(b, due, func(*Tx) { t.Errorf("discarded timer ran") })
	}
	if n := s.discard(b); n != 5 {
		t.Fatalf("expected 5 timers to be discarded, got %d", n)
	}
	if fired := s.run(&Tx{}, 100); fired != 5 {
		t.Fatalf("expected 5 timers to fire, got %d", fired)
	}
	if !slices.Equal(order, []int64{1, 3, 5, 7, 9}) {
		t.Fatalf("expected timers to fire by due tick, got %v", order)
	}
	if s.len() != 0 {
		t.Fatalf("expected no pending timers, got %d", s.len())
	}
}
