package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestCollisionDispatchedOncePerContact(t *testing.T) {
	w := newTestWorld(t)
	h := &recordingHandler{}
	w.Handle(h)

	var mover, still *testEntity
	<-w.Exec(func(tx *Tx) {
		mover = spawnCube(tx, mgl64.Vec3{-3, 0, 0})
		still = spawnCube(tx, mgl64.Vec3{0, 0, 0})
		mover.state().velocity = mgl64.Vec3{0.5, 0, 0}
	})
	// Boxes start overlapping once mover passes x = -1 and separate after x = 1.
	w.Advance(6)
	<-w.Exec(func(tx *Tx) {
		if len(h.collisions) != 1 {
			t.Errorf("expected 1 collision while overlapping, got %d", len(h.collisions))
			return
		}
		if len(mover.state().collisions) != 1 || mover.state().collisions[0] != still {
			t.Errorf("expected mover to be notified of still")
			return
		}
		if len(still.state().collisions) != 1 || still.state().collisions[0] != mover {
			t.Errorf("expected still to be notified of mover")
			return
		}
	})
	w.Advance(4)
	<-w.Exec(func(tx *Tx) {
		if mover.Position()[0] <= 1 {
			t.Errorf("expected mover to have passed still, at %v", mover.Position())
			return
		}
		// Move back through: a new contact starts.
		mover.state().velocity = mgl64.Vec3{-0.5, 0, 0}
	})
	w.Advance(6)
	if len(h.collisions) != 2 {
		t.Fatalf("expected a second collision after separating, got %d", len(h.collisions))
	}
	if s := w.Metrics().Snapshot(); s.Collisions != 2 {
		t.Fatalf("expected 2 collisions in metrics, got %d", s.Collisions)
	}
}

func TestCollisionTouchingFacesDoNotCollide(t *testing.T) {
	w := newTestWorld(t)
	h := &recordingHandler{}
	w.Handle(h)

	<-w.Exec(func(tx *Tx) {
		spawnCube(tx, mgl64.Vec3{0, 0, 0})
		spawnCube(tx, mgl64.Vec3{1, 0, 0})
		spawnCube(tx, mgl64.Vec3{0, 1, 0})
	})
	w.Advance(1)
	if len(h.collisions) != 0 {
		t.Fatalf("expected boxes sharing a face not to collide, got %d collisions", len(h.collisions))
	}
}

func TestCollisionSkipsHierarchy(t *testing.T) {
	w := newTestWorld(t)
	h := &recordingHandler{}
	w.Handle(h)

	<-w.Exec(func(tx *Tx) {
		parent := spawnCube(tx, mgl64.Vec3{})
		child := spawnCube(tx, mgl64.Vec3{0.5, 0, 0})
		grandchild := spawnCube(tx, mgl64.Vec3{0.25, 0, 0})
		_ = tx.Attach(parent, child)
		_ = tx.Attach(child, grandchild)
	})
	w.Advance(1)
	if len(h.collisions) != 0 {
		t.Fatalf("expected no collisions within a hierarchy, got %d", len(h.collisions))
	}
}

func TestCollisionPartnerNotifiedAfterRemoval(t *testing.T) {
	w := newTestWorld(t)

	var a, b *testEntity
	<-w.Exec(func(tx *Tx) {
		a = spawnCube(tx, mgl64.Vec3{})
		b = spawnCube(tx, mgl64.Vec3{0.5, 0, 0})
		remove := func(tx *Tx, e *testEntity, _ Entity) { tx.RemoveEntity(e) }
		a.state().onCollide = remove
		b.state().onCollide = remove
	})
	w.Advance(1)

	// Whichever entity is notified first removes itself. The other one must
	// still be notified.
	if len(a.state().collisions) != 1 || len(b.state().collisions) != 1 {
		t.Fatalf("expected both entities to be notified, got %d and %d", len(a.state().collisions), len(b.state().collisions))
	}
	if w.EntityCount() != 0 {
		t.Fatalf("expected both entities to be removed, got %d", w.EntityCount())
	}
}

func TestCollisionSkipsEntityRemovedByHandler(t *testing.T) {
	w := newTestWorld(t)

	var a, b *testEntity
	w.Handle(collisionFunc(func(tx *Tx, x, _ Entity) {
		tx.RemoveEntity(x)
	}))
	<-w.Exec(func(tx *Tx) {
		a = spawnCube(tx, mgl64.Vec3{})
		b = spawnCube(tx, mgl64.Vec3{0.5, 0, 0})
	})
	w.Advance(1)

	notified := len(a.state().collisions) + len(b.state().collisions)
	if notified != 1 {
		t.Fatalf("expected only the remaining entity to be notified, got %d notifications", notified)
	}
}

type collisionFunc func(tx *Tx, a, b Entity)

func (collisionFunc) HandleEntitySpawn(*Tx, Entity)          {}
func (collisionFunc) HandleEntityDespawn(*Tx, Entity)        {}
func (f collisionFunc) HandleCollision(tx *Tx, a, b Entity) { f(tx, a, b) }
func (collisionFunc) HandleClose(*Tx)                        {}

func TestTxCollideExternalContact(t *testing.T) {
	w := newTestWorld(t)
	h := &recordingHandler{}
	w.Handle(h)

	<-w.Exec(func(tx *Tx) {
		a := spawnCube(tx, mgl64.Vec3{})
		b := spawnCube(tx, mgl64.Vec3{50, 0, 0})
		tx.Collide(a, b)
		tx.Collide(b, a)
		tx.Collide(a, a)
		if len(h.collisions) != 1 {
			t.Errorf("expected a single dispatched collision, got %d", len(h.collisions))
			return
		}
		if len(a.state().collisions) != 1 || len(b.state().collisions) != 1 {
			t.Errorf("expected both entities to be notified once")
			return
		}
	})
}
