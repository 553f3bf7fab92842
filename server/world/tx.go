package world

import (
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"
)

// closedTxMessage is the panic message used when a Tx is used after the
// transaction it belongs to has finished.
const closedTxMessage = "world.Tx: use of transaction after transaction finishes is not permitted"

// Tx represents a synchronised transaction performed on a World. Most
// operations on a World can only be called through a transaction. A Tx is
// only valid inside the function passed to World.Exec, or inside ticking,
// collision and timer callbacks that receive it.
type Tx struct {
	w      *World
	closed bool
}

// World returns the World of the Tx. It panics if the transaction was already
// marked complete.
func (tx *Tx) World() *World {
	tx.check()
	return tx.w
}

// Log returns the Logger of the World.
func (tx *Tx) Log() *slog.Logger {
	return tx.World().conf.Log
}

// Metrics returns the Metrics of the World.
func (tx *Tx) Metrics() *Metrics {
	return tx.World().conf.Metrics
}

// Rand returns the random source of the World. All randomness in a World
// should be drawn from it so that a World created with a fixed seed behaves
// the same every run.
func (tx *Tx) Rand() *rand.Rand {
	return tx.World().r
}

// CurrentTick returns the current tick of the World.
func (tx *Tx) CurrentTick() int64 {
	return tx.World().currentTick.Load()
}

// AddEntity adds an EntityHandle, and any children it holds, to the World. The
// Entity opened from the handle is returned. AddEntity panics if the handle is
// already in a World.
func (tx *Tx) AddEntity(e *EntityHandle) Entity {
	return tx.World().addEntity(tx, e)
}

// RemoveEntity removes an Entity and all entities attached to it from the
// World. Timers scheduled with any of the removed entities as owner are
// discarded. Removing an entity that is not in the World is a no-op.
func (tx *Tx) RemoveEntity(e Entity) {
	tx.World().removeEntity(tx, e.H())
}

// Entities returns an iterator that yields all entities in the World.
// Entities added or removed while iterating are not reflected.
func (tx *Tx) Entities() iter.Seq[Entity] {
	return tx.World().allEntities()
}

// EntitiesWithin returns an iterator that yields all entities whose position
// lies within the BBox passed.
func (tx *Tx) EntitiesWithin(box BBox) iter.Seq[Entity] {
	return tx.World().entitiesWithin(box)
}

// Instantiate creates an independent copy of the Entity passed and adds it to
// the World. The copy holds copies of the body and type specific data of the
// original and of all entities attached to it, recursively. The data of every
// entity copied must implement Cloner. ErrResourceUnavailable is returned if
// the entity is not in the World or its data cannot be copied.
func (tx *Tx) Instantiate(e Entity) (Entity, error) {
	w := tx.World()
	handle := e.H()
	if handle.closed || handle.w != w {
		return nil, fmt.Errorf("instantiate %v: entity not in world: %w", handle, ErrResourceUnavailable)
	}
	clone, err := cloneHandle(handle)
	if err != nil {
		return nil, fmt.Errorf("instantiate %v: %w", handle, err)
	}
	return w.addEntity(tx, clone), nil
}

// cloneHandle copies a handle and its children. The copies are not in any
// World yet.
func cloneHandle(h *EntityHandle) (*EntityHandle, error) {
	data := h.data
	data.Body = h.data.Body.clone()
	if h.data.Data != nil {
		c, ok := h.data.Data.(Cloner)
		if !ok {
			return nil, fmt.Errorf("data %T of %v cannot be cloned: %w", h.data.Data, h, ErrResourceUnavailable)
		}
		data.Data = c.Clone()
	}
	clone := &EntityHandle{id: uuid.New(), t: h.t, data: data}
	for _, child := range h.children {
		c, err := cloneHandle(child)
		if err != nil {
			return nil, err
		}
		c.parent = clone
		clone.children = append(clone.children, c)
	}
	return clone, nil
}

// Attach attaches child to parent. A child is moved along with its parent and
// is removed together with it. If child already had a parent, it is detached
// from it first. ErrInvariantViolation is returned if either entity is not in
// the World or if attaching would create a cycle.
func (tx *Tx) Attach(parent, child Entity) error {
	w := tx.World()
	p, c := parent.H(), child.H()
	if p.w != w || c.w != w || p.closed || c.closed {
		return fmt.Errorf("attach %v to %v: entity not in world: %w", c, p, ErrInvariantViolation)
	}
	if c.isAncestorOf(p) {
		return fmt.Errorf("attach %v to %v: cycle in hierarchy: %w", c, p, ErrInvariantViolation)
	}
	c.detach()
	c.parent = p
	p.children = append(p.children, c)
	return nil
}

// Detach detaches an entity from its parent, if it has one. The entity remains
// in the World.
func (tx *Tx) Detach(child Entity) {
	tx.check()
	child.H().detach()
}

// Parent returns the entity that e is attached to, if any.
func (tx *Tx) Parent(e Entity) (Entity, bool) {
	tx.check()
	p := e.H().parent
	if p == nil || p.closed {
		return nil, false
	}
	return p.entity(), true
}

// Children returns the entities directly attached to e.
func (tx *Tx) Children(e Entity) []Entity {
	tx.check()
	children := make([]Entity, 0, len(e.H().children))
	for _, c := range e.H().children {
		children = append(children, c.entity())
	}
	return children
}

// Descendants returns all entities attached to e directly or indirectly, in
// depth-first order. e itself is not included.
func (tx *Tx) Descendants(e Entity) []Entity {
	tx.check()
	var all []Entity
	var walk func(h *EntityHandle)
	walk = func(h *EntityHandle) {
		for _, c := range h.children {
			all = append(all, c.entity())
			walk(c)
		}
	}
	walk(e.H())
	return all
}

// Schedule schedules f to run once, delay ticks from now, during the timer
// pass of that tick. A delay lower than 1 is treated as 1. If owner is not
// nil, f is discarded when owner is removed from the World before the timer
// fires.
func (tx *Tx) Schedule(owner Entity, delay int64, f ExecFunc) {
	w := tx.World()
	var h *EntityHandle
	if owner != nil {
		h = owner.H()
		if h.closed || h.w != w {
			w.conf.Metrics.AddTimersDiscarded(1)
			return
		}
	}
	w.scheduled.schedule(h, w.currentTick.Load()+max(delay, 1), f)
	w.conf.Metrics.IncTimersScheduled()
}

// Collide reports that a and b started touching. Both entities are notified
// as if the contact was detected by the World. If a and b are already known to
// be touching, Collide is a no-op.
func (tx *Tx) Collide(a, b Entity) {
	w := tx.World()
	ha, hb := a.H(), b.H()
	if ha == hb || ha.w != w || hb.w != w || ha.closed || hb.closed {
		return
	}
	c := newContact(ha, hb)
	if _, ok := w.contacts[c]; ok {
		return
	}
	w.contacts[c] = struct{}{}
	w.dispatchCollision(tx, c)
}

// check panics if the Tx was closed.
func (tx *Tx) check() {
	if tx.closed {
		panic(closedTxMessage)
	}
}

// close finishes the Tx. Using it afterwards panics.
func (tx *Tx) close() {
	tx.closed = true
}
