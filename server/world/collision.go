package world

import (
	"bytes"
	"slices"
)

// contact is an unordered pair of entities that are touching. The handle with
// the lowest UUID is always stored in a.
type contact struct {
	a, b *EntityHandle
}

func newContact(a, b *EntityHandle) contact {
	if bytes.Compare(a.id[:], b.id[:]) > 0 {
		a, b = b, a
	}
	return contact{a: a, b: b}
}

type contactEntry struct {
	h   *EntityHandle
	box BBox
}

// detectContacts finds all pairs of entities whose bounding boxes intersect
// and dispatches a collision for every pair that was not touching during the
// previous detection. Entities are never considered touching their own
// ancestors or descendants.
func (w *World) detectContacts(tx *Tx) {
	entries := w.scratchBoxes[:0]
	for _, h := range w.entities {
		if h.closed {
			continue
		}
		box := h.t.BBox(h.entity()).Translate(h.data.Pos)
		entries = append(entries, contactEntry{h: h, box: box})
	}
	// Sweep along the X axis: once the minimum X of a candidate lies beyond the
	// maximum X of the current box, no further candidate can intersect it.
	slices.SortStableFunc(entries, func(a, b contactEntry) int {
		switch {
		case a.box.min[0] < b.box.min[0]:
			return -1
		case a.box.min[0] > b.box.min[0]:
			return 1
		}
		return 0
	})

	current := make(map[contact]struct{}, len(w.contacts))
	var started []contact
	for i, a := range entries {
		for _, b := range entries[i+1:] {
			if b.box.min[0] >= a.box.max[0] {
				break
			}
			if !a.box.IntersectsWith(b.box) || a.h.isAncestorOf(b.h) || b.h.isAncestorOf(a.h) {
				continue
			}
			c := newContact(a.h, b.h)
			current[c] = struct{}{}
			if _, ok := w.contacts[c]; !ok {
				started = append(started, c)
			}
		}
	}
	w.contacts = current
	clear(entries)
	w.scratchBoxes = entries[:0]

	for _, c := range started {
		if c.a.closed || c.b.closed {
			continue
		}
		w.dispatchCollision(tx, c)
	}
}

// dispatchCollision notifies the Handler and both entities of a contact. An
// entity removed while handling the contact is not notified, but its partner
// still is.
func (w *World) dispatchCollision(tx *Tx, c contact) {
	w.conf.Metrics.IncCollisions()
	a, b := c.a.entity(), c.b.entity()
	w.Handler().HandleCollision(tx, a, b)
	if col, ok := a.(Collider); ok && !c.a.closed {
		col.Collide(tx, b)
	}
	if col, ok := b.(Collider); ok && !c.b.closed {
		col.Collide(tx, a)
	}
}
