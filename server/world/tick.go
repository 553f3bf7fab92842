package world

import (
	"math"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// ticker implements World ticking methods.
type ticker struct {
	interval time.Duration
}

const (
	tpsSampleSize       = 20
	tpsWarningThreshold = 0.95
)

// tickInterval returns the duration of one tick at the rate passed.
func tickInterval(rate int) time.Duration {
	return time.Second / time.Duration(rate)
}

// tickLoop starts ticking the World at the interval of the ticker, updating
// all entities, contacts and timers as required.
func (t ticker) tickLoop(w *World) {
	tc := time.NewTicker(t.interval)
	defer tc.Stop()
	lastTick := time.Now()
	var (
		durationSum time.Duration
		ticksCount  int
		warned      bool
	)
	for {
		select {
		case <-tc.C:
			tickStart := time.Now()
			duration := tickStart.Sub(lastTick)
			lastTick = tickStart
			if duration > 0 {
				durationSum += duration
				ticksCount++
				if ticksCount >= tpsSampleSize {
					tps := 1.0 / (durationSum / time.Duration(ticksCount)).Seconds()
					w.tps.Store(math.Float64bits(tps))
					if target := float64(w.conf.TickRate); tps < target*tpsWarningThreshold {
						if !warned {
							w.conf.Log.Warn("TPS dropped below threshold.", "tps", tps, "target", target)
							warned = true
						}
					} else {
						warned = false
					}
					durationSum, ticksCount = 0, 0
				}
			}
			<-w.Exec(t.tick)
		case <-w.closing:
			// World is being closed: Stop ticking and get rid of a task.
			w.running.Done()
			return
		}
	}
}

// tick performs one tick on the World: it advances the current tick, ticks
// all entities, dispatches new contacts and finally runs all timers that are
// due.
func (t ticker) tick(tx *Tx) {
	w := tx.World()
	tick := w.currentTick.Add(1)

	t.tickEntities(tx, tick)
	w.detectContacts(tx)
	if fired := w.scheduled.run(tx, tick); fired > 0 {
		w.conf.Metrics.AddTimersFired(uint64(fired))
	}
	w.conf.Metrics.IncTicks()
}

// tickEntities ticks all entities that were in the World at the start of the
// tick. Entities added while ticking are first ticked during the next tick.
// If a ticked entity moved, all entities attached to it are moved by the same
// offset.
func (t ticker) tickEntities(tx *Tx, tick int64) {
	w := tx.World()
	for _, handle := range slices.Clone(w.entities) {
		if handle.closed {
			continue
		}
		te, ok := handle.entity().(TickerEntity)
		if !ok {
			continue
		}
		before := handle.data.Pos
		te.Tick(tx, tick)
		if handle.closed || len(handle.children) == 0 {
			continue
		}
		if delta := handle.data.Pos.Sub(before); delta != (mgl64.Vec3{}) {
			moveDescendants(handle, delta)
		}
	}
}

// moveDescendants translates all descendants of h by delta.
func moveDescendants(h *EntityHandle, delta mgl64.Vec3) {
	for _, c := range h.children {
		c.data.Pos = c.data.Pos.Add(delta)
		moveDescendants(c, delta)
	}
}
