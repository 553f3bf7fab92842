package world

import (
	"iter"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
)

// World implements a simulated 3D scene. It manages all entities in it, the
// contacts between them and the timers they schedule. All state of a World is
// accessed through a Tx obtained by calling World.Exec, so that the World
// remains synchronised: every transaction and every tick runs on the same
// goroutine.
type World struct {
	conf Config

	queue        chan transaction
	queueClosing chan struct{}
	queueing     sync.WaitGroup

	closing chan struct{}
	running sync.WaitGroup

	o sync.Once

	handler atomic.Pointer[Handler]

	currentTick atomic.Int64
	tps         atomic.Uint64
	count       atomic.Int64

	// entities holds all entities currently in the World in the order they
	// were added. The order is kept stable so that ticking and contact
	// dispatch are deterministic for a given random seed.
	entities []*EntityHandle
	contacts map[contact]struct{}

	scheduled *scheduler

	r *rand.Rand

	scratchBoxes []contactEntry
}

// transaction is a type that may be added to the transaction queue of a World.
// Its Run method is called when the transaction is taken out of the queue.
type transaction interface {
	Run(w *World)
}

// normalTransaction runs a function on the World and closes a channel when
// done.
type normalTransaction struct {
	c chan struct{}
	f ExecFunc
}

// Run creates a *Tx, runs the function and invalidates the Tx afterwards.
func (t normalTransaction) Run(w *World) {
	tx := &Tx{w: w}
	t.f(tx)
	tx.close()
	close(t.c)
}

// New creates a new World with the default Config.
func New() *World {
	var conf Config
	return conf.New()
}

// Name returns the display name of the world.
func (w *World) Name() string {
	return w.conf.Name
}

// CurrentTick returns the current tick counter of the world.
func (w *World) CurrentTick() int64 {
	if w == nil {
		return 0
	}
	return w.currentTick.Load()
}

// TickRate returns the amount of ticks that make up one second of simulated
// time. For Worlds without automatic ticking, DefaultTickRate is returned.
func (w *World) TickRate() int {
	if w.conf.TickRate <= 0 {
		return DefaultTickRate
	}
	return w.conf.TickRate
}

// TPS returns the current average ticks per second of the world. The value is
// averaged over the last tpsSampleSize ticks and may be zero if no samples have
// been recorded yet.
func (w *World) TPS() float64 {
	return math.Float64frombits(w.tps.Load())
}

// EntityCount returns the number of entities in the World.
func (w *World) EntityCount() int {
	return int(w.count.Load())
}

// Metrics returns the Metrics of the World.
func (w *World) Metrics() *Metrics {
	return w.conf.Metrics
}

// EntityRegistry returns the EntityRegistry that was passed to the World's
// Config upon construction.
func (w *World) EntityRegistry() EntityRegistry {
	return w.conf.Entities
}

// ExecFunc is a function that performs a synchronised transaction on a World.
type ExecFunc func(tx *Tx)

// Exec performs a synchronised transaction f on a World. Exec returns a channel
// that is closed once the transaction is complete.
func (w *World) Exec(f ExecFunc) <-chan struct{} {
	c := make(chan struct{})
	w.queue <- normalTransaction{c: c, f: f}
	return c
}

// Advance ticks the World n times in a single transaction and blocks until
// all ticks are done. It may be used on Worlds with or without automatic
// ticking.
func (w *World) Advance(n int) {
	if n <= 0 {
		return
	}
	<-w.Exec(func(tx *Tx) {
		t := ticker{}
		for range n {
			t.tick(tx)
		}
	})
}

// handleTransactions continuously reads transactions from the queue and runs
// them.
func (w *World) handleTransactions() {
	for {
		select {
		case tx := <-w.queue:
			tx.Run(w)
		case <-w.queueClosing:
			w.queueing.Done()
			return
		}
	}
}

// addEntity adds an EntityHandle and all its children to a World. addEntity
// panics if the EntityHandle is already in a world or was closed before.
func (w *World) addEntity(tx *Tx, handle *EntityHandle) Entity {
	if handle.w != nil || handle.closed {
		panic("cannot add entity " + handle.String() + " to world: entity already in a world or closed")
	}
	handle.w = w
	w.entities = append(w.entities, handle)
	w.count.Add(1)

	e := handle.entity()
	w.conf.Metrics.IncSpawned(handle.t.EncodeEntity())
	w.Handler().HandleEntitySpawn(tx, e)

	for _, child := range slices.Clone(handle.children) {
		w.addEntity(tx, child)
	}
	return e
}

// removeEntity removes an entity and all its descendants from the World. Any
// timers owned by removed entities are discarded. After removing an entity
// from the World, the entity is no longer usable.
func (w *World) removeEntity(tx *Tx, handle *EntityHandle) {
	if handle.w != w || handle.closed {
		return
	}
	for _, child := range slices.Clone(handle.children) {
		w.removeEntity(tx, child)
	}
	handle.detach()
	handle.closed = true

	if i := slices.Index(w.entities, handle); i >= 0 {
		w.entities = slices.Delete(w.entities, i, i+1)
	}
	w.count.Add(-1)

	if n := w.scheduled.discard(handle); n > 0 {
		w.conf.Metrics.AddTimersDiscarded(uint64(n))
	}
	w.conf.Metrics.IncRemoved(handle.t.EncodeEntity())
	w.Handler().HandleEntityDespawn(tx, handle.entity())
	handle.w = nil
}

// entitiesWithin returns an iterator that yields all entities whose position
// is within the BBox passed.
func (w *World) entitiesWithin(box BBox) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, handle := range slices.Clone(w.entities) {
			if handle.closed || !box.Vec3Within(handle.data.Pos) {
				continue
			}
			if !yield(handle.entity()) {
				return
			}
		}
	}
}

// allEntities returns an iterator that yields all entities in the World.
func (w *World) allEntities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, handle := range slices.Clone(w.entities) {
			if handle.closed {
				continue
			}
			if !yield(handle.entity()) {
				return
			}
		}
	}
}

// Handle changes the current Handler of the world. As a result, events called
// by the world will call the methods of the Handler passed. Handle sets the
// world's Handler to NopHandler if nil is passed.
func (w *World) Handle(h Handler) {
	if h == nil {
		h = NopHandler{}
	}
	h = wrapWorldHandler(w, h)
	w.handler.Store(&h)
}

// Handler returns the Handler of the world.
func (w *World) Handler() Handler {
	if w == nil {
		return NopHandler{}
	}
	return *w.handler.Load()
}

// Close closes the world. Pending timers are dropped and the World stops
// ticking. Close may be called multiple times.
func (w *World) Close() error {
	w.o.Do(w.close)
	return nil
}

// close stops the World from ticking and stops handling transactions.
func (w *World) close() {
	<-w.Exec(func(tx *Tx) {
		// Let user code run anything that needs to be finished before closing.
		w.Handler().HandleClose(tx)
		w.Handle(NopHandler{})
	})

	close(w.closing)
	w.running.Wait()

	close(w.queueClosing)
	w.queueing.Wait()

	if n := w.scheduled.len(); n > 0 {
		w.conf.Log.Debug("Dropped pending timers on close.", "count", n)
	}
}
