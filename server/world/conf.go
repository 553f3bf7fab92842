package world

import (
	"log/slog"
	"math/rand/v2"
)

// DefaultTickRate is the amount of ticks per second a World runs at if no
// TickRate is set in its Config.
const DefaultTickRate = 60

// Config may be used to create a new World. It holds a variety of fields that
// influence the World.
type Config struct {
	// Log is the Logger that will be used to log errors and debug messages
	// to. If set to nil, slog.Default() is used.
	Log *slog.Logger
	// Name is the display name of the World. If empty, 'World' is used.
	Name string
	// TickRate is the amount of times per second the World ticks on its own.
	// If left as 0, DefaultTickRate is used. Setting TickRate to -1 or lower
	// disables automatic ticking: the World is then only advanced by calling
	// World.Advance.
	TickRate int
	// Seed is used to seed the random source of the World if Rand is nil.
	Seed uint64
	// Rand is the random source used for all randomness in the World, such
	// as fragment impulses and removal delays. If nil, a PCG source seeded
	// with Seed is used.
	Rand *rand.Rand
	// Metrics collects counters about the World. If nil, a new Metrics is
	// created.
	Metrics *Metrics
	// Entities is the EntityRegistry used to look up entity types by name.
	Entities EntityRegistry
}

// New creates a new World using the Config conf. The World is ticked
// automatically unless conf.TickRate is negative. The World must be closed
// using World.Close when it is no longer used.
func (conf Config) New() *World {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Name == "" {
		conf.Name = "World"
	}
	if conf.TickRate == 0 {
		conf.TickRate = DefaultTickRate
	}
	if conf.Rand == nil {
		conf.Rand = rand.New(rand.NewPCG(conf.Seed, conf.Seed^0x9e3779b97f4a7c15))
	}
	if conf.Metrics == nil {
		conf.Metrics = NewMetrics()
	}
	conf.Log = conf.Log.With("world", conf.Name)

	w := &World{
		conf:         conf,
		r:            conf.Rand,
		queue:        make(chan transaction, 128),
		queueClosing: make(chan struct{}),
		closing:      make(chan struct{}),
		contacts:     make(map[contact]struct{}),
		scheduled:    newScheduler(),
	}
	w.handler.Store(&nopHandler)

	w.queueing.Add(1)
	go w.handleTransactions()

	if conf.TickRate > 0 {
		w.running.Add(1)
		go ticker{interval: tickInterval(conf.TickRate)}.tickLoop(w)
	}
	return w
}
