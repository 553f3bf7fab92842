package world

import (
	"maps"
	"sync"
)

// Metrics tracks counters of a World for observability. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	mu sync.Mutex

	spawned map[string]uint64
	removed map[string]uint64

	collisions      uint64
	timersScheduled uint64
	timersFired     uint64
	timersDiscarded uint64
	ticks           uint64
}

// MetricsSnapshot is a copy of the counters of a Metrics at one point in time.
// Spawned and Removed are indexed by encoded entity type name.
type MetricsSnapshot struct {
	Spawned, Removed map[string]uint64

	Collisions      uint64
	TimersScheduled uint64
	TimersFired     uint64
	TimersDiscarded uint64
	Ticks           uint64
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{
		spawned: make(map[string]uint64),
		removed: make(map[string]uint64),
	}
}

// IncSpawned increments the spawn counter for an entity type.
func (m *Metrics) IncSpawned(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.spawned[name]++
	m.mu.Unlock()
}

// IncRemoved increments the removal counter for an entity type.
func (m *Metrics) IncRemoved(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.removed[name]++
	m.mu.Unlock()
}

// IncCollisions increments the amount of dispatched collisions.
func (m *Metrics) IncCollisions() {
	if m == nil {
		return
	}
	m.add(&m.collisions, 1)
}

// IncTimersScheduled increments the amount of timers scheduled.
func (m *Metrics) IncTimersScheduled() {
	if m == nil {
		return
	}
	m.add(&m.timersScheduled, 1)
}

// AddTimersFired adds to the amount of timers that ran.
func (m *Metrics) AddTimersFired(n uint64) {
	if m == nil {
		return
	}
	m.add(&m.timersFired, n)
}

// AddTimersDiscarded adds to the amount of timers dropped because their owner
// was removed.
func (m *Metrics) AddTimersDiscarded(n uint64) {
	if m == nil {
		return
	}
	m.add(&m.timersDiscarded, n)
}

// IncTicks increments the tick counter.
func (m *Metrics) IncTicks() {
	if m == nil {
		return
	}
	m.add(&m.ticks, 1)
}

func (m *Metrics) add(v *uint64, n uint64) {
	if n == 0 {
		return
	}
	m.mu.Lock()
	*v += n
	m.mu.Unlock()
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Spawned:         maps.Clone(m.spawned),
		Removed:         maps.Clone(m.removed),
		Collisions:      m.collisions,
		TimersScheduled: m.timersScheduled,
		TimersFired:     m.timersFired,
		TimersDiscarded: m.timersDiscarded,
		Ticks:           m.ticks,
	}
}
