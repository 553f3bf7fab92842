package world

import (
	"container/heap"
	"slices"
)

// scheduler holds one-shot timers ordered by the tick they are due at. Timers
// due at the same tick run in the order they were scheduled.
type scheduler struct {
	tasks taskQueue
	seq   uint64
}

type scheduledTask struct {
	due   int64
	seq   uint64
	owner *EntityHandle
	f     ExecFunc
}

func newScheduler() *scheduler {
	return &scheduler{}
}

// schedule adds a timer running f at tick due.
func (s *scheduler) schedule(owner *EntityHandle, due int64, f ExecFunc) {
	s.seq++
	heap.Push(&s.tasks, &scheduledTask{due: due, seq: s.seq, owner: owner, f: f})
}

// run runs all timers that are due at or before tick. Timers scheduled by the
// callbacks with a due tick of at most tick also run in the same pass. The
// amount of timers run is returned.
func (s *scheduler) run(tx *Tx, tick int64) (fired int) {
	for len(s.tasks) > 0 && s.tasks[0].due <= tick {
		t := heap.Pop(&s.tasks).(*scheduledTask)
		if t.owner != nil && t.owner.closed {
			continue
		}
		t.f(tx)
		fired++
	}
	return fired
}

// discard removes all timers owned by the handle passed and returns how many
// were removed.
func (s *scheduler) discard(owner *EntityHandle) int {
	n := len(s.tasks)
	s.tasks = slices.DeleteFunc(s.tasks, func(t *scheduledTask) bool {
		return t.owner == owner
	})
	removed := n - len(s.tasks)
	if removed > 0 {
		heap.Init(&s.tasks)
	}
	return removed
}

// len returns the amount of pending timers.
func (s *scheduler) len() int {
	return len(s.tasks)
}

// taskQueue implements heap.Interface.
type taskQueue []*scheduledTask

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due == q[j].due {
		return q[i].seq < q[j].seq
	}
	return q[i].due < q[j].due
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) {
	*q = append(*q, x.(*scheduledTask))
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}
