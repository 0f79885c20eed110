// Package transition sequences deferred side effects against animation timing.
//
// The queue runs on a virtual clock: hosts call Advance with the elapsed time
// of each frame, and tests call Flush to run everything scheduled at once.
// Nothing in this package reads the wall clock.
package transition

import "time"

// Entry is a single deferred side effect.
type Entry struct {
	Action func()

	// Delay is the pause between this entry and the next one.
	Delay time.Duration

	// Block is how long this entry's animation occupies the screen.
	Block time.Duration

	// SkipQueue entries run immediately regardless of queue state.
	SkipQueue bool
}

// span is the time this entry holds back the entries queued after it.
func (e Entry) span() time.Duration {
	return e.Delay + e.Block
}

// Scheduled is an entry bound to its fire time on the virtual clock.
type Scheduled struct {
	FireAt time.Duration
	Entry  Entry
}

// Queue buffers entries while closed and schedules them back to back when open.
type Queue struct {
	now           time.Duration
	cursor        time.Duration // earliest time the next entry may fire
	open          bool
	reducedMotion bool
	draining      bool

	buffered  []Entry
	scheduled []Scheduled
}

// New creates an open queue.
func New() *Queue {
	return &Queue{open: true}
}

// SetReducedMotion collapses every delay and block to zero when enabled.
// Entries still fire in insertion order.
func (q *Queue) SetReducedMotion(enabled bool) {
	q.reducedMotion = enabled
}

// ReducedMotion reports whether delays are collapsed.
func (q *Queue) ReducedMotion() bool {
	return q.reducedMotion
}

// Now returns the current virtual time.
func (q *Queue) Now() time.Duration {
	return q.now
}

// IsOpen reports whether entries are scheduled rather than buffered.
func (q *Queue) IsOpen() bool {
	return q.open
}

// Add records an entry.
// SkipQueue entries run now. Otherwise an open queue schedules the entry after
// everything already scheduled, and a closed queue buffers it until Open.
func (q *Queue) Add(e Entry) {
	if e.Action == nil {
		return
	}
	if e.SkipQueue {
		e.Action()
		return
	}
	if !q.open {
		q.buffered = append(q.buffered, e)
		return
	}
	q.schedule(e)
	q.drain()
}

// Close starts buffering. Entries still buffered from an earlier close are discarded.
func (q *Queue) Close() {
	q.open = false
	q.buffered = nil
}

// Open stops buffering and schedules the buffered entries in insertion order.
// Entry i fires at the sum of delay+block of every entry before it.
func (q *Queue) Open() {
	q.open = true
	pending := q.buffered
	q.buffered = nil
	for _, e := range pending {
		q.schedule(e)
	}
	q.drain()
}

// schedule appends e at the cursor and advances the cursor past it.
func (q *Queue) schedule(e Entry) {
	if q.cursor < q.now {
		q.cursor = q.now
	}
	if q.reducedMotion {
		q.scheduled = append(q.scheduled, Scheduled{FireAt: q.now, Entry: e})
		return
	}
	q.scheduled = append(q.scheduled, Scheduled{FireAt: q.cursor, Entry: e})
	q.cursor += e.span()
}

// drain runs every scheduled entry that is due, in order.
// Actions may add entries; those are picked up by the same loop.
func (q *Queue) drain() {
	if q.draining {
		return
	}
	q.draining = true
	defer func() { q.draining = false }()

	for len(q.scheduled) > 0 && q.scheduled[0].FireAt <= q.now {
		next := q.scheduled[0]
		q.scheduled = q.scheduled[1:]
		next.Entry.Action()
	}
}

// Advance moves the virtual clock forward and runs whatever became due.
func (q *Queue) Advance(dt time.Duration) {
	if dt > 0 {
		q.now += dt
	}
	q.drain()
}

// Flush runs every scheduled entry now, moving the clock to each fire time.
// Buffered entries of a closed queue are left alone.
func (q *Queue) Flush() {
	if q.draining {
		return
	}
	for len(q.scheduled) > 0 {
		if at := q.scheduled[0].FireAt; at > q.now {
			q.now = at
		}
		q.drain()
	}
}

// ClearQueued discards buffered entries without running them.
func (q *Queue) ClearQueued() {
	q.buffered = nil
}

// ClearScheduled cancels every scheduled entry and resets the cursor.
func (q *Queue) ClearScheduled() {
	q.scheduled = nil
	q.cursor = q.now
}

// Buffered returns the number of entries waiting for Open.
func (q *Queue) Buffered() int {
	return len(q.buffered)
}

// Pending returns a copy of the scheduled entries in fire order.
func (q *Queue) Pending() []Scheduled {
	out := make([]Scheduled, len(q.scheduled))
	copy(out, q.scheduled)
	return out
}

// Idle reports whether nothing is buffered or scheduled.
func (q *Queue) Idle() bool {
	return len(q.buffered) == 0 && len(q.scheduled) == 0
}
