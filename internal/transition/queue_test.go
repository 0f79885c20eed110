package transition

import (
	"testing"
	"time"
)

func recorder(log *[]string, name string) func() {
	return func() { *log = append(*log, name) }
}

func TestOpenQueueRunsImmediately(t *testing.T) {
	q := New()
	var log []string

	q.Add(Entry{Action: recorder(&log, "a")})

	if len(log) != 1 || log[0] != "a" {
		t.Fatalf("expected entry to run immediately, got %v", log)
	}
	if !q.Idle() {
		t.Error("queue should be idle after running the only entry")
	}
}

func TestOpenQueueSequencesBlockedEntries(t *testing.T) {
	q := New()
	var log []string

	q.Add(Entry{Action: recorder(&log, "a"), Block: 500 * time.Millisecond})
	q.Add(Entry{Action: recorder(&log, "b")})

	if len(log) != 1 {
		t.Fatalf("expected only first entry to run, got %v", log)
	}

	q.Advance(499 * time.Millisecond)
	if len(log) != 1 {
		t.Fatalf("second entry ran before first finished blocking: %v", log)
	}

	q.Advance(time.Millisecond)
	if len(log) != 2 || log[1] != "b" {
		t.Fatalf("expected second entry after block, got %v", log)
	}
}

func TestClosedQueueBuffersUntilOpen(t *testing.T) {
	q := New()
	var log []string

	q.Close()
	q.Add(Entry{Action: recorder(&log, "a"), Delay: 100 * time.Millisecond, Block: 200 * time.Millisecond})
	q.Add(Entry{Action: recorder(&log, "b"), Delay: 50 * time.Millisecond})
	q.Add(Entry{Action: recorder(&log, "c"), Block: time.Second})
	q.Add(Entry{Action: recorder(&log, "d")})

	if len(log) != 0 {
		t.Fatalf("closed queue ran entries: %v", log)
	}
	if q.Buffered() != 4 {
		t.Fatalf("expected 4 buffered, got %d", q.Buffered())
	}

	q.Open()

	// First entry is due at once; the rest wait on the virtual clock.
	if len(log) != 1 || log[0] != "a" {
		t.Fatalf("expected a to fire on open, got %v", log)
	}

	pending := q.Pending()
	want := []time.Duration{300 * time.Millisecond, 350 * time.Millisecond, 1350 * time.Millisecond}
	if len(pending) != len(want) {
		t.Fatalf("expected %d pending, got %d", len(want), len(pending))
	}
	for i, p := range pending {
		if p.FireAt != want[i] {
			t.Errorf("entry %d: expected fire at %v, got %v", i, want[i], p.FireAt)
		}
	}

	q.Flush()
	if got := len(log); got != 4 {
		t.Fatalf("expected all 4 entries after flush, got %v", log)
	}
	for i, name := range []string{"a", "b", "c", "d"} {
		if log[i] != name {
			t.Errorf("position %d: expected %s, got %s", i, name, log[i])
		}
	}
}

func TestFireTimesNeverOverlap(t *testing.T) {
	q := New()
	q.Close()

	entries := []Entry{
		{Delay: 10 * time.Millisecond, Block: 90 * time.Millisecond},
		{Delay: 300 * time.Millisecond},
		{Block: 40 * time.Millisecond},
		{Delay: 5 * time.Millisecond, Block: 5 * time.Millisecond},
		{},
		{Delay: 70 * time.Millisecond},
	}
	for _, e := range entries {
		e.Action = func() {}
		q.Add(e)
	}

	// Move the clock so Open cannot run the first entry synchronously.
	q.Advance(time.Second)
	q.ClearScheduled()
	q.scheduleAll()

	pending := q.Pending()
	for i := 1; i < len(pending); i++ {
		prev := pending[i-1]
		minFire := prev.FireAt + prev.Entry.Delay + prev.Entry.Block
		if pending[i].FireAt < minFire {
			t.Errorf("entry %d fires at %v, before previous entry releases at %v",
				i, pending[i].FireAt, minFire)
		}
	}
}

// scheduleAll moves buffered entries into the schedule without draining.
func (q *Queue) scheduleAll() {
	pending := q.buffered
	q.buffered = nil
	q.open = true
	for _, e := range pending {
		q.schedule(e)
	}
}

func TestReducedMotionFiresBackToBack(t *testing.T) {
	q := New()
	q.SetReducedMotion(true)
	var log []string

	q.Close()
	q.Add(Entry{Action: recorder(&log, "a"), Block: time.Second})
	q.Add(Entry{Action: recorder(&log, "b"), Delay: time.Second})
	q.Add(Entry{Action: recorder(&log, "c")})
	q.Open()

	if len(log) != 3 {
		t.Fatalf("expected all entries in the same tick, got %v", log)
	}
	if log[0] != "a" || log[1] != "b" || log[2] != "c" {
		t.Errorf("order not preserved: %v", log)
	}
}

func TestSkipQueueIgnoresClosedQueue(t *testing.T) {
	q := New()
	var log []string

	q.Close()
	q.Add(Entry{Action: recorder(&log, "buffered")})
	q.Add(Entry{Action: recorder(&log, "seal"), SkipQueue: true})

	if len(log) != 1 || log[0] != "seal" {
		t.Fatalf("expected skip-queue entry to run at once, got %v", log)
	}
}

func TestCloseDiscardsStaleBuffer(t *testing.T) {
	q := New()
	var log []string

	q.Close()
	q.Add(Entry{Action: recorder(&log, "stale")})
	q.Close()
	q.Open()

	if len(log) != 0 {
		t.Errorf("re-closing should discard buffered entries, got %v", log)
	}
}

func TestClearCancelsPendingWork(t *testing.T) {
	q := New()
	var log []string

	q.Add(Entry{Action: recorder(&log, "a"), Block: time.Second})
	q.Add(Entry{Action: recorder(&log, "b")})
	q.Close()
	q.Add(Entry{Action: recorder(&log, "c")})

	q.ClearQueued()
	q.ClearScheduled()
	q.Open()
	q.Flush()

	if len(log) != 1 || log[0] != "a" {
		t.Errorf("expected only the entry that ran before clearing, got %v", log)
	}
	if !q.Idle() {
		t.Error("queue should be idle after clearing")
	}
}

func TestActionsMayEnqueue(t *testing.T) {
	q := New()
	var log []string

	q.Add(Entry{Action: func() {
		log = append(log, "outer")
		q.Add(Entry{Action: recorder(&log, "inner")})
	}})

	if len(log) != 2 || log[1] != "inner" {
		t.Errorf("expected nested entry to run in the same drain, got %v", log)
	}
}
