package event

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dm-vev/cubeworld/server/world"
)

func TestQueuePopOrderIsEarliestFirst(t *testing.T) {
	q := NewQueue(0, nil)
	base := time.Now()
	q.Push(Event{Kind: Flow, Time: base.Add(5 * time.Second)})
	q.Push(Event{Kind: Grow, Time: base.Add(1 * time.Second)})
	q.Push(Event{Kind: Update, Time: base.Add(3 * time.Second)})

	first := q.Pop()
	if first.Kind != Grow {
		t.Fatalf("first popped kind = %v, want grow (earliest)", first.Kind)
	}
	second := q.Pop()
	if second.Kind != Update {
		t.Fatalf("second popped kind = %v, want update", second.Kind)
	}
	third := q.Pop()
	if third.Kind != Flow {
		t.Fatalf("third popped kind = %v, want flow", third.Kind)
	}
	if q.Count() != 0 {
		t.Fatalf("queue should be empty, has %d items", q.Count())
	}
}

func TestQueueOverflowDropsEvent(t *testing.T) {
	q := NewQueue(2, nil)
	q.Push(Event{Kind: Flow, Time: time.Now()})
	q.Push(Event{Kind: Flow, Time: time.Now()})
	q.Push(Event{Kind: Flow, Time: time.Now()}) // dropped, queue full
	if q.Count() != 2 {
		t.Fatalf("Count() = %d, want 2 (overflow must be dropped)", q.Count())
	}
}

func TestDirtyFlag(t *testing.T) {
	q := NewQueue(0, nil)
	if q.IsDirty() {
		t.Fatalf("new queue should not be dirty")
	}
	q.Push(Event{Kind: Flow, Time: time.Now()})
	if !q.IsDirty() {
		t.Fatalf("push should mark dirty")
	}
	q.ClearDirty()
	if q.IsDirty() {
		t.Fatalf("ClearDirty should clear the flag")
	}
	q.Pop()
	if !q.IsDirty() {
		t.Fatalf("pop should mark dirty")
	}
}

func TestWriteReadRoundTripPreservesDeltas(t *testing.T) {
	q := NewQueue(0, nil)
	now := time.Now()

	q.Push(Event{Kind: Tick, Time: now.Add(250 * time.Millisecond)})
	q.Push(Event{Kind: Save, Time: now.Add(120 * time.Second)})
	q.Push(Event{
		Kind: Update, Time: now.Add(30*time.Second + 123456*time.Microsecond),
		X: 1, Y: 2, Z: 3, OldType: world.Water1, NewType: world.Empty,
	})
	q.Push(Event{Kind: Flow, Time: now.Add(300 * time.Millisecond), X: 4, Y: 5, Z: 6})
	q.Push(Event{Kind: Grow, Time: now.Add(45 * time.Second), X: 7, Y: 8, Z: 9})

	dir := t.TempDir()
	path := filepath.Join(dir, "events.txt.gz")
	if err := q.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if q.IsDirty() {
		t.Fatalf("Write should clear dirty")
	}

	q2 := NewQueue(0, nil)
	if err := q2.Read(path); err != nil {
		t.Fatalf("Read: %v", err)
	}

	// TICK/SAVE are not persisted, so only 3 events should come back.
	if q2.Count() != 3 {
		t.Fatalf("restored count = %d, want 3", q2.Count())
	}

	var sawUpdate, sawFlow, sawGrow bool
	for q2.Count() > 0 {
		ev := q2.Pop()
		switch ev.Kind {
		case Update:
			sawUpdate = true
			if ev.X != 1 || ev.Y != 2 || ev.Z != 3 {
				t.Fatalf("update coords = (%d,%d,%d), want (1,2,3)", ev.X, ev.Y, ev.Z)
			}
			if ev.OldType != world.Water1 || ev.NewType != world.Empty {
				t.Fatalf("update types = (%v,%v), want (%v,%v)", ev.OldType, ev.NewType, world.Water1, world.Empty)
			}
			delta := ev.Time.Sub(now)
			want := 30*time.Second + 123456*time.Microsecond
			if diff := delta - want; diff > time.Millisecond || diff < -time.Millisecond {
				t.Fatalf("update delta = %v, want ~%v", delta, want)
			}
		case Flow:
			sawFlow = true
		case Grow:
			sawGrow = true
		}
	}
	if !sawUpdate || !sawFlow || !sawGrow {
		t.Fatalf("missing restored events: update=%v flow=%v grow=%v", sawUpdate, sawFlow, sawGrow)
	}
}

func TestReadSkipsMalformedLinesAndContinues(t *testing.T) {
	q := NewQueue(0, nil)
	q.Push(Event{Kind: Flow, Time: time.Now().Add(time.Second), X: 1, Y: 1, Z: 1})
	dir := t.TempDir()
	path := filepath.Join(dir, "events.txt.gz")
	if err := q.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Append a garbage line inside a fresh gzip member; Read must still
	// recover the well-formed event and merely warn about the rest.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte("this is not an event\n")); err != nil {
		t.Fatalf("write garbage line: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip member: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	q2 := NewQueue(0, nil)
	if err := q2.Read(path); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if q2.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", q2.Count())
	}
}
