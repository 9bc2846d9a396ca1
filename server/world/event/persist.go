package event

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"os"
	"time"

	"github.com/dm-vev/cubeworld/server/world"
)

func byteType(v int64) world.Type { return world.Type(v) }

// Write serializes every Update, Flow, and Grow event currently queued to a
// gzip-compressed text file at path, one line per event, as
// "kind Δsec Δusec x y z [old new]" where Δ is the event's scheduled time
// minus now. Tick and Save events are skipped: they are re-created by the
// server on boot. On success, the queue's dirty flag is cleared.
func (q *Queue) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("event: create %s: %w", path, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	w := bufio.NewWriter(gz)

	now := time.Now()
	for _, ev := range q.items {
		delta := ev.Time.Sub(now)
		sec := int64(delta / time.Second)
		usec := int64((delta % time.Second) / time.Microsecond)

		switch ev.Kind {
		case Tick, Save:
			continue
		case Update:
			fmt.Fprintf(w, "update %d %d %d %d %d %d %d\n",
				sec, usec, ev.X, ev.Y, ev.Z, ev.OldType, ev.NewType)
		case Flow:
			fmt.Fprintf(w, "flow %d %d %d %d %d\n", sec, usec, ev.X, ev.Y, ev.Z)
		case Grow:
			fmt.Fprintf(w, "grow %d %d %d %d %d\n", sec, usec, ev.X, ev.Y, ev.Z)
		}
	}

	if err := w.Flush(); err != nil {
		gz.Close()
		return fmt.Errorf("event: flush %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("event: close gzip writer for %s: %w", path, err)
	}

	q.dirty = false
	q.log.Info("wrote event queue", "path", path, "count", q.Count())
	return nil
}

// Read parses a file written by Write and pushes each event into the queue
// with an absolute time of now + Δ. Lines that do not parse as one of the
// three known shapes are logged and skipped; this never fails the whole
// read. Read fails only on I/O errors (missing file, truncated gzip stream).
func (q *Queue) Read(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("event: open %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("event: open gzip reader for %s: %w", path, err)
	}
	defer gz.Close()

	now := time.Now()
	scanner := bufio.NewScanner(gz)
	restored := 0
	for scanner.Scan() {
		line := scanner.Text()
		ev, ok := parseLine(line, now)
		if !ok {
			q.log.Warn("could not parse event line", "line", line)
			continue
		}
		q.Push(ev)
		restored++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("event: read %s: %w", path, err)
	}

	q.log.Info("restored event queue", "path", path, "count", restored)
	return nil
}

func parseLine(line string, now time.Time) (Event, bool) {
	var kindWord string
	var sec, usec, x, y, z, oldT, newT int64

	if n, _ := fmt.Sscanf(line, "update %d %d %d %d %d %d %d",
		&sec, &usec, &x, &y, &z, &oldT, &newT); n == 7 {
		return Event{
			Time:    now.Add(time.Duration(sec)*time.Second + time.Duration(usec)*time.Microsecond),
			Kind:    Update,
			X:       int(x),
			Y:       int(y),
			Z:       int(z),
			OldType: byteType(oldT),
			NewType: byteType(newT),
		}, true
	}

	if n, _ := fmt.Sscanf(line, "%s %d %d %d %d %d", &kindWord, &sec, &usec, &x, &y, &z); n == 6 {
		switch kindWord {
		case "flow":
			return Event{
				Time: now.Add(time.Duration(sec)*time.Second + time.Duration(usec)*time.Microsecond),
				Kind: Flow,
				X:    int(x), Y: int(y), Z: int(z),
			}, true
		case "grow":
			return Event{
				Time: now.Add(time.Duration(sec)*time.Second + time.Duration(usec)*time.Microsecond),
				Kind: Grow,
				X:    int(x), Y: int(y), Z: int(z),
			}, true
		}
	}

	return Event{}, false
}
