package world

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetOutOfBoundsIsEmpty(t *testing.T) {
	l := New(Vec3i{X: 4, Y: 4, Z: 4}, nil)
	cases := [][3]int{{-1, 0, 0}, {0, -1, 0}, {0, 0, -1}, {4, 0, 0}, {0, 4, 0}, {0, 0, 4}}
	for _, c := range cases {
		if got := l.Get(c[0], c[1], c[2]); got != Empty {
			t.Fatalf("Get(%v) = %v, want Empty", c, got)
		}
	}
}

func TestSetOutOfBoundsIsNoop(t *testing.T) {
	l := New(Vec3i{X: 4, Y: 4, Z: 4}, nil)
	got := l.Set(-1, 0, 0, StoneGrey)
	if got != StoneGrey {
		t.Fatalf("Set out of bounds returned %v, want the requested type", got)
	}
	if l.Dirty() {
		t.Fatalf("out-of-bounds Set marked the level dirty")
	}
}

func TestDirtyTracksChanges(t *testing.T) {
	l := New(Vec3i{X: 4, Y: 4, Z: 4}, nil)
	if l.Dirty() {
		t.Fatalf("new level should not be dirty")
	}
	l.Set(1, 1, 1, Dirt)
	if !l.Dirty() {
		t.Fatalf("Set that changes a cell should mark the level dirty")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "world.gz")
	if err := l.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if l.Dirty() {
		t.Fatalf("Save should clear dirty")
	}

	// Setting the same value again must not re-dirty the level.
	l.Set(1, 1, 1, Dirt)
	if l.Dirty() {
		t.Fatalf("Set with no actual change should not mark dirty")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	size := Vec3i{X: 5, Y: 3, Z: 5}
	l := New(size, nil)
	l.Set(1, 1, 1, Water1)
	l.Set(2, 1, 2, Sponge)
	l.Set(4, 2, 4, Gold)

	dir := t.TempDir()
	path := filepath.Join(dir, "world.gz")
	if err := l.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	l2, err := Load(path, size, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if l2.Size() != l.Size() {
		t.Fatalf("size mismatch: %v vs %v", l2.Size(), l.Size())
	}
	for x := 0; x < size.X; x++ {
		for y := 0; y < size.Y; y++ {
			for z := 0; z < size.Z; z++ {
				if got, want := l2.Get(x, y, z), l.Get(x, y, z); got != want {
					t.Fatalf("block (%d,%d,%d) = %v, want %v", x, y, z, got, want)
				}
			}
		}
	}
}

func TestLoadRejectsSizeMismatch(t *testing.T) {
	size := Vec3i{X: 4, Y: 4, Z: 4}
	l := New(size, nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "world.gz")
	if err := l.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := Load(path, Vec3i{X: 5, Y: 4, Z: 4}, nil); err == nil {
		t.Fatalf("Load with mismatched size should fail")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(os.TempDir(), "does-not-exist.gz"), DefaultSize, nil); err == nil {
		t.Fatalf("Load of a missing file should fail")
	}
}
