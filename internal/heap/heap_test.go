package heap

import (
	"math/rand"
	"sort"
	"testing"
)

func intCmp(a, b int) int { return a - b }

func TestPushPopOrder(t *testing.T) {
	var h []int
	for _, v := range []int{5, 1, 9, 3, 7, 2, 8} {
		h = Push(h, v, intCmp)
	}
	var got []int
	for len(h) > 0 {
		var top int
		top, h = Pop(h, intCmp)
		got = append(got, top)
	}
	want := []int{9, 8, 7, 5, 3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	var h []int
	h = Push(h, 1, intCmp)
	h = Push(h, 9, intCmp)
	top, ok := Peek(h)
	if !ok || top != 9 {
		t.Fatalf("peek = %v, %v; want 9, true", top, ok)
	}
	if len(h) != 2 {
		t.Fatalf("peek mutated heap: len = %d", len(h))
	}
}

func TestPeekEmpty(t *testing.T) {
	var h []int
	if _, ok := Peek(h); ok {
		t.Fatalf("peek on empty heap returned ok=true")
	}
}

func TestHeapifyThenPopIsDescending(t *testing.T) {
	s := []int{4, 10, 3, 5, 1, 8, 9, 2, 7, 6}
	Heapify(s, intCmp)
	var got []int
	for len(s) > 0 {
		var top int
		top, s = Pop(s, intCmp)
		got = append(got, top)
	}
	if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i] > got[j] }) {
		t.Fatalf("not descending: %v", got)
	}
}

func TestSortAscending(t *testing.T) {
	s := []int{4, 10, 3, 5, 1, 8, 9, 2, 7, 6}
	want := append([]int(nil), s...)
	sort.Ints(want)
	Sort(s, intCmp)
	for i := range want {
		if s[i] != want[i] {
			t.Fatalf("Sort() = %v, want %v", s, want)
		}
	}
}

func TestRandomizedAgainstStdlib(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		n := rng.Intn(40)
		s := make([]int, n)
		for i := range s {
			s[i] = rng.Intn(1000)
		}
		want := append([]int(nil), s...)
		sort.Ints(want)

		var h []int
		for _, v := range s {
			h = Push(h, v, intCmp)
		}
		var got []int
		for len(h) > 0 {
			var top int
			top, h = Pop(h, intCmp)
			got = append(got, top)
		}
		for i := 0; i < len(got)/2; i++ {
			got[i], got[len(got)-1-i] = got[len(got)-1-i], got[i]
		}
		if len(got) != len(want) {
			t.Fatalf("trial %d: len mismatch got %d want %d", trial, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("trial %d: got %v want %v", trial, got, want)
			}
		}
	}
}

func TestPopPanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on pop from empty heap")
		}
	}()
	var h []int
	Pop(h, intCmp)
}
