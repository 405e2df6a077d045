package otel

import (
	"sync"
	"testing"
)

func TestRingLastWraps(t *testing.T) {
	r := NewRingBuffer(4)
	for i := 0; i < 6; i++ {
		r.Push(Event{Kind: KindSyncPass, Count: i})
	}
	if r.Len() != 4 || r.Cap() != 4 {
		t.Fatalf("len/cap = %d/%d", r.Len(), r.Cap())
	}
	got := r.Last(10)
	for i, e := range got {
		if e.Count != i+2 {
			t.Errorf("Last[%d].Count = %d, want %d", i, e.Count, i+2)
		}
	}
	if last := r.Last(1); len(last) != 1 || last[0].Count != 5 {
		t.Errorf("Last(1) = %+v", last)
	}
	if r.Last(0) != nil {
		t.Error("Last(0) should be nil")
	}
}

func TestRingStats(t *testing.T) {
	r := NewRingBuffer(3)
	r.Push(Event{Kind: KindLoadStart})
	r.Push(Event{Kind: KindSyncPass})
	r.Push(Event{Kind: KindSyncPass})
	r.Push(Event{Kind: KindSyncPass}) // evicts load.start

	s := r.Stats()
	if s[KindSyncPass] != 3 || s[KindLoadStart] != 0 {
		t.Errorf("Stats = %v", s)
	}
}

func TestRingCopiesExtra(t *testing.T) {
	r := NewRingBuffer(2)
	extra := map[string]any{"k": 1}
	r.Push(Event{Kind: KindSyncPass, Extra: extra})
	extra["k"] = 2
	if got := r.Last(1)[0].Extra["k"]; got != 1 {
		t.Errorf("Extra aliased: %v", got)
	}
}

func TestRingConcurrentPush(t *testing.T) {
	r := NewRingBuffer(64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.Push(Event{Kind: KindSyncPass})
			}
		}()
	}
	wg.Wait()
	if r.Len() != 64 {
		t.Errorf("Len = %d", r.Len())
	}
}
