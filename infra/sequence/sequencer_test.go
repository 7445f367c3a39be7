package sequence

import (
	"sync"
	"testing"
)

func TestSequencer_Monotonic(t *testing.T) {
	s := New(0)

	prev := uint64(0)
	for i := 0; i < 1000; i++ {
		v := s.Next()
		if v <= prev {
			t.Fatalf("sequence regressed: %d after %d", v, prev)
		}
		prev = v
	}
	if s.Current() != prev {
		t.Fatalf("current: got %d, want %d", s.Current(), prev)
	}
}

func TestSequencer_StartOffset(t *testing.T) {
	s := New(100)
	if v := s.Next(); v != 101 {
		t.Fatalf("first after 100: got %d", v)
	}
}

func TestSequencer_ResetOnlyForward(t *testing.T) {
	s := New(0)
	for i := 0; i < 10; i++ {
		s.Next()
	}

	s.Reset(5) // behind: ignored
	if s.Current() != 10 {
		t.Fatalf("backward reset applied: %d", s.Current())
	}

	s.Reset(50)
	if s.Current() != 50 {
		t.Fatalf("forward reset not applied: %d", s.Current())
	}
	if v := s.Next(); v != 51 {
		t.Fatalf("next after reset: got %d", v)
	}
}

func TestSequencer_ConcurrentUnique(t *testing.T) {
	s := New(0)
	const workers, per = 8, 1000

	var mu sync.Mutex
	seen := make(map[uint64]bool, workers*per)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint64, 0, per)
			for i := 0; i < per; i++ {
				local = append(local, s.Next())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, v := range local {
				if seen[v] {
					t.Errorf("duplicate sequence %d", v)
					return
				}
				seen[v] = true
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*per {
		t.Fatalf("issued %d unique ids, want %d", len(seen), workers*per)
	}
}
