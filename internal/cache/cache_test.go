package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCache_GetOrCreate(t *testing.T) {
	c := New[string, int](0)

	calls := 0
	create := func() (int, error) {
		calls++
		return 42, nil
	}
	for range 3 {
		v, err := c.GetOrCreate("a", create)
		if err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
		if v != 42 {
			t.Errorf("GetOrCreate = %d, want 42", v)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Stats = %+v, want 2 hits and 1 miss", s)
	}
}

func TestCache_GetOrCreateErrorNotCached(t *testing.T) {
	c := New[string, int](0)
	boom := errors.New("boom")

	if _, err := c.GetOrCreate("a", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("GetOrCreate error = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after failed create, want 0", c.Len())
	}
	v, err := c.GetOrCreate("a", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("GetOrCreate after failure = %d, %v, want 7, nil", v, err)
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int, int](4)
	for i := range 4 {
		_, _ = c.GetOrCreate(i, func() (int, error) { return i, nil })
	}

	// Touch 0 so 1 and 2 are the oldest.
	_, _ = c.GetOrCreate(0, func() (int, error) { return -1, nil })
	_, _ = c.GetOrCreate(4, func() (int, error) { return 4, nil })

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if c.Stats().Evictions != 2 {
		t.Errorf("Evictions = %d, want 2", c.Stats().Evictions)
	}
	for _, k := range []int{0, 3, 4} {
		created := false
		v, _ := c.GetOrCreate(k, func() (int, error) { created = true; return -1, nil })
		if created || v != k {
			t.Errorf("GetOrCreate(%d) = %d, rebuilt %v, want kept", k, v, created)
		}
	}
}

func TestCache_ConcurrentCreateOnce(t *testing.T) {
	c := New[string, int](0)
	var calls atomic.Int64

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.GetOrCreate("k", func() (int, error) {
				calls.Add(1)
				return 1, nil
			})
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("create called %d times, want 1", calls.Load())
	}
}
