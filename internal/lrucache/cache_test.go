package lrucache

import (
	"errors"
	"testing"
)

func TestNewDefaultsSize(t *testing.T) {
	c := New[string, int](0)
	if c.MaxSize() != DefaultMaxSize {
		t.Errorf("expected default max size %d, got %d", DefaultMaxSize, c.MaxSize())
	}
}

func TestGetOrCreateHitsRefreshRecency(t *testing.T) {
	c := New[string, int](2)
	calls := 0
	create := func(v int) func() (int, error) {
		return func() (int, error) {
			calls++
			return v, nil
		}
	}

	if _, err := c.GetOrCreate("a", create(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrCreate("b", create(2)); err != nil {
		t.Fatal(err)
	}

	// Touch "a" so "b" becomes the least recently used.
	if v, err := c.GetOrCreate("a", create(99)); err != nil || v != 1 {
		t.Fatalf("expected cached value 1, nil error, got %d, %v", v, err)
	}
	if calls != 2 {
		t.Errorf("expected create called exactly twice (for a and b), got %d", calls)
	}

	// Inserting "c" must evict "b", the true LRU entry, not "a".
	if _, err := c.GetOrCreate("c", create(3)); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}

	calls = 0
	if _, err := c.GetOrCreate("a", create(-1)); err != nil || calls != 0 {
		t.Errorf("expected a to still be cached (no recreate), calls=%d err=%v", calls, err)
	}
	if _, err := c.GetOrCreate("b", create(-1)); err != nil || calls != 1 {
		t.Errorf("expected b to have been evicted and recreated, calls=%d err=%v", calls, err)
	}
}

func TestGetOrCreateNeverExceedsMaxSize(t *testing.T) {
	c := New[int, int](3)
	for i := 0; i < 50; i++ {
		v := i
		if _, err := c.GetOrCreate(i, func() (int, error) { return v, nil }); err != nil {
			t.Fatal(err)
		}
		if c.Len() > 3 {
			t.Fatalf("cache exceeded max size: len=%d after inserting key %d", c.Len(), i)
		}
	}
}

func TestGetOrCreatePropagatesCreateError(t *testing.T) {
	c := New[string, int](2)
	wantErr := errors.New("boom")
	_, err := c.GetOrCreate("x", func() (int, error) { return 0, wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped/identical error, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed creation must not populate the cache, len=%d", c.Len())
	}
}

func TestSetMaxSizeEvictsImmediately(t *testing.T) {
	c := New[int, int](10)
	for i := 0; i < 5; i++ {
		v := i
		if _, err := c.GetOrCreate(i, func() (int, error) { return v, nil }); err != nil {
			t.Fatal(err)
		}
	}
	c.SetMaxSize(2)
	if c.Len() != 2 {
		t.Fatalf("expected len 2 after shrinking max size, got %d", c.Len())
	}

	c.SetMaxSize(0)
	if c.Len() != 0 {
		t.Fatalf("expected len 0 after setting max size to 0, got %d", c.Len())
	}
}

func TestClear(t *testing.T) {
	c := New[string, int](10)
	if _, err := c.GetOrCreate("a", func() (int, error) { return 1, nil }); err != nil {
		t.Fatal(err)
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d entries", c.Len())
	}
	stats := c.Stats()
	if stats.Len != 0 {
		t.Errorf("expected Stats().Len == 0 after Clear, got %d", stats.Len)
	}
}

func TestStatsCountsHitsMissesEvictions(t *testing.T) {
	c := New[int, int](1)
	if _, err := c.GetOrCreate(1, func() (int, error) { return 1, nil }); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrCreate(1, func() (int, error) { return 1, nil }); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrCreate(2, func() (int, error) { return 2, nil }); err != nil {
		t.Fatal(err)
	}

	stats := c.Stats()
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("expected 2 misses, got %d", stats.Misses)
	}
	if stats.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", stats.Evictions)
	}
}
