package apprun

import "testing"

func TestLockableMapRejectsMutationAfterLock(t *testing.T) {
	m := NewLockableMap[string, int]("test")
	if err := m.Set("a", 1); err != nil {
		t.Fatalf("expected unlocked set to succeed, got %v", err)
	}

	m.Lock()

	if err := m.Set("b", 2); err == nil {
		t.Fatal("expected set after lock to fail")
	}
	if err := m.Delete("a"); err == nil {
		t.Fatal("expected delete after lock to fail")
	}
	if err := m.Clear(); err == nil {
		t.Fatal("expected clear after lock to fail")
	}

	v, ok := m.Get("a")
	if !ok || v != 1 {
		t.Fatalf("expected existing entry to survive a failed lock mutation, got %v, %v", v, ok)
	}
}

func TestLockableMapValuesAndLen(t *testing.T) {
	m := NewLockableMap[string, int]("test2")
	_ = m.Set("a", 1)
	_ = m.Set("b", 2)

	if m.Len() != 2 {
		t.Fatalf("expected length 2, got %d", m.Len())
	}
	values := m.Values()
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(values))
	}
}

func TestLockableMapRangeStopsOnFalse(t *testing.T) {
	m := NewLockableMap[string, int]("test3")
	_ = m.Set("a", 1)
	_ = m.Set("b", 2)
	_ = m.Set("c", 3)

	seen := 0
	m.Range(func(_ string, _ int) bool {
		seen++
		return false
	})
	if seen != 1 {
		t.Fatalf("expected Range to stop after first callback, saw %d", seen)
	}
}
