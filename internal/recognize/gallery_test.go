package recognize

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubLoader struct {
	entries []Entry
	err     error
	calls   int
}

func (s *stubLoader) LoadDescriptors(ctx context.Context) ([]Entry, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func TestCacheServesSnapshotWithinTTL(t *testing.T) {
	loader := &stubLoader{entries: []Entry{entry("EMP-001", probeAt(0.1))}}
	c := NewCache(loader, 300*time.Second)

	base := time.Now()
	c.now = func() time.Time { return base }

	first, err := c.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}

	c.now = func() time.Time { return base.Add(299 * time.Second) }
	second, err := c.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}

	if loader.calls != 1 {
		t.Errorf("loader called %d times within TTL; want 1", loader.calls)
	}
	if len(first) != 1 || len(second) != 1 || first[0].Code != second[0].Code {
		t.Errorf("snapshots differ: %v vs %v", first, second)
	}
}

func TestCacheReloadsAfterTTL(t *testing.T) {
	loader := &stubLoader{entries: []Entry{entry("EMP-001", probeAt(0.1))}}
	c := NewCache(loader, 300*time.Second)

	base := time.Now()
	c.now = func() time.Time { return base }
	if _, err := c.Entries(context.Background()); err != nil {
		t.Fatalf("Entries: %v", err)
	}

	c.now = func() time.Time { return base.Add(301 * time.Second) }
	if _, err := c.Entries(context.Background()); err != nil {
		t.Fatalf("Entries: %v", err)
	}

	if loader.calls != 2 {
		t.Errorf("loader called %d times across TTL expiry; want 2", loader.calls)
	}
}

func TestCacheInvalidateForcesReload(t *testing.T) {
	loader := &stubLoader{entries: []Entry{entry("EMP-001", probeAt(0.1))}}
	c := NewCache(loader, 300*time.Second)

	if _, err := c.Entries(context.Background()); err != nil {
		t.Fatalf("Entries: %v", err)
	}
	c.Invalidate()
	if _, err := c.Entries(context.Background()); err != nil {
		t.Fatalf("Entries: %v", err)
	}

	if loader.calls != 2 {
		t.Errorf("loader called %d times around Invalidate; want 2", loader.calls)
	}
}

func TestCacheEmptyGalleryReloadsEveryCall(t *testing.T) {
	loader := &stubLoader{}
	c := NewCache(loader, 300*time.Second)

	for i := 0; i < 3; i++ {
		entries, err := c.Entries(context.Background())
		if err != nil {
			t.Fatalf("Entries: %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("entries = %v; want empty", entries)
		}
	}

	// An empty snapshot is never trusted: a first-enrollment race should not
	// lock recognition out for a whole TTL window.
	if loader.calls != 3 {
		t.Errorf("loader called %d times with empty store; want 3", loader.calls)
	}
}

func TestCachePropagatesLoaderError(t *testing.T) {
	loader := &stubLoader{err: errors.New("db down")}
	c := NewCache(loader, 300*time.Second)

	if _, err := c.Entries(context.Background()); err == nil {
		t.Fatal("expected error from failing loader")
	}
}

func TestCacheServesCopies(t *testing.T) {
	loader := &stubLoader{entries: []Entry{entry("EMP-001", probeAt(0.1))}}
	c := NewCache(loader, 300*time.Second)

	first, _ := c.Entries(context.Background())
	first[0].Code = "mutated"

	second, _ := c.Entries(context.Background())
	if second[0].Code != "EMP-001" {
		t.Errorf("caller mutation leaked into the cache: %q", second[0].Code)
	}
}
