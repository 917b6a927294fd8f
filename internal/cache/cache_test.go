package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"spendwise/internal/core"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute).WithClock(func() time.Time { return now })

	c.Set("k", "v")
	c.Set("j", "w")
	now = now.Add(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should still be fresh")
	}
	now = now.Add(time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired removed %d, want 1", n)
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Size != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestLRUZeroTTLNeverExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](1, 0).WithClock(func() time.Time { return now })
	c.Set("k", 1)
	now = now.Add(24 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("zero TTL entries must not expire")
	}
}

func TestKeyIncludesVersionAndDate(t *testing.T) {
	d := core.NewDate(2025, 4, 15)
	if Key("insights", 1, d) == Key("insights", 2, d) {
		t.Error("versions must produce different keys")
	}
	if Key("insights", 1, d) == Key("insights", 1, core.NewDate(2025, 4, 16)) {
		t.Error("reference dates must produce different keys")
	}
	if Key("insights", 1, d) == Key("summary", 1, d) {
		t.Error("endpoints must produce different keys")
	}
}

func TestGetOrCompute(t *testing.T) {
	rc := NewResponseCache[int](8, time.Minute)
	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	v, hit, err := rc.GetOrCompute("k", compute)
	if err != nil || hit || v != 42 {
		t.Fatalf("first call: %v %v %v", v, hit, err)
	}
	v, hit, err = rc.GetOrCompute("k", compute)
	if err != nil || !hit || v != 42 {
		t.Fatalf("second call: %v %v %v", v, hit, err)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times", calls)
	}
}

func TestGetOrComputeDoesNotCacheErrors(t *testing.T) {
	rc := NewResponseCache[int](8, time.Minute)
	boom := errors.New("boom")
	if _, _, err := rc.GetOrCompute("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	v, hit, err := rc.GetOrCompute("k", func() (int, error) { return 7, nil })
	if err != nil || hit || v != 7 {
		t.Fatalf("retry: %v %v %v", v, hit, err)
	}
}

func TestGetOrComputeConcurrent(t *testing.T) {
	rc := NewResponseCache[int](8, time.Minute)
	var calls atomic.Int64
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := rc.GetOrCompute("k", func() (int, error) {
				calls.Add(1)
				<-release
				return 1, nil
			})
			if err != nil || v != 1 {
				t.Errorf("got %v, %v", v, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() < 1 || calls.Load() > 20 {
		t.Errorf("unexpected compute count %d", calls.Load())
	}
	if rc.Stats().Size != 1 {
		t.Errorf("expected one cached entry, got %d", rc.Stats().Size)
	}
}

func TestManagerCleanNow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewLRUCache[int](4, time.Second).WithClock(func() time.Time { return now })
	b := NewResponseCache[int](4, time.Second)
	b.lru.WithClock(func() time.Time { return now })
	a.Set("x", 1)
	b.GetOrCompute("y", func() (int, error) { return 2, nil })

	m := NewManager(nil)
	m.Register(a)
	m.Register(b)
	now = now.Add(time.Minute)
	if n := m.CleanNow(); n != 2 {
		t.Errorf("CleanNow removed %d, want 2", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
