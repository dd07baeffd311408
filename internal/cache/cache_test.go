package cache

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"commentlens/internal/core"
)

type fakeTier struct {
	results map[string]*core.AnalysisResult
	err     error
	calls   int
}

func (f *fakeTier) FindLatestResult(postID string) (*core.AnalysisResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results[postID], nil
}

func result(postID string, analyzedAt time.Time) core.AnalysisResult {
	return core.AnalysisResult{ID: "r-" + postID, PostID: postID, Summary: "s", AnalyzedAt: analyzedAt}
}

func TestGetPutRoundtrip(t *testing.T) {
	c := NewResultCache(10, time.Hour, nil)

	if got := c.Get("p1"); got != nil {
		t.Fatal("expected miss on empty cache")
	}

	c.Put(result("p1", time.Now()))
	got := c.Get("p1")
	if got == nil || got.PostID != "p1" {
		t.Fatalf("expected hit for p1, got %+v", got)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("hit rate = %f, want 0.5", stats.HitRate)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewResultCache(10, time.Hour, nil)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Put(result("p1", base))

	// Still fresh just inside the TTL.
	c.now = func() time.Time { return base.Add(59 * time.Minute) }
	if c.Get("p1") == nil {
		t.Fatal("entry expired too early")
	}

	// Expired past the TTL.
	c.now = func() time.Time { return base.Add(61 * time.Minute) }
	if c.Get("p1") != nil {
		t.Fatal("expired entry served")
	}

	stats := c.Stats()
	if stats.ValidEntries != 0 {
		t.Errorf("expired entry still resident: %+v", stats)
	}
}

func TestEvictionOldestFirst(t *testing.T) {
	c := NewResultCache(3, time.Hour, nil)

	for i := 1; i <= 4; i++ {
		c.Put(result(fmt.Sprintf("p%d", i), time.Now()))
	}

	if c.Get("p1") != nil {
		t.Error("oldest entry p1 should have been evicted")
	}
	for _, id := range []string{"p2", "p3", "p4"} {
		if c.Get(id) == nil {
			t.Errorf("entry %s should still be cached", id)
		}
	}
}

func TestPutReplacesExisting(t *testing.T) {
	c := NewResultCache(3, time.Hour, nil)

	c.Put(result("p1", time.Now()))
	r := result("p1", time.Now())
	r.Summary = "updated"
	c.Put(r)

	got := c.Get("p1")
	if got == nil || got.Summary != "updated" {
		t.Fatalf("replacement not applied: %+v", got)
	}
	if stats := c.Stats(); stats.ValidEntries != 1 {
		t.Errorf("valid entries = %d, want 1", stats.ValidEntries)
	}
}

func TestPersistentTierFallback(t *testing.T) {
	tier := &fakeTier{results: map[string]*core.AnalysisResult{}}
	fresh := result("p1", time.Now())
	tier.results["p1"] = &fresh

	c := NewResultCache(10, time.Hour, tier)

	got := c.Get("p1")
	if got == nil || got.PostID != "p1" {
		t.Fatal("persistent tier result not served")
	}
	if tier.calls != 1 {
		t.Errorf("tier called %d times, want 1", tier.calls)
	}

	// Promoted into memory: second lookup skips the tier.
	if c.Get("p1") == nil {
		t.Fatal("promoted entry missing")
	}
	if tier.calls != 1 {
		t.Errorf("tier called %d times after promotion, want still 1", tier.calls)
	}
}

func TestPersistentTierStaleResult(t *testing.T) {
	stale := result("p1", time.Now().Add(-2*time.Hour))
	tier := &fakeTier{results: map[string]*core.AnalysisResult{"p1": &stale}}

	c := NewResultCache(10, time.Hour, tier)
	if c.Get("p1") != nil {
		t.Fatal("stale persisted result served")
	}
}

func TestPersistentTierError(t *testing.T) {
	tier := &fakeTier{err: errors.New("db closed")}
	c := NewResultCache(10, time.Hour, tier)
	if c.Get("p1") != nil {
		t.Fatal("tier error must be a miss, not a result")
	}
}

func TestInvalidate(t *testing.T) {
	c := NewResultCache(10, time.Hour, nil)
	c.Put(result("p1", time.Now()))
	c.Invalidate("p1")
	if c.Get("p1") != nil {
		t.Fatal("invalidated entry served")
	}
	c.Invalidate("missing") // no-op
}

func TestClear(t *testing.T) {
	c := NewResultCache(10, time.Hour, nil)
	c.Put(result("p1", time.Now()))
	c.Put(result("p2", time.Now()))
	c.Clear()
	if stats := c.Stats(); stats.ValidEntries != 0 {
		t.Errorf("entries remain after clear: %+v", stats)
	}
	// Reusable after clearing.
	c.Put(result("p3", time.Now()))
	if c.Get("p3") == nil {
		t.Error("cache unusable after clear")
	}
}

func TestPurgeExpired(t *testing.T) {
	c := NewResultCache(10, time.Hour, nil)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Put(result("old", base))

	c.now = func() time.Time { return base.Add(30 * time.Minute) }
	c.Put(result("new", base))

	c.now = func() time.Time { return base.Add(90 * time.Minute) }
	if purged := c.PurgeExpired(); purged != 1 {
		t.Errorf("purged %d entries, want 1", purged)
	}
	if c.Get("new") == nil {
		t.Error("fresh entry purged")
	}
}
