package detector

import (
	"testing"
	"time"
)

func TestCacheTTLExpiry(t *testing.T) {
	cache := newResultCache(10, 20*time.Millisecond)
	cache.put("key", "+5511912345678", &Result{Score: 0.4})

	if _, ok := cache.get("key"); !ok {
		t.Fatal("Fresh entry not found")
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := cache.get("key"); ok {
		t.Error("Expired entry still served")
	}
	if cache.len() != 0 {
		t.Errorf("Expired entry not removed, cache holds %d", cache.len())
	}
}

func TestCacheEvictsOldest(t *testing.T) {
	cache := newResultCache(2, time.Hour)

	cache.put("a", "s1", &Result{})
	time.Sleep(time.Millisecond)
	cache.put("b", "s2", &Result{})
	time.Sleep(time.Millisecond)
	cache.put("c", "s3", &Result{})

	if _, ok := cache.get("a"); ok {
		t.Error("Oldest entry survived eviction")
	}
	if _, ok := cache.get("b"); !ok {
		t.Error("Newer entry evicted")
	}
	if _, ok := cache.get("c"); !ok {
		t.Error("Newest entry missing")
	}
}

func TestCacheInvalidateSender(t *testing.T) {
	cache := newResultCache(10, time.Hour)

	cache.put("s1#aaa", "s1", &Result{})
	cache.put("s1#bbb", "s1", &Result{})
	cache.put("s2", "s2", &Result{})

	cache.invalidateSender("s1")

	if cache.len() != 1 {
		t.Errorf("Expected 1 entry after invalidation, got %d", cache.len())
	}
	if _, ok := cache.get("s2"); !ok {
		t.Error("Unrelated sender evicted")
	}
}

func TestCacheHitRate(t *testing.T) {
	cache := newResultCache(10, time.Hour)
	cache.put("key", "s", &Result{})

	cache.get("key")
	cache.get("key")
	cache.get("missing")

	// Two hits, one miss
	if rate := cache.hitRate(); rate < 0.5 || rate > 0.7 {
		t.Errorf("Hit rate %.2f outside expected band", rate)
	}
}
