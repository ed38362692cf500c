package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pageflow/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "plan:a"); hit {
		t.Error("empty cache should miss")
	}
	if err := c.Set(ctx, "plan:a", []byte("hello"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "plan:a")
	if err != nil || !hit || string(data) != "hello" {
		t.Errorf("Get = %q, %v, %v; want hello hit", data, hit, err)
	}

	if err := c.Delete(ctx, "plan:a"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "plan:a"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "plan:a"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry should hit")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, []byte(k), 0)
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get after Clear should miss")
	}
}

func TestFileCacheUsage(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	k := NewDefaultKeyer()
	c.Set(ctx, k.PlanKey("d1", PlanKeyOpts{}), []byte("plan-one"), 0)
	c.Set(ctx, k.PlanKey("d2", PlanKeyOpts{}), []byte("plan-two"), 0)
	c.Set(ctx, k.ArtifactKey("p1", ArtifactKeyOpts{Format: "svg"}), []byte("<svg/>"), 0)

	usage, err := c.Usage()
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if got := usage[KindPlan].Entries; got != 2 {
		t.Errorf("plan entries = %d, want 2", got)
	}
	if got := usage[KindArtifact].Entries; got != 1 {
		t.Errorf("artifact entries = %d, want 1", got)
	}
	if usage[KindPlan].Bytes <= 0 {
		t.Errorf("plan bytes = %d, want > 0", usage[KindPlan].Bytes)
	}
	if _, ok := usage[KindKeys]; ok {
		t.Error("keys kind should be absent")
	}

	if _, err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if usage, _ := c.Usage(); len(usage) != 0 {
		t.Errorf("usage after Clear = %v, want empty", usage)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("len(Hash) = %d, want 64", len(h1))
	}

	a, _ := HashJSON(map[string]int{"x": 1, "y": 2})
	b, _ := HashJSON(map[string]int{"y": 2, "x": 1})
	if a != b {
		t.Error("HashJSON should not depend on map order")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	p1 := k.PlanKey("doc", PlanKeyOpts{ParamsHash: "p1"})
	p2 := k.PlanKey("doc", PlanKeyOpts{ParamsHash: "p2"})
	if p1 == p2 {
		t.Error("different params should produce different plan keys")
	}
	if !strings.HasPrefix(p1, KindPlan+":") {
		t.Errorf("PlanKey = %s, want %s: prefix", p1, KindPlan)
	}

	k1 := k.KeysKey("doc", PlanKeyOpts{ParamsHash: "p1"})
	k2 := k.KeysKey("doc", PlanKeyOpts{ParamsHash: "p2"})
	if k1 != k2 {
		t.Error("required keys do not depend on params")
	}

	a1 := k.ArtifactKey("plan", ArtifactKeyOpts{Format: "svg"})
	a2 := k.ArtifactKey("plan", ArtifactKeyOpts{Format: "png"})
	if a1 == a2 {
		t.Error("different formats should produce different artifact keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "tenant:acme:")
	key := scoped.PlanKey("doc", PlanKeyOpts{})
	if want := "tenant:acme:" + NewDefaultKeyer().PlanKey("doc", PlanKeyOpts{}); key != want {
		t.Errorf("PlanKey = %s, want %s", key, want)
	}
	if got := KindOf(key); got != KindPlan {
		t.Errorf("KindOf(%s) = %s, want %s", key, got, KindPlan)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"plan:abc", KindPlan},
		{"keys:abc", KindKeys},
		{"user:1:artifact:abc", KindArtifact},
		{"nothing", "unknown"},
		{"x:y:z", "unknown"},
	}
	for _, tt := range tests {
		if got := KindOf(tt.key); got != tt.want {
			t.Errorf("KindOf(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestObserved(t *testing.T) {
	ctx := context.Background()
	counters := observability.NewCounters()
	fc, _ := NewFileCache(t.TempDir())
	c := NewObserved(fc, counters)

	key := NewDefaultKeyer().PlanKey("doc", PlanKeyOpts{})
	c.Get(ctx, key)
	c.Set(ctx, key, []byte("12345"), 0)
	c.Get(ctx, key)

	snap := counters.Snapshot()
	if snap["cache_misses"] != 1 || snap["cache_hits"] != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", snap["cache_hits"], snap["cache_misses"])
	}
	if snap["cache_bytes"] != 5 {
		t.Errorf("cache_bytes = %d, want 5", snap["cache_bytes"])
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should unwrap to ErrUnavailable")
	}
	if IsRetryable(ErrCorrupt) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return ErrCorrupt
	})
	if err != ErrCorrupt || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d, want ErrCorrupt 1", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retryable: err=%v calls=%d, want nil 2", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("PAGEFLOW_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PAGEFLOW_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{URL: url, Prefix: "pageflow-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v; want v hit", data, hit, err)
	}
	c.Delete(ctx, "k")
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisOptions{URL: "://nope"}); err == nil {
		t.Error("NewRedisCache with bad URL should fail")
	}
}
