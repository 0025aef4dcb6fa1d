package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/reviewguard/reviewguard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults(verdict string) []models.AnalysisResult {
	return []models.AnalysisResult{{Verdict: verdict, Explanation: "test"}}
}

func TestCache_FingerprintSensitivity(t *testing.T) {
	cache := NewCache(DefaultTTL, DefaultCapacity)

	fp1 := Fingerprint([]string{"comment one", "comment two"})
	fp2 := Fingerprint([]string{"comment one", "comment two", "comment three"})

	cache.Put("product:1:2", fp1, sampleResults("REAL"))

	_, ok := cache.Get("product:1:2", fp2)
	assert.False(t, ok, "mismatched fingerprint must read as absent")

	results, ok := cache.Get("product:1:2", fp1)
	require.True(t, ok)
	assert.Equal(t, "REAL", results[0].Verdict)
}

func TestCache_TTLExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(24*time.Hour, DefaultCapacity)
	cache.SetClock(func() time.Time { return now })

	cache.Put("page", "fp", sampleResults("REAL"))

	now = now.Add(24*time.Hour - time.Millisecond)
	_, ok := cache.Get("page", "fp")
	assert.True(t, ok, "entry should be valid just before the TTL")

	now = now.Add(2 * time.Millisecond)
	_, ok = cache.Get("page", "fp")
	assert.False(t, ok, "entry should be absent past the TTL")
	assert.Zero(t, cache.Len(), "expired entry is evicted on read")
}

func TestCache_CapacityEvictsOldest(t *testing.T) {
	cache := NewCache(DefaultTTL, 3)

	for i := 0; i < 3; i++ {
		cache.Put(fmt.Sprintf("page-%d", i), "fp", sampleResults("REAL"))
	}
	cache.Put("page-3", "fp", sampleResults("REAL"))

	_, ok := cache.Get("page-0", "fp")
	assert.False(t, ok, "oldest-inserted entry is evicted at capacity")

	for i := 1; i <= 3; i++ {
		_, ok := cache.Get(fmt.Sprintf("page-%d", i), "fp")
		assert.True(t, ok)
	}
}

func TestCache_PutReplacesEntry(t *testing.T) {
	cache := NewCache(DefaultTTL, DefaultCapacity)

	cache.Put("page", "fp-old", sampleResults("REAL"))
	cache.Put("page", "fp-new", sampleResults("FAKE"))

	_, ok := cache.Get("page", "fp-old")
	assert.False(t, ok)

	results, ok := cache.Get("page", "fp-new")
	require.True(t, ok)
	assert.Equal(t, "FAKE", results[0].Verdict)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_MissingPage(t *testing.T) {
	cache := NewCache(DefaultTTL, DefaultCapacity)
	_, ok := cache.Get("nothing", "fp")
	assert.False(t, ok)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]string{"one", "two"})
	b := Fingerprint([]string{"one", "two"})
	assert.Equal(t, a, b, "identical texts in identical order agree")

	// Order matters.
	assert.NotEqual(t, a, Fingerprint([]string{"two", "one"}))
	// Count matters.
	assert.NotEqual(t, a, Fingerprint([]string{"one", "two", ""}))
	// Content matters.
	assert.NotEqual(t, a, Fingerprint([]string{"one", "TWO"}))
}
