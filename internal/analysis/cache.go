package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/reviewguard/reviewguard/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is how long a cached page analysis stays valid.
	DefaultTTL = 24 * time.Hour
	// DefaultCapacity bounds the number of cached pages.
	DefaultCapacity = 100
)

type cacheEntry struct {
	fingerprint string
	results     []models.AnalysisResult
	createdAt   time.Time
}

// Cache maps page identity to the classification results last produced for
// that page, guarded by a content fingerprint. An entry is valid only while
// it is younger than the TTL and the live fingerprint still matches; anything
// else reads as absent. Eviction is insertion-order when capacity is
// exceeded, plus lazy removal of expired entries on read.
type Cache struct {
	entries  map[string]*cacheEntry
	order    []string
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

func NewCache(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		entries:  make(map[string]*cacheEntry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// SetClock overrides the cache's time source. Tests use this to drive TTL
// expiry deterministically.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// Get returns the cached results for the page, or absent when there is no
// entry, the fingerprint no longer matches, or the entry expired. Expired
// entries are removed on the spot.
func (c *Cache) Get(pageID, fingerprint string) ([]models.AnalysisResult, bool) {
	entry, ok := c.entries[pageID]
	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.createdAt) >= c.ttl {
		logrus.Debugf("Cache entry for %s expired, evicting", pageID)
		c.remove(pageID)
		return nil, false
	}

	if entry.fingerprint != fingerprint {
		logrus.Debugf("Cache entry for %s has stale content fingerprint", pageID)
		return nil, false
	}

	return entry.results, true
}

// Put stores results for the page, evicting the oldest-inserted entry first
// when at capacity.
func (c *Cache) Put(pageID, fingerprint string, results []models.AnalysisResult) {
	if _, exists := c.entries[pageID]; exists {
		c.remove(pageID)
	}

	for len(c.entries) >= c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		logrus.Debugf("Cache at capacity, evicting oldest entry %s", oldest)
		c.remove(oldest)
	}

	c.entries[pageID] = &cacheEntry{
		fingerprint: fingerprint,
		results:     results,
		createdAt:   c.now(),
	}
	c.order = append(c.order, pageID)
}

// Len reports the number of live entries, counting expired ones that have
// not been read yet.
func (c *Cache) Len() int {
	return len(c.entries)
}

func (c *Cache) remove(pageID string) {
	delete(c.entries, pageID)
	for i, id := range c.order {
		if id == pageID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Fingerprint digests the currently visible comment texts into the token
// that guards cache entries. The join is order-sensitive: any change in
// text, order, or count produces a different fingerprint.
func Fingerprint(texts []string) string {
	sum := sha256.Sum256([]byte(strings.Join(texts, "|")))
	return hex.EncodeToString(sum[:16])
}
