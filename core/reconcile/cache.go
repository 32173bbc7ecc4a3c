package reconcile

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
	"strings"
	"sync"
	"time"

	"spring-change/core/snapshot"

	"golang.org/x/sync/singleflight"
)

// cachedReport holds a report together with its build time.
type cachedReport struct {
	report *Report
	built  time.Time
	ttl    time.Duration
}

// IsExpired returns true if this entry has expired based on its TTL.
func (c *cachedReport) IsExpired() bool {
	if c.ttl == 0 {
		return true // No caching
	}
	return time.Since(c.built) > c.ttl
}

// Cache memoizes reconciliation reports by input digest.
// Reports handed out by the cache are shared and must be treated as read-only.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cachedReport
	sf      singleflight.Group
	ttl     time.Duration
}

// NewCache creates a cache whose entries live for ttl. A zero ttl disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]*cachedReport),
		ttl:     ttl,
	}
}

// GetOrReconcile returns the cached report for the inputs, or reconciles them.
// Concurrent calls with identical inputs share a single reconciliation.
func (c *Cache) GetOrReconcile(oldSnap, newSnap *snapshot.Snapshot, spec Spec) (*Report, error) {
	if c == nil || c.ttl == 0 {
		return Reconcile(oldSnap, newSnap, spec)
	}

	key := Digest(oldSnap, newSnap, spec)

	// Fast path: check if the entry exists and is fresh
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if exists && !entry.IsExpired() {
		return entry.report, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Double-check after acquiring singleflight lock
		c.mu.RLock()
		entry, exists := c.entries[key]
		c.mu.RUnlock()

		if exists && !entry.IsExpired() {
			return entry.report, nil
		}

		report, err := Reconcile(oldSnap, newSnap, spec)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = &cachedReport{report: report, built: time.Now(), ttl: c.ttl}
		c.mu.Unlock()

		return report, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Report), nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge removes expired entries.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if entry.IsExpired() {
			delete(c.entries, key)
		}
	}
}

// Digest returns a stable fingerprint of the reconciliation inputs.
func Digest(oldSnap, newSnap *snapshot.Snapshot, spec Spec) string {
	h := sha256.New()
	writeString(h, string(spec.Schema))
	writeString(h, strings.Join(spec.configuredKeys(), keySeparator))
	writeString(h, spec.MassColumn)
	writeString(h, spec.ReferenceColumn)
	writeInt(h, int64(spec.OriginOffset))
	writeSnapshot(h, oldSnap)
	writeSnapshot(h, newSnap)
	return hex.EncodeToString(h.Sum(nil))
}

func writeSnapshot(h hash.Hash, s *snapshot.Snapshot) {
	writeInt(h, int64(len(s.Columns)))
	for _, col := range s.Columns {
		writeString(h, col)
	}
	writeInt(h, int64(len(s.Rows)))
	for _, row := range s.Rows {
		writeInt(h, int64(len(row)))
		for _, c := range row {
			h.Write([]byte{byte(c.Kind)})
			switch c.Kind {
			case snapshot.KindText:
				writeString(h, c.Text)
			case snapshot.KindNumber:
				writeInt(h, int64(math.Float64bits(c.Number)))
			}
		}
	}
}

func writeString(h hash.Hash, s string) {
	writeInt(h, int64(len(s)))
	h.Write([]byte(s))
}

func writeInt(h hash.Hash, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	h.Write(buf[:])
}
