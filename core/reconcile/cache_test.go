package reconcile

import (
	"sync"
	"testing"
	"time"

	"spring-change/core/schema"
	"spring-change/core/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetOrReconcile(t *testing.T) {
	oldSnap := pta([]string{"E1", "B1", "N1", "R1", "100"})
	newSnap := pta([]string{"E1", "B1", "N1", "R2", "105"})
	spec := NewSpec(schema.VU)

	cache := NewCache(5 * time.Minute)

	first, err := cache.GetOrReconcile(oldSnap, newSnap, spec)
	require.NoError(t, err)
	second, err := cache.GetOrReconcile(oldSnap.Clone(), newSnap.Clone(), spec)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())

	// Any change to the inputs is a different entry.
	changed := newSnap.Clone()
	changed.Rows[0][3] = snapshot.Text("R3")
	third, err := cache.GetOrReconcile(oldSnap, changed, spec)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, cache.Len())
}

func TestCache_Disabled(t *testing.T) {
	oldSnap := pta([]string{"E1", "B1", "N1", "R1", "100"})
	newSnap := pta([]string{"E1", "B1", "N1", "R1", "100"})
	spec := NewSpec(schema.VU)

	cache := NewCache(0)
	first, err := cache.GetOrReconcile(oldSnap, newSnap, spec)
	require.NoError(t, err)
	second, err := cache.GetOrReconcile(oldSnap, newSnap, spec)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_ConcurrentCallsShareResult(t *testing.T) {
	oldSnap := pta([]string{"E1", "B1", "N1", "R1", "100"})
	newSnap := pta([]string{"E1", "B1", "N1", "R2", "105"})
	spec := NewSpec(schema.VU)
	cache := NewCache(time.Minute)

	var wg sync.WaitGroup
	reports := make([]*Report, 8)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := cache.GetOrReconcile(oldSnap, newSnap, spec)
			assert.NoError(t, err)
			reports[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, cache.Len())
	for _, r := range reports {
		require.NotNil(t, r)
		assert.Equal(t, ChangeSpringChanged, r.Records[0].ChangeType)
	}
}

func TestCache_ErrorIsNotStored(t *testing.T) {
	oldSnap := pta([]string{"E1", "B1", "N1", "R1", "100"})
	spec := NewSpec(schema.VU)
	spec.MassColumn = "missing"

	cache := NewCache(time.Minute)
	_, err := cache.GetOrReconcile(oldSnap, oldSnap, spec)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Equal(t, 0, cache.Len())
}

func TestCachedReport_IsExpired(t *testing.T) {
	assert.True(t, (&cachedReport{ttl: 0, built: time.Now()}).IsExpired())
	assert.False(t, (&cachedReport{ttl: time.Minute, built: time.Now()}).IsExpired())
	assert.True(t, (&cachedReport{ttl: time.Millisecond, built: time.Now().Add(-time.Second)}).IsExpired())
}

func TestDigest_DependsOnSpec(t *testing.T) {
	s := pta([]string{"E1", "B1", "N1", "R1", "100"})
	vu := Digest(s, s, NewSpec(schema.VU))
	vp := Digest(s, s, NewSpec(schema.VP))

	assert.NotEqual(t, vu, vp)
	assert.Equal(t, vu, Digest(s.Clone(), s.Clone(), NewSpec(schema.VU)))
}
