// File: pool/registry_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alpha struct{ N int64 }
type beta struct{ S float64 }

func TestRegistryOnePoolPerType(t *testing.T) {
	r := NewRegistry(testConfig(4))
	defer r.Close()

	pa := For[alpha](r)
	pb := For[beta](r)
	assert.NotNil(t, pa)
	assert.NotNil(t, pb)
	assert.Same(t, pa, For[alpha](r), "second lookup must return the same pool")
	assert.Len(t, r.Pools(), 2)
}

func TestRegistryConcurrentFirstUse(t *testing.T) {
	r := NewRegistry(testConfig(4))
	defer r.Close()

	const goroutines = 16
	pools := make([]*TypePool[alpha], goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			pools[g] = For[alpha](r)
		}(g)
	}
	wg.Wait()
	for g := 1; g < goroutines; g++ {
		assert.Same(t, pools[0], pools[g], "concurrent first use must yield one pool")
	}
}

func TestForWithBindsAtCreation(t *testing.T) {
	r := NewRegistry(testConfig(4))
	defer r.Close()

	custom := testConfig(2)
	custom.DebugTracking = true
	p1 := ForWith[alpha](r, custom)
	p2 := ForWith[alpha](r, testConfig(64))
	assert.Same(t, p1, p2, "later configs must not replace the pool")
}

func TestRegistryStats(t *testing.T) {
	r := NewRegistry(testConfig(4))
	defer r.Close()

	p := For[alpha](r)
	ptr, err := p.Acquire()
	require.NoError(t, err)
	stats := r.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].Live)
	p.Release(ptr)
}

func TestRegistryCloseShutsDownPools(t *testing.T) {
	r := NewRegistry(testConfig(4))
	p := For[alpha](r)
	require.NoError(t, r.Close())
	_, err := p.Acquire()
	assert.Error(t, err)
	assert.Empty(t, r.Pools())
}

func TestDefaultRegistrySingleton(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}
