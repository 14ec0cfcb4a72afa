package seed

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeedForIsUniqueForIdenticalFingerprints(t *testing.T) {
	m := NewManager()
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		s := m.SeedFor("jazz|mellow|96")
		assert.False(t, seen[s], "duplicate seed at call %d", i)
		seen[s] = true
	}
}

func TestSeedForIsUniqueWithFrozenClock(t *testing.T) {
	frozen := time.Unix(1700000000, 0)
	m := &Manager{now: func() time.Time { return frozen }}

	a := m.SeedFor("same")
	b := m.SeedFor("same")
	assert.NotEqual(t, a, b)
}

func TestSeedForIsUniqueAcrossManagers(t *testing.T) {
	frozen := time.Unix(1700000000, 0)
	clock := func() time.Time { return frozen }
	first := &Manager{now: clock}
	second := &Manager{now: clock}

	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		for _, m := range []*Manager{first, second} {
			s := m.SeedFor("jazz|mellow|96")
			assert.False(t, seen[s], "duplicate seed at call %d", i)
			seen[s] = true
		}
	}
}

func TestSeedForConcurrentCallers(t *testing.T) {
	m := NewManager()
	const workers, perWorker = 8, 200

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s := m.SeedFor("pop")
				mu.Lock()
				seen[s] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker)
}

func TestSubSeedIsDeterministic(t *testing.T) {
	assert.Equal(t, SubSeed(42, "melody"), SubSeed(42, "melody"))
	assert.NotEqual(t, SubSeed(42, "melody"), SubSeed(42, "bass"))
	assert.NotEqual(t, SubSeed(42, "melody"), SubSeed(43, "melody"))
}

func TestStreamsReplay(t *testing.T) {
	a := Stream(7, "drums")
	b := Stream(7, "drums")
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}
