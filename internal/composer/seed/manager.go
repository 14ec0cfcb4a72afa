// Package seed hands out per-request random seeds and derives independent,
// reproducible sub-streams from them.
package seed

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

const (
	counterBits  = 32
	counterMask  = (uint64(1) << counterBits) - 1
	pcgIncrement = 0xda3e39cb94b95bdb
)

// issued counts seeds handed out by every Manager in the process
var issued atomic.Uint64

// Manager issues request seeds. Managers are safe for concurrent use and
// share one process-wide counter, so no two seeds from any Managers repeat
// within 2^32 calls.
type Manager struct {
	now func() time.Time
}

// NewManager creates a seed manager backed by the wall clock
func NewManager() *Manager {
	return &Manager{now: time.Now}
}

// SeedFor returns a fresh seed for a request fingerprint. The high bits mix
// the fingerprint with the high-resolution clock; the low bits carry a
// monotonically increasing counter so two calls can never collide.
func (m *Manager) SeedFor(fingerprint string) int64 {
	n := issued.Add(1)

	h := fnv.New64a()
	_, _ = h.Write([]byte(fingerprint))
	mixed := splitmix64(h.Sum64() ^ uint64(m.now().UnixNano()))

	return int64((mixed &^ counterMask) | (n & counterMask))
}

// SubSeed derives the seed of a named stream from a parent seed. The same
// parent and stream name always give the same result.
func SubSeed(parent int64, stream string) int64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(parent))

	h := fnv.New64a()
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(stream))
	return int64(splitmix64(h.Sum64()))
}

// NewRand returns a deterministic random source for a seed
func NewRand(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^pcgIncrement))
}

// Stream is shorthand for NewRand(SubSeed(parent, stream))
func Stream(parent int64, stream string) *rand.Rand {
	return NewRand(SubSeed(parent, stream))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
