// Package rng provides the deterministic pseudo-random stream the broker
// uses for order/fill/account IDs and slippage draws. A Stream is never
// shared across goroutines without external synchronization — the
// engine gives each account its own Stream, derived from (seed,
// accountID), so that byte-identical replays hold even when independent
// accounts are served in parallel.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"time"
)

// Stream is a seeded, stateful pseudo-random source.
type Stream struct {
	src *mrand.Rand
}

// NewStream derives a Stream from seed and an optional namespace
// (typically an account ID, or "" for the root stream used before any
// account exists). The derivation is a fixed FNV-1a fold so that the
// same (seed, namespace) pair always yields the same stream.
func NewStream(seed int64, namespace string) *Stream {
	h := uint64(14695981039346656037)
	mix := func(v uint64) {
		h ^= v
		h *= 1099511628211
	}
	mix(uint64(seed))
	for _, b := range []byte(namespace) {
		mix(uint64(b))
	}
	// Fold the 64-bit hash into two uint64 seeds for the PCG source.
	seed2 := h*2654435761 + 1
	return &Stream{src: mrand.New(mrand.NewPCG(h, seed2))}
}

// Float64 returns a uniform value in [0, 1).
func (s *Stream) Float64() float64 {
	return s.src.Float64()
}

// ID produces a "<PREFIX>-<unix-ms>-<rand4hex>" identifier, used for
// account, order, and fill IDs (ACC-/ORD-/FIL- prefixes).
func (s *Stream) ID(prefix string, now time.Time) string {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(s.src.Uint32()))
	return fmt.Sprintf("%s-%d-%04x", prefix, now.UnixMilli(), buf)
}

// secureSeed returns a cryptographically random int64, used only to seed
// the root Stream when no deterministic seed was configured. Not used on
// any path that needs to be replay-deterministic.
func secureSeed() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return time.Now().UnixNano()
	}
	return n.Int64()
}

// SecureSeed is exported so callers that want a fresh, non-deterministic
// root seed (rather than a fixed config value) can request one.
func SecureSeed() int64 { return secureSeed() }
