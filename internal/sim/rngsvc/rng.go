// Package rngsvc is the deterministic, stateless random number service (C3).
// Every output is a pure function of (world seed, domain, actor/owner id,
// tick, subkey) hashed with xxhash — the teacher's event log and
// snapshot pipeline already reach for github.com/cespare/xxhash/v2-style
// non-cryptographic hashing by way of dragonfly's dependency set
// (_examples/dm-vev-adamant go.mod); this package is the first-class use
// of that primitive rather than an ad-hoc helper.
//
// There is never a mutable generator threaded through caller code: every
// call recomputes its hash from scratch, so the same (seed, domain, id,
// tick, subkey) tuple always yields the same output regardless of host,
// thread count, or call order.
package rngsvc

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Domain partitions the deterministic hash space so that adding a new
// randomized feature allocates a new domain and never perturbs existing
// sequences.
type Domain uint8

const (
	DomainCombat Domain = iota
	DomainLoot
	DomainAiDecision
	DomainSpawn
	DomainWeather
	DomainLevelUp
	DomainItem
	DomainHarvest
	DomainMapGen
)

// Key identifies one deterministic roll. Subkey distinguishes independent
// rolls sharing the same (domain, actor, tick) — e.g. damage/crit/evade use
// subkeys 0, 1, 2. Reusing a subkey for two unrelated rolls in the same
// tick is a specification violation: the outputs will correlate.
type Key struct {
	Seed   int64
	Domain Domain
	ID     int64
	Tick   int64
	Subkey int64
}

// hash64 is the single hashing primitive all derived helpers build on.
func hash64(k Key) uint64 {
	var buf [40]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(k.Seed))
	buf[8] = byte(k.Domain)
	binary.LittleEndian.PutUint64(buf[9:17], uint64(k.ID))
	binary.LittleEndian.PutUint64(buf[17:25], uint64(k.Tick))
	binary.LittleEndian.PutUint64(buf[25:33], uint64(k.Subkey))
	return xxhash.Sum64(buf[:33])
}

// Handle binds a world seed and tick, reducing caller boilerplate for the
// common case of many rolls within one tick for one actor. It carries no
// mutable state — it is a convenience wrapper over Key, not a generator.
type Handle struct {
	Seed int64
	Tick int64
}

// NewHandle returns a Handle bound to the current tick.
func NewHandle(seed, tick int64) Handle {
	return Handle{Seed: seed, Tick: tick}
}

// NextFloat returns a deterministic float in [0, 1).
func NextFloat(seed int64, domain Domain, id, tick, subkey int64) float64 {
	h := hash64(Key{Seed: seed, Domain: domain, ID: id, Tick: tick, Subkey: subkey})
	// 53 bits of mantissa precision, matching math/rand's float64 technique.
	return float64(h>>11) / float64(1<<53)
}

// NextInt returns a deterministic integer in [lo, hi).
func NextInt(seed int64, domain Domain, id, tick, subkey int64, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	span := uint64(hi - lo)
	h := hash64(Key{Seed: seed, Domain: domain, ID: id, Tick: tick, Subkey: subkey})
	return lo + int(h%span)
}

// NextBool returns true with probability p (clamped to [0, 1]).
func NextBool(seed int64, domain Domain, id, tick, subkey int64, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return NextFloat(seed, domain, id, tick, subkey) < p
}

// Float is the Handle-bound convenience form of NextFloat.
func (h Handle) Float(domain Domain, id, subkey int64) float64 {
	return NextFloat(h.Seed, domain, id, h.Tick, subkey)
}

// Int is the Handle-bound convenience form of NextInt.
func (h Handle) Int(domain Domain, id, subkey int64, lo, hi int) int {
	return NextInt(h.Seed, domain, id, h.Tick, subkey, lo, hi)
}

// Bool is the Handle-bound convenience form of NextBool.
func (h Handle) Bool(domain Domain, id, subkey int64, p float64) bool {
	return NextBool(h.Seed, domain, id, h.Tick, subkey, p)
}

// Variance returns a deterministic value in [-spread/2, spread/2), used for
// damage variance rolls.
func (h Handle) Variance(domain Domain, id, subkey int64, spread float64) float64 {
	return (h.Float(domain, id, subkey) - 0.5) * spread
}
