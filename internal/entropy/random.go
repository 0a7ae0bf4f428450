// Package entropy provides the random sources that drive spawning.
// Runs are reproducible: every source is either seeded or scripted, and
// crypto/rand is used only to pick a seed when none is configured.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source yields uniform floats in [0, 1).
type Source interface {
	Float64() float64
}

// Seeded is a deterministic pseudo-random source.
type Seeded struct {
	seed int64
	rng  *mrand.Rand
}

// NewSeeded creates a source whose sequence is fully determined by seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{
		seed: seed,
		rng:  mrand.New(mrand.NewSource(seed)),
	}
}

// Float64 returns the next value in [0, 1).
func (s *Seeded) Float64() float64 {
	return s.rng.Float64()
}

// Seed returns the seed the source was created with.
func (s *Seeded) Seed() int64 {
	return s.seed
}

// Replay plays back a fixed sequence of values, cycling when exhausted.
// An empty Replay always returns 0.
type Replay struct {
	values []float64
	next   int
}

// NewReplay creates a source that returns values in order.
func NewReplay(values ...float64) *Replay {
	return &Replay{values: values}
}

// Float64 returns the next scripted value.
func (r *Replay) Float64() float64 {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[r.next]
	r.next = (r.next + 1) % len(r.values)
	return v
}

// Draws returns how many values have been consumed modulo the script length.
func (r *Replay) Draws() int {
	return r.next
}

// RandomSeed returns a non-zero seed from crypto/rand.
func RandomSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to a fixed seed.
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		return 1
	}
	return seed
}

// Bernoulli reports whether a draw from src falls below p.
func Bernoulli(src Source, p float64) bool {
	return src.Float64() < p
}
