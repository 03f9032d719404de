// Package hash implements the refreshable universal hash family the
// Fagin and Larson-Kalja indexes build their addressing on. Grounded on
// original_source/include/universal_hash.h's UniHash16/UniHash, reworked
// into a fixed four-word family producing a full 64-bit digest from four
// 16-bit sub-hashes, one per 16-bit chunk of the key.
package hash

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
)

const bigPrime = 5915587277 // > 2^32, from universal_hash.h

// word is one multiplier/adder/mask-based 16-bit sub-hasher.
type word struct {
	randomMask uint32
	multiplier uint32
	adder      uint32
}

func (w *word) refresh(src randSource) {
	w.randomMask = src.Uint32()
	w.multiplier = src.Uint32()
	w.adder = src.Uint32()
}

// hash16 mirrors universal_hash.h's Hash16: modulate a 32-bit input twice
// through a prime larger than 2^32 so the product never silently wraps.
func (w word) hash16(key uint32) uint16 {
	h := uint64(key)
	h ^= uint64(w.randomMask)
	h *= uint64(w.multiplier)
	h %= bigPrime
	h += uint64(w.adder)
	h %= bigPrime
	return uint16(h)
}

// randSource is the minimal source of randomness a word needs to
// refresh itself. Satisfied by both a seeded deterministic generator
// (for reproducible tests) and a crypto/rand-backed one.
type randSource interface {
	Uint32() uint32
}

// Family is a fixed four-word universal hash producing a 64-bit digest
// from a 64-bit key: each word hashes one of the key's four 16-bit
// chunks into the matching 16-bit slot of the output.
type Family struct {
	words [4]word
}

// New constructs a family seeded from src and refreshes it once.
func New(src randSource) *Family {
	f := &Family{}
	f.Refresh(src)
	return f
}

// NewRandom constructs a family seeded from crypto/rand, for callers
// with no need for reproducibility.
func NewRandom() *Family {
	return New(cryptoRandSource{})
}

// Refresh redraws every word's parameters, changing the family's entire
// digest mapping. Grounded on UniHash::Refresh.
func (f *Family) Refresh(src randSource) {
	for i := range f.words {
		f.words[i].refresh(src)
	}
}

// Hash64 computes the family's 64-bit digest of key.
func (f *Family) Hash64(key uint64) uint64 {
	var out uint64
	for i, w := range f.words {
		chunk := uint32(key>>(uint(i)*16)) & 0xFFFF
		h := w.hash16(chunk)
		out |= uint64(h) << (uint(i) * 16)
	}
	return out
}

// cryptoRandSource draws words from crypto/rand, matching the
// "pseudo-random but easy to reseed" posture universal_hash.h documents
// for its default_random_engine source.
type cryptoRandSource struct{}

func (cryptoRandSource) Uint32() uint32 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<32))
	if err != nil {
		panic("hash: crypto/rand unavailable: " + err.Error())
	}
	return uint32(n.Uint64())
}

// SeededSource is a small deterministic randSource for reproducible
// tests and for callers who want a fixed hash family across runs.
type SeededSource struct {
	state uint64
}

// NewSeededSource builds a deterministic source from an 8-byte seed.
func NewSeededSource(seed uint64) *SeededSource {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &SeededSource{state: seed}
}

// Uint32 advances a splitmix64-style generator and returns its low 32
// bits, giving a fast, dependency-free deterministic stream.
func (s *SeededSource) Uint32() uint32 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], z)
	return binary.LittleEndian.Uint32(buf[:4])
}
