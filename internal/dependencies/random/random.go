package random

import (
	"crypto/rand"
	"encoding/binary"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Uint32 returns a uniformly random 32-bit value
	Uint32() uint32
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Uint32 returns a cryptographically random uint32
func (r *CryptoRandom) Uint32() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(buf[:])
}
