// Package csprng holds the process-wide cryptographically secure generator.
//
// A Source is created once at start-up and passed explicitly to every
// component that draws randomness. Access is serialised; callers hold the
// lock only for the draw itself.
package csprng

import (
	cryptorand "crypto/rand"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
)

const seedSize = 32

type Source struct {
	mu  sync.Mutex
	rng *rand.ChaCha8
}

// New seeds a Source from the operating system.
func New() (*Source, error) {
	return NewFromReader(cryptorand.Reader)
}

// NewFromReader seeds a Source from r. Tests use it for reproducible streams.
func NewFromReader(r io.Reader) (*Source, error) {
	var seed [seedSize]byte
	if _, err := io.ReadFull(r, seed[:]); err != nil {
		return nil, fmt.Errorf("seed csprng: %w", err)
	}
	return &Source{rng: rand.NewChaCha8(seed)}, nil
}

func (s *Source) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Uint64()
}

// Read fills p. It never fails, which lets a Source stand in for crypto/rand.Reader.
func (s *Source) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Read(p)
}
