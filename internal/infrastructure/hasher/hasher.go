// Package hasher implements salted argon2id hashing of passwords and API
// token secrets.
//
// Hashes are stored in the PHC string format so the salt and the cost
// parameters travel with the record:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<key>
//
// Salt and key are unpadded standard base64.
package hasher

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

const (
	algorithm    = "argon2id"
	saltLength   = 16
	maxSecretLen = 4096
)

var (
	ErrHashing       = errors.New("hashing failed")
	ErrMissingSalt   = errors.New("stored hash has no salt")
	ErrMalformedHash = errors.New("malformed stored hash")
)

var b64 = base64.RawStdEncoding

type Params struct {
	Iterations uint32
	MemoryKiB  uint32
	Threads    uint8
	KeyLength  uint32
}

// DefaultParams follows the OWASP argon2id baseline.
func DefaultParams() Params {
	return Params{Iterations: 2, MemoryKiB: 19 * 1024, Threads: 1, KeyLength: 32}
}

func (p Params) validate() error {
	if p.Iterations == 0 || p.MemoryKiB == 0 || p.Threads == 0 || p.KeyLength == 0 {
		return fmt.Errorf("%w: invalid argon2 parameters %+v", ErrHashing, p)
	}
	if p.MemoryKiB < 8*uint32(p.Threads) {
		return fmt.Errorf("%w: memory must be at least 8 KiB per thread", ErrHashing)
	}
	return nil
}

type Hasher struct {
	params  Params
	rng     io.Reader
	permits *semaphore.Weighted
}

// New returns a Hasher drawing salts from rng. At most concurrency argon2
// derivations run at once since each one allocates MemoryKiB.
func New(params Params, rng io.Reader, concurrency int64) *Hasher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Hasher{
		params:  params,
		rng:     rng,
		permits: semaphore.NewWeighted(concurrency),
	}
}

// Hash derives a PHC string for secret with a fresh random salt.
func (h *Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(h.rng, salt); err != nil {
		return "", fmt.Errorf("%w: read salt: %v", ErrHashing, err)
	}
	return h.HashWithSalt(secret, salt)
}

// HashWithSalt derives a PHC string for secret with the given salt.
func (h *Hasher) HashWithSalt(secret string, salt []byte) (string, error) {
	if err := h.params.validate(); err != nil {
		return "", err
	}
	if len(salt) == 0 {
		return "", fmt.Errorf("%w: empty salt", ErrHashing)
	}
	if len(secret) > maxSecretLen {
		return "", fmt.Errorf("%w: secret longer than %d bytes", ErrHashing, maxSecretLen)
	}

	key := h.derive(secret, salt, h.params)
	return encode(h.params, salt, key), nil
}

// Verify reports whether candidate matches the stored PHC string. The
// comparison is constant time over the derived key.
func (h *Hasher) Verify(candidate, stored string) (bool, error) {
	p, salt, key, err := decode(stored)
	if err != nil {
		return false, err
	}
	if len(candidate) > maxSecretLen {
		return false, nil
	}

	got := h.derive(candidate, salt, p)
	return subtle.ConstantTimeCompare(got, key) == 1, nil
}

func (h *Hasher) derive(secret string, salt []byte, p Params) []byte {
	// Acquire on a background context never fails.
	_ = h.permits.Acquire(context.Background(), 1)
	defer h.permits.Release(1)

	return argon2.IDKey([]byte(secret), salt, p.Iterations, p.MemoryKiB, p.Threads, p.KeyLength)
}

func encode(p Params, salt, key []byte) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithm, argon2.Version, p.MemoryKiB, p.Iterations, p.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key))
}

func decode(stored string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(stored, "$")
	// "", alg, version, params, [salt,] key
	if len(parts) < 5 || parts[0] != "" || parts[1] != algorithm {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: unsupported version %q", ErrMalformedHash, parts[2])
	}
	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Iterations, &threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: parameters %q", ErrMalformedHash, parts[3])
	}
	if threads == 0 || threads > 255 {
		return p, nil, nil, fmt.Errorf("%w: parallelism %d", ErrMalformedHash, threads)
	}
	p.Threads = uint8(threads)

	if len(parts) == 5 || parts[4] == "" {
		return p, nil, nil, ErrMissingSalt
	}
	if len(parts) != 6 {
		return p, nil, nil, ErrMalformedHash
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	p.KeyLength = uint32(len(key))
	if err = p.validate(); err != nil {
		return p, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	return p, salt, key, nil
}
