package ports

import "time"

type Clock interface {
	Now() time.Time
}

// RandomSource is the shared CSPRNG handle. Every draw locks it only for the draw itself.
type RandomSource interface {
	Uint64() uint64
	Read(p []byte) (int, error)
}
