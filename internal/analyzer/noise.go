package analyzer

import (
	"math/rand"
	"sync"
)

// Noise supplies the jitter term added to trait scores. Keeping it behind
// an interface lets tests swap in a deterministic source.
type Noise interface {
	Jitter() float64
}

// GaussianNoise draws jitter from N(0, stddev).
type GaussianNoise struct {
	mu     sync.Mutex
	rng    *rand.Rand
	stddev float64
}

// NewGaussianNoise creates a seeded gaussian noise source.
func NewGaussianNoise(seed int64, stddev float64) *GaussianNoise {
	return &GaussianNoise{
		rng:    rand.New(rand.NewSource(seed)),
		stddev: stddev,
	}
}

// Jitter returns one gaussian sample.
func (g *GaussianNoise) Jitter() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.NormFloat64() * g.stddev
}

// NoNoise disables jitter entirely.
type NoNoise struct{}

// Jitter always returns zero.
func (NoNoise) Jitter() float64 { return 0 }
