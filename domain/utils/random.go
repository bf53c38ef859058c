package utils

import "math/rand/v2"

// SystemRandom draws from the runtime's auto-seeded generator
type SystemRandom struct{}

// Float64 returns a uniform draw in [0, 1)
func (SystemRandom) Float64() float64 {
	return rand.Float64()
}
