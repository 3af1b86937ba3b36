package particles

import (
	"math"
)

// RandomByID returns a stable pseudo-random value in [0, 1) for a particle
// id. Different offsets give independent streams for the same particle, so
// an operator can draw the same number every step without storing it.
func RandomByID(id int32, offset int) float64 {
	x := uint64(uint32(id)) | uint64(uint32(offset))<<32
	return float64(splitmix64(x)>>11) / (1 << 53)
}

// RandomFloatExp maps a RandomByID draw into [lo, hi] shaped by exp
// (exp > 1 biases towards lo).
func RandomFloatExp(id int32, offset int, lo, hi, exp float64) float64 {
	r := RandomByID(id, offset)
	if exp != 1 {
		r = math.Pow(r, exp)
	}
	return lo + (hi-lo)*r
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
