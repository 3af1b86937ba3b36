// Package lane provides the fixed-width batch types the particle operators use
// to process particles four at a time.
//
// Attribute columns are always allocated to a multiple of Width, and every
// collection keeps a padded particle count that is rounded up to Width. Lane
// code can therefore load and store whole batches without a scalar tail loop:
// the extra "padding" slots hold defined but inactive values.
//
// F4 is four scalars, V4 is four 3-vectors stored as three F4 rows
// (structure of arrays), Mask4 is the per-lane result of a comparison.
package lane

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Width is the number of particles processed per batch.
const Width = 4

// PaddedCount rounds n up to the next multiple of Width.
func PaddedCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + Width - 1) &^ (Width - 1)
}

// Batches returns the number of Width-sized batches covering n particles.
func Batches(n int) int {
	return PaddedCount(n) / Width
}

// F4 holds one scalar per lane.
type F4 [Width]float64

// Splat replicates v into every lane.
func Splat(v float64) F4 {
	return F4{v, v, v, v}
}

// LoadF4 reads four consecutive values starting at base.
func LoadF4(col []float64, base int) F4 {
	return F4{col[base], col[base+1], col[base+2], col[base+3]}
}

// Store writes the four lanes back to col starting at base.
func (a F4) Store(col []float64, base int) {
	col[base] = a[0]
	col[base+1] = a[1]
	col[base+2] = a[2]
	col[base+3] = a[3]
}

func (a F4) Add(b F4) F4 { return F4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]} }
func (a F4) Sub(b F4) F4 { return F4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]} }
func (a F4) Mul(b F4) F4 { return F4{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]} }

// Scale multiplies every lane by s.
func (a F4) Scale(s float64) F4 { return F4{a[0] * s, a[1] * s, a[2] * s, a[3] * s} }

// Div divides lane-wise. Lanes with a zero denominator yield zero.
func (a F4) Div(b F4) F4 {
	var r F4
	for i := range r {
		if b[i] != 0 {
			r[i] = a[i] / b[i]
		}
	}
	return r
}

func (a F4) Min(b F4) F4 {
	return F4{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2]), math.Min(a[3], b[3])}
}

func (a F4) Max(b F4) F4 {
	return F4{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2]), math.Max(a[3], b[3])}
}

// Clamp limits every lane to [lo, hi].
func (a F4) Clamp(lo, hi float64) F4 {
	return a.Max(Splat(lo)).Min(Splat(hi))
}

// Sqrt is lane-wise; negative lanes yield zero.
func (a F4) Sqrt() F4 {
	var r F4
	for i := range r {
		if a[i] > 0 {
			r[i] = math.Sqrt(a[i])
		}
	}
	return r
}

// Map applies f to every lane, for shaping curves that have no lane form.
func (a F4) Map(f func(float64) float64) F4 {
	return F4{f(a[0]), f(a[1]), f(a[2]), f(a[3])}
}

// Mask4 holds one boolean per lane.
type Mask4 [Width]bool

func (a F4) Less(b F4) Mask4 {
	return Mask4{a[0] < b[0], a[1] < b[1], a[2] < b[2], a[3] < b[3]}
}

func (a F4) GreaterEq(b F4) Mask4 {
	return Mask4{a[0] >= b[0], a[1] >= b[1], a[2] >= b[2], a[3] >= b[3]}
}

func (a F4) LessEq(b F4) Mask4 {
	return Mask4{a[0] <= b[0], a[1] <= b[1], a[2] <= b[2], a[3] <= b[3]}
}

func (m Mask4) Or(o Mask4) Mask4 {
	return Mask4{m[0] || o[0], m[1] || o[1], m[2] || o[2], m[3] || o[3]}
}

func (m Mask4) And(o Mask4) Mask4 {
	return Mask4{m[0] && o[0], m[1] && o[1], m[2] && o[2], m[3] && o[3]}
}

func (m Mask4) Not() Mask4 {
	return Mask4{!m[0], !m[1], !m[2], !m[3]}
}

// Any reports whether any lane is set.
func (m Mask4) Any() bool {
	return m[0] || m[1] || m[2] || m[3]
}

// Select picks a where the mask is set and b elsewhere.
func Select(m Mask4, a, b F4) F4 {
	var r F4
	for i := range r {
		if m[i] {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

// V4 is four 3-vectors in structure-of-arrays form.
type V4 struct {
	X, Y, Z F4
}

// SplatV replicates v into every lane.
func SplatV(v mgl64.Vec3) V4 {
	return V4{Splat(v[0]), Splat(v[1]), Splat(v[2])}
}

// LoadV4 gathers four consecutive vectors starting at base.
func LoadV4(col []mgl64.Vec3, base int) V4 {
	var r V4
	for i := 0; i < Width; i++ {
		v := col[base+i]
		r.X[i], r.Y[i], r.Z[i] = v[0], v[1], v[2]
	}
	return r
}

// Store scatters the four vectors back to col starting at base.
func (a V4) Store(col []mgl64.Vec3, base int) {
	for i := 0; i < Width; i++ {
		col[base+i] = mgl64.Vec3{a.X[i], a.Y[i], a.Z[i]}
	}
}

func (a V4) Add(b V4) V4 { return V4{a.X.Add(b.X), a.Y.Add(b.Y), a.Z.Add(b.Z)} }
func (a V4) Sub(b V4) V4 { return V4{a.X.Sub(b.X), a.Y.Sub(b.Y), a.Z.Sub(b.Z)} }

// Mul scales each vector by its lane's scalar.
func (a V4) Mul(s F4) V4 { return V4{a.X.Mul(s), a.Y.Mul(s), a.Z.Mul(s)} }

// Scale scales every vector by s.
func (a V4) Scale(s float64) V4 { return V4{a.X.Scale(s), a.Y.Scale(s), a.Z.Scale(s)} }

// Dot is the per-lane dot product.
func (a V4) Dot(b V4) F4 {
	return a.X.Mul(b.X).Add(a.Y.Mul(b.Y)).Add(a.Z.Mul(b.Z))
}

// LenSqr is the per-lane squared length.
func (a V4) LenSqr() F4 {
	return a.Dot(a)
}

// Len is the per-lane length.
func (a V4) Len() F4 {
	return a.LenSqr().Sqrt()
}

// SelectV picks a where the mask is set and b elsewhere.
func SelectV(m Mask4, a, b V4) V4 {
	return V4{Select(m, a.X, b.X), Select(m, a.Y, b.Y), Select(m, a.Z, b.Z)}
}
