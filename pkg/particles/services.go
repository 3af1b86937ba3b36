package particles

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/controlpoint"
)

// TraceResult is the outcome of a line trace.
type TraceResult struct {
	Hit bool
	// Fraction of the segment travelled before the hit (1 when nothing was hit).
	Fraction float64
	EndPos   mgl64.Vec3
	Normal   mgl64.Vec3
}

// QueryService answers world queries on behalf of operators.
type QueryService interface {
	TraceLine(start, end mgl64.Vec3, mask uint32, collisionGroup int) TraceResult
	IsPointInsideControllingObjectHitBox(c *Collection, cp int, p mgl64.Vec3, boundingBoxOnly bool) bool
	GetAmbientLightingAtPoint(p mgl64.Vec3) mgl64.Vec3
}

// Services is the context every collection of an effect shares. Zero-valued
// fields fall back to safe defaults: traces never hit, points are inside no
// model, ambient light is black and hit-box snapshots are never ready.
type Services struct {
	Query    QueryService
	HitBoxes controlpoint.HitBoxService

	// DetailScale scales cull percentages (1 = full detail).
	DetailScale float64
	// Seed feeds each collection's random stream.
	Seed uint64
	// ValidateAccess turns on the attribute access-mask validator.
	ValidateAccess bool
}

func (s Services) withDefaults() Services {
	if s.Query == nil {
		s.Query = NullQuery{}
	}
	if s.HitBoxes == nil {
		s.HitBoxes = nullHitBoxes{}
	}
	if s.DetailScale <= 0 {
		s.DetailScale = 1
	}
	return s
}

// NullQuery answers every query with the empty result, except that
// IsPointInsideControllingObjectHitBox consults the collection's hit-boxes.
type NullQuery struct{}

// TraceLine never hits.
func (NullQuery) TraceLine(start, end mgl64.Vec3, mask uint32, collisionGroup int) TraceResult {
	return TraceResult{Fraction: 1, EndPos: end}
}

// IsPointInsideControllingObjectHitBox tests p against the current hit-boxes
// of cp. With boundingBoxOnly the union bounds of all boxes are used.
func (NullQuery) IsPointInsideControllingObjectHitBox(c *Collection, cp int, p mgl64.Vec3, boundingBoxOnly bool) bool {
	return InsideHitBoxes(c.HitBoxes(cp).Current, p, boundingBoxOnly)
}

// GetAmbientLightingAtPoint is black.
func (NullQuery) GetAmbientLightingAtPoint(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{}
}

// InsideHitBoxes reports whether p lies in any of boxes, or in their
// world-space bounding box when boundingBoxOnly is set.
func InsideHitBoxes(boxes []controlpoint.HitBox, p mgl64.Vec3, boundingBoxOnly bool) bool {
	if len(boxes) == 0 {
		return false
	}
	if !boundingBoxOnly {
		for _, b := range boxes {
			if b.Contains(p) {
				return true
			}
		}
		return false
	}

	lo := boxes[0].PointAt(mgl64.Vec3{})
	hi := lo
	for _, b := range boxes {
		for corner := 0; corner < 8; corner++ {
			rel := mgl64.Vec3{float64(corner & 1), float64(corner >> 1 & 1), float64(corner >> 2 & 1)}
			w := b.PointAt(rel)
			for i := 0; i < 3; i++ {
				lo[i] = min(lo[i], w[i])
				hi[i] = max(hi[i], w[i])
			}
		}
	}
	for i := 0; i < 3; i++ {
		if p[i] < lo[i] || p[i] > hi[i] {
			return false
		}
	}
	return true
}

// GroundPlaneQuery traces against the horizontal plane z = Height and
// returns a constant ambient color. Used by the headless simulator.
type GroundPlaneQuery struct {
	NullQuery
	Height  float64
	Ambient mgl64.Vec3
}

// TraceLine intersects the segment with the plane when it crosses it downwards.
func (g GroundPlaneQuery) TraceLine(start, end mgl64.Vec3, mask uint32, collisionGroup int) TraceResult {
	ds := start[2] - g.Height
	de := end[2] - g.Height
	if ds < 0 || de >= 0 || ds == de {
		return TraceResult{Fraction: 1, EndPos: end}
	}
	f := ds / (ds - de)
	return TraceResult{
		Hit:      true,
		Fraction: f,
		EndPos:   start.Add(end.Sub(start).Mul(f)),
		Normal:   mgl64.Vec3{0, 0, 1},
	}
}

// GetAmbientLightingAtPoint returns the configured ambient color.
func (g GroundPlaneQuery) GetAmbientLightingAtPoint(p mgl64.Vec3) mgl64.Vec3 {
	return g.Ambient
}

type nullHitBoxes struct{}

func (nullHitBoxes) UpdateHitBoxInfo(cp int) {}

func (nullHitBoxes) HitBoxes(cp int) controlpoint.HitBoxSnapshot {
	return controlpoint.HitBoxSnapshot{}
}
