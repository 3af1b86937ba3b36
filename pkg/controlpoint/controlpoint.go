// Package controlpoint provides the time-sampled reference frames particle
// operators read: control point positions and orientations, their parent
// relationships, and hit-box snapshots of animated models attached to them.
//
// Control points are owned by the surrounding engine. The particle core only
// reads them; the engine writes them through the Provider setters.
package controlpoint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxControlPoints is the number of control point slots per collection.
const MaxControlPoints = 64

// NoParent marks a control point positioned in world space.
const NoParent = -1

// Provider supplies control point frames at arbitrary simulation times.
type Provider interface {
	GetControlPointAtTime(id int, t float64) mgl64.Vec3
	GetControlPointTransformAtTime(id int, t float64) mgl64.Mat4
	SetControlPoint(id int, pos mgl64.Vec3)
	SetControlPointOrientation(id int, forward, right, up mgl64.Vec3)
	SetControlPointParent(id, parent int)
}

// Frame is one sampled control point: position plus a forward/right/up basis.
type Frame struct {
	Position mgl64.Vec3
	Forward  mgl64.Vec3
	Right    mgl64.Vec3
	Up       mgl64.Vec3
}

// IdentityFrame is a frame at the origin facing +X with +Z up.
func IdentityFrame() Frame {
	return Frame{
		Forward: mgl64.Vec3{1, 0, 0},
		Right:   mgl64.Vec3{0, -1, 0},
		Up:      mgl64.Vec3{0, 0, 1},
	}
}

// Transform builds the 4x4 matrix whose columns are forward, left, up and
// origin, so local +X maps onto Forward and local +Y onto -Right.
func (f Frame) Transform() mgl64.Mat4 {
	left := f.Right.Mul(-1)
	return mgl64.Mat4FromCols(
		f.Forward.Vec4(0),
		left.Vec4(0),
		f.Up.Vec4(0),
		f.Position.Vec4(1),
	)
}

// FrameFromTransform is the inverse of Frame.Transform.
func FrameFromTransform(m mgl64.Mat4) Frame {
	return Frame{
		Position: m.Col(3).Vec3(),
		Forward:  m.Col(0).Vec3(),
		Right:    m.Col(1).Vec3().Mul(-1),
		Up:       m.Col(2).Vec3(),
	}
}

// DeltaTransform returns the transform that carries points attached to prev
// onto the same local coordinates in cur: cur * inverse(prev).
// A singular prev yields the identity.
func DeltaTransform(prev, cur mgl64.Mat4) mgl64.Mat4 {
	if math.Abs(prev.Det()) < 1e-12 {
		return mgl64.Ident4()
	}
	return cur.Mul4(prev.Inv())
}

// SafeNormalize normalizes v, returning the zero vector and false when v is
// too short to have a direction.
func SafeNormalize(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l < 1e-9 {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}
