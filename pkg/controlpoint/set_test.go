package controlpoint

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func vecNear(a, b mgl64.Vec3, eps float64) bool {
	return a.Sub(b).Len() <= eps
}

func TestSetInterpolatesPosition(t *testing.T) {
	s := NewSet()
	s.SetControlPoint(0, mgl64.Vec3{0, 0, 0})
	s.Latch()
	s.SetControlPoint(0, mgl64.Vec3{10, 0, 0})
	s.SetTime(1.0, 2.0)

	tests := []struct {
		name string
		t    float64
		want mgl64.Vec3
	}{
		{"previous", 1.0, mgl64.Vec3{0, 0, 0}},
		{"middle", 1.5, mgl64.Vec3{5, 0, 0}},
		{"current", 2.0, mgl64.Vec3{10, 0, 0}},
		{"clamped before", 0.0, mgl64.Vec3{0, 0, 0}},
		{"clamped after", 9.0, mgl64.Vec3{10, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.GetControlPointAtTime(0, tt.t)
			if !vecNear(got, tt.want, 1e-9) {
				t.Errorf("GetControlPointAtTime(0, %v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestSetParentRelative(t *testing.T) {
	s := NewSet()
	s.SetTime(0, 1)
	// parent rotated 90 degrees about Z: forward=+Y, right=+X
	s.SetFrame(1, Frame{
		Position: mgl64.Vec3{5, 0, 0},
		Forward:  mgl64.Vec3{0, 1, 0},
		Right:    mgl64.Vec3{1, 0, 0},
		Up:       mgl64.Vec3{0, 0, 1},
	})
	s.SetControlPoint(2, mgl64.Vec3{1, 0, 0}) // one unit along parent forward
	s.SetControlPointParent(2, 1)
	s.Latch()

	got := s.Position(2)
	want := mgl64.Vec3{5, 1, 0}
	if !vecNear(got, want, 1e-9) {
		t.Errorf("parented position = %v, want %v", got, want)
	}

	// self parenting clears the relationship
	s.SetControlPointParent(2, 2)
	if s.Parent(2) != NoParent {
		t.Errorf("self parent not cleared: %d", s.Parent(2))
	}
}

func TestSetParentCycleTerminates(t *testing.T) {
	s := NewSet()
	s.SetControlPointParent(3, 4)
	s.SetControlPointParent(4, 3)
	p := s.Position(3)
	if math.IsNaN(p[0]) {
		t.Errorf("cyclic parents produced NaN")
	}
}

func TestDeltaTransform(t *testing.T) {
	prev := IdentityFrame()
	prev.Position = mgl64.Vec3{1, 2, 3}
	cur := IdentityFrame()
	cur.Position = mgl64.Vec3{2, 2, 3}

	d := DeltaTransform(prev.Transform(), cur.Transform())
	p := mgl64.TransformCoordinate(mgl64.Vec3{0, 0, 0}, d)
	if !vecNear(p, mgl64.Vec3{1, 0, 0}, 1e-9) {
		t.Errorf("delta moved origin to %v, want (1,0,0)", p)
	}

	same := DeltaTransform(prev.Transform(), prev.Transform())
	if !same.ApproxEqualThreshold(mgl64.Ident4(), 1e-9) {
		t.Errorf("delta of identical transforms is not identity: %v", same)
	}

	var singular mgl64.Mat4
	if DeltaTransform(singular, cur.Transform()) != mgl64.Ident4() {
		t.Errorf("singular previous transform should give identity")
	}
}

func TestInvalidIDsAreIgnored(t *testing.T) {
	s := NewSet()
	s.SetControlPoint(-1, mgl64.Vec3{1, 1, 1})
	s.SetControlPoint(MaxControlPoints, mgl64.Vec3{1, 1, 1})
	if s.UsedMask() != 0 {
		t.Errorf("invalid ids marked used: %b", s.UsedMask())
	}
	if got := s.GetControlPointAtTime(99, 0); got != (mgl64.Vec3{}) {
		t.Errorf("invalid id position = %v", got)
	}
}

func TestMemoryHitBoxes(t *testing.T) {
	hb := NewMemoryHitBoxes()
	if hb.HitBoxes(0).Ready() {
		t.Fatal("unknown control point reported ready")
	}

	box := HitBox{Transform: mgl64.Translate3D(10, 0, 0), Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}
	hb.Pose(0, []HitBox{box})
	hb.UpdateHitBoxInfo(0)
	if hb.HitBoxes(0).Ready() {
		t.Fatal("snapshot ready with only one pose")
	}

	box.Transform = mgl64.Translate3D(12, 0, 0)
	hb.Pose(0, []HitBox{box})
	hb.UpdateHitBoxInfo(0)
	snap := hb.HitBoxes(0)
	if !snap.Ready() {
		t.Fatal("snapshot not ready after two poses")
	}

	center := mgl64.Vec3{0.5, 0.5, 0.5}
	if !vecNear(snap.Current[0].PointAt(center), mgl64.Vec3{12, 0, 0}, 1e-9) {
		t.Errorf("current center = %v", snap.Current[0].PointAt(center))
	}
	if !vecNear(snap.Previous[0].PointAt(center), mgl64.Vec3{10, 0, 0}, 1e-9) {
		t.Errorf("previous center = %v", snap.Previous[0].PointAt(center))
	}
	if !snap.Current[0].Contains(mgl64.Vec3{12.5, 0, 0}) || snap.Current[0].Contains(mgl64.Vec3{10, 0, 0}) {
		t.Errorf("Contains wrong for current box")
	}

	hb.UpdateHitBoxInfo(0)
	snap = hb.HitBoxes(0)
	if !vecNear(snap.Previous[0].PointAt(center), snap.Current[0].PointAt(center), 1e-12) {
		t.Errorf("update without a pose should leave the model static")
	}
}
