package controlpoint

import (
	"github.com/go-gl/mathgl/mgl64"
)

type slot struct {
	cur    Frame
	prev   Frame
	parent int
}

// Set is the fixed array of control points owned by one collection.
//
// Each slot keeps the frame for the current simulation time and the frame
// latched at the previous step; queries in between are interpolated
// (linear for position, slerp for orientation). Slots with a parent store
// their frame in the parent's local space.
type Set struct {
	slots    [MaxControlPoints]slot
	curTime  float64
	prevTime float64
	used     uint64
}

// NewSet creates a set with every slot at the identity frame and no parent.
func NewSet() *Set {
	s := &Set{}
	for i := range s.slots {
		s.slots[i] = slot{cur: IdentityFrame(), prev: IdentityFrame(), parent: NoParent}
	}
	return s
}

func valid(id int) bool {
	return id >= 0 && id < MaxControlPoints
}

// SetTime records the time span the current and previous samples cover.
func (s *Set) SetTime(prevTime, curTime float64) {
	s.prevTime = prevTime
	s.curTime = curTime
}

// Latch copies every current frame into the previous slot. The owner calls
// it once per step, after all operators have read the step's deltas.
func (s *Set) Latch() {
	for i := range s.slots {
		s.slots[i].prev = s.slots[i].cur
	}
}

// UsedMask has one bit per control point that was ever set.
func (s *Set) UsedMask() uint64 {
	return s.used
}

// SetControlPoint moves the control point; its previous sample is unchanged
// until the next Latch.
func (s *Set) SetControlPoint(id int, pos mgl64.Vec3) {
	if !valid(id) {
		return
	}
	s.slots[id].cur.Position = pos
	s.used |= 1 << uint(id)
}

// SetControlPointOrientation replaces the basis vectors of the control point.
func (s *Set) SetControlPointOrientation(id int, forward, right, up mgl64.Vec3) {
	if !valid(id) {
		return
	}
	c := &s.slots[id].cur
	c.Forward, c.Right, c.Up = forward, right, up
	s.used |= 1 << uint(id)
}

// SetFrame replaces both position and orientation.
func (s *Set) SetFrame(id int, f Frame) {
	if !valid(id) {
		return
	}
	s.slots[id].cur = f
	s.used |= 1 << uint(id)
}

// ResetHistory makes the previous sample equal the current one, so the next
// step sees no movement. Used after teleports and restores.
func (s *Set) ResetHistory(id int) {
	if !valid(id) {
		return
	}
	s.slots[id].prev = s.slots[id].cur
}

// SetControlPointParent makes id relative to parent. Self-parenting and
// out-of-range parents clear the relationship.
func (s *Set) SetControlPointParent(id, parent int) {
	if !valid(id) {
		return
	}
	if !valid(parent) || parent == id {
		parent = NoParent
	}
	s.slots[id].parent = parent
}

// Parent returns the parent index of id, or NoParent.
func (s *Set) Parent(id int) int {
	if !valid(id) {
		return NoParent
	}
	return s.slots[id].parent
}

// LocalFrame returns the stored current frame of id (parent space if parented).
func (s *Set) LocalFrame(id int) Frame {
	if !valid(id) {
		return IdentityFrame()
	}
	return s.slots[id].cur
}

// Position is the world position at the current time.
func (s *Set) Position(id int) mgl64.Vec3 {
	return s.GetControlPointAtTime(id, s.curTime)
}

// PrevPosition is the world position at the previous step.
func (s *Set) PrevPosition(id int) mgl64.Vec3 {
	return s.GetControlPointAtTime(id, s.prevTime)
}

// Frame is the world frame at the current time.
func (s *Set) Frame(id int) Frame {
	return FrameFromTransform(s.GetControlPointTransformAtTime(id, s.curTime))
}

// GetControlPointAtTime returns the world position of id at time t.
func (s *Set) GetControlPointAtTime(id int, t float64) mgl64.Vec3 {
	return s.GetControlPointTransformAtTime(id, t).Col(3).Vec3()
}

// GetControlPointTransformAtTime returns the world transform of id at time t.
// Times outside [previous, current] clamp to the nearest sample.
func (s *Set) GetControlPointTransformAtTime(id int, t float64) mgl64.Mat4 {
	return s.transformAt(id, s.lerpFactor(t), 0)
}

func (s *Set) lerpFactor(t float64) float64 {
	span := s.curTime - s.prevTime
	if span <= 0 {
		return 1
	}
	f := (t - s.prevTime) / span
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func (s *Set) transformAt(id int, f float64, depth int) mgl64.Mat4 {
	if !valid(id) {
		return mgl64.Ident4()
	}
	sl := &s.slots[id]
	local := interpolateFrame(sl.prev, sl.cur, f)
	// 父子链深度限制，防止循环引用
	if sl.parent == NoParent || depth >= MaxControlPoints {
		return local
	}
	return s.transformAt(sl.parent, f, depth+1).Mul4(local)
}

func interpolateFrame(prev, cur Frame, f float64) mgl64.Mat4 {
	if f >= 1 {
		return cur.Transform()
	}
	if f <= 0 {
		return prev.Transform()
	}
	a := prev.Transform()
	b := cur.Transform()
	qa := mgl64.Mat4ToQuat(a)
	qb := mgl64.Mat4ToQuat(b)
	rot := mgl64.QuatSlerp(qa, qb, f).Normalize().Mat4()
	pos := prev.Position.Add(cur.Position.Sub(prev.Position).Mul(f))
	rot.SetCol(3, pos.Vec4(1))
	return rot
}

// SlotState is the persisted form of one control point slot.
type SlotState struct {
	Cur    Frame
	Prev   Frame
	Parent int
}

// SetState is the persisted form of a Set.
type SetState struct {
	Slots    []SlotState
	Used     uint64
	CurTime  float64
	PrevTime float64
}

// State copies the set for persistence.
func (s *Set) State() SetState {
	st := SetState{
		Slots:    make([]SlotState, MaxControlPoints),
		Used:     s.used,
		CurTime:  s.curTime,
		PrevTime: s.prevTime,
	}
	for i, sl := range s.slots {
		st.Slots[i] = SlotState{Cur: sl.cur, Prev: sl.prev, Parent: sl.parent}
	}
	return st
}

// Restore loads a persisted state. Missing slots keep their current value.
func (s *Set) Restore(st SetState) {
	for i := 0; i < len(st.Slots) && i < MaxControlPoints; i++ {
		sl := st.Slots[i]
		parent := sl.Parent
		if !valid(parent) || parent == i {
			parent = NoParent
		}
		s.slots[i] = slot{cur: sl.Cur, prev: sl.Prev, parent: parent}
	}
	s.used = st.Used
	s.curTime = st.CurTime
	s.prevTime = st.PrevTime
}
