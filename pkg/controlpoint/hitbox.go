package controlpoint

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// HitBox is one oriented box of an animated model: a local-space extent and
// the transform placing it in the world.
type HitBox struct {
	Transform mgl64.Mat4
	Min       mgl64.Vec3
	Max       mgl64.Vec3
}

// PointAt maps relative box coordinates (0..1 per axis) to a world position.
func (h HitBox) PointAt(rel mgl64.Vec3) mgl64.Vec3 {
	size := h.Max.Sub(h.Min)
	local := mgl64.Vec3{
		h.Min[0] + size[0]*rel[0],
		h.Min[1] + size[1]*rel[1],
		h.Min[2] + size[2]*rel[2],
	}
	return mgl64.TransformCoordinate(local, h.Transform)
}

// Contains reports whether the world point lies inside the box.
func (h HitBox) Contains(p mgl64.Vec3) bool {
	if h.Transform.Det() == 0 {
		return false
	}
	local := mgl64.TransformCoordinate(p, h.Transform.Inv())
	for i := 0; i < 3; i++ {
		if local[i] < h.Min[i] || local[i] > h.Max[i] {
			return false
		}
	}
	return true
}

// HitBoxSnapshot pairs the hit-boxes of the current and previous update.
// Lock-to-bone style operators need both halves valid before they apply a delta.
type HitBoxSnapshot struct {
	Current       []HitBox
	Previous      []HitBox
	CurrentValid  bool
	PreviousValid bool
}

// Ready reports whether both halves can be used.
func (s HitBoxSnapshot) Ready() bool {
	return s.CurrentValid && s.PreviousValid && len(s.Current) == len(s.Previous)
}

// HitBoxService refreshes and exposes hit-box snapshots per control point.
type HitBoxService interface {
	UpdateHitBoxInfo(cp int)
	HitBoxes(cp int) HitBoxSnapshot
}

// MemoryHitBoxes is an in-memory HitBoxService the engine feeds with model
// poses. Each UpdateHitBoxInfo shifts the current boxes into Previous.
type MemoryHitBoxes struct {
	mu        sync.RWMutex
	snapshots map[int]*HitBoxSnapshot
	pending   map[int][]HitBox
}

// NewMemoryHitBoxes creates an empty service.
func NewMemoryHitBoxes() *MemoryHitBoxes {
	return &MemoryHitBoxes{
		snapshots: make(map[int]*HitBoxSnapshot),
		pending:   make(map[int][]HitBox),
	}
}

// Pose queues the boxes of the model attached to cp; they become current at
// the next UpdateHitBoxInfo.
func (m *MemoryHitBoxes) Pose(cp int, boxes []HitBox) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[cp] = append([]HitBox(nil), boxes...)
}

// UpdateHitBoxInfo rolls the snapshot of cp forward. Without a queued pose
// the model is treated as static and Previous becomes Current.
func (m *MemoryHitBoxes) UpdateHitBoxInfo(cp int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshots[cp]
	boxes, ok := m.pending[cp]
	if !ok {
		// 没有新姿态：模型静止，前后两帧相同
		if snap != nil && snap.CurrentValid {
			snap.Previous = snap.Current
			snap.PreviousValid = true
		}
		return
	}
	delete(m.pending, cp)
	if snap == nil {
		snap = &HitBoxSnapshot{}
		m.snapshots[cp] = snap
	}
	snap.Previous = snap.Current
	snap.PreviousValid = snap.CurrentValid
	snap.Current = boxes
	snap.CurrentValid = true
}

// HitBoxes returns the snapshot of cp; unknown control points are invalid.
func (m *MemoryHitBoxes) HitBoxes(cp int) HitBoxSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if snap := m.snapshots[cp]; snap != nil {
		return *snap
	}
	return HitBoxSnapshot{}
}
