package attribute

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Snapshot is a copy of the active range of every column, indexed by Kind.
// Initial columns are included for kinds in InitialMask.
type Snapshot struct {
	Active        int
	InitialMask   Mask
	Vecs          [][]mgl64.Vec3
	Floats        [][]float64
	Ints          [][]int32
	InitialVecs   [][]mgl64.Vec3
	InitialFloats [][]float64
	InitialInts   [][]int32
}

// Snapshot copies the live particles out of the store.
func (s *Store) Snapshot() Snapshot {
	n := s.active
	snap := Snapshot{
		Active:        n,
		InitialMask:   s.initialMask,
		Vecs:          make([][]mgl64.Vec3, Count),
		Floats:        make([][]float64, Count),
		Ints:          make([][]int32, Count),
		InitialVecs:   make([][]mgl64.Vec3, Count),
		InitialFloats: make([][]float64, Count),
		InitialInts:   make([][]int32, Count),
	}
	for k := Kind(0); k < Count; k++ {
		switch k.Type() {
		case TypeVec:
			snap.Vecs[k] = append([]mgl64.Vec3(nil), s.vecs[k][:n]...)
			if col := s.initialVecs[k]; col != nil {
				snap.InitialVecs[k] = append([]mgl64.Vec3(nil), col[:n]...)
			}
		case TypeInt:
			snap.Ints[k] = append([]int32(nil), s.ints[k][:n]...)
			if col := s.initialInts[k]; col != nil {
				snap.InitialInts[k] = append([]int32(nil), col[:n]...)
			}
		default:
			snap.Floats[k] = append([]float64(nil), s.floats[k][:n]...)
			if col := s.initialFloats[k]; col != nil {
				snap.InitialFloats[k] = append([]float64(nil), col[:n]...)
			}
		}
	}
	return snap
}

// Restore replaces the store contents with snap. Particles beyond
// MaxParticles are dropped. Initial columns missing from the snapshot are
// filled from the live values.
func (s *Store) Restore(snap Snapshot) error {
	n := snap.Active
	if n < 0 {
		return fmt.Errorf("negative particle count %d", n)
	}
	if n > s.maxParticles {
		n = s.maxParticles
	}
	if len(snap.Vecs) != int(Count) || len(snap.Floats) != int(Count) || len(snap.Ints) != int(Count) {
		return fmt.Errorf("snapshot has %d/%d/%d columns, want %d", len(snap.Vecs), len(snap.Floats), len(snap.Ints), Count)
	}
	for k := Kind(0); k < Count; k++ {
		var got int
		switch k.Type() {
		case TypeVec:
			got = len(snap.Vecs[k])
		case TypeInt:
			got = len(snap.Ints[k])
		default:
			got = len(snap.Floats[k])
		}
		if got < n {
			return fmt.Errorf("snapshot column %s has %d values, want %d", k, got, n)
		}
	}

	s.active = n
	s.resetSlots(0, s.Padded())
	for k := Kind(0); k < Count; k++ {
		switch k.Type() {
		case TypeVec:
			copy(s.vecs[k][:n], snap.Vecs[k])
		case TypeInt:
			copy(s.ints[k][:n], snap.Ints[k])
		default:
			copy(s.floats[k][:n], snap.Floats[k])
		}
	}
	for _, k := range s.initialMask.Kinds() {
		switch k.Type() {
		case TypeVec:
			src := s.vecs[k]
			if len(snap.InitialVecs) > int(k) && len(snap.InitialVecs[k]) >= n {
				src = snap.InitialVecs[k]
			}
			copy(s.initialVecs[k][:n], src[:n])
		case TypeInt:
			src := s.ints[k]
			if len(snap.InitialInts) > int(k) && len(snap.InitialInts[k]) >= n {
				src = snap.InitialInts[k]
			}
			copy(s.initialInts[k][:n], src[:n])
		default:
			src := s.floats[k]
			if len(snap.InitialFloats) > int(k) && len(snap.InitialFloats[k]) >= n {
				src = snap.InitialFloats[k]
			}
			copy(s.initialFloats[k][:n], src[:n])
		}
	}
	return nil
}
