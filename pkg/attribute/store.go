package attribute

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/lane"
)

// Store holds every attribute column of one particle collection.
//
// Invariants:
//   - every column has length Capacity(), a multiple of lane.Width, and
//     Capacity() >= Padded() at all times
//   - slots in [Active(), Padded()) are padding: defined, finite, never emitted
//   - initial columns exist only for kinds in the initial mask and are written
//     once per particle by CaptureInitial
type Store struct {
	maxParticles int
	capacity     int
	active       int

	vecs   [Count][]mgl64.Vec3
	floats [Count][]float64
	ints   [Count][]int32

	initialMask   Mask
	initialVecs   [Count][]mgl64.Vec3
	initialFloats [Count][]float64
	initialInts   [Count][]int32

	// 调试模式下的访问校验
	validate   bool
	unit       string
	readMask   Mask
	writeMask  Mask
	initMask   Mask
	violations int
}

// NewStore allocates columns for up to maxParticles particles. initialMask
// selects which attributes get an immutable spawn-time shadow column.
func NewStore(maxParticles int, initialMask Mask) *Store {
	if maxParticles < 0 {
		maxParticles = 0
	}
	capacity := lane.PaddedCount(maxParticles)
	s := &Store{
		maxParticles: maxParticles,
		capacity:     capacity,
		initialMask:  initialMask,
	}
	for k := Kind(0); k < Count; k++ {
		switch k.Type() {
		case TypeVec:
			s.vecs[k] = make([]mgl64.Vec3, capacity)
			if initialMask.Has(k) {
				s.initialVecs[k] = make([]mgl64.Vec3, capacity)
			}
		case TypeInt:
			s.ints[k] = make([]int32, capacity)
			if initialMask.Has(k) {
				s.initialInts[k] = make([]int32, capacity)
			}
		default:
			s.floats[k] = make([]float64, capacity)
			if initialMask.Has(k) {
				s.initialFloats[k] = make([]float64, capacity)
			}
		}
	}
	return s
}

// Active returns the number of live particles.
func (s *Store) Active() int { return s.active }

// Padded returns Active rounded up to the lane width.
func (s *Store) Padded() int { return lane.PaddedCount(s.active) }

// MaxParticles returns the configured particle limit.
func (s *Store) MaxParticles() int { return s.maxParticles }

// Capacity returns the allocated column length.
func (s *Store) Capacity() int { return s.capacity }

// InitialMask returns the kinds that have initial shadow columns.
func (s *Store) InitialMask() Mask { return s.initialMask }

// Floats returns a read view of a scalar column, length Padded().
func (s *Store) Floats(k Kind) []float64 {
	s.checkRead(k)
	return s.floats[k][:s.Padded()]
}

// FloatsForWrite returns a writable view of a scalar column.
func (s *Store) FloatsForWrite(k Kind) []float64 {
	s.checkWrite(k)
	return s.floats[k][:s.Padded()]
}

// Vecs returns a read view of a vector column, length Padded().
func (s *Store) Vecs(k Kind) []mgl64.Vec3 {
	s.checkRead(k)
	return s.vecs[k][:s.Padded()]
}

// VecsForWrite returns a writable view of a vector column.
func (s *Store) VecsForWrite(k Kind) []mgl64.Vec3 {
	s.checkWrite(k)
	return s.vecs[k][:s.Padded()]
}

// Ints returns a read view of an integer column, length Padded().
func (s *Store) Ints(k Kind) []int32 {
	s.checkRead(k)
	return s.ints[k][:s.Padded()]
}

// IntsForWrite returns a writable view of an integer column.
func (s *Store) IntsForWrite(k Kind) []int32 {
	s.checkWrite(k)
	return s.ints[k][:s.Padded()]
}

// InitialFloats returns the spawn-time values of a scalar attribute.
// Kinds without a shadow column fall back to the live column.
func (s *Store) InitialFloats(k Kind) []float64 {
	s.checkInitial(k)
	if col := s.initialFloats[k]; col != nil {
		return col[:s.Padded()]
	}
	return s.floats[k][:s.Padded()]
}

// InitialVecs returns the spawn-time values of a vector attribute.
func (s *Store) InitialVecs(k Kind) []mgl64.Vec3 {
	s.checkInitial(k)
	if col := s.initialVecs[k]; col != nil {
		return col[:s.Padded()]
	}
	return s.vecs[k][:s.Padded()]
}

// InitialInts returns the spawn-time values of an integer attribute.
func (s *Store) InitialInts(k Kind) []int32 {
	s.checkInitial(k)
	if col := s.initialInts[k]; col != nil {
		return col[:s.Padded()]
	}
	return s.ints[k][:s.Padded()]
}

// Grow appends up to n particles and returns the first new index and the
// number actually added. Requests beyond MaxParticles are dropped.
// New slots, and any padding slots that become visible, are reset to defaults.
func (s *Store) Grow(n int) (start, added int) {
	start = s.active
	if n <= 0 {
		return start, 0
	}
	if free := s.maxParticles - s.active; n > free {
		n = free
	}
	if n <= 0 {
		return start, 0
	}
	s.active += n
	s.resetSlots(start, s.Padded())
	return start, n
}

// resetSlots writes attribute defaults into [from, to).
func (s *Store) resetSlots(from, to int) {
	for i := from; i < to; i++ {
		for k := Kind(0); k < Count; k++ {
			switch k.Type() {
			case TypeVec:
				s.vecs[k][i] = defaultVec(k)
			case TypeInt:
				s.ints[k][i] = defaultInt(k)
			default:
				s.floats[k][i] = defaultFloat(k)
			}
		}
	}
}

func defaultVec(k Kind) mgl64.Vec3 {
	if k == Tint {
		return mgl64.Vec3{1, 1, 1}
	}
	return mgl64.Vec3{}
}

func defaultFloat(k Kind) float64 {
	switch k {
	case Alpha, Radius, LifeDuration:
		return 1
	}
	return 0
}

func defaultInt(k Kind) int32 {
	if k == HitboxIndex {
		return -1
	}
	return 0
}

// Kill removes particle i by moving the last active particle into its slot.
// Any particle index held across a Kill is invalid afterwards.
func (s *Store) Kill(i int) {
	if i < 0 || i >= s.active {
		return
	}
	last := s.active - 1
	if i != last {
		for k := Kind(0); k < Count; k++ {
			switch k.Type() {
			case TypeVec:
				s.vecs[k][i] = s.vecs[k][last]
				if col := s.initialVecs[k]; col != nil {
					col[i] = col[last]
				}
			case TypeInt:
				s.ints[k][i] = s.ints[k][last]
				if col := s.initialInts[k]; col != nil {
					col[i] = col[last]
				}
			default:
				s.floats[k][i] = s.floats[k][last]
				if col := s.initialFloats[k]; col != nil {
					col[i] = col[last]
				}
			}
		}
	}
	s.active = last
}

// Truncate drops every particle.
func (s *Store) Truncate() {
	s.active = 0
}

// SwapPositions exchanges the roles of the current and previous position
// columns. It swaps slice headers, not elements.
func (s *Store) SwapPositions() {
	s.vecs[XYZ], s.vecs[PrevXYZ] = s.vecs[PrevXYZ], s.vecs[XYZ]
}

// CaptureInitial copies the current values of every initial-masked attribute
// into the shadow columns for particles [start, start+n).
func (s *Store) CaptureInitial(start, n int) {
	end := start + n
	if end > s.active {
		end = s.active
	}
	if start < 0 || start >= end {
		return
	}
	for _, k := range s.initialMask.Kinds() {
		switch k.Type() {
		case TypeVec:
			copy(s.initialVecs[k][start:end], s.vecs[k][start:end])
		case TypeInt:
			copy(s.initialInts[k][start:end], s.ints[k][start:end])
		default:
			copy(s.initialFloats[k][start:end], s.floats[k][start:end])
		}
	}
}

// EnableValidation turns the access-mask validator on or off.
func (s *Store) EnableValidation(on bool) {
	s.validate = on
}

// SetAccess records the masks of the unit about to run.
func (s *Store) SetAccess(unit string, reads, writes, readsInitial Mask) {
	s.unit = unit
	s.readMask = reads
	s.writeMask = writes
	s.initMask = readsInitial
}

// ClearAccess marks that no unit is running; every access is allowed.
func (s *Store) ClearAccess() {
	s.unit = ""
}

// Violations returns the number of undeclared accesses seen so far.
func (s *Store) Violations() int {
	return s.violations
}

func (s *Store) checkRead(k Kind) {
	if !s.validate || s.unit == "" {
		return
	}
	if !(s.readMask | s.writeMask).Has(k) {
		s.violations++
		log.Printf("[AttributeStore] %s read undeclared attribute %s", s.unit, k)
	}
}

func (s *Store) checkWrite(k Kind) {
	if !s.validate || s.unit == "" {
		return
	}
	if !s.writeMask.Has(k) {
		s.violations++
		log.Printf("[AttributeStore] %s wrote undeclared attribute %s", s.unit, k)
	}
}

func (s *Store) checkInitial(k Kind) {
	if !s.validate || s.unit == "" {
		return
	}
	if !s.initMask.Has(k) {
		s.violations++
		log.Printf("[AttributeStore] %s read undeclared initial attribute %s", s.unit, k)
	}
}

// Unvalidated runs fn with access checks suspended. The collection uses it
// for bookkeeping writes (ids, creation times) made outside any unit.
func (s *Store) Unvalidated(fn func()) {
	unit := s.unit
	s.unit = ""
	fn()
	s.unit = unit
}
