// Package attribute provides the structure-of-arrays particle storage shared by
// every operator of a collection.
//
// Each attribute Kind is one column. Columns are allocated once, to the padded
// capacity of the collection, and handed out as typed slice views whose length
// is the padded active count. Operators declare the attributes they read and
// write as a Mask; with access validation enabled the Store checks every
// column request against the masks of the unit currently running.
package attribute

import (
	"strings"
)

// Kind identifies one per-particle attribute column.
type Kind int

const (
	XYZ Kind = iota
	PrevXYZ
	Tint
	Alpha
	Radius
	Rotation
	RotationSpeed
	CreationTime
	LifeDuration
	ParticleID
	HitboxIndex
	HitboxRelXYZ
	Count
)

// Type is the element type of an attribute column.
type Type int

const (
	TypeFloat Type = iota
	TypeVec
	TypeInt
)

var kindInfo = [Count]struct {
	name string
	typ  Type
}{
	XYZ:           {"position", TypeVec},
	PrevXYZ:       {"previous_position", TypeVec},
	Tint:          {"tint", TypeVec},
	Alpha:         {"alpha", TypeFloat},
	Radius:        {"radius", TypeFloat},
	Rotation:      {"rotation", TypeFloat},
	RotationSpeed: {"rotation_speed", TypeFloat},
	CreationTime:  {"creation_time", TypeFloat},
	LifeDuration:  {"life_duration", TypeFloat},
	ParticleID:    {"particle_id", TypeInt},
	HitboxIndex:   {"hitbox_index", TypeInt},
	HitboxRelXYZ:  {"hitbox_relative_xyz", TypeVec},
}

func (k Kind) String() string {
	if k < 0 || k >= Count {
		return "unknown"
	}
	return kindInfo[k].name
}

// Type returns the column element type of k.
func (k Kind) Type() Type {
	if k < 0 || k >= Count {
		return TypeFloat
	}
	return kindInfo[k].typ
}

// Valid reports whether k names a real attribute.
func (k Kind) Valid() bool {
	return k >= 0 && k < Count
}

// ParseKind looks an attribute up by its configuration name.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k := Kind(0); k < Count; k++ {
		if kindInfo[k].name == name {
			return k, true
		}
	}
	return 0, false
}

// Mask is a set of attribute kinds.
type Mask uint32

// MaskOf builds a mask from kinds.
func MaskOf(kinds ...Kind) Mask {
	var m Mask
	for _, k := range kinds {
		if k.Valid() {
			m |= 1 << uint(k)
		}
	}
	return m
}

// Has reports whether k is in the mask.
func (m Mask) Has(k Kind) bool {
	return k.Valid() && m&(1<<uint(k)) != 0
}

// Kinds lists the kinds in the mask in column order.
func (m Mask) Kinds() []Kind {
	var out []Kind
	for k := Kind(0); k < Count; k++ {
		if m.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (m Mask) String() string {
	if m == 0 {
		return "none"
	}
	kinds := m.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, "|")
}
