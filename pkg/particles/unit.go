// Package particles implements the particle collection and the contracts of
// the units that run on it.
//
// A Collection owns one attribute store, one control point set and the
// per-unit scratch contexts of its Definition. Each call to Simulate runs
// the definition's units in a fixed order:
//
//	emitters -> initializers (new particles only) -> initial capture ->
//	operators (declared order, kills applied after each) -> child collections
//
// Force generators and constraints are not stepped by the collection
// itself; the movement operator invokes them through AccumulateForces and
// EnforceConstraints.
//
// Units never return errors at simulation time. Degenerate input is masked
// per particle and the step always completes.
package particles

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
)

// Info is the static declaration of a unit instance: which attributes it
// reads, writes and reads the spawn-time value of, and which control points
// it samples. The collection uses it to decide initial capture and to drive
// the access validator.
type Info struct {
	Name          string
	Reads         attribute.Mask
	Writes        attribute.Mask
	ReadsInitial  attribute.Mask
	ControlPoints uint64

	// UsesHitBoxes asks the collection to refresh the hit-box snapshot of
	// every control point in ControlPoints before each step.
	UsesHitBoxes bool
}

// CP returns the control point mask bit for id, or 0 when id is out of range.
func CP(ids ...int) uint64 {
	var m uint64
	for _, id := range ids {
		if id >= 0 && id < controlpoint.MaxControlPoints {
			m |= 1 << uint(id)
		}
	}
	return m
}

// ValidateInfo checks a declaration offline.
func ValidateInfo(info Info) error {
	all := info.Reads | info.Writes | info.ReadsInitial
	for bit := uint(attribute.Count); bit < 32; bit++ {
		if all&(1<<bit) != 0 {
			return fmt.Errorf("%s: unknown attribute bit %d", info.Name, bit)
		}
	}
	return nil
}

// Unit is implemented by every emitter, initializer, operator, force
// generator and constraint.
type Unit interface {
	Info() Info
}

// ContextUnit is implemented by units that keep state across steps. The
// collection calls NewContext once per instance and stores the result in
// its context arena; InitializeContextData runs on creation, restart and
// snapshot restore.
type ContextUnit interface {
	NewContext() any
	InitializeContextData(c *Collection, ctx any)
}

// Emitter creates particles through Collection.AddParticles.
type Emitter interface {
	Unit
	Operate(c *Collection, strength float64, ctx any)
	// MayCreateMoreParticles reports whether the emitter can still emit.
	// A collection with no live particles and no such emitter is finished.
	MayCreateMoreParticles(c *Collection, ctx any) bool
}

// Initializer sets the starting attributes of particles [start, start+n).
type Initializer interface {
	Unit
	InitNewParticles(c *Collection, start, n int, ctx any)
}

// Operator updates every live particle once per step. strength is in [0, 1];
// operators scale their effect by it.
type Operator interface {
	Unit
	Operate(c *Collection, strength float64, ctx any)
}

// ForceGenerator adds accelerations into accum, one entry per padded
// particle. It is called by the movement operator.
type ForceGenerator interface {
	Unit
	AddForces(c *Collection, accum []mgl64.Vec3, strength float64, ctx any)
}

// Constraint moves particles [start, end) back into a valid region and
// reports whether it changed anything. Final constraints run exactly once
// after the iterative passes.
type Constraint interface {
	Unit
	EnforceConstraint(c *Collection, start, end int, ctx any) bool
	IsFinal() bool
}
