package particles

import (
	"fmt"
	"log"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/utils"
)

// Instance is one configured unit inside a Definition.
type Instance struct {
	Unit  Unit
	Class Class
	Info  Info

	// Slot indexes the collection's context arena.
	Slot int

	fadeIn, fadeOut       [2]float64
	hasFadeIn, hasFadeOut bool
}

// Strength returns the operator fade factor at collection time t:
// 0 -> 1 across the fade-in window, 1 -> 0 across the fade-out window.
func (in *Instance) Strength(t float64) float64 {
	s := 1.0
	if in.hasFadeIn {
		s *= utils.RemapValClamped(t, in.fadeIn[0], in.fadeIn[1], 0, 1)
	}
	if in.hasFadeOut {
		s *= utils.RemapValClamped(t, in.fadeOut[0], in.fadeOut[1], 1, 0)
	}
	return s
}

// Definition is a validated, instantiated effect description shared by every
// collection created from it. Units are stateless after construction; all
// mutable state lives in per-collection contexts.
type Definition struct {
	Name             string
	MaxParticles     int
	InitialParticles int

	Emitters     []*Instance
	Initializers []*Instance
	Operators    []*Instance
	Forces       []*Instance
	Constraints  []*Instance

	Children []*Definition

	// InitialMask is the union of every unit's ReadsInitial.
	InitialMask attribute.Mask
	// HitBoxControlPoints are refreshed before every step.
	HitBoxControlPoints uint64

	slots int
}

// Build instantiates every unit of cfg and its children.
func Build(reg *Registry, cfg *particle.EffectConfig) (*Definition, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return build(reg, cfg)
}

func build(reg *Registry, cfg *particle.EffectConfig) (*Definition, error) {
	d := &Definition{
		Name:             cfg.Name,
		MaxParticles:     cfg.MaxParticles,
		InitialParticles: cfg.InitialParticles,
	}
	if d.InitialParticles > d.MaxParticles {
		log.Printf("[Registry] %s: initialParticles %d exceeds maxParticles %d, clamping",
			d.Name, d.InitialParticles, d.MaxParticles)
		d.InitialParticles = d.MaxParticles
	}

	lists := []struct {
		class Class
		cfgs  []particle.UnitConfig
		dst   *[]*Instance
	}{
		{ClassEmitter, cfg.Emitters, &d.Emitters},
		{ClassInitializer, cfg.Initializers, &d.Initializers},
		{ClassOperator, cfg.Operators, &d.Operators},
		{ClassForce, cfg.Forces, &d.Forces},
		{ClassConstraint, cfg.Constraints, &d.Constraints},
	}
	for _, l := range lists {
		for i, uc := range l.cfgs {
			in, err := d.instantiate(reg, l.class, uc)
			if err != nil {
				return nil, fmt.Errorf("failed to build %s %s[%d]: %w", d.Name, l.class, i, err)
			}
			*l.dst = append(*l.dst, in)
		}
	}

	if (len(d.Forces) > 0 || len(d.Constraints) > 0) && !d.hasMovement() {
		log.Printf("[Registry] %s: forces/constraints configured without a movement operator; they will not run", d.Name)
	}

	for i := range cfg.Children {
		child, err := build(reg, &cfg.Children[i])
		if err != nil {
			return nil, err
		}
		d.Children = append(d.Children, child)
	}
	return d, nil
}

func (d *Definition) instantiate(reg *Registry, class Class, uc particle.UnitConfig) (*Instance, error) {
	u, err := reg.Create(class, uc.Type, uc.Params)
	if err != nil {
		return nil, err
	}
	info := u.Info()
	if info.Name == "" {
		info.Name = uc.Type
	}
	in := &Instance{Unit: u, Class: class, Info: info, Slot: d.slots}
	d.slots++

	if len(uc.OpFadeIn) == 2 {
		in.hasFadeIn = true
		in.fadeIn = orderedWindow(d.Name, uc.Type, "opFadeIn", uc.OpFadeIn)
	}
	if len(uc.OpFadeOut) == 2 {
		in.hasFadeOut = true
		in.fadeOut = orderedWindow(d.Name, uc.Type, "opFadeOut", uc.OpFadeOut)
	}

	d.InitialMask |= info.ReadsInitial
	if info.UsesHitBoxes {
		d.HitBoxControlPoints |= info.ControlPoints
	}
	return in, nil
}

func orderedWindow(effect, unit, field string, w []float64) [2]float64 {
	if w[0] > w[1] {
		log.Printf("[Registry] %s/%s: %s start %v after end %v, swapping", effect, unit, field, w[0], w[1])
		return [2]float64{w[1], w[0]}
	}
	return [2]float64{w[0], w[1]}
}

// Mover is implemented by the operator that integrates positions and drives
// forces and constraints.
type Mover interface {
	DrivesForces() bool
}

func (d *Definition) hasMovement() bool {
	for _, in := range d.Operators {
		if m, ok := in.Unit.(Mover); ok && m.DrivesForces() {
			return true
		}
	}
	return false
}

// Units lists every instance in context-slot order.
func (d *Definition) Units() []*Instance {
	all := make([]*Instance, 0, d.slots)
	all = append(all, d.Emitters...)
	all = append(all, d.Initializers...)
	all = append(all, d.Operators...)
	all = append(all, d.Forces...)
	all = append(all, d.Constraints...)
	return all
}
